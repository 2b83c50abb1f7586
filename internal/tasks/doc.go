// Package tasks orchestrates one snapmix cycle with real-time progress reporting.
//
// # Core Operations
//
// [Pipeline] drives a [session.Session] through its phases:
//
//  1. [Pipeline.Authorize] / [Pipeline.UseToken] : exchange the callback code or adopt a saved token
//  2. [Pipeline.LoadProfile] : fetch the Spotify profile and the top five tracks used as seeds
//  3. [Pipeline.Analyze] : encode the photo, ask Gemini for parameters, parse the reply
//  4. [Pipeline.Recommend] : fetch recommendations for the seeds and parsed parameters
//
// [Pipeline.Run] performs 2-4 in order, loading the profile only when it is missing.
//
// Every step checks the session can enter its target state before making a network call.
// A failed step is logged, returned wrapped, and leaves the session where it was.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Run History
//
// The optional [Recorder] interface persists an [models.AnalysisRun] after each recommendation.
// Recorder errors are logged and never fail the cycle.
package tasks
