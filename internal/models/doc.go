// Package models defines domain entities and persistence interfaces for snapmix.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects: lightweight structs mapped from Spotify responses
//   - [Track] : recommended or top track with ordered artist names
//   - [Profile] : the authenticated Spotify user
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [AnalysisRun] : one photo → parameters → recommendations cycle
//
// Persistent entities implement [Model] (ID, timestamps, validation, soft delete).
// The [Repository] interface defines standard CRUD operations for database access.
package models
