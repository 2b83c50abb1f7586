// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks one photo at a time through the recommendation cycle:
//  1. [PromptView] : Enter the path of a photo
//  2. [RunView] : Follow the pipeline while it analyzes the photo and asks Spotify for tracks
//  3. [ResultView] : Browse recommendations and the parameters they were built from
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Pipeline], so a slow analysis never blocks rendering.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, n, r, p, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
