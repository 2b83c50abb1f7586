// Package params turns free-text model output into validated Spotify recommendation filters.
//
// # Schema
//
// The recommendation endpoint accepts a closed vocabulary of tunable attributes, each in
// min_, max_ and target_ flavours, plus a genre list. [Lookup] reports whether a key is part
// of that vocabulary and which [Kind] of value it expects.
//
// # Parsing
//
// [Parse] reads "key: value" lines. Unknown keys, empty values, the "N/A" placeholder and
// values that fail their kind check are skipped without error; the result only ever holds
// keys from the schema. Numeric values keep their original text so they reach the wire
// exactly as the model wrote them.
//
// [Inspect] runs the same parse and also reports a [Diagnostic] for every skipped line.
// Callers log these; they are never surfaced as errors.
//
// Re-parsing a [Set] is not defined: the output is a mapping, not line text.
package params
