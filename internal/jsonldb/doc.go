// Package jsonldb provides a records.Store persisted as JSONL files.
//
// # Overview
//
// Each table lives in "<name>.jsonl" under the store directory and is fully
// cached in memory. Reads are served from the cache. Every mutation
// rewrites the table file atomically before returning.
//
// # File Format
//
// Line 1 is a schema header describing the table's columns, derived from the
// table's prototype row with JSON Schema reflection. Subsequent lines hold one
// record each. A file without a header is accepted on load.
//
// The header also records the highest id ever assigned in the table, so the
// id of a deleted row is never handed out again, even after a restart.
//
// # External Edits
//
// [Store.Watch] reloads a table when its file is changed by another process,
// so hand edits and restores become visible without a restart.
//
// # History
//
// When opened with [Options.History], every mutation is committed to a git
// repository rooted at the store directory.
package jsonldb
