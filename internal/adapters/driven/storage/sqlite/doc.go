// Package sqlite provides the default on-disk vector index and history
// store, backed by a single SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Embeddings are stored as little-endian float32 blobs and
// queries are brute-force cosine scans over the rows that pass the metadata
// filter, which suits single-user note collections.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.notewise/data/notewise.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writes that must be atomic
// (Upsert, Replace, Append) run in a single transaction.
package sqlite
