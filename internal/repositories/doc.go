// Package repositories implements SQLite persistence for durable client-side state.
//
// [RecordRepository] stores opaque values under string keys in the records table created by
// the embedded migrations in the shared package. It backs the sqlite storage driver, so the
// session record can live in a database file instead of a JSON file in the storage directory.
package repositories
