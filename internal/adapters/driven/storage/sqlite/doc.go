// Package sqlite provides a SQLite-based implementation of the format result store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files; applied
// versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.promptlens/data/formats.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite locking in WAL mode.
package sqlite
