// Package sqlite stores emails and categories in a single SQLite database
// using modernc.org/sqlite, a pure Go driver that needs no CGO.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files; only .up.sql files are applied, in version order.
//
// # Data Location
//
// By default, the database is stored at ~/.mailrag/mailrag.db.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The database runs in WAL
// mode and multi-statement changes run in transactions.
package sqlite
