// Package sqlstore implements task.TaskStore on a relational database
// (PostgreSQL through pgx, or SQLite through modernc.org/sqlite). The schema
// is managed with goose migrations embedded in the binary.
package sqlstore
