// Package testdb provides database helpers for tests: throwaway SQLite
// files, transaction-scoped test bodies and the environment lookup that
// decides whether PostgreSQL integration tests run.
package testdb
