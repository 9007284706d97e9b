// Package postgres connects the service to PostgreSQL-compatible query
// backends (PostgreSQL, Redshift) through the pgx database/sql driver. It
// provides the QueryExecutor used by query jobs and maps driver failures
// onto the backend error kinds recorded in task Failure records.
package postgres
