// Package store holds the database access abstraction shared by the SQL
// backed components, so they can run against a connection pool or a
// transaction alike.
package store
