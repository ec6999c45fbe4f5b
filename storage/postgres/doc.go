// Package postgres provides a PostgreSQL implementation of all storage
// interfaces, backed by a pgx connection pool. Single-use semantics for
// authorization codes use DELETE ... RETURNING, so concurrent redemptions
// resolve to exactly one winner inside the database.
package postgres
