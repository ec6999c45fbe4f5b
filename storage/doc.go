// Package storage provides interfaces and records for persisting the
// authorization server's state: users, clients, authorization codes,
// access and refresh tokens, and browser sessions.
//
// Implementations are provided in subpackages:
//   - storage/memory: in-memory storage for development and testing
//   - storage/postgres: PostgreSQL storage for production deployments
//
// All implementations must be safe for concurrent use and must treat
// expired records as absent.
package storage
