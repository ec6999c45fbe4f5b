// Package server implements the OAuth 2.0 protocol core: request
// validation, the authorization grant state machine, token minting and
// validation, and client authentication. It is transport-agnostic; the
// root package provides the HTTP layer on top of it.
package server
