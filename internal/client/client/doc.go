// Package client contains the transport side of the notekeeper CLI.
//
// It provides a transport-agnostic contract (see the Client interface), a
// gRPC implementation (see GRPCClient) that injects the bearer token into
// outgoing metadata and maps status codes to sentinel errors, and bootstrap
// helpers for the local SQLite cache (InitDatabase, RunMigrations).
//
// Callers match failures with errors.Is against ErrUnavailable,
// ErrUnauthorized, ErrAlreadyExists and ErrInvalidInput.
package client
