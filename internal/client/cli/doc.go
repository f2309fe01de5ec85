// Package cli provides the interactive notekeeper command-line client.
//
// It wires configuration, the local session cache and the gRPC auth service
// behind a small REPL: register, login, whoami, logout. A session saved by
// a previous run is reused until its token expires.
package cli
