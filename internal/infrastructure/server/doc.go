// Package server wires configuration, logging, metrics, middleware, and
// the platform resolver into the daemon's HTTP server.
package server
