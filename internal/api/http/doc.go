// Package http implements the daemon's REST handlers: resolution,
// lifecycle operations, process listing, and cache diagnostics.
package http
