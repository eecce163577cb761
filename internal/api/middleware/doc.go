// Package middleware provides HTTP middleware for the daemon API:
// CORS, per-client rate limiting, and request correlation IDs.
package middleware
