// Package config provides environment-based configuration with an optional
// TOML overlay file for search tuning (extra install roots, deny tokens).
//
// All variables use the DESKD_ prefix, e.g. DESKD_PORT, DESKD_LOG_LEVEL.
package config
