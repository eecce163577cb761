// Package paths provides the per-OS conventional directories consulted by
// the resolver's probes: executable search paths, installation roots,
// launcher/shortcut directories, and package-manager locations.
//
// Each platform resolver calls only the functions for its own OS; nothing
// here branches on runtime.GOOS.
package paths
