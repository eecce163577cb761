// Package resolver turns human-supplied application names into launchable
// targets and controls their lifecycle (open, close, status, list).
//
// Resolution runs a fixed per-platform probe chain in two phases: quick
// probes (running processes, executable search path, native indirection
// tables, launcher directories, shallow install-root scans) run on every
// call; detailed probes (recursive filesystem walks, system file indexes,
// package-manager manifests) run only after a miss in the shared resolution
// cache. The cache is a whole-table TTL cache rebuilt by a fixed set of
// population probes under a single-refresh discipline.
//
// One Resolver implementation exists per operating system; the factory in
// New selects it once at startup. Shared logic never branches on the OS.
package resolver
