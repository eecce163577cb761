package resolver

import (
	"path/filepath"
	"strings"
)

// Status reports whether a named application is running.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// SystemPath is the sentinel executable path for processes that cannot be
// introspected (kernel tasks, processes owned by other users).
const SystemPath = "system"

// AppInfo is a point-in-time snapshot of a running process. It is recomputed
// on every List call and never updated in place.
type AppInfo struct {
	PID        int32  `json:"pid"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	Responding bool   `json:"responding"`
}

// ResolvedExecutable is a launchable target: an absolute path to an
// executable, or a launcher invocation (e.g. "flatpak run org.x.App") when
// the platform cannot yield a bare path. It is a value; it holds no
// reference to mutable state.
type ResolvedExecutable struct {
	// Path is the executable path, or the launcher binary for packaged apps.
	Path string `json:"path"`
	// Args are launcher arguments when the target is not a bare path.
	Args []string `json:"args,omitempty"`
	// Origin names the probe that produced this target.
	Origin string `json:"origin,omitempty"`
}

// IsZero reports whether no target was resolved.
func (r ResolvedExecutable) IsZero() bool {
	return r.Path == ""
}

// String renders the full invocation.
func (r ResolvedExecutable) String() string {
	if len(r.Args) == 0 {
		return r.Path
	}
	return r.Path + " " + strings.Join(r.Args, " ")
}

// Candidate is one file produced by a probe, before selection.
type Candidate struct {
	Path string
	Size int64
	// Args marks launcher-invocation candidates (Path is the launcher).
	Args []string
}

func (c Candidate) resolved(origin string) ResolvedExecutable {
	return ResolvedExecutable{Path: c.Path, Args: c.Args, Origin: origin}
}

// NormalizeName lowercases and trims a caller-supplied application name.
// The normalized form is the cache key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// baseName returns a candidate's lowercase base name without extension,
// the form compared against normalized application names.
func baseName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return strings.ToLower(base)
}
