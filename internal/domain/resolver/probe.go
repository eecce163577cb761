package resolver

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
)

// Probe is a single query-time search strategy. Run returns zero or more
// candidate files for a normalized name. Expected conditions (missing
// directory, permission denied) must be swallowed and reported as no
// candidates so the chain can continue; returned errors are logged at most.
type Probe struct {
	Name string
	Run  func(ctx context.Context, name string) ([]Candidate, error)
}

// PopulationProbe enumerates applications wholesale during a cache refresh,
// keyed by normalized name.
type PopulationProbe struct {
	Name string
	Run  func(ctx context.Context) (map[string]ResolvedExecutable, error)
}

// walkLimit caps candidates collected by one recursive walk; install trees
// can hold thousands of binaries and the selector needs only a handful.
const walkLimit = 48

var errWalkDone = errors.New("walk done")

// matchesName reports whether a file base name and a normalized query match
// in either direction.
func matchesName(base, name string) bool {
	return strings.Contains(base, name) || strings.Contains(name, base)
}

// candidateFromFile stats a path and builds a candidate from it.
func candidateFromFile(path string) (Candidate, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Candidate{}, false
	}
	return Candidate{Path: path, Size: info.Size()}, true
}

// scanDirsForName looks for name(+ext) directly inside each directory, the
// way a shell scans its search path.
func scanDirsForName(name string, dirs, exts []string) []Candidate {
	var candidates []Candidate
	for _, dir := range dirs {
		for _, ext := range exts {
			path := filepath.Join(dir, name+ext)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			if !executableMode(info, ext) {
				continue
			}
			candidates = append(candidates, Candidate{Path: path, Size: info.Size()})
		}
	}
	return candidates
}

// scanRootsShallow scans installation roots one level deep: files matching
// the name directly under a root, plus the contents of a matching
// subdirectory (an install dir named after the application).
func scanRootsShallow(ctx context.Context, name string, roots, exts []string) []Candidate {
	var candidates []Candidate
	for _, root := range roots {
		if ctx.Err() != nil {
			return candidates
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			// Missing or unreadable root: no candidates from this root.
			continue
		}
		for _, entry := range entries {
			base := strings.ToLower(entry.Name())
			if entry.IsDir() {
				if !matchesName(base, name) {
					continue
				}
				candidates = append(candidates, scanDirFiles(filepath.Join(root, entry.Name()), exts)...)
				continue
			}
			if matchesName(baseName(entry.Name()), name) {
				if c, ok := executableCandidate(filepath.Join(root, entry.Name()), exts); ok {
					candidates = append(candidates, c)
				}
			}
		}
	}
	return candidates
}

// scanDirFiles collects executable files directly inside dir.
func scanDirFiles(dir string, exts []string) []Candidate {
	var candidates []Candidate
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if c, ok := executableCandidate(filepath.Join(dir, entry.Name()), exts); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// walkRoots recursively searches roots to unbounded depth for executables
// whose base name matches. Walk errors on individual entries are skipped;
// the walk stops early on cancellation or once enough candidates exist.
func walkRoots(ctx context.Context, name string, roots, exts []string) []Candidate {
	var candidates []Candidate
	conf := fastwalk.Config{Follow: false}

	for _, root := range roots {
		err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return errWalkDone
			default:
			}
			if err != nil || d.IsDir() {
				return nil
			}
			if !matchesName(baseName(p), name) {
				return nil
			}
			if c, ok := executableCandidate(p, exts); ok {
				candidates = append(candidates, c)
				if len(candidates) >= walkLimit {
					return errWalkDone
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errWalkDone) {
			continue
		}
		if len(candidates) >= walkLimit || ctx.Err() != nil {
			break
		}
	}
	return candidates
}

// executableCandidate builds a candidate if the file looks launchable.
func executableCandidate(path string, exts []string) (Candidate, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Candidate{}, false
	}
	if !executableMode(info, filepath.Ext(path)) {
		return Candidate{}, false
	}
	if len(exts) > 0 && !extAllowed(path, exts) {
		return Candidate{}, false
	}
	return Candidate{Path: path, Size: info.Size()}, true
}

func extAllowed(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range exts {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// executableMode reports launchability from file metadata alone. Windows
// judges by extension (mode bits carry no signal there); elsewhere the
// executable bits decide.
func executableMode(info fs.FileInfo, ext string) bool {
	switch strings.ToLower(ext) {
	case ".exe", ".bat", ".cmd", ".com":
		return true
	}
	return info.Mode()&0o111 != 0
}

// isBinaryExecutable confirms by content sniffing that a path is a real
// program rather than a large data file with the executable bit set. Used
// by the Unix detailed walks where no extension convention exists.
func isBinaryExecutable(path string) bool {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	for _, want := range []string{
		"application/x-executable",
		"application/x-sharedlib",
		"application/x-mach-binary",
		"application/x-msdownload",
		"text/x-shellscript",
	} {
		if mtype.Is(want) {
			return true
		}
	}
	return false
}

// runLines executes a native query tool and returns its non-empty output
// lines. Failures (tool missing, non-zero exit) yield no lines; these tools
// are best-effort probe sources, not hard dependencies.
func runLines(ctx context.Context, argv ...string) []string {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
