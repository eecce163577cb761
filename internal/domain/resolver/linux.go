package resolver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"

	"github.com/deskd/deskd/internal/infrastructure/logging"
	"github.com/deskd/deskd/internal/shared/paths"
)

// linuxPlatform resolves applications through $PATH, XDG desktop entries,
// conventional Unix install roots, locate, and the snap/flatpak registries.
type linuxPlatform struct {
	procs      *processController
	extraRoots []string
	log        *logging.Logger
}

func newLinuxPlatform(opts Options) *linuxPlatform {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &linuxPlatform{
		procs:      newProcessController(log.Named("process"), opts.Metrics),
		extraRoots: opts.ExtraRoots,
		log:        log,
	}
}

func (l *linuxPlatform) name() string { return "linux" }

func (l *linuxPlatform) quickProbes() []Probe {
	return []Probe{
		{Name: "process", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return l.procs.candidates(ctx, name), nil
		}},
		{Name: "path", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return scanDirsForName(name, paths.ExecSearchPath(), []string{""}), nil
		}},
		{Name: "desktop-entry", Run: l.desktopCandidates},
		{Name: "install-roots", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return scanRootsShallow(ctx, name, l.installRoots(), nil), nil
		}},
	}
}

func (l *linuxPlatform) detailedProbes() []Probe {
	return []Probe{
		{Name: "deep-walk", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			roots := append([]string{"/opt", "/usr/local"}, l.extraRoots...)
			return filterBinaries(walkRoots(ctx, name, roots, nil)), nil
		}},
		{Name: "locate", Run: l.locateCandidates},
		{Name: "snap", Run: l.snapCandidates},
		{Name: "flatpak", Run: l.flatpakCandidates},
	}
}

func (l *linuxPlatform) populationProbes() []PopulationProbe {
	return []PopulationProbe{
		{Name: "process", Run: l.procs.enumerate},
		{Name: "desktop-entry", Run: l.enumerateDesktopEntries},
		{Name: "install-roots", Run: l.enumerateInstallRoots},
	}
}

func (l *linuxPlatform) installRoots() []string {
	return append(paths.LinuxInstallRoots(), l.extraRoots...)
}

// desktopCandidates matches .desktop files by file name or Name= field and
// resolves their Exec= command.
func (l *linuxPlatform) desktopCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, dir := range paths.LinuxApplicationDirs() {
		if ctx.Err() != nil {
			return candidates, nil
		}
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*.desktop"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			entry, err := parseDesktopEntry(path)
			if err != nil {
				continue
			}
			if !matchesName(baseName(path), name) && !matchesName(strings.ToLower(entry.Name), name) {
				continue
			}
			if c, ok := entry.candidate(); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates, nil
}

// enumerateDesktopEntries maps every desktop entry's display name to its
// resolved Exec command for cache population.
func (l *linuxPlatform) enumerateDesktopEntries(ctx context.Context) (map[string]ResolvedExecutable, error) {
	table := make(map[string]ResolvedExecutable)
	for _, dir := range paths.LinuxApplicationDirs() {
		if ctx.Err() != nil {
			return table, nil
		}
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*.desktop"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			entry, err := parseDesktopEntry(path)
			if err != nil || entry.Name == "" {
				continue
			}
			c, ok := entry.candidate()
			if !ok {
				continue
			}
			key := NormalizeName(entry.Name)
			if _, exists := table[key]; !exists {
				table[key] = c.resolved("desktop-entry")
			}
		}
	}
	return table, nil
}

// enumerateInstallRoots maps executables sitting directly under the
// conventional install roots, one level deep.
func (l *linuxPlatform) enumerateInstallRoots(ctx context.Context) (map[string]ResolvedExecutable, error) {
	table := make(map[string]ResolvedExecutable)
	for _, root := range l.installRoots() {
		if ctx.Err() != nil {
			return table, nil
		}
		for _, c := range scanDirFiles(root, nil) {
			key := baseName(c.Path)
			if _, exists := table[key]; !exists {
				table[key] = c.resolved("install-roots")
			}
		}
	}
	return table, nil
}

// locateCandidates queries the system-wide file index.
func (l *linuxPlatform) locateCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, line := range runLines(ctx, "locate", "-i", "-l", "40", name) {
		if !matchesName(baseName(line), name) {
			continue
		}
		if c, ok := executableCandidate(line, nil); ok {
			candidates = append(candidates, c)
		}
	}
	return filterBinaries(candidates), nil
}

// snapManifest is the subset of meta/snap.yaml the probe needs.
type snapManifest struct {
	Name string                 `yaml:"name"`
	Apps map[string]interface{} `yaml:"apps"`
}

// snapCandidates scans mounted snap packages. A matching snap yields its
// /snap/bin entry when present, otherwise a "snap run" invocation.
func (l *linuxPlatform) snapCandidates(ctx context.Context, name string) ([]Candidate, error) {
	entries, err := os.ReadDir(paths.LinuxSnapDir())
	if err != nil {
		return nil, nil
	}

	var candidates []Candidate
	for _, entry := range entries {
		if ctx.Err() != nil {
			return candidates, nil
		}
		if !entry.IsDir() || entry.Name() == "bin" {
			continue
		}
		manifestPath := filepath.Join(paths.LinuxSnapDir(), entry.Name(), "current", "meta", "snap.yaml")
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			continue
		}
		var manifest snapManifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			continue
		}
		if !matchesName(strings.ToLower(manifest.Name), name) {
			continue
		}
		if c, ok := candidateFromFile(filepath.Join("/snap/bin", manifest.Name)); ok {
			candidates = append(candidates, c)
			continue
		}
		candidates = append(candidates, Candidate{Path: "snap", Args: []string{"run", manifest.Name}})
	}
	return candidates, nil
}

// flatpakCandidates asks the flatpak registry for installed applications.
// Matches resolve to a "flatpak run APPID" invocation rather than a bare
// path, since flatpak apps are not directly executable.
func (l *linuxPlatform) flatpakCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, line := range runLines(ctx, "flatpak", "list", "--app", "--columns=name,application") {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		display, appID := strings.ToLower(strings.TrimSpace(fields[0])), strings.TrimSpace(fields[1])
		if matchesName(display, name) || matchesName(strings.ToLower(appID), name) {
			candidates = append(candidates, Candidate{Path: "flatpak", Args: []string{"run", appID}})
		}
	}
	return candidates, nil
}

func (l *linuxPlatform) launch(ctx context.Context, target ResolvedExecutable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(target.Path, target.Args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// launchFallback hands the raw name to the shell's own search path, then to
// the desktop association mechanism.
func (l *linuxPlatform) launchFallback(ctx context.Context, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path, err := exec.LookPath(raw); err == nil {
		cmd := exec.Command(path)
		if err := cmd.Start(); err != nil {
			return err
		}
		return cmd.Process.Release()
	}
	return exec.CommandContext(ctx, "xdg-open", raw).Run()
}

// filterBinaries drops walk hits that carry the executable bit but are not
// actually programs (large data files in install trees).
func filterBinaries(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if isBinaryExecutable(c.Path) {
			out = append(out, c)
		}
	}
	return out
}

// desktopEntry is the parsed subset of a freedesktop .desktop file.
type desktopEntry struct {
	Name string
	Exec string
}

// candidate resolves the entry's Exec command into a probe candidate.
func (d desktopEntry) candidate() (Candidate, bool) {
	bin, args := splitExecLine(d.Exec)
	if bin == "" {
		return Candidate{}, false
	}
	if !filepath.IsAbs(bin) {
		resolved, err := exec.LookPath(bin)
		if err != nil {
			return Candidate{}, false
		}
		bin = resolved
	}
	info, err := os.Stat(bin)
	if err != nil || info.IsDir() {
		return Candidate{}, false
	}
	return Candidate{Path: bin, Size: info.Size(), Args: args}, true
}

// parseDesktopEntry reads Name= and Exec= from the [Desktop Entry] section.
func parseDesktopEntry(path string) (desktopEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return desktopEntry{}, err
	}

	var entry desktopEntry
	inSection := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			inSection = line == "[Desktop Entry]"
			continue
		}
		if !inSection {
			continue
		}
		if value, ok := strings.CutPrefix(line, "Name="); ok && entry.Name == "" {
			entry.Name = value
		}
		if value, ok := strings.CutPrefix(line, "Exec="); ok && entry.Exec == "" {
			entry.Exec = value
		}
	}
	return entry, nil
}

// splitExecLine splits a desktop Exec value into binary and arguments,
// dropping freedesktop field codes (%f, %U, ...).
func splitExecLine(line string) (string, []string) {
	fields := strings.Fields(line)
	var cleaned []string
	for _, field := range fields {
		if strings.HasPrefix(field, "%") {
			continue
		}
		cleaned = append(cleaned, strings.Trim(field, `"`))
	}
	if len(cleaned) == 0 {
		return "", nil
	}
	return cleaned[0], cleaned[1:]
}
