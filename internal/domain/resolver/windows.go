package resolver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/deskd/deskd/internal/infrastructure/logging"
	"github.com/deskd/deskd/internal/shared/paths"
)

// appPathsKeys are the registry hives of the App Paths indirection table,
// which maps friendly executable names to install locations.
var appPathsKeys = []string{
	`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\App Paths`,
	`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\App Paths`,
}

// windowsPlatform resolves applications through PATH, the registry App
// Paths table, Start Menu shortcuts, Program Files roots, where.exe, and
// Steam library manifests.
type windowsPlatform struct {
	procs      *processController
	extraRoots []string
	log        *logging.Logger
}

func newWindowsPlatform(opts Options) *windowsPlatform {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &windowsPlatform{
		procs:      newProcessController(log.Named("process"), opts.Metrics),
		extraRoots: opts.ExtraRoots,
		log:        log,
	}
}

func (w *windowsPlatform) name() string { return "windows" }

// executableExts returns the launchable extensions, honoring PATHEXT.
func executableExts() []string {
	pathExt := os.Getenv("PATHEXT")
	if pathExt == "" {
		return []string{".exe", ".bat", ".cmd", ".com"}
	}
	var exts []string
	for _, ext := range strings.Split(pathExt, ";") {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

func (w *windowsPlatform) quickProbes() []Probe {
	return []Probe{
		{Name: "process", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return w.procs.candidates(ctx, name), nil
		}},
		{Name: "path", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return scanDirsForName(name, paths.ExecSearchPath(), executableExts()), nil
		}},
		{Name: "app-paths", Run: w.appPathsCandidates},
		{Name: "start-menu", Run: w.startMenuCandidates},
		{Name: "install-roots", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return scanRootsShallow(ctx, name, w.installRoots(), executableExts()), nil
		}},
	}
}

func (w *windowsPlatform) detailedProbes() []Probe {
	return []Probe{
		{Name: "deep-walk", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return walkRoots(ctx, name, w.installRoots(), executableExts()), nil
		}},
		{Name: "where", Run: w.whereCandidates},
		{Name: "steam", Run: w.steamCandidates},
	}
}

func (w *windowsPlatform) populationProbes() []PopulationProbe {
	return []PopulationProbe{
		{Name: "process", Run: w.procs.enumerate},
		{Name: "app-paths", Run: w.enumerateAppPaths},
		{Name: "start-menu", Run: w.enumerateStartMenu},
		{Name: "install-roots", Run: w.enumerateInstallRoots},
	}
}

func (w *windowsPlatform) installRoots() []string {
	return append(paths.WindowsInstallRoots(), w.extraRoots...)
}

// appPathsCandidates queries the App Paths table for name.exe directly.
func (w *windowsPlatform) appPathsCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, hive := range appPathsKeys {
		key := fmt.Sprintf(`%s\%s.exe`, hive, name)
		for _, line := range runLines(ctx, "reg", "query", key, "/ve") {
			path := parseRegValue(line)
			if path == "" {
				continue
			}
			if c, ok := candidateFromFile(path); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates, nil
}

// enumerateAppPaths walks the whole App Paths table for cache population.
func (w *windowsPlatform) enumerateAppPaths(ctx context.Context) (map[string]ResolvedExecutable, error) {
	table := make(map[string]ResolvedExecutable)
	for _, hive := range appPathsKeys {
		for _, line := range runLines(ctx, "reg", "query", hive, "/s", "/ve") {
			if strings.HasPrefix(line, "HK") {
				continue
			}
			path := parseRegValue(line)
			if path == "" {
				continue
			}
			c, ok := candidateFromFile(path)
			if !ok {
				continue
			}
			key := baseName(path)
			if _, exists := table[key]; !exists {
				table[key] = c.resolved("app-paths")
			}
		}
	}
	return table, nil
}

// parseRegValue extracts the data column from a "reg query" value line,
// e.g. `    (Default)    REG_SZ    C:\Program Files\App\app.exe`.
func parseRegValue(line string) string {
	for _, kind := range []string{"REG_EXPAND_SZ", "REG_SZ"} {
		if idx := strings.Index(line, kind); idx >= 0 {
			value := strings.TrimSpace(line[idx+len(kind):])
			value = strings.Trim(value, `"`)
			if kind == "REG_EXPAND_SZ" {
				value = expandWindowsEnv(value)
			}
			return value
		}
	}
	return ""
}

// expandWindowsEnv substitutes %VAR% references in registry data.
func expandWindowsEnv(value string) string {
	for {
		start := strings.Index(value, "%")
		if start < 0 {
			return value
		}
		end := strings.Index(value[start+1:], "%")
		if end < 0 {
			return value
		}
		end += start + 1
		expanded := os.Getenv(value[start+1 : end])
		value = value[:start] + expanded + value[end+1:]
	}
}

// startMenuCandidates matches Start Menu and Desktop shortcuts by base name
// and resolves each shortcut's target.
func (w *windowsPlatform) startMenuCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, dir := range paths.WindowsStartMenuDirs() {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, "**", "*.lnk"))
		if err != nil {
			continue
		}
		for _, link := range matches {
			if ctx.Err() != nil {
				return candidates, nil
			}
			if !matchesName(baseName(link), name) {
				continue
			}
			target := resolveShortcut(ctx, link)
			if target == "" {
				continue
			}
			if c, ok := candidateFromFile(target); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates, nil
}

// enumerateStartMenu resolves every shortcut under the Start Menu roots,
// keyed by the shortcut's friendly name.
func (w *windowsPlatform) enumerateStartMenu(ctx context.Context) (map[string]ResolvedExecutable, error) {
	table := make(map[string]ResolvedExecutable)
	for _, dir := range paths.WindowsStartMenuDirs() {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, "**", "*.lnk"))
		if err != nil {
			continue
		}
		for _, link := range matches {
			if ctx.Err() != nil {
				return table, nil
			}
			key := baseName(link)
			if _, exists := table[key]; exists {
				continue
			}
			target := resolveShortcut(ctx, link)
			if target == "" {
				continue
			}
			if c, ok := candidateFromFile(target); ok {
				table[key] = c.resolved("start-menu")
			}
		}
	}
	return table, nil
}

// enumerateInstallRoots maps application subdirectories of the Program
// Files roots to their best executable, one level deep.
func (w *windowsPlatform) enumerateInstallRoots(ctx context.Context) (map[string]ResolvedExecutable, error) {
	table := make(map[string]ResolvedExecutable)
	for _, root := range w.installRoots() {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				return table, nil
			}
			if !entry.IsDir() {
				continue
			}
			key := strings.ToLower(entry.Name())
			if _, exists := table[key]; exists {
				continue
			}
			files := scanDirFiles(filepath.Join(root, entry.Name()), executableExts())
			if best, ok := SelectBest(key, files, defaultDenyTokens); ok {
				table[key] = best.resolved("install-roots")
			}
		}
	}
	return table, nil
}

// resolveShortcut reads a .lnk target through the shell's scripting host.
func resolveShortcut(ctx context.Context, link string) string {
	script := fmt.Sprintf(
		"(New-Object -ComObject WScript.Shell).CreateShortcut('%s').TargetPath",
		strings.ReplaceAll(link, "'", "''"))
	lines := runLines(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

// whereCandidates asks where.exe, the system-wide executable index.
func (w *windowsPlatform) whereCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, line := range runLines(ctx, "where.exe", name) {
		if c, ok := candidateFromFile(line); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

// steamCandidates walks Steam's library manifests: libraryfolders.vdf
// yields the library roots, appmanifest_*.acf files yield installed games.
// A matching game's install directory is searched for executables and left
// to the selector to pick the primary binary.
func (w *windowsPlatform) steamCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, steamDir := range paths.WindowsSteamDirs() {
		libraries := steamLibraries(steamDir)
		for _, library := range libraries {
			manifests, err := filepath.Glob(filepath.Join(library, "steamapps", "appmanifest_*.acf"))
			if err != nil {
				continue
			}
			for _, manifest := range manifests {
				if ctx.Err() != nil {
					return candidates, nil
				}
				fields := parseVDF(manifest)
				gameName := strings.ToLower(fields["name"])
				installDir := fields["installdir"]
				if installDir == "" || !matchesName(gameName, name) {
					continue
				}
				gameRoot := filepath.Join(library, "steamapps", "common", installDir)
				candidates = append(candidates, walkAllExecutables(ctx, gameRoot, executableExts())...)
			}
		}
	}
	return candidates, nil
}

// steamLibraries returns all library roots named in libraryfolders.vdf,
// plus the Steam directory itself.
func steamLibraries(steamDir string) []string {
	libraries := []string{steamDir}
	fields := parseVDFAll(filepath.Join(steamDir, "steamapps", "libraryfolders.vdf"))
	for _, pair := range fields {
		if pair.key == "path" {
			libraries = append(libraries, filepath.FromSlash(strings.ReplaceAll(pair.value, `\\`, `\`)))
		}
	}
	return libraries
}

type vdfPair struct {
	key, value string
}

// parseVDF reads a Valve KeyValues file into a flat last-wins map.
func parseVDF(path string) map[string]string {
	fields := make(map[string]string)
	for _, pair := range parseVDFAll(path) {
		fields[pair.key] = pair.value
	}
	return fields
}

// parseVDFAll returns every quoted key/value pair in document order. The
// format nests with braces, but the keys the probes need ("path", "name",
// "installdir") are unambiguous at any depth.
func parseVDFAll(path string) []vdfPair {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var pairs []vdfPair
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "\"", 5)
		// A value line splits into: "", key, whitespace, value, rest.
		if len(parts) < 5 {
			continue
		}
		pairs = append(pairs, vdfPair{key: strings.ToLower(parts[1]), value: parts[3]})
	}
	return pairs
}

// walkAllExecutables collects every executable under root without name
// filtering, for directories already known to belong to the application.
func walkAllExecutables(ctx context.Context, root string, exts []string) []Candidate {
	var candidates []Candidate
	conf := fastwalk.Config{Follow: false}

	_ = fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return errWalkDone
		default:
		}
		if err != nil || d.IsDir() {
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
	return candidates
}

func (w *windowsPlatform) launch(ctx context.Context, target ResolvedExecutable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(target.Args) > 0 {
		cmd := exec.Command(target.Path, target.Args...)
		if err := cmd.Start(); err != nil {
			return err
		}
		return cmd.Process.Release()
	}
	// "start" detaches GUI applications from the daemon's console.
	return exec.Command("cmd", "/C", "start", "", target.Path).Run()
}

// launchFallback lets the shell resolve the bare name or document
// association itself.
func (w *windowsPlatform) launchFallback(ctx context.Context, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return exec.Command("cmd", "/C", "start", "", raw).Run()
}
