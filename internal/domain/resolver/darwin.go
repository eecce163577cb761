package resolver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/deskd/deskd/internal/infrastructure/logging"
	"github.com/deskd/deskd/internal/shared/paths"
)

// darwinPlatform resolves applications through $PATH, application bundles,
// Homebrew, and the Spotlight index.
type darwinPlatform struct {
	procs      *processController
	extraRoots []string
	log        *logging.Logger
}

func newDarwinPlatform(opts Options) *darwinPlatform {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &darwinPlatform{
		procs:      newProcessController(log.Named("process"), opts.Metrics),
		extraRoots: opts.ExtraRoots,
		log:        log,
	}
}

func (d *darwinPlatform) name() string { return "darwin" }

func (d *darwinPlatform) quickProbes() []Probe {
	return []Probe{
		{Name: "process", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return d.procs.candidates(ctx, name), nil
		}},
		{Name: "path", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return scanDirsForName(name, paths.ExecSearchPath(), []string{""}), nil
		}},
		{Name: "app-bundle", Run: d.bundleCandidates},
		{Name: "install-roots", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			return scanRootsShallow(ctx, name, d.installRoots(), nil), nil
		}},
	}
}

func (d *darwinPlatform) detailedProbes() []Probe {
	return []Probe{
		{Name: "deep-walk", Run: func(ctx context.Context, name string) ([]Candidate, error) {
			roots := append(paths.DarwinBrewCellars(), d.extraRoots...)
			return filterBinaries(walkRoots(ctx, name, roots, nil)), nil
		}},
		{Name: "mdfind", Run: d.mdfindCandidates},
		{Name: "brew-cellar", Run: d.brewCandidates},
	}
}

func (d *darwinPlatform) populationProbes() []PopulationProbe {
	return []PopulationProbe{
		{Name: "process", Run: d.procs.enumerate},
		{Name: "app-bundle", Run: d.enumerateBundles},
		{Name: "install-roots", Run: d.enumerateInstallRoots},
	}
}

func (d *darwinPlatform) installRoots() []string {
	return append(paths.DarwinInstallRoots(), d.extraRoots...)
}

// bundleCandidates scans the application directories for matching .app
// bundles and resolves each to its primary binary.
func (d *darwinPlatform) bundleCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, root := range paths.DarwinInstallRoots() {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, "*.app"))
		if err != nil {
			continue
		}
		for _, bundle := range matches {
			if ctx.Err() != nil {
				return candidates, nil
			}
			if !matchesName(baseName(bundle), name) {
				continue
			}
			if c, ok := bundleExecutable(bundle); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates, nil
}

// enumerateBundles maps every installed bundle's display name to its
// primary binary for cache population.
func (d *darwinPlatform) enumerateBundles(ctx context.Context) (map[string]ResolvedExecutable, error) {
	table := make(map[string]ResolvedExecutable)
	for _, root := range paths.DarwinInstallRoots() {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, "*.app"))
		if err != nil {
			continue
		}
		for _, bundle := range matches {
			if ctx.Err() != nil {
				return table, nil
			}
			key := baseName(bundle)
			if _, exists := table[key]; exists {
				continue
			}
			if c, ok := bundleExecutable(bundle); ok {
				table[key] = c.resolved("app-bundle")
			}
		}
	}
	return table, nil
}

// enumerateInstallRoots maps executables directly under the conventional
// roots, one level deep.
func (d *darwinPlatform) enumerateInstallRoots(ctx context.Context) (map[string]ResolvedExecutable, error) {
	table := make(map[string]ResolvedExecutable)
	for _, root := range d.installRoots() {
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

// mdfindCandidates queries the Spotlight index by file name.
func (d *darwinPlatform) mdfindCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	lines := runLines(ctx, "mdfind", "-name", name)
	for i, line := range lines {
		if i >= 40 {
			break
		}
		if strings.HasSuffix(line, ".app") {
			if c, ok := bundleExecutable(line); ok {
				candidates = append(candidates, c)
			}
			continue
		}
		if !matchesName(baseName(line), name) {
			continue
		}
		if c, ok := executableCandidate(line, nil); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

// brewCandidates scans Homebrew cellars for a matching formula's binaries.
func (d *darwinPlatform) brewCandidates(ctx context.Context, name string) ([]Candidate, error) {
	var candidates []Candidate
	for _, cellar := range paths.DarwinBrewCellars() {
		formulas, err := os.ReadDir(cellar)
		if err != nil {
			continue
		}
		for _, formula := range formulas {
			if ctx.Err() != nil {
				return candidates, nil
			}
			if !formula.IsDir() || !matchesName(strings.ToLower(formula.Name()), name) {
				continue
			}
			versions, err := os.ReadDir(filepath.Join(cellar, formula.Name()))
			if err != nil {
				continue
			}
			for _, version := range versions {
				binDir := filepath.Join(cellar, formula.Name(), version.Name(), "bin")
				candidates = append(candidates, scanDirFiles(binDir, nil)...)
			}
		}
	}
	return candidates, nil
}

func (d *darwinPlatform) launch(ctx context.Context, target ResolvedExecutable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Bundle binaries go through Launch Services so the app gets a proper
	// GUI session; bare executables start directly.
	if strings.Contains(target.Path, ".app/") {
		return exec.Command("open", "-a", bundleRoot(target.Path)).Run()
	}
	cmd := exec.Command(target.Path, target.Args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// launchFallback asks Launch Services to match the raw name, then falls
// back to the shell search path.
func (d *darwinPlatform) launchFallback(ctx context.Context, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := exec.CommandContext(ctx, "open", "-a", raw).Run(); err == nil {
		return nil
	}
	path, err := exec.LookPath(raw)
	if err != nil {
		return err
	}
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// bundleRoot walks back up from an inner binary to its .app directory.
func bundleRoot(path string) string {
	for dir := path; dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if strings.HasSuffix(dir, ".app") {
			return dir
		}
	}
	return path
}

var plistExecutableRe = regexp.MustCompile(`<key>CFBundleExecutable</key>\s*<string>([^<]+)</string>`)

// bundleExecutable resolves a .app bundle to its primary binary: the
// CFBundleExecutable named in Info.plist when it is readable XML, otherwise
// the best candidate under Contents/MacOS.
func bundleExecutable(bundle string) (Candidate, bool) {
	macOSDir := filepath.Join(bundle, "Contents", "MacOS")

	if data, err := os.ReadFile(filepath.Join(bundle, "Contents", "Info.plist")); err == nil {
		if m := plistExecutableRe.FindSubmatch(data); m != nil {
			if c, ok := candidateFromFile(filepath.Join(macOSDir, string(m[1]))); ok {
				return c, true
			}
		}
	}

	// Binary plist or missing key: let the selector pick among the
	// bundle's binaries.
	files := scanDirFiles(macOSDir, nil)
	return SelectBest(baseName(bundle), files, defaultDenyTokens)
}
