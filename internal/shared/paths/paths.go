package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecSearchPath returns the directories on the executable search path.
func ExecSearchPath() []string {
	var dirs []string
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// WindowsInstallRoots returns conventional Windows installation roots.
func WindowsInstallRoots() []string {
	roots := []string{}
	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "ProgramW6432"} {
		if dir := os.Getenv(env); dir != "" {
			roots = appendUnique(roots, dir)
		}
	}
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		roots = appendUnique(roots, filepath.Join(local, "Programs"))
	}
	if len(roots) == 0 {
		roots = []string{`C:\Program Files`, `C:\Program Files (x86)`}
	}
	return roots
}

// WindowsStartMenuDirs returns Start Menu program directories for the
// current user and all users.
func WindowsStartMenuDirs() []string {
	var dirs []string
	if appData := os.Getenv("APPDATA"); appData != "" {
		dirs = append(dirs, filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs"))
	}
	if programData := os.Getenv("ProgramData"); programData != "" {
		dirs = append(dirs, filepath.Join(programData, "Microsoft", "Windows", "Start Menu", "Programs"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Desktop"))
	}
	return dirs
}

// WindowsSteamDirs returns candidate Steam installation directories.
func WindowsSteamDirs() []string {
	var dirs []string
	for _, root := range WindowsInstallRoots() {
		dirs = append(dirs, filepath.Join(root, "Steam"))
	}
	return dirs
}

// LinuxInstallRoots returns conventional Linux installation roots.
func LinuxInstallRoots() []string {
	roots := []string{"/usr/bin", "/usr/local/bin", "/opt", "/snap/bin"}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".local", "bin"), filepath.Join(home, "bin"))
	}
	return roots
}

// LinuxApplicationDirs returns XDG desktop-entry directories.
func LinuxApplicationDirs() []string {
	dirs := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "applications"))
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, dir := range strings.Split(dataDirs, ":") {
		if dir != "" {
			dirs = appendUnique(dirs, filepath.Join(dir, "applications"))
		}
	}
	dirs = appendUnique(dirs, "/var/lib/flatpak/exports/share/applications")
	return dirs
}

// LinuxSnapDir returns the root of mounted snap packages.
func LinuxSnapDir() string {
	return "/snap"
}

// DarwinInstallRoots returns conventional macOS installation roots.
func DarwinInstallRoots() []string {
	roots := []string{"/Applications", "/System/Applications"}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, "Applications"))
	}
	roots = append(roots, "/usr/local/bin", "/opt/homebrew/bin")
	return roots
}

// DarwinBrewCellars returns Homebrew cellar directories for both the Intel
// and Apple Silicon prefixes.
func DarwinBrewCellars() []string {
	return []string{"/usr/local/Cellar", "/opt/homebrew/Cellar"}
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
