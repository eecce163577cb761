package paths

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecSearchPath(t *testing.T) {
	t.Setenv("PATH", strings.Join([]string{"/usr/bin", "", "/usr/local/bin"}, string(filepath.ListSeparator)))

	dirs := ExecSearchPath()
	assert.Equal(t, []string{"/usr/bin", "/usr/local/bin"}, dirs)
}

func TestWindowsInstallRootsFallback(t *testing.T) {
	t.Setenv("ProgramFiles", "")
	t.Setenv("ProgramFiles(x86)", "")
	t.Setenv("ProgramW6432", "")
	t.Setenv("LOCALAPPDATA", "")

	roots := WindowsInstallRoots()
	assert.Contains(t, roots, `C:\Program Files`)
}

func TestLinuxApplicationDirsDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_DIRS", "")

	dirs := LinuxApplicationDirs()
	assert.Contains(t, dirs, filepath.Join("/usr/share", "applications"))
}

func TestLinuxInstallRoots(t *testing.T) {
	roots := LinuxInstallRoots()
	assert.Contains(t, roots, "/usr/bin")
	assert.Contains(t, roots, "/opt")
}

func TestDarwinInstallRoots(t *testing.T) {
	roots := DarwinInstallRoots()
	assert.Contains(t, roots, "/Applications")
}
