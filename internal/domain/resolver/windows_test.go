package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegValue(t *testing.T) {
	line := `    (Default)    REG_SZ    C:\Program Files\App\app.exe`
	assert.Equal(t, `C:\Program Files\App\app.exe`, parseRegValue(line))

	assert.Equal(t, "", parseRegValue(`HKEY_LOCAL_MACHINE\SOFTWARE\...`))
	assert.Equal(t, "", parseRegValue(""))
}

func TestParseRegValueExpandSZ(t *testing.T) {
	t.Setenv("DESKD_TEST_ROOT", `C:\Tools`)

	line := `    (Default)    REG_EXPAND_SZ    %DESKD_TEST_ROOT%\app.exe`
	assert.Equal(t, `C:\Tools\app.exe`, parseRegValue(line))
}

func TestExpandWindowsEnv(t *testing.T) {
	t.Setenv("DESKD_A", "one")
	t.Setenv("DESKD_B", "two")

	assert.Equal(t, `one\two`, expandWindowsEnv(`%DESKD_A%\%DESKD_B%`))
	assert.Equal(t, "plain", expandWindowsEnv("plain"))
	// Unterminated reference is left alone.
	assert.Equal(t, "50%", expandWindowsEnv("50%"))
}

func TestParseVDF(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "appmanifest_12345.acf")
	content := `"AppState"
{
	"appid"		"12345"
	"name"		"Hollow Knight"
	"installdir"		"Hollow Knight"
	"StateFlags"		"4"
}
`
	require.NoError(t, os.WriteFile(manifest, []byte(content), 0o644))

	fields := parseVDF(manifest)
	assert.Equal(t, "Hollow Knight", fields["name"])
	assert.Equal(t, "Hollow Knight", fields["installdir"])
	assert.Equal(t, "12345", fields["appid"])
}

func TestParseVDFAllPreservesRepeatedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libraryfolders.vdf")
	content := `"libraryfolders"
{
	"0"
	{
		"path"		"C:\\Program Files (x86)\\Steam"
	}
	"1"
	{
		"path"		"D:\\SteamLibrary"
	}
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var libraries []string
	for _, pair := range parseVDFAll(path) {
		if pair.key == "path" {
			libraries = append(libraries, pair.value)
		}
	}
	assert.Equal(t, []string{`C:\\Program Files (x86)\\Steam`, `D:\\SteamLibrary`}, libraries)
}

func TestParseVDFMissingFile(t *testing.T) {
	assert.Empty(t, parseVDF(filepath.Join(t.TempDir(), "nope.acf")))
}

func TestSteamLibrariesIncludesSteamDir(t *testing.T) {
	steamDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(steamDir, "steamapps"), 0o755))
	content := `"libraryfolders"
{
	"0"
	{
		"path"		"D:\\Games"
	}
}
`
	require.NoError(t, os.WriteFile(
		filepath.Join(steamDir, "steamapps", "libraryfolders.vdf"), []byte(content), 0o644))

	libraries := steamLibraries(steamDir)
	require.Len(t, libraries, 2)
	assert.Equal(t, steamDir, libraries[0])
	assert.Equal(t, filepath.FromSlash(`D:\Games`), libraries[1])
}

func TestExecutableExtsHonorsPathext(t *testing.T) {
	t.Setenv("PATHEXT", ".COM;.EXE;.BAT")
	assert.Equal(t, []string{".com", ".exe", ".bat"}, executableExts())

	t.Setenv("PATHEXT", "")
	assert.Equal(t, []string{".exe", ".bat", ".cmd", ".com"}, executableExts())
}
