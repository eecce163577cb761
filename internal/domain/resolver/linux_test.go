package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDesktopEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spotify.desktop")
	content := `[Desktop Entry]
Type=Application
Name=Spotify
Exec=/usr/bin/spotify --uri=%U
Icon=spotify

[Desktop Action New]
Name=Something Else
Exec=/usr/bin/other
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entry, err := parseDesktopEntry(path)
	require.NoError(t, err)
	assert.Equal(t, "Spotify", entry.Name)
	assert.Equal(t, "/usr/bin/spotify --uri=%U", entry.Exec)
}

func TestParseDesktopEntryMissingFile(t *testing.T) {
	_, err := parseDesktopEntry(filepath.Join(t.TempDir(), "nope.desktop"))
	assert.Error(t, err)
}

func TestSplitExecLineDropsFieldCodes(t *testing.T) {
	bin, args := splitExecLine(`/usr/bin/spotify --uri %U --flag`)
	assert.Equal(t, "/usr/bin/spotify", bin)
	assert.Equal(t, []string{"--uri", "--flag"}, args)
}

func TestSplitExecLineQuotedBinary(t *testing.T) {
	bin, args := splitExecLine(`"/opt/My App/app" %f`)
	// Fields splits on whitespace; quoted paths with spaces degrade to the
	// first token, which the stat in candidate() then rejects.
	assert.Equal(t, "/opt/My", bin)
	assert.Equal(t, []string{`App/app`}, args)
}

func TestSplitExecLineEmpty(t *testing.T) {
	bin, args := splitExecLine("%U %f")
	assert.Empty(t, bin)
	assert.Nil(t, args)
}

func TestDesktopEntryCandidate(t *testing.T) {
	dir := t.TempDir()
	bin := writeExecutable(t, dir, "myapp", 128)

	entry := desktopEntry{Name: "My App", Exec: bin + " --minimized %u"}
	c, ok := entry.candidate()
	require.True(t, ok)
	assert.Equal(t, bin, c.Path)
	assert.Equal(t, int64(128), c.Size)
	assert.Equal(t, []string{"--minimized"}, c.Args)
}

func TestDesktopEntryCandidateMissingBinary(t *testing.T) {
	entry := desktopEntry{Name: "Gone", Exec: "/no/such/binary"}
	_, ok := entry.candidate()
	assert.False(t, ok)
}

func TestSnapManifestDecoding(t *testing.T) {
	data := []byte(`name: spotify
version: 1.2.3
apps:
  spotify:
    command: bin/spotify
`)
	var manifest snapManifest
	require.NoError(t, yaml.Unmarshal(data, &manifest))
	assert.Equal(t, "spotify", manifest.Name)
	assert.Contains(t, manifest.Apps, "spotify")
}
