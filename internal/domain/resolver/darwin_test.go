package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBundle(t *testing.T, root, name, executable string) string {
	t.Helper()
	bundle := filepath.Join(root, name+".app")
	macOSDir := filepath.Join(bundle, "Contents", "MacOS")
	require.NoError(t, os.MkdirAll(macOSDir, 0o755))
	writeExecutable(t, macOSDir, executable, 256)
	return bundle
}

func TestBundleExecutableFromPlist(t *testing.T) {
	bundle := makeBundle(t, t.TempDir(), "Spotify", "SpotifyCore")
	plist := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>Spotify</string>
	<key>CFBundleExecutable</key>
	<string>SpotifyCore</string>
</dict>
</plist>
`
	require.NoError(t, os.WriteFile(
		filepath.Join(bundle, "Contents", "Info.plist"), []byte(plist), 0o644))

	c, ok := bundleExecutable(bundle)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(bundle, "Contents", "MacOS", "SpotifyCore"), c.Path)
}

func TestBundleExecutableFallsBackToSelector(t *testing.T) {
	// No Info.plist: the selector picks among the bundle's binaries.
	root := t.TempDir()
	bundle := makeBundle(t, root, "Things", "Things")
	writeExecutable(t, filepath.Join(bundle, "Contents", "MacOS"), "ThingsHelper", 64)

	c, ok := bundleExecutable(bundle)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(bundle, "Contents", "MacOS", "Things"), c.Path)
}

func TestBundleExecutableEmptyBundle(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "Empty.app")
	require.NoError(t, os.MkdirAll(filepath.Join(bundle, "Contents", "MacOS"), 0o755))

	_, ok := bundleExecutable(bundle)
	assert.False(t, ok)
}

func TestBundleRoot(t *testing.T) {
	path := "/Applications/Spotify.app/Contents/MacOS/Spotify"
	assert.Equal(t, "/Applications/Spotify.app", bundleRoot(path))

	// Not inside a bundle: returned unchanged.
	assert.Equal(t, "/usr/local/bin/tool", bundleRoot("/usr/local/bin/tool"))
}
