package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskd/deskd/internal/infrastructure/logging"
)

func newTestController() *processController {
	return newProcessController(logging.NewNop(), nil)
}

func TestListIncludesOwnProcess(t *testing.T) {
	p := newTestController()

	infos, err := p.list(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, infos)

	own := int32(os.Getpid())
	found := false
	for _, info := range infos {
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Path)
		if info.PID == own {
			found = true
		}
	}
	assert.True(t, found, "own process missing from list")
}

func TestStatusRunningForOwnProcess(t *testing.T) {
	p := newTestController()

	exe, err := os.Executable()
	require.NoError(t, err)
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe)))

	status, err := p.status(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)
}

func TestStatusStoppedForUnknownName(t *testing.T) {
	p := newTestController()

	status, err := p.status(context.Background(), "no-such-process-zzz")
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)
}

func TestCloseIsIdempotentOnNoMatch(t *testing.T) {
	p := newTestController()

	// Closing a name with no matching process succeeds, repeatedly.
	require.NoError(t, p.close(context.Background(), "no-such-process-zzz"))
	require.NoError(t, p.close(context.Background(), "no-such-process-zzz"))
}

func TestCandidatesForOwnProcess(t *testing.T) {
	p := newTestController()

	exe, err := os.Executable()
	require.NoError(t, err)
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe)))

	candidates := p.candidates(context.Background(), name)
	require.NotEmpty(t, candidates)

	found := false
	for _, c := range candidates {
		if c.Path == exe {
			found = true
			assert.Greater(t, c.Size, int64(0))
		}
	}
	assert.True(t, found, "own executable missing from candidates")
}

func TestEnumerateKeysAreNormalized(t *testing.T) {
	p := newTestController()

	table, err := p.enumerate(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, table)

	for key, target := range table {
		assert.Equal(t, strings.ToLower(key), key)
		assert.NotEmpty(t, target.Path)
		assert.Equal(t, "process", target.Origin)
	}
}
