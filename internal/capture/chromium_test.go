package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureAgendaPNG_RequiresURLAndOutput(t *testing.T) {
	err := CaptureAgendaPNG(context.Background(), CaptureOptions{OutputPath: "x.png"})
	assert.ErrorIs(t, err, ErrNoURL)

	err = CaptureAgendaPNG(context.Background(), CaptureOptions{URL: "http://127.0.0.1/agenda"})
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestNormalizeDefaults(t *testing.T) {
	opts := CaptureOptions{URL: "http://127.0.0.1/agenda", OutputPath: "x.png"}
	require.NoError(t, opts.normalize())

	assert.Equal(t, DefaultWidth, opts.Width)
	assert.Equal(t, DefaultHeight, opts.Height)
	assert.Equal(t, DefaultTimeoutSec*time.Second, opts.Timeout)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "preview.png")

	require.NoError(t, writeFileAtomic(path, []byte("first")))
	require.NoError(t, writeFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
