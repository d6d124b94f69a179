//go:build unix

package loader

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SymlinkToFIFOIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.org", "* a\n")

	fifo := filepath.Join(t.TempDir(), "pipe")
	if err := syscall.Mkfifo(fifo, 0o600); err != nil {
		t.Skipf("mkfifo unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(fifo, filepath.Join(dir, "pipe.org")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type result struct {
		res Result
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := New(Options{}).Load(ctx, dir)
		done <- result{res, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, []string{"a.org"}, filenames(r.res.Files))
		assert.Empty(t, r.res.Failures)
	case <-time.After(3 * time.Second):
		t.Fatal("Load blocked on a symlinked FIFO")
	}
}
