package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserHomeReturnsValidPath verifies UserHome returns an existing directory.
func TestUserHomeReturnsValidPath(t *testing.T) {
	home := UserHome()
	require.NotEmpty(t, home)
	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestUserHomeFallsBackToWorkingDirectory(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("os.UserHomeDir reads other sources on this platform")
	}
	t.Setenv("HOME", "")
	t.Setenv("USERPROFILE", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, UserHome())
}

func TestFileChecks(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "flimit.i2s")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	script := filepath.Join(dir, "i2s")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))
	good := filepath.Join(dir, "good")
	require.NoError(t, os.Symlink(file, good))
	broken := filepath.Join(dir, "broken")
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), broken))

	assert.True(t, CheckFileExists(file))
	assert.True(t, CheckFileExists(dir))
	assert.False(t, CheckFileExists(broken))
	assert.False(t, CheckFileExists(filepath.Join(dir, "missing")))

	assert.True(t, LinkExists(broken))
	assert.True(t, LinkExists(good))
	assert.False(t, LinkExists(filepath.Join(dir, "missing")))

	assert.True(t, IsBrokenLink(broken))
	assert.False(t, IsBrokenLink(good))
	assert.False(t, IsBrokenLink(file))

	assert.True(t, IsExecutable(script))
	assert.False(t, IsExecutable(file))
	assert.False(t, IsExecutable(dir))
}

type mockCloser struct {
	mu         sync.Mutex
	closed     bool
	closeError error
	onClose    func()
}

func (m *mockCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.onClose != nil {
		m.onClose()
	}
	return m.closeError
}

func (m *mockCloser) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// TestCloseAll verifies every registered closer is closed in reverse
// order, even after one fails, and that the list is cleared.
func TestCloseAll(t *testing.T) {
	var order []string
	closers := []*mockCloser{{}, {closeError: errors.New("disk full")}, {}}
	for i, c := range closers {
		name := fmt.Sprintf("closer-%d", i)
		c.onClose = func() { order = append(order, name) }
		RegisterCloser(name, c)
	}
	err := CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closing closer-1")
	assert.Contains(t, err.Error(), "disk full")
	for i, c := range closers {
		assert.True(t, c.IsClosed(), "closer %d", i)
	}
	assert.Equal(t, []string{"closer-2", "closer-1", "closer-0"}, order)

	closersMu.Lock()
	assert.Empty(t, closers)
	closersMu.Unlock()
	assert.NoError(t, CloseAll())
}

func TestRegisterCloserConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	closers := make([]*mockCloser, 50)
	for i := range closers {
		closers[i] = &mockCloser{}
		wg.Add(1)
		go func(i int, c *mockCloser) {
			defer wg.Done()
			RegisterCloser(fmt.Sprintf("log-%d", i), c)
		}(i, closers[i])
	}
	wg.Wait()
	require.NoError(t, CloseAll())
	for _, c := range closers {
		assert.True(t, c.IsClosed())
	}
}
