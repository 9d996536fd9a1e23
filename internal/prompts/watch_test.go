package prompts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reply:\n  client: \"Investor:\"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *Set, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(s *Set) { reloaded <- s })
	}()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// 等待 watcher 建立后再写入
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("reply:\n  client: \"Customer:\"\n"), 0o644))

	select {
	case s := <-reloaded:
		assert.Equal(t, "Customer:", s.Reply.Client)
		assert.NotEmpty(t, s.Reply.Mandate, "fields absent from the file keep their defaults")
	case <-time.After(5 * time.Second):
		t.Fatal("prompts were not reloaded")
	}
}

func TestWatchKeepsTemplatesOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reply: {}\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *Set, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(s *Set) { reloaded <- s })
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("reply: [unclosed\n"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("invalid file must not replace templates")
	case <-time.After(600 * time.Millisecond):
	}
	cancel()
	require.NoError(t, <-done)
}
