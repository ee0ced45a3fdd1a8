package ui

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/queryconsole/internal/testutil"
	"github.com/leapstack-labs/queryconsole/internal/ui/features"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	fixture := features.SetupTestFixture(t, features.FixtureOptions{})
	s := NewServer(Config{
		Service:       fixture.Service,
		Metrics:       fixture.Metrics,
		SessionSecret: "test-secret-key-32-bytes-long!!",
		Logger:        testutil.NewTestLogger(t),
	})

	handler, err := s.Handler()
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln, handler) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_WatchFiles(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "queryconsole.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("dev_mode: true\n"), 0o600))

	var reloads atomic.Int32
	s := NewServer(Config{
		Watch:      true,
		WatchFiles: []string{cfgFile},
		OnChange: func(context.Context) error {
			reloads.Add(1)
			return nil
		},
		Logger: testutil.NewTestLogger(t),
	})

	events, unsubscribe := s.Notifier().Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watchFiles(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// give the watcher time to register
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
	for range 3 {
		require.NoError(t, os.WriteFile(cfgFile, []byte("dev_mode: false\n"), 0o600))
	}

	select {
	case ev := <-events:
		assert.Equal(t, "configuration changed: queryconsole.yaml", ev.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after the config file changed")
	}
	assert.Equal(t, int32(1), reloads.Load(), "writes within the debounce window reload once")
}
