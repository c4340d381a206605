package server_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/livereload"
	"github.com/mtlprog/slidekit/internal/middleware"
	"github.com/mtlprog/slidekit/internal/server"
)

func project(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html><body>deck</body></html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "css", "custom.css"), []byte("body{}"), 0o644))
	return config.Config{Root: root, Host: "127.0.0.1", Port: 0, Dist: "dist"}
}

// start runs srv in the background and waits until it is bound.
func start(t *testing.T, srv *server.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("timed out waiting for server")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(15 * time.Second):
			t.Error("server did not stop")
		}
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_InvalidMode(t *testing.T) {
	_, err := server.New(config.Default(), domain.ServerMode("staging"))
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestRun_Prod(t *testing.T) {
	srv, err := server.New(project(t), domain.ServerModeProd, server.WithLogger(quietLogger()))
	require.NoError(t, err)
	start(t, srv)

	resp, err := http.Get(srv.URL() + "/css/custom.css")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, middleware.CacheControlStatic, resp.Header.Get("Cache-Control"))
	assert.Equal(t, "Accept-Encoding", resp.Header.Get("Vary"))
	assert.Nil(t, srv.Hub())
}

func TestRun_PortInUse(t *testing.T) {
	cfg := project(t)
	first, err := server.New(cfg, domain.ServerModeProd, server.WithLogger(quietLogger()))
	require.NoError(t, err)
	start(t, first)

	_, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	cfg.Port, err = strconv.Atoi(port)
	require.NoError(t, err)
	second, err := server.New(cfg, domain.ServerModeProd, server.WithLogger(quietLogger()))
	require.NoError(t, err)

	err = second.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}

func TestRun_DevReloadsOnChange(t *testing.T) {
	cfg := project(t)

	opened := make(chan string, 1)
	srv, err := server.New(cfg, domain.ServerModeDev,
		server.WithLogger(quietLogger()),
		server.WithOpener(func(url string) error {
			opened <- url
			return nil
		}),
	)
	require.NoError(t, err)
	start(t, srv)

	select {
	case url := <-opened:
		assert.Equal(t, srv.URL(), url)
	case <-time.After(time.Second):
		t.Fatal("browser was not opened")
	}

	resp, err := http.Get(srv.URL() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), livereload.Snippet)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+livereload.SocketPath, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello livereload.Message
	require.NoError(t, conn.ReadJSON(&hello))

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "css", "custom.css"), []byte("body{color:red}"), 0o644))

	var msg livereload.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, livereload.CommandReload, msg.Command)
	assert.Equal(t, "css/custom.css", msg.Path)
}
