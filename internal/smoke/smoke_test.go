package smoke_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/smoke"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCheckFiles_Pass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<html></html>")
	writeFile(t, root, "css/custom.css", "")
	writeFile(t, root, "js/custom.js", "")

	assert.NoError(t, smoke.CheckFiles(root, smoke.DefaultRequired))
}

func TestCheckFiles_ListsMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<html></html>")
	writeFile(t, root, "js/custom.js", "")

	err := smoke.CheckFiles(root, smoke.DefaultRequired)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingRequired)
	assert.Contains(t, err.Error(), "css/custom.css")

	var missing *smoke.MissingFilesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"css/custom.css"}, missing.Missing)
}

func TestCheckFiles_AggregatesAll(t *testing.T) {
	err := smoke.CheckFiles(t.TempDir(), smoke.DefaultRequired)

	var missing *smoke.MissingFilesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, smoke.DefaultRequired, missing.Missing)
}

func TestProbe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, smoke.Probe(context.Background(), srv.URL+"/", time.Second))
}

func TestProbe_RedirectPasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	assert.NoError(t, smoke.Probe(context.Background(), srv.URL+"/", time.Second))
}

func TestProbe_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := smoke.Probe(context.Background(), srv.URL+"/", time.Second)
	assert.ErrorIs(t, err, domain.ErrServerUnreachable)
}

func TestProbe_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = smoke.Probe(context.Background(), "http://"+addr+"/", time.Second)
	assert.ErrorIs(t, err, domain.ErrServerUnreachable)
}

func TestProbe_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := smoke.Probe(context.Background(), srv.URL+"/", 100*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrServerUnreachable)
	assert.Contains(t, err.Error(), "timed out")
}

func TestLive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<html><body>deck</body></html>")

	cfg := config.Config{Root: root, Host: "127.0.0.1", Port: 0, Dist: "dist"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.NoError(t, smoke.Live(context.Background(), cfg, logger))
}

func TestCheckReferences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", `<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="node_modules/reveal.js/dist/reveal.css">
  <link rel="stylesheet" href="css/custom.css?v=2">
  <link rel="preconnect" href="https://fonts.example.com">
</head>
<body>
  <img src="/images/logo.svg" alt="logo">
  <img src="data:image/png;base64,AAAA" alt="">
  <a href="missing-but-not-an-asset.html">link</a>
  <script src="js/custom.js"></script>
  <script src="js/custom.js"></script>
</body>
</html>`)
	writeFile(t, root, "css/custom.css", "")
	writeFile(t, root, "images/logo.svg", "")

	err := smoke.CheckReferences(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingReferences)

	var refs *smoke.ReferencesError
	require.True(t, errors.As(err, &refs))
	assert.Equal(t, []string{"node_modules/reveal.js/dist/reveal.css", "js/custom.js"}, refs.Missing)

	writeFile(t, root, "node_modules/reveal.js/dist/reveal.css", "")
	writeFile(t, root, "js/custom.js", "")
	assert.NoError(t, smoke.CheckReferences(root))
}

func TestRunSuite(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh available")
	}
	ctx := context.Background()

	assert.NoError(t, smoke.RunSuite(ctx, []string{"/bin/sh", "-c", "exit 0"}, t.TempDir()))

	err := smoke.RunSuite(ctx, []string{"/bin/sh", "-c", "exit 3"}, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrSuiteFailed)

	var suiteErr *smoke.SuiteError
	require.True(t, errors.As(err, &suiteErr))
	assert.Equal(t, 3, suiteErr.ExitCode)

	assert.Error(t, smoke.RunSuite(ctx, nil, t.TempDir()))
}
