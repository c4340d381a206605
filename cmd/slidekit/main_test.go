package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/slidekit/internal/domain"
)

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":     "<html><body></body></html>",
		"css/custom.css": "body{}",
		"js/custom.js":   "",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	return app.Run(append([]string{"slidekit", "--log-level", "error"}, args...))
}

func TestBuildThenClean(t *testing.T) {
	root := newProject(t)

	require.NoError(t, run(t, "--root", root, "build"))
	assert.FileExists(t, filepath.Join(root, "dist", "index.html"))
	assert.FileExists(t, filepath.Join(root, "dist", "css", "custom.css"))

	require.NoError(t, run(t, "--root", root, "clean"))
	assert.NoDirExists(t, filepath.Join(root, "dist"))
}

func TestDefaultActionRunsTest(t *testing.T) {
	root := newProject(t)
	require.NoError(t, run(t, "--root", root))

	require.NoError(t, os.Remove(filepath.Join(root, "js", "custom.js")))
	err := run(t, "--root", root)
	assert.ErrorIs(t, err, domain.ErrMissingRequired)
}

func TestDefaultWithBuild(t *testing.T) {
	root := newProject(t)
	require.NoError(t, run(t, "--root", root, "default", "--build"))
	assert.FileExists(t, filepath.Join(root, "dist", "js", "custom.js"))
}

func TestHistoryRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	err := run(t, "--root", newProject(t), "history")
	assert.ErrorIs(t, err, domain.ErrHistoryDisabled)
}

func TestInvalidPort(t *testing.T) {
	err := run(t, "--root", newProject(t), "--port", "70000", "test")
	assert.ErrorIs(t, err, domain.ErrInvalidPort)
}

func TestReloadWithoutServer(t *testing.T) {
	err := run(t, "--root", newProject(t), "--port", "1", "reload")
	assert.ErrorIs(t, err, domain.ErrServerUnreachable)
}
