package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/service"
	"github.com/mtlprog/slidekit/internal/smoke"
)

// memoryRecorder keeps recorded builds in memory.
type memoryRecorder struct {
	mu     sync.Mutex
	builds []domain.BuildRecord
	err    error
}

func (m *memoryRecorder) Create(_ context.Context, b *domain.BuildRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.builds = append(m.builds, *b)
	return nil
}

// BuildServiceTestSuite is the test suite for BuildService.
type BuildServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	cfg      config.Config
	recorder *memoryRecorder
	svc      *service.BuildService
}

// SetupTest creates a complete presentation project before each test.
func (s *BuildServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.cfg = config.Config{Root: s.T().TempDir(), Host: "127.0.0.1", Port: 0, Dist: "dist"}

	s.write("index.html", `<html><head><link rel="stylesheet" href="css/custom.css"></head><body><script src="js/custom.js"></script></body></html>`)
	s.write("css/custom.css", "body{}")
	s.write("js/custom.js", "Reveal.initialize();")

	s.recorder = &memoryRecorder{}
	s.svc = service.NewBuildService(s.cfg, s.recorder, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildServiceSuite(t *testing.T) {
	suite.Run(t, new(BuildServiceTestSuite))
}

func (s *BuildServiceTestSuite) write(rel, content string) {
	path := filepath.Join(s.cfg.Root, filepath.FromSlash(rel))
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
}

func (s *BuildServiceTestSuite) TestBuild_RecordsSuccess() {
	report, err := s.svc.Build(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, report.Files)

	s.Require().Len(s.recorder.builds, 1)
	rec := s.recorder.builds[0]
	s.Equal(domain.BuildStatusSucceeded, rec.Status)
	s.Equal(3, rec.Files)
	s.Nil(rec.Error)
	s.NotEmpty(rec.ID)
	s.FileExists(filepath.Join(s.cfg.DistDir(), "js", "custom.js"))
}

func (s *BuildServiceTestSuite) TestBuild_RecordsFailure() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.svc.Build(ctx)
	s.Require().ErrorIs(err, context.Canceled)

	s.Require().Len(s.recorder.builds, 1)
	s.Equal(domain.BuildStatusFailed, s.recorder.builds[0].Status)
	s.Require().NotNil(s.recorder.builds[0].Error)
}

func (s *BuildServiceTestSuite) TestBuild_RecorderErrorDoesNotFailBuild() {
	s.recorder.err = errors.New("database down")

	_, err := s.svc.Build(s.ctx)
	s.NoError(err)
}

func (s *BuildServiceTestSuite) TestBuild_WithoutRecorder() {
	svc := service.NewBuildService(s.cfg, nil, nil)

	_, err := svc.Build(s.ctx)
	s.NoError(err)
}

func (s *BuildServiceTestSuite) TestClean() {
	_, err := s.svc.Build(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Clean(s.ctx))
	s.NoDirExists(s.cfg.DistDir())
	s.NoError(s.svc.Clean(s.ctx))
}

func (s *BuildServiceTestSuite) TestTest_Passes() {
	s.NoError(s.svc.Test(s.ctx, service.TestOptions{References: true, Live: true, LivePort: 0}))
}

func (s *BuildServiceTestSuite) TestTest_MissingFile() {
	s.Require().NoError(os.Remove(filepath.Join(s.cfg.Root, "css", "custom.css")))

	err := s.svc.Test(s.ctx, service.TestOptions{})
	s.ErrorIs(err, domain.ErrMissingRequired)
	s.Contains(err.Error(), "css/custom.css")
}

func (s *BuildServiceTestSuite) TestTest_Runner() {
	if _, err := os.Stat("/bin/sh"); err != nil {
		s.T().Skip("no /bin/sh available")
	}

	err := s.svc.Test(s.ctx, service.TestOptions{Runner: []string{"/bin/sh", "-c", "exit 2"}})
	var suiteErr *smoke.SuiteError
	s.Require().ErrorAs(err, &suiteErr)
	s.Equal(2, suiteErr.ExitCode)
}

func (s *BuildServiceTestSuite) TestDefault_WithBuild() {
	s.Require().NoError(s.svc.Default(s.ctx, true, service.TestOptions{}))
	s.FileExists(filepath.Join(s.cfg.DistDir(), "index.html"))
	s.Len(s.recorder.builds, 1)
}

func (s *BuildServiceTestSuite) TestDefault_TestOnly() {
	s.Require().NoError(s.svc.Default(s.ctx, false, service.TestOptions{}))
	s.NoDirExists(s.cfg.DistDir())
	s.Empty(s.recorder.builds)
}

func (s *BuildServiceTestSuite) TestLint() {
	s.NoError(s.svc.Lint(s.ctx))
}

func (s *BuildServiceTestSuite) TestValidateConfig() {
	s.NoError(service.ValidateConfig(s.cfg))

	bad := s.cfg
	bad.Port = 70000
	s.ErrorIs(service.ValidateConfig(bad), domain.ErrInvalidPort)

	bad = s.cfg
	bad.Root = filepath.Join(s.cfg.Root, "missing")
	s.ErrorIs(service.ValidateConfig(bad), domain.ErrRootNotFound)

	bad = s.cfg
	bad.Root = filepath.Join(s.cfg.Root, "index.html")
	s.ErrorIs(service.ValidateConfig(bad), domain.ErrRootNotDir)

	for _, dist := range []string{".", "..", "../..", "/", filepath.Dir(s.cfg.Root)} {
		bad = s.cfg
		bad.Dist = dist
		s.ErrorIs(service.ValidateConfig(bad), domain.ErrUnsafeDist, dist)
	}

	ok := s.cfg
	ok.Dist = "../" + filepath.Base(s.cfg.Root) + "-dist"
	s.NoError(service.ValidateConfig(ok))
}
