package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/smoke"
	"github.com/mtlprog/slidekit/internal/stager"
)

// BuildRecorder persists build outcomes.
type BuildRecorder interface {
	Create(ctx context.Context, b *domain.BuildRecord) error
}

// TestOptions selects the optional checks run after the required-files check.
type TestOptions struct {
	References bool
	Live       bool
	LivePort   int
	Runner     []string
}

// BuildService runs the named project tasks.
type BuildService struct {
	cfg      config.Config
	stager   *stager.Stager
	recorder BuildRecorder
	logger   *slog.Logger
}

// NewBuildService creates a BuildService. recorder may be nil, in which case
// builds are not recorded.
func NewBuildService(cfg config.Config, recorder BuildRecorder, logger *slog.Logger) *BuildService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildService{
		cfg:      cfg,
		stager:   stager.New(cfg, logger),
		recorder: recorder,
		logger:   logger,
	}
}

// Clean removes the dist directory.
func (s *BuildService) Clean(ctx context.Context) error {
	return s.stager.Clean(ctx)
}

// Build cleans and stages the project, then records the outcome.
func (s *BuildService) Build(ctx context.Context) (*domain.StageReport, error) {
	started := time.Now()

	report, err := s.stager.Build(ctx)

	s.record(ctx, started, report, err)
	if err != nil {
		s.logger.Error("build failed", "error", err)
		return report, err
	}
	return report, nil
}

// record stores the build outcome. A recording failure never fails the build.
func (s *BuildService) record(ctx context.Context, started time.Time, report *domain.StageReport, buildErr error) {
	if s.recorder == nil {
		return
	}

	rec := &domain.BuildRecord{
		ID:         uuid.NewString(),
		Root:       s.cfg.Root,
		Dist:       s.stager.Dist(),
		DurationMS: time.Since(started).Milliseconds(),
		Status:     domain.BuildStatusSucceeded,
		StartedAt:  started,
	}
	if report != nil {
		rec.Files = report.Files
		rec.Bytes = report.Bytes
		rec.Skipped = len(report.EntriesSkipped) + report.SpecialSkipped
	}
	if buildErr != nil {
		msg := buildErr.Error()
		rec.Status = domain.BuildStatusFailed
		rec.Error = &msg
	}

	// A cancelled build context must not prevent recording its failure.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.recorder.Create(recordCtx, rec); err != nil {
		s.logger.Warn("failed to record build", "build_id", rec.ID, "error", err)
		return
	}
	s.logger.Debug("build recorded", "build_id", rec.ID, "status", rec.Status)
}

// Test runs the smoke checks selected by opts. The required-files check
// always runs first; later checks are skipped once one fails.
func (s *BuildService) Test(ctx context.Context, opts TestOptions) error {
	s.logger.Info("running template tests", "root", s.cfg.Root)

	if err := smoke.CheckFiles(s.cfg.Root, smoke.DefaultRequired); err != nil {
		var missing *smoke.MissingFilesError
		if errors.As(err, &missing) {
			s.logger.Error("missing required files", "missing", missing.Missing)
		}
		return err
	}
	s.logger.Info("all required template files found")

	if opts.References {
		if err := smoke.CheckReferences(s.cfg.Root); err != nil {
			return err
		}
		s.logger.Info("all asset references resolved")
	}

	if opts.Live {
		liveCfg := s.cfg
		liveCfg.Port = opts.LivePort
		if err := smoke.Live(ctx, liveCfg, s.logger); err != nil {
			return err
		}
		s.logger.Info("server liveness check passed", "port", opts.LivePort)
	}

	if len(opts.Runner) > 0 {
		if err := smoke.RunSuite(ctx, opts.Runner, s.cfg.Root); err != nil {
			return err
		}
	}

	s.logger.Info("template tests passed")
	return nil
}

// Default runs the test task, preceded by a build when withBuild is set.
func (s *BuildService) Default(ctx context.Context, withBuild bool, opts TestOptions) error {
	if withBuild {
		if _, err := s.Build(ctx); err != nil {
			return err
		}
	}
	return s.Test(ctx, opts)
}

// Lint is a placeholder; linting runs in the project's pre-commit hooks.
func (s *BuildService) Lint(ctx context.Context) error {
	s.logger.Info("lint: nothing to do, linting runs in pre-commit hooks")
	return ctx.Err()
}
