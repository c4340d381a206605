// Package stager assembles the distributable dist/ tree from the project root.
package stager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/copier"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/metrics"
)

// Stager copies the manifest entries of a project into its dist directory.
type Stager struct {
	root     string
	dist     string
	manifest domain.StagingManifest
	copier   *copier.Copier
	logger   *slog.Logger
}

// New creates a Stager for the presentation template layout.
func New(cfg config.Config, logger *slog.Logger) *Stager {
	return NewWithManifest(cfg.Root, cfg.DistDir(), domain.DefaultManifest(domain.VendorLibrary), logger)
}

// NewWithManifest creates a Stager with a custom manifest.
func NewWithManifest(root, dist string, manifest domain.StagingManifest, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stager{
		root:     root,
		dist:     dist,
		manifest: manifest,
		copier:   copier.New(logger, dist),
		logger:   logger,
	}
}

// Dist returns the output directory.
func (s *Stager) Dist() string {
	return s.dist
}

// Clean removes the dist directory. A missing directory is not an error.
func (s *Stager) Clean(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkDist(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.dist); err != nil {
		return fmt.Errorf("remove %s: %w", s.dist, err)
	}

	s.logger.Info("cleaned dist directory", "dist", s.dist)
	return nil
}

// Stage recreates the dist root and copies every manifest entry that exists.
// Absent entries are skipped.
func (s *Stager) Stage(ctx context.Context) (*domain.StageReport, error) {
	if err := s.checkDist(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dist, 0o755); err != nil {
		return nil, fmt.Errorf("create dist directory: %w", err)
	}

	s.logger.Info("building presentation", "root", s.root, "dist", s.dist)

	report := &domain.StageReport{}
	for _, entry := range s.manifest {
		src := filepath.Join(s.root, filepath.FromSlash(entry.Source))
		dst := filepath.Join(s.dist, filepath.FromSlash(entry.Dest))

		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug("skipping absent entry", "entry", entry.Source)
				report.EntriesSkipped = append(report.EntriesSkipped, entry.Source)
				continue
			}
			return report, fmt.Errorf("stat %s: %w", entry.Source, err)
		}

		stats, err := s.copier.CopyTree(ctx, src, dst)
		report.Files += stats.Files
		report.Bytes += stats.Bytes
		report.SpecialSkipped += stats.Skipped
		if err != nil {
			return report, fmt.Errorf("copy %s: %w", entry.Source, err)
		}

		report.EntriesCopied = append(report.EntriesCopied, entry.Source)
		s.logger.Info("copied entry", "entry", entry.Source, "files", stats.Files)
	}

	metrics.RecordStage(report.Files, report.Bytes)
	s.logger.Info("build complete",
		"dist", s.dist,
		"files", report.Files,
		"bytes", report.Bytes,
	)

	return report, nil
}

// Build runs Clean followed by Stage.
func (s *Stager) Build(ctx context.Context) (*domain.StageReport, error) {
	if err := s.Clean(ctx); err != nil {
		return nil, err
	}
	return s.Stage(ctx)
}

func (s *Stager) checkDist() error {
	return CheckDist(s.root, s.dist)
}

// CheckDist refuses a dist directory that equals root or contains it, since
// cleaning it would remove the sources.
func CheckDist(root, dist string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	absDist, err := filepath.Abs(dist)
	if err != nil {
		return fmt.Errorf("resolve dist: %w", err)
	}

	rel, err := filepath.Rel(absDist, absRoot)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("%w: %s contains %s", domain.ErrUnsafeDist, absDist, absRoot)
	}
	return nil
}
