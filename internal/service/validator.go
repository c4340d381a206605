package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/stager"
)

// ValidateConfig checks the values shared by every command before any work
// starts.
func ValidateConfig(cfg config.Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidPort, cfg.Port)
	}

	info, err := os.Stat(cfg.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrRootNotFound, cfg.Root)
	}
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrRootNotDir, cfg.Root)
	}

	if err := stager.CheckDist(cfg.Root, cfg.DistDir()); err != nil {
		return err
	}

	return nil
}
