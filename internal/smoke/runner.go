package smoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mtlprog/slidekit/internal/domain"
)

// SuiteError reports a delegated test runner that exited non-zero.
type SuiteError struct {
	Command  string
	ExitCode int
}

func (e *SuiteError) Error() string {
	return fmt.Sprintf("%s: %q exited with code %d", domain.ErrSuiteFailed, e.Command, e.ExitCode)
}

func (e *SuiteError) Unwrap() error {
	return domain.ErrSuiteFailed
}

// RunSuite runs a test-runner command in dir, streaming its output to the
// console.
func RunSuite(ctx context.Context, command []string, dir string) error {
	if len(command) == 0 {
		return errors.New("empty test runner command")
	}
	display := strings.Join(command, " ")

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("running test suite", "command", display, "dir", dir)

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &SuiteError{Command: display, ExitCode: exitErr.ExitCode()}
	}
	if err != nil {
		return fmt.Errorf("run %q: %w", display, err)
	}

	slog.Info("test suite passed", "command", display)
	return nil
}
