// Package smoke holds the one-shot checks run by the test command.
package smoke

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtlprog/slidekit/internal/domain"
)

// DefaultRequired lists the files every presentation must ship.
var DefaultRequired = []string{"index.html", "css/custom.css", "js/custom.js"}

// MissingFilesError lists every required path that was not found.
type MissingFilesError struct {
	Missing []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrMissingRequired, strings.Join(e.Missing, ", "))
}

func (e *MissingFilesError) Unwrap() error {
	return domain.ErrMissingRequired
}

// CheckFiles verifies that each required slash-separated path exists under
// root. All missing paths are reported together.
func CheckFiles(root string, required []string) error {
	var missing []string
	for _, rel := range required {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", rel, err)
		}
		missing = append(missing, rel)
	}
	if len(missing) > 0 {
		return &MissingFilesError{Missing: missing}
	}
	return nil
}
