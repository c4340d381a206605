// Package copier duplicates directory trees file for file.
//
// Regular files are copied byte for byte and keep their permission bits.
// Symbolic links, devices, sockets and named pipes inside a tree are skipped
// with a warning. The src passed to CopyTree is followed when it is a link.
// A failure aborts the copy and leaves already written files in place.
package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mtlprog/slidekit/internal/domain"
)

const dirPerm = 0o755

// Stats counts what a copy pass did.
type Stats struct {
	Files   int
	Bytes   int64
	Skipped int
}

// Add accumulates another pass into s.
func (s *Stats) Add(o Stats) {
	s.Files += o.Files
	s.Bytes += o.Bytes
	s.Skipped += o.Skipped
}

// Copier copies trees, never descending into excluded paths.
type Copier struct {
	logger  *slog.Logger
	exclude map[string]struct{}
}

// New creates a Copier. Exclude holds paths (typically the output directory)
// that are never read as sources.
func New(logger *slog.Logger, exclude ...string) *Copier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Copier{logger: logger, exclude: make(map[string]struct{}, len(exclude))}
	for _, p := range exclude {
		if abs, err := filepath.Abs(p); err == nil {
			c.exclude[abs] = struct{}{}
		}
	}
	return c
}

// CopyTree copies every regular file under src to the same relative path
// under dst. A missing src is a no-op.
func (c *Copier) CopyTree(ctx context.Context, src, dst string) (Stats, error) {
	var stats Stats

	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("stat source %s: %w", src, err)
	}
	if !info.IsDir() {
		n, err := c.CopyFile(src, dst)
		if err != nil {
			return stats, err
		}
		stats.Files, stats.Bytes = 1, n
		return stats, nil
	}

	walkRoot, err := resolveRoot(src)
	if err != nil {
		return stats, err
	}

	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk %s: %w", path, walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.excluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)

		node, ok := classify(path, d)
		if !ok {
			c.logger.Warn("skipping non-regular file", "path", path, "mode", d.Type().String())
			stats.Skipped++
			return nil
		}

		if node.IsDir() {
			if err := os.MkdirAll(target, dirPerm); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			return nil
		}

		n, err := c.CopyFile(path, target)
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})
	if err != nil {
		return stats, err
	}

	return stats, nil
}

// CopyFile copies one regular file, creating parent directories and
// overwriting any existing destination.
func (c *Copier) CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", filepath.Dir(dst), err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", dst, err)
	}

	c.logger.Debug("copied file", "src", src, "dst", dst, "bytes", n)
	return n, nil
}

// resolveRoot returns the target of a symlinked src, since WalkDir does not
// descend through a link at its root.
func resolveRoot(src string) (string, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return "", fmt.Errorf("stat source %s: %w", src, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return src, nil
	}
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return "", fmt.Errorf("resolve source %s: %w", src, err)
	}
	return resolved, nil
}

func (c *Copier) excluded(path string) bool {
	if len(c.exclude) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := c.exclude[abs]
	return ok
}

// classify maps a directory entry to a tree node. Anything that is neither a
// directory nor a regular file is rejected.
func classify(path string, d fs.DirEntry) (domain.FileTreeNode, bool) {
	switch {
	case d.IsDir():
		return domain.FileTreeNode{Path: path, Kind: domain.NodeKindDirectory}, true
	case d.Type().IsRegular():
		return domain.FileTreeNode{Path: path, Kind: domain.NodeKindFile}, true
	default:
		return domain.FileTreeNode{}, false
	}
}

// List enumerates the regular files and directories under root, depth first,
// with slash-separated paths relative to root. The root itself is omitted.
func List(root string) ([]domain.FileTreeNode, error) {
	var nodes []domain.FileTreeNode
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		node, ok := classify(path, d)
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		node.Path = filepath.ToSlash(rel)
		nodes = append(nodes, node)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	return nodes, nil
}
