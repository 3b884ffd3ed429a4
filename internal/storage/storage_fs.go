package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStorage writes run artifacts below Root. Absolute destination paths
// are used as given.
type FSStorage struct {
	Root string
}

func NewFSStorage(root string) *FSStorage {
	return &FSStorage{Root: root}
}

// WriteDocument streams render's output into destPath. The content goes to
// a temporary sibling first and is renamed into place only when render
// and the flush succeed, so a failed write never leaves a partial file.
func (s *FSStorage) WriteDocument(ctx context.Context, destPath string, render func(w io.Writer) error) error {
	return s.writeAtomic(ctx, s.resolve(destPath), render)
}

// WriteLines writes one line per element, replacing any existing file.
func (s *FSStorage) WriteLines(ctx context.Context, destPath string, lines []string) error {
	return s.writeAtomic(ctx, s.resolve(destPath), func(w io.Writer) error {
		for _, line := range lines {
			if _, err := io.WriteString(w, strings.TrimRight(line, "\n")+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *FSStorage) resolve(destPath string) string {
	if filepath.IsAbs(destPath) || s.Root == "" {
		return filepath.Clean(destPath)
	}
	return filepath.Join(s.Root, filepath.FromSlash(destPath))
}

func (s *FSStorage) writeAtomic(ctx context.Context, fullPath string, render func(w io.Writer) error) error {
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := render(buf); err != nil {
		return fail(fmt.Errorf("render: %w", err))
	}
	if err := buf.Flush(); err != nil {
		return fail(fmt.Errorf("write file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync file: %w", err))
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(fmt.Errorf("chmod file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	// Rename replaces a stale file or symlink at the destination without
	// following it.
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
