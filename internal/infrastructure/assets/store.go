// Package assets provides the disk-backed store for item logo files.
package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/id"
	"clinipos/pkg/logger"
)

// DiskStore stores logo assets as files under a base directory. The
// returned reference is the bare file name, opaque to callers.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates the store and its directory.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir %s: %w", baseDir, err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

// Save writes an uploaded logo and returns its reference.
// The original name contributes only its extension.
func (s *DiskStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".svg":
	default:
		return "", apperror.NewValidation("unsupported logo file type").
			WithDetail("field", "logo").
			WithDetail("extension", ext)
	}

	ref := id.New().String() + ext
	path := filepath.Join(s.baseDir, ref)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write asset file: %w", err)
	}

	logger.Debug(ctx, "logo stored", "ref", ref)
	return ref, nil
}

// Delete removes a stored asset. A missing file is not an error.
func (s *DiskStore) Delete(ctx context.Context, ref string) error {
	// The ref must stay inside the base dir.
	if ref == "" || ref != filepath.Base(ref) {
		return apperror.NewValidation("invalid asset reference").WithDetail("ref", ref)
	}

	err := os.Remove(filepath.Join(s.baseDir, ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete asset %s: %w", ref, err)
	}
	return nil
}

// Path returns the on-disk path for a stored reference.
func (s *DiskStore) Path(ref string) string {
	return filepath.Join(s.baseDir, filepath.Base(ref))
}
