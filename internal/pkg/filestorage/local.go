// Package filestorage keeps a copy of every uploaded source spreadsheet.
package filestorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yigit/internhub/internal/pkg/logger"
)

// Archive stores import sources by kind and batch.
type Archive interface {
	// Save copies r to <kind>/<batchID><ext of filename> and returns the stored path.
	Save(kind string, batchID uuid.UUID, filename string, r io.Reader) (string, error)
	// Open returns the archived source of a batch.
	Open(kind string, batchID uuid.UUID, ext string) (*os.File, error)
}

// LocalStorage archives files on the local filesystem.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a LocalStorage rooted at basePath, creating it if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create archive directory")
		return nil, fmt.Errorf("failed to create archive directory %s: %w", basePath, err)
	}
	logger.Debug().Str("path", basePath).Msg("Archive directory ensured")
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) path(kind string, batchID uuid.UUID, ext string) string {
	return filepath.Join(ls.basePath, filepath.Base(kind), batchID.String()+strings.ToLower(ext))
}

// Save writes the file atomically: content goes to a temp file that is renamed
// into place once complete.
func (ls *LocalStorage) Save(kind string, batchID uuid.UUID, filename string, r io.Reader) (string, error) {
	dstPath := ls.path(kind, batchID, filepath.Ext(filename))
	dir := filepath.Dir(dstPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create archive subdirectory")
		return "", fmt.Errorf("failed to create archive subdirectory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy source file")
		return "", fmt.Errorf("failed to save file content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to save file content: %w", err)
	}
	if err := os.Rename(tmp.Name(), dstPath); err != nil {
		return "", fmt.Errorf("failed to move archived file into place: %w", err)
	}

	logger.Info().Str("filename", filename).Str("archived_as", dstPath).Msg("Source file archived")
	return dstPath, nil
}

// Open opens an archived source.
func (ls *LocalStorage) Open(kind string, batchID uuid.UUID, ext string) (*os.File, error) {
	return os.Open(ls.path(kind, batchID, ext))
}
