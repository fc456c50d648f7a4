package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/ports"
)

// JSONStore keeps the processed set as a sorted JSON array of ids.
type JSONStore struct {
	path   string
	logger *slog.Logger
}

var _ ports.ProcessedStore = (*JSONStore)(nil)

// NewJSONStore binds the store to path.
func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &JSONStore{path: path, logger: logger}
}

// Load reads the set. A missing, empty or malformed file yields an empty set.
func (s *JSONStore) Load(context.Context) domain.ProcessedSet {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("processed videos file not found, starting empty", "path", s.path)
		return domain.NewProcessedSet()
	case err != nil:
		s.logger.Error("could not read processed videos file, starting empty", "path", s.path, "error", err)
		return domain.NewProcessedSet()
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return domain.NewProcessedSet()
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Error("processed videos file is malformed, starting empty", "path", s.path, "error", err)
		return domain.NewProcessedSet()
	}
	return domain.NewProcessedSet(ids...)
}

// Save replaces the file contents with the full set.
func (s *JSONStore) Save(_ context.Context, set domain.ProcessedSet) error {
	data, err := json.MarshalIndent(set.IDs(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal processed ids: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save processed ids to %s: %w", s.path, err)
	}
	return nil
}
