package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"casebase/internal/domain"
	"casebase/internal/port"
)

// PendingFile keeps the pending extent in a side file with the trusted
// schema. Every write replaces the whole file atomically.
type PendingFile struct {
	path string
}

func NewPendingFile(path string) *PendingFile {
	return &PendingFile{path: path}
}

func (p *PendingFile) Path() string {
	return p.path
}

// Write replaces the side file with the given cases. An empty extent still
// writes the header so the file always carries the schema.
func (p *PendingFile) Write(vocab domain.Vocabulary, cases []domain.Case) error {
	if err := checkDims(vocab, cases); err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create pending directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pending-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create pending temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(vocab.Header()); err != nil {
		tmp.Close()
		return err
	}
	if err := writeRows(w, vocab, cases); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		return fmt.Errorf("failed to replace pending file: %w", err)
	}
	return nil
}

// Read returns the cases in the side file. A missing file is an empty extent.
func (p *PendingFile) Read(vocab domain.Vocabulary) ([]domain.Case, error) {
	cases, err := NewCSVStore(p.path).LoadAs(vocab)
	if errors.Is(err, domain.ErrStoreNotFound) {
		return nil, nil
	}
	return cases, err
}

var _ port.PendingStore = (*PendingFile)(nil)
