package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"casebase/internal/adapter/encoder"
	"casebase/internal/domain"
	"casebase/internal/port"
)

// CSVStore is a tabular case store: a header of symptom columns followed by
// the outcome label column, then one row per case.
type CSVStore struct {
	path string
}

// NewCSVStore returns a store backed by path. The file is not opened yet.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Path() string {
	return s.path
}

// Load reads the vocabulary and every case. A missing file is
// ErrStoreNotFound.
func (s *CSVStore) Load() (domain.Vocabulary, []domain.Case, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Vocabulary{}, nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, s.path)
		}
		return domain.Vocabulary{}, nil, fmt.Errorf("failed to open case store: %w", err)
	}
	defer f.Close()

	return readCases(f, s.path)
}

// LoadAs reads the store and checks its header against vocab.
func (s *CSVStore) LoadAs(vocab domain.Vocabulary) ([]domain.Case, error) {
	got, cases, err := s.Load()
	if err != nil {
		return nil, err
	}
	if !got.Equal(vocab) {
		return nil, &domain.SchemaError{Path: s.path, Reason: "header does not match the trusted vocabulary"}
	}
	return cases, nil
}

// Append adds cases after the last row and syncs the file. The header is
// written first if the file does not exist yet.
func (s *CSVStore) Append(vocab domain.Vocabulary, cases []domain.Case) error {
	if len(cases) == 0 {
		return nil
	}
	if err := checkDims(vocab, cases); err != nil {
		return err
	}

	info, statErr := os.Stat(s.path)
	fresh := errors.Is(statErr, os.ErrNotExist) || (statErr == nil && info.Size() == 0)
	if statErr != nil && !fresh {
		return fmt.Errorf("failed to stat case store: %w", statErr)
	}

	needsNewline := false
	if !fresh {
		var err error
		needsNewline, err = missingTrailingNewline(s.path, info.Size())
		if err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open case store for append: %w", err)
	}
	defer f.Close()

	if needsNewline {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(vocab.Header()); err != nil {
			return err
		}
	}
	if err := writeRows(w, vocab, cases); err != nil {
		return err
	}
	return f.Sync()
}

func missingTrailingNewline(path string, size int64) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, size-1); err != nil {
		return false, err
	}
	return buf[0] != '\n', nil
}

func readCases(r io.Reader, path string) (domain.Vocabulary, []domain.Case, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return domain.Vocabulary{}, nil, &domain.SchemaError{Path: path, Reason: "missing header"}
	}
	if err != nil {
		return domain.Vocabulary{}, nil, &domain.StoreFormatError{Path: path, Line: 1, Reason: err.Error()}
	}

	vocab, err := encoder.DeriveVocabulary(header)
	if err != nil {
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) {
			schemaErr.Path = path
		}
		return domain.Vocabulary{}, nil, err
	}

	var cases []domain.Case
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return domain.Vocabulary{}, nil, &domain.StoreFormatError{Path: path, Line: line, Reason: err.Error()}
		}
		line, _ := reader.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) != len(header) {
			return domain.Vocabulary{}, nil, &domain.StoreFormatError{
				Path:   path,
				Line:   line,
				Reason: fmt.Sprintf("expected %d columns, got %d", len(header), len(record)),
			}
		}

		c, err := parseCase(record)
		if err != nil {
			return domain.Vocabulary{}, nil, &domain.StoreFormatError{Path: path, Line: line, Reason: err.Error()}
		}
		cases = append(cases, c)
	}

	return vocab, cases, nil
}

func parseCase(record []string) (domain.Case, error) {
	n := len(record) - 1
	vec := make(domain.Vector, n)
	for i := 0; i < n; i++ {
		x, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return domain.Case{}, fmt.Errorf("column %d: %q is not a number", i+1, record[i])
		}
		if x != 0 && x != 1 {
			return domain.Case{}, fmt.Errorf("column %d: presence value %v is not 0 or 1", i+1, x)
		}
		vec[i] = x
	}
	label := strings.TrimSpace(record[n])
	if label == "" {
		return domain.Case{}, errors.New("empty outcome label")
	}
	return domain.Case{Vector: vec, Label: label}, nil
}

func checkDims(vocab domain.Vocabulary, cases []domain.Case) error {
	for _, c := range cases {
		if len(c.Vector) != vocab.Len() {
			return fmt.Errorf("case has %d features, vocabulary has %d", len(c.Vector), vocab.Len())
		}
	}
	return nil
}

func writeRows(w *csv.Writer, vocab domain.Vocabulary, cases []domain.Case) error {
	row := make([]string, vocab.Len()+1)
	for _, c := range cases {
		for i, x := range c.Vector {
			row[i] = strconv.FormatFloat(x, 'f', -1, 64)
		}
		row[vocab.Len()] = c.Label
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

var _ port.CaseStore = (*CSVStore)(nil)
