package store

import (
	"os"
	"path/filepath"
	"testing"

	"casebase/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab(t *testing.T) domain.Vocabulary {
	t.Helper()
	vocab, err := domain.NewVocabulary([]string{"fever", "cough", "rash"}, "diagnosis")
	require.NoError(t, err)
	return vocab
}

func TestPendingFileMissingIsEmpty(t *testing.T) {
	p := NewPendingFile(filepath.Join(t.TempDir(), "output", "library.csv"))

	cases, err := p.Read(testVocab(t))
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestPendingFileWriteReplaces(t *testing.T) {
	vocab := testVocab(t)
	path := filepath.Join(t.TempDir(), "output", "library.csv")
	p := NewPendingFile(path)

	first := []domain.Case{
		{Vector: domain.Vector{1, 0, 0}, Label: "flu"},
		{Vector: domain.Vector{0, 1, 1}, Label: "measles"},
	}
	require.NoError(t, p.Write(vocab, first))

	got, err := p.Read(vocab)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	require.NoError(t, p.Write(vocab, first[1:]))
	got, err = p.Read(vocab)
	require.NoError(t, err)
	assert.Equal(t, first[1:], got)
}

func TestPendingFileEmptyExtentKeepsHeader(t *testing.T) {
	vocab := testVocab(t)
	path := filepath.Join(t.TempDir(), "library.csv")
	p := NewPendingFile(path)

	require.NoError(t, p.Write(vocab, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fever,cough,rash,diagnosis\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPendingFileRejectsOtherVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.csv")
	p := NewPendingFile(path)
	require.NoError(t, p.Write(testVocab(t), []domain.Case{{Vector: domain.Vector{1, 0, 0}, Label: "flu"}}))

	other, err := domain.NewVocabulary([]string{"fever", "cough", "headache"}, "diagnosis")
	require.NoError(t, err)

	_, err = p.Read(other)
	var schemaErr *domain.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}
