package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"casebase/internal/adapter/fs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportSeedFiles(t *testing.T) {
	f := newFixture(t, fixtureOptions{retain: true})

	seedDir := filepath.Join(f.dir, "seed")
	require.NoError(t, os.MkdirAll(seedDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "a.csv"),
		[]byte("fever,cough,rash,diagnosis\n1,1,0,cold\n0,0,1,allergy\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "b.csv"),
		[]byte("fever,headache,diagnosis\n1,1,migraine\n"), 0644))

	u := NewImportUseCase(f.engine, fs.NewWalker(nil, nil), nil, f.trustedPath, f.pendingPath)

	var last int
	result, err := u.Import(f.dir, func(done, total int) { last = done })
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesImported)
	assert.Equal(t, 1, result.FilesSkipped)
	assert.Equal(t, 2, result.CasesAdded)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "seed/b.csv")
	assert.Equal(t, 2, last)

	assert.Equal(t, 4, f.trustedRows(t))
	assert.Equal(t, 4, f.engine.Session().Trusted().Len())
	assert.Empty(t, f.engine.ListPending())
}
