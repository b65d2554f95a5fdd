package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"casebase/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDiagnosePromoteFlow(t *testing.T) {
	dir := t.TempDir()
	trusted := filepath.Join(dir, "input", "database.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(trusted), 0755))
	require.NoError(t, os.WriteFile(trusted, []byte("fever,cough,rash,diagnosis\n1,0,0,flu\n0,1,1,measles\n"), 0644))

	out, err := execute(t, "symptoms", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 symptoms")
	assert.Contains(t, out, "  cough\n")

	out, err = execute(t, "diagnose", "fever", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Diagnosis: flu")
	assert.Contains(t, out, "Recorded as pending #1")

	out, err = execute(t, "pending", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] fever -> flu")

	out, err = execute(t, "promote", "--all", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Promoted 1 inferences")

	out, err = execute(t, "stats", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Trusted cases: 3")
	assert.Contains(t, out, "Pending:       0")

	data, err := os.ReadFile(trusted)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"))
	assert.True(t, strings.HasSuffix(string(data), "1,0,0,flu\n"))
}

func TestMissingTrustedStoreIsStartupError(t *testing.T) {
	_, err := execute(t, "discard", "--dir", t.TempDir())
	require.Error(t, err)
	assert.True(t, domain.IsStartupError(err))
}

func TestParseIndices(t *testing.T) {
	got, err := parseIndices([]string{"1", "3"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got)

	got, err = parseIndices(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, bad := range []string{"0", "-2", "two"} {
		_, err := parseIndices([]string{bad})
		assert.Error(t, err, bad)
	}
}
