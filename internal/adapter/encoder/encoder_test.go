package encoder

import (
	"errors"
	"math/rand"
	"testing"

	"casebase/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab(t *testing.T) domain.Vocabulary {
	t.Helper()
	vocab, err := DeriveVocabulary([]string{"fever", "cough", "rash", "prognosis"})
	require.NoError(t, err)
	return vocab
}

func TestDeriveVocabulary(t *testing.T) {
	vocab := testVocab(t)
	assert.Equal(t, []string{"fever", "cough", "rash"}, vocab.Names())
	assert.Equal(t, "prognosis", vocab.Label())
}

func TestDeriveVocabulary_TooNarrow(t *testing.T) {
	for _, header := range [][]string{nil, {"prognosis"}} {
		_, err := DeriveVocabulary(header)
		var schemaErr *domain.SchemaError
		assert.True(t, errors.As(err, &schemaErr))
	}
}

func TestDeriveVocabulary_StripsBOM(t *testing.T) {
	vocab, err := DeriveVocabulary([]string{"\ufefffever", "prognosis"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fever"}, vocab.Names())
}

func TestEncode(t *testing.T) {
	enc := New(testVocab(t), false)

	tests := []struct {
		name     string
		symptoms []string
		signed   bool
		expected domain.Vector
	}{
		{"single", []string{"fever"}, false, domain.Vector{1, 0, 0}},
		{"order irrelevant", []string{"rash", "cough"}, false, domain.Vector{0, 1, 1}},
		{"case insensitive", []string{" Fever "}, false, domain.Vector{1, 0, 0}},
		{"empty", nil, false, domain.Vector{0, 0, 0}},
		{"signed", []string{"cough"}, true, domain.Vector{-1, 1, -1}},
		{"unknown dropped", []string{"fever", "headache"}, false, domain.Vector{1, 0, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vec, err := enc.Encode(tc.symptoms, tc.signed)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, vec)
		})
	}
}

func TestEncode_Strict(t *testing.T) {
	enc := New(testVocab(t), true)

	_, err := enc.Encode([]string{"fever", "headache", "nausea"}, false)
	var unknownErr *domain.UnknownSymptomError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, []string{"headache", "nausea"}, unknownErr.Names)

	vec, err := enc.Encode([]string{"fever"}, false)
	require.NoError(t, err)
	assert.Equal(t, domain.Vector{1, 0, 0}, vec)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	names := make([]string, 12)
	for i := range names {
		names[i] = string(rune('a'+i)) + "_symptom"
	}
	vocab, err := domain.NewVocabulary(names, "label")
	require.NoError(t, err)
	enc := New(vocab, true)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		var subset []string
		for _, n := range names {
			if rng.Intn(2) == 1 {
				subset = append(subset, n)
			}
		}
		vec, err := enc.Encode(subset, false)
		require.NoError(t, err)
		assert.Equal(t, subset, enc.Decode(vec))
	}
}

func TestNormalize(t *testing.T) {
	enc := New(testVocab(t), false)

	known, unknown := enc.Normalize([]string{"RASH", "fever", "rash", "headache", "Headache", ""})
	assert.Equal(t, []string{"fever", "rash"}, known)
	assert.Equal(t, []string{"headache"}, unknown)
}
