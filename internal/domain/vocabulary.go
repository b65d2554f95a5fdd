package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Vocabulary is the ordered set of symptom names plus the outcome label
// column. It defines vector dimensionality and feature order.
type Vocabulary struct {
	names []string
	label string
	index map[string]int
}

// NormalizeSymptom folds a symptom name for membership checks.
func NormalizeSymptom(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewVocabulary builds a vocabulary from symptom names in column order.
func NewVocabulary(names []string, label string) (Vocabulary, error) {
	if len(names) == 0 {
		return Vocabulary{}, &SchemaError{Reason: "no symptom columns"}
	}
	if strings.TrimSpace(label) == "" {
		return Vocabulary{}, &SchemaError{Reason: "empty outcome label column"}
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		key := NormalizeSymptom(name)
		if key == "" {
			return Vocabulary{}, &SchemaError{Reason: "empty symptom column name"}
		}
		if _, dup := index[key]; dup {
			return Vocabulary{}, &SchemaError{Reason: "duplicate symptom column " + name}
		}
		index[key] = i
	}

	owned := make([]string, len(names))
	copy(owned, names)
	return Vocabulary{names: owned, label: label, index: index}, nil
}

// Len returns the number of symptoms.
func (v Vocabulary) Len() int { return len(v.names) }

// Label returns the outcome label column name.
func (v Vocabulary) Label() string { return v.label }

// Names returns the symptom names in column order.
func (v Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Name returns the symptom name at position i.
func (v Vocabulary) Name(i int) string { return v.names[i] }

// Index returns the position of a symptom, matching case-insensitively.
func (v Vocabulary) Index(name string) (int, bool) {
	i, ok := v.index[NormalizeSymptom(name)]
	return i, ok
}

// Contains reports whether name is a known symptom.
func (v Vocabulary) Contains(name string) bool {
	_, ok := v.Index(name)
	return ok
}

// Header returns the store header: symptoms followed by the label column.
func (v Vocabulary) Header() []string {
	return append(v.Names(), v.label)
}

// Equal reports whether two vocabularies share the same header.
func (v Vocabulary) Equal(other Vocabulary) bool {
	if len(v.names) != len(other.names) || v.label != other.label {
		return false
	}
	for i := range v.names {
		if v.names[i] != other.names[i] {
			return false
		}
	}
	return true
}

// Hash fingerprints the header so persisted vectors can be checked against it.
func (v Vocabulary) Hash() string {
	h := sha256.New()
	for _, col := range v.Header() {
		h.Write([]byte(col))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}
