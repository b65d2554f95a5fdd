package library

import (
	"fmt"

	"casebase/internal/domain"
	"casebase/internal/port"

	"gonum.org/v1/gonum/mat"
)

// CaseLibrary is an ordered, append-only collection of cases sharing one
// vocabulary. Order is insertion order and is never changed.
type CaseLibrary struct {
	vocab domain.Vocabulary
	cases []domain.Case
}

// New creates a library holding the given cases.
func New(vocab domain.Vocabulary, cases ...domain.Case) (*CaseLibrary, error) {
	lib := &CaseLibrary{
		vocab: vocab,
		cases: make([]domain.Case, 0, len(cases)),
	}
	for _, c := range cases {
		if err := lib.Append(c); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// LoadTrusted builds a library from the trusted store.
func LoadTrusted(store port.CaseStore) (*CaseLibrary, error) {
	vocab, cases, err := store.Load()
	if err != nil {
		return nil, err
	}
	return New(vocab, cases...)
}

// Append adds a case at the end. The case vector must match the vocabulary.
func (l *CaseLibrary) Append(c domain.Case) error {
	if len(c.Vector) != l.vocab.Len() {
		return fmt.Errorf("case has %d features, vocabulary has %d", len(c.Vector), l.vocab.Len())
	}
	l.cases = append(l.cases, domain.Case{Vector: c.Vector.Clone(), Label: c.Label})
	return nil
}

// Vocabulary returns the library's vocabulary.
func (l *CaseLibrary) Vocabulary() domain.Vocabulary { return l.vocab }

// Len returns the number of cases.
func (l *CaseLibrary) Len() int { return len(l.cases) }

// Dim returns the vector dimensionality.
func (l *CaseLibrary) Dim() int { return l.vocab.Len() }

// Case returns the case at index i. The returned vector must not be modified.
func (l *CaseLibrary) Case(i int) domain.Case { return l.cases[i] }

// FeatureMatrix stacks the current case vectors into a NumCases x N matrix.
// It is rebuilt on every call so it always reflects the current contents.
func (l *CaseLibrary) FeatureMatrix() *mat.Dense {
	if len(l.cases) == 0 || l.vocab.Len() == 0 {
		return nil
	}
	n := l.vocab.Len()
	data := make([]float64, 0, len(l.cases)*n)
	for _, c := range l.cases {
		data = append(data, c.Vector...)
	}
	return mat.NewDense(len(l.cases), n, data)
}

// With returns a new library holding this library's cases followed by extra.
// The receiver is left untouched.
func (l *CaseLibrary) With(extra []domain.Case) (*CaseLibrary, error) {
	out := &CaseLibrary{
		vocab: l.vocab,
		cases: make([]domain.Case, len(l.cases), len(l.cases)+len(extra)),
	}
	copy(out.cases, l.cases)
	for _, c := range extra {
		if err := out.Append(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Without returns a new library with the case at index i left out.
func (l *CaseLibrary) Without(i int) *CaseLibrary {
	out := &CaseLibrary{
		vocab: l.vocab,
		cases: make([]domain.Case, 0, len(l.cases)),
	}
	out.cases = append(out.cases, l.cases[:i]...)
	out.cases = append(out.cases, l.cases[i+1:]...)
	return out
}

// LabelCounts returns the number of cases per outcome label.
func (l *CaseLibrary) LabelCounts() map[string]int {
	counts := make(map[string]int)
	for _, c := range l.cases {
		counts[c.Label]++
	}
	return counts
}

var _ port.CaseBase = (*CaseLibrary)(nil)
