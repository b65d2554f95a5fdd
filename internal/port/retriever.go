package port

import (
	"casebase/internal/domain"

	"gonum.org/v1/gonum/mat"
)

// CaseBase is a read-only view of the cases retrieval runs against.
type CaseBase interface {
	Len() int
	Dim() int
	Case(i int) domain.Case

	// FeatureMatrix stacks all case vectors, one row per case.
	// It returns nil for an empty base.
	FeatureMatrix() *mat.Dense
}

// Retriever finds, per metric, the case nearest to a query vector.
type Retriever interface {
	Retrieve(base CaseBase, query domain.Vector) (domain.Retrieval, error)
}
