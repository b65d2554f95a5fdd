package usecase

import (
	"casebase/internal/domain"
	"casebase/internal/port"
)

// DiagnoseUseCase runs retrieval over a case base and aggregates the
// per-metric results into a decision.
type DiagnoseUseCase struct {
	retriever  port.Retriever
	aggregator *Aggregator
}

// NewDiagnoseUseCase creates a new diagnose use case.
func NewDiagnoseUseCase(retriever port.Retriever, aggregator *Aggregator) *DiagnoseUseCase {
	return &DiagnoseUseCase{
		retriever:  retriever,
		aggregator: aggregator,
	}
}

// Diagnose returns the decision for an encoded query.
func (u *DiagnoseUseCase) Diagnose(base port.CaseBase, query domain.Vector) (domain.Decision, error) {
	retrieval, err := u.retriever.Retrieve(base, query)
	if err != nil {
		return domain.Decision{}, err
	}

	decision, err := u.aggregator.Decide(retrieval.Results)
	if err != nil {
		return domain.Decision{}, err
	}
	decision.Warnings = retrieval.Warnings
	return decision, nil
}

// WinningCase builds the case recorded for a decision: the query vector
// labelled with the winning outcome.
func WinningCase(query domain.Vector, d domain.Decision) domain.Case {
	return domain.Case{Vector: query.Clone(), Label: d.Label}
}
