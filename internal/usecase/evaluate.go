package usecase

import (
	"fmt"

	"casebase/internal/adapter/library"
	"casebase/internal/domain"
	"casebase/internal/port"
)

// EvaluateUseCase measures leave-one-out accuracy of each metric and of
// the aggregated ensemble over a case library.
type EvaluateUseCase struct {
	retriever  port.Retriever
	aggregator *Aggregator
}

// NewEvaluateUseCase creates a new evaluate use case. The retriever must not
// cache results, since every round runs against a different base.
func NewEvaluateUseCase(retriever port.Retriever, aggregator *Aggregator) *EvaluateUseCase {
	return &EvaluateUseCase{
		retriever:  retriever,
		aggregator: aggregator,
	}
}

// Score counts correct predictions.
type Score struct {
	Name    string  `json:"name"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

func (s *Score) add(correct bool) {
	s.Total++
	if correct {
		s.Correct++
	}
	s.Percent = float64(s.Correct) / float64(s.Total) * 100
}

// EvaluateResult holds per-metric and ensemble accuracy.
type EvaluateResult struct {
	Metrics  []Score `json:"metrics"`
	Ensemble Score   `json:"ensemble"`
	Warnings int     `json:"warnings"`
}

// Evaluate holds out each case in turn and predicts its label from the rest.
// progress, if not nil, is called after each round.
func (u *EvaluateUseCase) Evaluate(lib *library.CaseLibrary, progress func(done, total int)) (*EvaluateResult, error) {
	if lib.Len() < 2 {
		return nil, fmt.Errorf("%w: leave-one-out needs at least 2 cases", domain.ErrEmptyLibrary)
	}

	result := &EvaluateResult{
		Ensemble: Score{Name: string(u.aggregator.Mode())},
	}
	pos := make(map[string]int)

	for i := 0; i < lib.Len(); i++ {
		held := lib.Case(i)
		retrieval, err := u.retriever.Retrieve(lib.Without(i), held.Vector)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
		result.Warnings += len(retrieval.Warnings)

		for _, r := range retrieval.Results {
			j, ok := pos[r.Metric]
			if !ok {
				j = len(result.Metrics)
				pos[r.Metric] = j
				result.Metrics = append(result.Metrics, Score{Name: r.Metric})
			}
			result.Metrics[j].add(r.Label == held.Label)
		}

		decision, err := u.aggregator.Decide(retrieval.Results)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
		result.Ensemble.add(decision.Label == held.Label)

		if progress != nil {
			progress(i+1, lib.Len())
		}
	}

	return result, nil
}
