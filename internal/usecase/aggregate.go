package usecase

import (
	"errors"
	"fmt"
	"strings"

	"casebase/internal/domain"
)

// AggregationMode selects how per-metric opinions become one decision.
type AggregationMode string

const (
	// ModePlurality counts one vote per metric.
	ModePlurality AggregationMode = "plurality"
	// ModeWeighted weights each metric's vote by its closeness.
	ModeWeighted AggregationMode = "weighted"
	// ModeClosest takes the label of the single metric with the highest
	// closeness. The breakdown is reported for information only.
	ModeClosest AggregationMode = "closest"
)

var errNoResults = errors.New("no metric results to aggregate")

// ParseAggregationMode resolves a configured mode name.
func ParseAggregationMode(s string) (AggregationMode, error) {
	switch m := AggregationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePlurality, ModeWeighted, ModeClosest:
		return m, nil
	case "":
		return ModePlurality, nil
	default:
		return "", fmt.Errorf("unknown aggregation mode: %q", s)
	}
}

// Aggregator turns per-metric retrieval results into a decision.
type Aggregator struct {
	mode AggregationMode
}

// NewAggregator creates an aggregator. An empty mode means plurality.
func NewAggregator(mode AggregationMode) *Aggregator {
	if mode == "" {
		mode = ModePlurality
	}
	return &Aggregator{mode: mode}
}

// Mode returns the aggregation mode.
func (a *Aggregator) Mode() AggregationMode {
	return a.mode
}

// Decide picks the winning label and computes the vote breakdown. Labels are
// ordered by first appearance in metric registration order; ties between
// equal shares go to the earliest label.
func (a *Aggregator) Decide(results []domain.MetricResult) (domain.Decision, error) {
	if len(results) == 0 {
		return domain.Decision{}, errNoResults
	}

	decision := domain.Decision{
		Mode:    string(a.mode),
		Results: append([]domain.MetricResult(nil), results...),
	}

	switch a.mode {
	case ModePlurality:
		decision.Breakdown = tally(results, false)
		decision.Label = leader(decision.Breakdown)
	case ModeWeighted:
		decision.Breakdown = tally(results, true)
		decision.Label = leader(decision.Breakdown)
	case ModeClosest:
		decision.Breakdown = tally(results, false)
		best := 0
		for i, r := range results {
			if r.Closeness > results[best].Closeness {
				best = i
			}
		}
		decision.Label = results[best].Label
	default:
		return domain.Decision{}, fmt.Errorf("unknown aggregation mode: %q", a.mode)
	}

	return decision, nil
}

// tally computes label shares summing to 100. Weighted shares fall back to
// plain counts when every closeness is zero.
func tally(results []domain.MetricResult, weighted bool) domain.VoteBreakdown {
	var breakdown domain.VoteBreakdown
	pos := make(map[string]int)
	weights := make([]float64, 0, len(results))
	total := 0.0

	for _, r := range results {
		i, ok := pos[r.Label]
		if !ok {
			i = len(breakdown)
			pos[r.Label] = i
			breakdown = append(breakdown, domain.Vote{Label: r.Label})
			weights = append(weights, 0)
		}
		breakdown[i].Count++
		w := 1.0
		if weighted {
			w = r.Closeness
		}
		weights[i] += w
		total += w
	}

	if total == 0 {
		total = float64(len(results))
		for i := range breakdown {
			weights[i] = float64(breakdown[i].Count)
		}
	}

	for i := range breakdown {
		breakdown[i].Share = weights[i] / total * 100
	}
	return breakdown
}

func leader(breakdown domain.VoteBreakdown) string {
	best := 0
	for i, v := range breakdown {
		if v.Share > breakdown[best].Share {
			best = i
		}
	}
	return breakdown[best].Label
}
