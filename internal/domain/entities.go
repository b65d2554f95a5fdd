package domain

import "time"

// Vector is a presence-encoded symptom vector. Elements are 0/1, or -1/1 in
// signed mode.
type Vector []float64

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Signed maps an unsigned presence vector onto -1/1.
func (v Vector) Signed() Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		if x > 0 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}

// Case is an encoded symptom vector paired with its outcome label.
type Case struct {
	Vector Vector
	Label  string
}

// MetricResult is the nearest case found under a single metric.
type MetricResult struct {
	Metric    string  `json:"metric"`
	CaseIndex int     `json:"case_index"`
	Label     string  `json:"label"`
	Distance  float64 `json:"distance"`
	Closeness float64 `json:"closeness"`
}

// Vote is one label's share of the decision, in percent.
type Vote struct {
	Label string  `json:"label"`
	Share float64 `json:"share"`
	Count int     `json:"count"`
}

// VoteBreakdown lists label shares in first-encountered order. Shares sum to 100.
type VoteBreakdown []Vote

// Share returns the share for label, or 0.
func (b VoteBreakdown) Share(label string) float64 {
	for _, v := range b {
		if v.Label == label {
			return v.Share
		}
	}
	return 0
}

// Decision is the aggregated outcome of one inference.
type Decision struct {
	Label     string         `json:"label"`
	Mode      string         `json:"mode"`
	Breakdown VoteBreakdown  `json:"breakdown"`
	Results   []MetricResult `json:"results"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// PendingHandle identifies a pending inference within a session.
type PendingHandle string

// InferenceRecord pairs the reported symptoms and winning label with the
// case generated from them.
type InferenceRecord struct {
	ID        PendingHandle `json:"id"`
	Symptoms  []string      `json:"symptoms"`
	Label     string        `json:"label"`
	Case      Case          `json:"case"`
	Breakdown VoteBreakdown `json:"breakdown,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// LibraryStats summarises a case library for console output.
type LibraryStats struct {
	Symptoms     int            `json:"symptoms"`
	TrustedCases int            `json:"trusted_cases"`
	PendingCases int            `json:"pending_cases"`
	Labels       map[string]int `json:"labels"`
}

// Retrieval holds the per-metric nearest cases for one query, in metric
// registration order, plus any non-fatal warnings raised while computing them.
type Retrieval struct {
	Results  []MetricResult
	Warnings []string
}
