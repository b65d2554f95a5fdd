// Package metric provides the catalog of dissimilarity functions used to
// compare presence vectors. Every function is pure, returns a non-negative
// value and returns 0 for identical vectors.
package metric

import (
	"fmt"
	"strings"

	"casebase/internal/domain"

	"gonum.org/v1/gonum/mat"
)

// ID identifies a metric in the catalog.
type ID int

const (
	Euclidean ID = iota
	SqEuclidean
	CityBlock
	Chebyshev
	Cosine
	Correlation
	Jaccard
	Dice
	Hamming
	Canberra
	BrayCurtis
	RogersTanimoto
	SokalSneath
	Yule
	Mahalanobis
)

var names = map[ID]string{
	Euclidean:      "euclidean",
	SqEuclidean:    "sqeuclidean",
	CityBlock:      "cityblock",
	Chebyshev:      "chebyshev",
	Cosine:         "cosine",
	Correlation:    "correlation",
	Jaccard:        "jaccard",
	Dice:           "dice",
	Hamming:        "hamming",
	Canberra:       "canberra",
	BrayCurtis:     "braycurtis",
	RogersTanimoto: "rogerstanimoto",
	SokalSneath:    "sokalsneath",
	Yule:           "yule",
	Mahalanobis:    "mahalanobis",
}

var aliases = map[string]ID{
	"manhattan":         CityBlock,
	"city-block":        CityBlock,
	"squared-euclidean": SqEuclidean,
	"matching":          Hamming,
	"bray-curtis":       BrayCurtis,
}

func (id ID) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(id))
}

// Parse resolves a metric name or alias.
func Parse(name string) (ID, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for id, n := range names {
		if n == key {
			return id, nil
		}
	}
	if id, ok := aliases[key]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrUnknownMetric, name)
}

// Params carries per-query data some metrics need.
type Params struct {
	// InvCov is the pseudo-inverse of the feature covariance. Nil means identity.
	InvCov *mat.Dense
}

// Func computes the dissimilarity between two equal-length vectors.
type Func func(u, v []float64, p Params) float64

// Metric is a registered dissimilarity function.
type Metric struct {
	ID              ID
	Fn              Func
	NeedsCovariance bool
}

// Name returns the metric's catalog name.
func (m Metric) Name() string { return m.ID.String() }

// Distance evaluates the metric.
func (m Metric) Distance(u, v []float64, p Params) float64 {
	return m.Fn(u, v, p)
}

// Catalog returns every metric in registration order.
func Catalog() []Metric {
	return []Metric{
		{ID: Euclidean, Fn: euclidean},
		{ID: SqEuclidean, Fn: sqEuclidean},
		{ID: CityBlock, Fn: cityBlock},
		{ID: Chebyshev, Fn: chebyshev},
		{ID: Cosine, Fn: cosine},
		{ID: Correlation, Fn: correlation},
		{ID: Jaccard, Fn: jaccard},
		{ID: Dice, Fn: dice},
		{ID: Hamming, Fn: hamming},
		{ID: Canberra, Fn: canberra},
		{ID: BrayCurtis, Fn: brayCurtis},
		{ID: RogersTanimoto, Fn: rogersTanimoto},
		{ID: SokalSneath, Fn: sokalSneath},
		{ID: Yule, Fn: yule},
		{ID: Mahalanobis, Fn: mahalanobis, NeedsCovariance: true},
	}
}

// Registry is the fixed, ordered set of metrics an engine votes with.
// It is assembled once at startup.
type Registry struct {
	metrics []Metric
}

// DefaultRegistry returns a registry holding the whole catalog.
func DefaultRegistry() *Registry {
	return &Registry{metrics: Catalog()}
}

// NewRegistry returns a registry holding the given metrics in the given order.
func NewRegistry(ids ...ID) (*Registry, error) {
	if len(ids) == 0 {
		return DefaultRegistry(), nil
	}
	byID := make(map[ID]Metric)
	for _, m := range Catalog() {
		byID[m.ID] = m
	}

	seen := make(map[ID]bool)
	reg := &Registry{metrics: make([]Metric, 0, len(ids))}
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnknownMetric, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("metric %s registered twice", id)
		}
		seen[id] = true
		reg.metrics = append(reg.metrics, m)
	}
	return reg, nil
}

// FromNames builds a registry from configured names. Empty means all.
func FromNames(metricNames []string) (*Registry, error) {
	ids := make([]ID, 0, len(metricNames))
	for _, n := range metricNames {
		id, err := Parse(n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return NewRegistry(ids...)
}

// Metrics returns the registered metrics in order.
func (r *Registry) Metrics() []Metric {
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}

// Len returns the number of registered metrics.
func (r *Registry) Len() int { return len(r.metrics) }

// Names returns the registered metric names in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.metrics))
	for i, m := range r.metrics {
		out[i] = m.Name()
	}
	return out
}

// NeedsCovariance reports whether any registered metric uses the covariance.
func (r *Registry) NeedsCovariance() bool {
	for _, m := range r.metrics {
		if m.NeedsCovariance {
			return true
		}
	}
	return false
}
