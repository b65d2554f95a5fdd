package retriever

import (
	"errors"
	"math"
	"testing"

	"casebase/internal/adapter/library"
	"casebase/internal/adapter/metric"
	"casebase/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLibrary(t *testing.T, cases ...domain.Case) *library.CaseLibrary {
	t.Helper()
	vocab, err := domain.NewVocabulary([]string{"fever", "cough", "rash"}, "prognosis")
	require.NoError(t, err)
	lib, err := library.New(vocab, cases...)
	require.NoError(t, err)
	return lib
}

func resultFor(t *testing.T, r domain.Retrieval, name string) domain.MetricResult {
	t.Helper()
	for _, res := range r.Results {
		if res.Metric == name {
			return res
		}
	}
	t.Fatalf("no result for metric %s", name)
	return domain.MetricResult{}
}

func TestRetrieveFluMeaslesExample(t *testing.T) {
	lib := newLibrary(t,
		domain.Case{Vector: domain.Vector{1, 0, 0}, Label: "flu"},
		domain.Case{Vector: domain.Vector{0, 1, 1}, Label: "measles"},
	)
	reg, err := metric.NewRegistry(metric.Euclidean)
	require.NoError(t, err)

	r := NewNearestRetriever(reg, false, nil)
	got, err := r.Retrieve(lib, domain.Vector{1, 0, 0})
	require.NoError(t, err)
	require.Len(t, got.Results, 1)

	res := got.Results[0]
	assert.Equal(t, "flu", res.Label)
	assert.Equal(t, 0, res.CaseIndex)
	assert.Equal(t, 0.0, res.Distance)
	assert.Equal(t, 1.0, res.Closeness)
}

func TestRetrieveExactMatchEveryCase(t *testing.T) {
	cases := []domain.Case{
		{Vector: domain.Vector{1, 0, 0}, Label: "flu"},
		{Vector: domain.Vector{0, 1, 1}, Label: "measles"},
		{Vector: domain.Vector{1, 1, 0}, Label: "cold"},
		{Vector: domain.Vector{0, 0, 1}, Label: "allergy"},
	}
	lib := newLibrary(t, cases...)
	reg, _ := metric.NewRegistry(metric.Euclidean)
	r := NewNearestRetriever(reg, false, nil)

	for i, c := range cases {
		got, err := r.Retrieve(lib, c.Vector)
		require.NoError(t, err)
		res := got.Results[0]
		assert.Equal(t, i, res.CaseIndex)
		assert.Equal(t, 0.0, res.Distance)
		assert.Equal(t, 1.0, res.Closeness)
	}
}

func TestRetrieveSingleCaseClosenessIsOne(t *testing.T) {
	lib := newLibrary(t, domain.Case{Vector: domain.Vector{0, 1, 1}, Label: "measles"})
	r := NewNearestRetriever(metric.DefaultRegistry(), false, nil)

	for _, q := range []domain.Vector{{1, 0, 0}, {0, 0, 0}, {0, 1, 1}, {1, 1, 1}} {
		got, err := r.Retrieve(lib, q)
		require.NoError(t, err)
		for _, res := range got.Results {
			assert.Equal(t, 1.0, res.Closeness, "metric %s query %v", res.Metric, q)
			assert.Equal(t, "measles", res.Label)
		}
	}
}

func TestRetrieveTieGoesToFirstInserted(t *testing.T) {
	lib := newLibrary(t,
		domain.Case{Vector: domain.Vector{0, 1, 1}, Label: "far"},
		domain.Case{Vector: domain.Vector{1, 1, 0}, Label: "first"},
		domain.Case{Vector: domain.Vector{1, 0, 1}, Label: "second"},
	)
	reg, _ := metric.NewRegistry(metric.Euclidean, metric.CityBlock, metric.Hamming)
	r := NewNearestRetriever(reg, false, nil)

	got, err := r.Retrieve(lib, domain.Vector{1, 0, 0})
	require.NoError(t, err)
	for _, res := range got.Results {
		assert.Equal(t, "first", res.Label, res.Metric)
		assert.Equal(t, 1, res.CaseIndex, res.Metric)
	}
}

func TestRetrieveEmptyLibrary(t *testing.T) {
	lib := newLibrary(t)
	r := NewNearestRetriever(metric.DefaultRegistry(), false, nil)

	_, err := r.Retrieve(lib, domain.Vector{1, 0, 0})
	assert.True(t, errors.Is(err, domain.ErrEmptyLibrary))
}

func TestRetrieveDimensionMismatch(t *testing.T) {
	lib := newLibrary(t, domain.Case{Vector: domain.Vector{1, 0, 0}, Label: "flu"})
	r := NewNearestRetriever(metric.DefaultRegistry(), false, nil)

	_, err := r.Retrieve(lib, domain.Vector{1, 0})
	assert.Error(t, err)
}

func TestRetrieveResultsFollowRegistryOrder(t *testing.T) {
	lib := newLibrary(t,
		domain.Case{Vector: domain.Vector{1, 0, 0}, Label: "flu"},
		domain.Case{Vector: domain.Vector{0, 1, 1}, Label: "measles"},
	)
	reg := metric.DefaultRegistry()
	r := NewNearestRetriever(reg, false, nil)

	got, err := r.Retrieve(lib, domain.Vector{0, 1, 0})
	require.NoError(t, err)

	names := make([]string, len(got.Results))
	for i, res := range got.Results {
		names[i] = res.Metric
		assert.GreaterOrEqual(t, res.Closeness, 0.0)
		assert.LessOrEqual(t, res.Closeness, 1.0)
	}
	assert.Equal(t, reg.Names(), names)
}

func TestRetrieveMahalanobisRankDeficient(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	lib := newLibrary(t,
		domain.Case{Vector: domain.Vector{1, 0, 1}, Label: "a"},
		domain.Case{Vector: domain.Vector{1, 0, 1}, Label: "b"},
		domain.Case{Vector: domain.Vector{1, 0, 1}, Label: "c"},
	)
	reg, _ := metric.NewRegistry(metric.Mahalanobis)

	for _, signed := range []bool{false, true} {
		r := NewNearestRetriever(reg, signed, zap.New(core))
		got, err := r.Retrieve(lib, domain.Vector{0, 1, 0})
		require.NoError(t, err)

		res := resultFor(t, got, "mahalanobis")
		assert.False(t, math.IsNaN(res.Distance) || math.IsInf(res.Distance, 0))
		assert.Equal(t, "a", res.Label)
		require.NotEmpty(t, got.Warnings)
		assert.Contains(t, got.Warnings[0], domain.ErrSingularCovariance.Error())
	}
	assert.Equal(t, 2, logs.FilterMessage("singular feature covariance, using pseudo-inverse").Len())
}

func TestRetrieveMahalanobisPrefersCorrelatedCase(t *testing.T) {
	lib := newLibrary(t,
		domain.Case{Vector: domain.Vector{1, 1, 0}, Label: "cold"},
		domain.Case{Vector: domain.Vector{1, 1, 0}, Label: "cold"},
		domain.Case{Vector: domain.Vector{0, 0, 1}, Label: "allergy"},
		domain.Case{Vector: domain.Vector{0, 1, 1}, Label: "measles"},
		domain.Case{Vector: domain.Vector{1, 0, 0}, Label: "flu"},
	)
	reg, _ := metric.NewRegistry(metric.Mahalanobis)
	r := NewNearestRetriever(reg, false, nil)

	got, err := r.Retrieve(lib, domain.Vector{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, "cold", got.Results[0].Label)
	assert.Equal(t, 0.0, got.Results[0].Distance)
}
