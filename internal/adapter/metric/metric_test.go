package metric

import (
	"errors"
	"math"
	"testing"

	"casebase/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expected ID
	}{
		{"euclidean", Euclidean},
		{" Mahalanobis ", Mahalanobis},
		{"manhattan", CityBlock},
		{"cityblock", CityBlock},
		{"matching", Hamming},
		{"bray-curtis", BrayCurtis},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Parse(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}

	_, err := Parse("minkowski-7")
	assert.True(t, errors.Is(err, domain.ErrUnknownMetric))
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, len(Catalog()), reg.Len())
	assert.True(t, reg.NeedsCovariance())
	assert.Equal(t, "euclidean", reg.Names()[0])

	reg, err := FromNames([]string{"jaccard", "euclidean"})
	require.NoError(t, err)
	assert.Equal(t, []string{"jaccard", "euclidean"}, reg.Names())
	assert.False(t, reg.NeedsCovariance())

	_, err = FromNames([]string{"jaccard", "jaccard"})
	assert.Error(t, err)

	reg, err = FromNames(nil)
	require.NoError(t, err)
	assert.Equal(t, len(Catalog()), reg.Len())
}

func TestMetricsKnownValues(t *testing.T) {
	u := []float64{1, 0, 0, 1}
	v := []float64{0, 1, 0, 1}

	tests := []struct {
		id       ID
		expected float64
	}{
		{Euclidean, math.Sqrt2},
		{SqEuclidean, 2},
		{CityBlock, 2},
		{Chebyshev, 1},
		{Cosine, 0.5},
		{Jaccard, 2.0 / 3.0},
		{Dice, 0.5},
		{Hamming, 0.5},
		{Canberra, 2},
		{BrayCurtis, 0.5},
		{RogersTanimoto, 4.0 / 6.0},
		{SokalSneath, 0.8},
		{Yule, 2.0 / 3.0},
		{Correlation, 1},
	}

	byID := make(map[ID]Metric)
	for _, m := range Catalog() {
		byID[m.ID] = m
	}

	for _, tc := range tests {
		t.Run(tc.id.String(), func(t *testing.T) {
			got := byID[tc.id].Distance(u, v, Params{})
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestMetricsReflexive(t *testing.T) {
	vectors := [][]float64{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{1, 0, 1, 0},
		{-1, 1, -1, -1},
	}
	inv := mat.NewDense(4, 4, []float64{
		2, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 3,
	})

	for _, m := range Catalog() {
		for _, vec := range vectors {
			d := m.Distance(vec, vec, Params{InvCov: inv})
			assert.Equal(t, 0.0, d, "%s not reflexive for %v", m.Name(), vec)
		}
	}
}

func TestMetricsNonNegativeAndFinite(t *testing.T) {
	vectors := [][]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 1},
		{1, 1, 1},
		{-1, -1, 1},
		{1, 1, -1},
	}
	for _, m := range Catalog() {
		for _, a := range vectors {
			for _, b := range vectors {
				d := m.Distance(a, b, Params{})
				assert.False(t, math.IsNaN(d) || math.IsInf(d, 0), "%s(%v,%v)=%v", m.Name(), a, b, d)
				assert.GreaterOrEqual(t, d, 0.0, "%s(%v,%v)", m.Name(), a, b)
			}
		}
	}
}

func TestCosineZeroVectors(t *testing.T) {
	zero := []float64{0, 0}
	assert.Equal(t, 0.0, cosine(zero, zero, Params{}))
	assert.Equal(t, 1.0, cosine(zero, []float64{1, 0}, Params{}))
}

func TestMahalanobisIdentityMatchesEuclidean(t *testing.T) {
	u := []float64{1, 0, 1}
	v := []float64{0, 0, 0}
	id := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})

	assert.InDelta(t, math.Sqrt2, mahalanobis(u, v, Params{InvCov: id}), 1e-12)
	assert.InDelta(t, math.Sqrt2, mahalanobis(u, v, Params{}), 1e-12)
}
