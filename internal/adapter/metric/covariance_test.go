package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPseudoInverseOfInvertible(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{4, 7, 2, 6})

	inv, rank, err := PseudoInverse(a)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	var prod mat.Dense
	prod.Mul(a, inv)
	assert.InDelta(t, 1.0, prod.At(0, 0), 1e-9)
	assert.InDelta(t, 0.0, prod.At(0, 1), 1e-9)
	assert.InDelta(t, 0.0, prod.At(1, 0), 1e-9)
	assert.InDelta(t, 1.0, prod.At(1, 1), 1e-9)
}

func TestPseudoInverseOfSingular(t *testing.T) {
	// rank 1
	a := mat.NewDense(2, 2, []float64{1, 1, 1, 1})

	inv, rank, err := PseudoInverse(a)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, 0.25, inv.At(i, j), 1e-9)
		}
	}
}

func TestInverseCovarianceRankDeficient(t *testing.T) {
	// all cases identical: covariance is zero
	x := mat.NewDense(3, 3, []float64{
		1, 0, 1,
		1, 0, 1,
		1, 0, 1,
	})

	inv, rank, err := InverseCovariance(x)
	require.NoError(t, err)
	assert.Equal(t, 0, rank)

	d := mahalanobis([]float64{0, 1, 0}, []float64{1, 0, 1}, Params{InvCov: inv})
	assert.False(t, math.IsNaN(d) || math.IsInf(d, 0))
}

func TestInverseCovarianceSingleRow(t *testing.T) {
	x := mat.NewDense(1, 3, []float64{1, 0, 0})

	inv, rank, err := InverseCovariance(x)
	require.NoError(t, err)
	assert.Equal(t, 0, rank)
	r, c := inv.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
}

func TestInverseCovarianceCollinearColumns(t *testing.T) {
	// second column duplicates the first
	x := mat.NewDense(4, 3, []float64{
		1, 1, 0,
		0, 0, 1,
		1, 1, 1,
		0, 0, 0,
	})

	inv, rank, err := InverseCovariance(x)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	for _, pair := range [][2][]float64{
		{{1, 1, 0}, {0, 0, 1}},
		{{1, 0, 0}, {0, 1, 1}},
	} {
		d := mahalanobis(pair[0], pair[1], Params{InvCov: inv})
		assert.False(t, math.IsNaN(d) || math.IsInf(d, 0))
		assert.GreaterOrEqual(t, d, 0.0)
	}
}
