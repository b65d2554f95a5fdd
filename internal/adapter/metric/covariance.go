package metric

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errSVDFailed = errors.New("svd factorization failed")

// InverseCovariance returns the Moore-Penrose pseudo-inverse of the sample
// covariance of x's columns, and the covariance rank. With fewer than two
// rows the covariance is taken as zero.
func InverseCovariance(x *mat.Dense) (*mat.Dense, int, error) {
	rows, cols := x.Dims()
	if rows < 2 {
		return mat.NewDense(cols, cols, nil), 0, nil
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)
	return PseudoInverse(&cov)
}

// PseudoInverse computes the Moore-Penrose pseudo-inverse of a via SVD and
// returns it with the numerical rank of a. Singular values at or below
// max(r,c)·ε·σmax are treated as zero.
func PseudoInverse(a mat.Matrix) (*mat.Dense, int, error) {
	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, errSVDFailed
	}

	values := svd.Values(nil)
	var smax float64
	for _, s := range values {
		if s > smax {
			smax = s
		}
	}
	cutoff := float64(max(r, c)) * epsilon * smax

	rank := 0
	inv := make([]float64, len(values))
	for i, s := range values {
		if s > cutoff && s > 0 {
			inv[i] = 1 / s
			rank++
		}
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vs mat.Dense
	vs.Mul(&v, mat.NewDiagDense(len(inv), inv))

	out := mat.NewDense(c, r, nil)
	out.Mul(&vs, u.T())
	return out, rank, nil
}

var epsilon = math.Nextafter(1, 2) - 1
