package metric

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func euclidean(u, v []float64, _ Params) float64 {
	return math.Sqrt(sqEuclidean(u, v, Params{}))
}

func sqEuclidean(u, v []float64, _ Params) float64 {
	var sum float64
	for i := range u {
		d := u[i] - v[i]
		sum += d * d
	}
	return sum
}

func cityBlock(u, v []float64, _ Params) float64 {
	var sum float64
	for i := range u {
		sum += math.Abs(u[i] - v[i])
	}
	return sum
}

func chebyshev(u, v []float64, _ Params) float64 {
	var max float64
	for i := range u {
		if d := math.Abs(u[i] - v[i]); d > max {
			max = d
		}
	}
	return max
}

// cosineOf returns 1 - a·b/(|a||b|). A zero vector is at distance 0 from
// another zero vector and 1 from anything else.
func cosineOf(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 && nb == 0 {
		return 0
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/math.Sqrt(na*nb)
	if d < 0 {
		return 0
	}
	return d
}

func cosine(u, v []float64, _ Params) float64 {
	return cosineOf(u, v)
}

func correlation(u, v []float64, _ Params) float64 {
	n := float64(len(u))
	if n == 0 {
		return 0
	}
	var mu, mv float64
	for i := range u {
		mu += u[i]
		mv += v[i]
	}
	mu /= n
	mv /= n

	cu := make([]float64, len(u))
	cv := make([]float64, len(v))
	same := true
	for i := range u {
		cu[i] = u[i] - mu
		cv[i] = v[i] - mv
		if u[i] != v[i] {
			same = false
		}
	}
	if same {
		return 0
	}
	return cosineOf(cu, cv)
}

// presence counts positions by (u present, v present), treating values
// above zero as present so signed vectors count the same as unsigned ones.
func presence(u, v []float64) (tt, tf, ft, ff float64) {
	for i := range u {
		a, b := u[i] > 0, v[i] > 0
		switch {
		case a && b:
			tt++
		case a:
			tf++
		case b:
			ft++
		default:
			ff++
		}
	}
	return tt, tf, ft, ff
}

func jaccard(u, v []float64, _ Params) float64 {
	tt, tf, ft, _ := presence(u, v)
	union := tt + tf + ft
	if union == 0 {
		return 0
	}
	return (tf + ft) / union
}

func dice(u, v []float64, _ Params) float64 {
	tt, tf, ft, _ := presence(u, v)
	denom := 2*tt + tf + ft
	if denom == 0 {
		return 0
	}
	return (tf + ft) / denom
}

func hamming(u, v []float64, _ Params) float64 {
	if len(u) == 0 {
		return 0
	}
	var diff float64
	for i := range u {
		if u[i] != v[i] {
			diff++
		}
	}
	return diff / float64(len(u))
}

func canberra(u, v []float64, _ Params) float64 {
	var sum float64
	for i := range u {
		denom := math.Abs(u[i]) + math.Abs(v[i])
		if denom == 0 {
			continue
		}
		sum += math.Abs(u[i]-v[i]) / denom
	}
	return sum
}

func brayCurtis(u, v []float64, _ Params) float64 {
	var num, denom float64
	for i := range u {
		num += math.Abs(u[i] - v[i])
		denom += math.Abs(u[i] + v[i])
	}
	if denom == 0 {
		if num == 0 {
			return 0
		}
		return 1
	}
	return num / denom
}

func rogersTanimoto(u, v []float64, _ Params) float64 {
	tt, tf, ft, ff := presence(u, v)
	r := 2 * (tf + ft)
	denom := tt + ff + r
	if denom == 0 {
		return 0
	}
	return r / denom
}

func sokalSneath(u, v []float64, _ Params) float64 {
	tt, tf, ft, _ := presence(u, v)
	r := 2 * (tf + ft)
	denom := tt + r
	if denom == 0 {
		return 0
	}
	return r / denom
}

func yule(u, v []float64, _ Params) float64 {
	tt, tf, ft, ff := presence(u, v)
	r := 2 * tf * ft
	if r == 0 {
		return 0
	}
	return r / (tt*ff + r)
}

// mahalanobis computes sqrt(dᵀ VI d) with d = u - v. A nil VI is the identity.
func mahalanobis(u, v []float64, p Params) float64 {
	if p.InvCov == nil {
		return euclidean(u, v, p)
	}
	d := make([]float64, len(u))
	for i := range u {
		d[i] = u[i] - v[i]
	}
	dv := mat.NewVecDense(len(d), d)
	q := mat.Inner(dv, p.InvCov, dv)
	if q <= 0 || math.IsNaN(q) {
		return 0
	}
	return math.Sqrt(q)
}
