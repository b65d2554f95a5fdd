package retriever

import (
	"fmt"

	"casebase/internal/adapter/metric"
	"casebase/internal/domain"
	"casebase/internal/port"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// NearestRetriever scans the whole case base once per metric and keeps the
// closest case. Ties go to the lowest index.
type NearestRetriever struct {
	registry *metric.Registry
	signed   bool
	logger   *zap.Logger
}

// NewNearestRetriever creates a retriever over the registry's metrics. When
// signed is set, covariance-aware metrics compare -1/1 vectors.
func NewNearestRetriever(registry *metric.Registry, signed bool, logger *zap.Logger) *NearestRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NearestRetriever{
		registry: registry,
		signed:   signed,
		logger:   logger,
	}
}

// Retrieve returns, for each registered metric in order, the nearest case and
// its closeness 1 - dmin/dmax.
func (r *NearestRetriever) Retrieve(base port.CaseBase, query domain.Vector) (domain.Retrieval, error) {
	if base.Len() == 0 {
		return domain.Retrieval{}, domain.ErrEmptyLibrary
	}
	if len(query) != base.Dim() {
		return domain.Retrieval{}, fmt.Errorf("query has %d features, case base has %d", len(query), base.Dim())
	}

	var out domain.Retrieval

	var params metric.Params
	if r.registry.NeedsCovariance() {
		inv, warning := r.inverseCovariance(base)
		params.InvCov = inv
		if warning != "" {
			out.Warnings = append(out.Warnings, warning)
		}
	}

	plain := make([][]float64, base.Len())
	for i := range plain {
		plain[i] = base.Case(i).Vector
	}
	var signedCases [][]float64
	signedQuery := []float64(query)
	if r.signed {
		signedQuery = query.Signed()
		signedCases = make([][]float64, base.Len())
		for i := range signedCases {
			signedCases[i] = base.Case(i).Vector.Signed()
		}
	}

	for _, m := range r.registry.Metrics() {
		cases, q := plain, []float64(query)
		if r.signed && m.NeedsCovariance {
			cases, q = signedCases, signedQuery
		}

		best, dmin, dmax := -1, 0.0, 0.0
		for i, c := range cases {
			d := m.Distance(q, c, params)
			if best == -1 || d < dmin {
				best, dmin = i, d
			}
			if d > dmax {
				dmax = d
			}
		}

		out.Results = append(out.Results, domain.MetricResult{
			Metric:    m.Name(),
			CaseIndex: best,
			Label:     base.Case(best).Label,
			Distance:  dmin,
			Closeness: closeness(dmin, dmax, len(cases)),
		})
	}

	return out, nil
}

// closeness normalizes a distance against the worst match. A single-case
// base, or one where every case is at distance zero, is a perfect match.
func closeness(dmin, dmax float64, n int) float64 {
	if n == 1 || dmax == 0 {
		return 1.0
	}
	return 1 - dmin/dmax
}

func (r *NearestRetriever) inverseCovariance(base port.CaseBase) (*mat.Dense, string) {
	x := base.FeatureMatrix()
	if r.signed {
		rows, cols := x.Dims()
		signed := mat.NewDense(rows, cols, nil)
		signed.Apply(func(_, _ int, v float64) float64 {
			if v > 0 {
				return 1
			}
			return -1
		}, x)
		x = signed
	}

	_, dim := x.Dims()
	inv, rank, err := metric.InverseCovariance(x)
	if err != nil {
		r.logger.Warn("covariance pseudo-inverse failed, using identity", zap.Error(err))
		ident := mat.NewDense(dim, dim, nil)
		for i := 0; i < dim; i++ {
			ident.Set(i, i, 1)
		}
		return ident, fmt.Sprintf("%v: %v; identity used", domain.ErrSingularCovariance, err)
	}
	if rank < dim {
		r.logger.Warn("singular feature covariance, using pseudo-inverse",
			zap.Int("rank", rank),
			zap.Int("dimension", dim),
			zap.Int("cases", base.Len()),
		)
		return inv, fmt.Sprintf("%v (rank %d of %d); pseudo-inverse used", domain.ErrSingularCovariance, rank, dim)
	}
	return inv, ""
}

var _ port.Retriever = (*NearestRetriever)(nil)
