package activity

import (
	"fmt"
	"math"
	"sort"
)

// SmoothingSpline is a natural cubic smoothing spline fitted to scattered
// (x, y) observations. The smoothing parameter is chosen so the residual sum
// of squares of the fit matches a caller-supplied target, so noisier or
// longer series get proportionally more smoothing.
type SmoothingSpline struct {
	x []float64
	f []float64 // fitted values at the knots
	m []float64 // second derivatives at the knots (natural: endpoints zero)
}

const (
	splineMaxLambda = 1e12
	splineTolerance = 1e-8
	splineMaxIter   = 200
)

// FitSmoothingSpline fits a smoothing spline to x (strictly increasing) and y
// with target residual sum of squares s. s <= 0 yields the interpolating
// natural cubic spline. If even the maximally stiff fit cannot reach s, the
// stiffest (near-linear) fit is returned.
func FitSmoothingSpline(x, y []float64, s float64) (*SmoothingSpline, error) {
	n := len(x)
	if n != len(y) {
		return nil, fmt.Errorf("fit smoothing spline: length mismatch %d != %d", n, len(y))
	}
	if n < 2 {
		return nil, fmt.Errorf("fit smoothing spline: need at least 2 points, got %d", n)
	}
	for i := 1; i < n; i++ {
		if x[i] <= x[i-1] {
			return nil, fmt.Errorf("fit smoothing spline: x must be strictly increasing at index %d", i)
		}
	}
	if n == 2 {
		// A spline through two points is the straight line between them.
		return &SmoothingSpline{
			x: append([]float64(nil), x...),
			f: append([]float64(nil), y...),
			m: make([]float64, 2),
		}, nil
	}

	if s <= 0 {
		f, m2 := solvePenalized(x, y, 0)
		return &SmoothingSpline{x: append([]float64(nil), x...), f: f, m: m2}, nil
	}

	// The residual sum of squares grows monotonically with the penalty, so a
	// log-scale bisection on lambda converges to the target.
	lo, hi := 0.0, 1.0
	_, rssHi := rssAt(x, y, hi)
	for rssHi < s && hi < splineMaxLambda {
		lo = hi
		hi *= 10
		_, rssHi = rssAt(x, y, hi)
	}

	lambda := hi
	if rssHi >= s {
		for iter := 0; iter < splineMaxIter; iter++ {
			mid := 0.5 * (lo + hi)
			_, rss := rssAt(x, y, mid)
			if math.Abs(rss-s) <= splineTolerance*math.Max(1, s) {
				lambda = mid
				break
			}
			if rss < s {
				lo = mid
			} else {
				hi = mid
			}
			lambda = mid
		}
	}

	f, m2 := solvePenalized(x, y, lambda)
	return &SmoothingSpline{x: append([]float64(nil), x...), f: f, m: m2}, nil
}

// At evaluates the spline. Arguments outside the fitted range are clamped to
// the boundary knots.
func (sp *SmoothingSpline) At(t float64) float64 {
	n := len(sp.x)
	if t <= sp.x[0] {
		t = sp.x[0]
	}
	if t >= sp.x[n-1] {
		t = sp.x[n-1]
	}
	i := sort.SearchFloat64s(sp.x, t)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	h := sp.x[i+1] - sp.x[i]
	a := (sp.x[i+1] - t) / h
	b := (t - sp.x[i]) / h
	return a*sp.f[i] + b*sp.f[i+1] +
		((a*a*a-a)*sp.m[i]+(b*b*b-b)*sp.m[i+1])*h*h/6
}

// Fitted returns the fitted values at the knots.
func (sp *SmoothingSpline) Fitted() []float64 {
	return append([]float64(nil), sp.f...)
}

// rssAt solves the penalized system for a given lambda and returns the
// residual sum of squares.
func rssAt(x, y []float64, lambda float64) ([]float64, float64) {
	f, _ := solvePenalized(x, y, lambda)
	rss := 0.0
	for i := range y {
		d := y[i] - f[i]
		rss += d * d
	}
	return f, rss
}

// solvePenalized minimizes sum((y-f)^2) + lambda * integral(f'')^2 over
// natural cubic splines with knots at x (Green & Silverman formulation):
// (R + lambda*QtQ) g = Qt*y, residuals = lambda*Q*g. Returns the fitted
// values and the per-knot second derivatives.
func solvePenalized(x, y []float64, lambda float64) (fitted, m2 []float64) {
	n := len(x)
	m := n - 2

	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = x[i+1] - x[i]
	}

	// Pentadiagonal bands of A = R + lambda*QtQ, indexed by interior knot.
	diag := make([]float64, m)
	off1 := make([]float64, m) // A[c][c+1]
	off2 := make([]float64, m) // A[c][c+2]
	rhs := make([]float64, m)

	for c := 0; c < m; c++ {
		j := c + 1
		p, q := 1/h[j-1], 1/h[j]
		diag[c] = (h[j-1]+h[j])/3 + lambda*(p*p+(p+q)*(p+q)+q*q)
		if c+1 < m {
			r := 1 / h[j+1]
			off1[c] = h[j]/6 + lambda*(-(p+q)*q-q*(q+r))
		}
		if c+2 < m {
			off2[c] = lambda * q / h[j+1]
		}
		rhs[c] = (y[j+1]-y[j])/h[j] - (y[j]-y[j-1])/h[j-1]
	}

	g := solveBanded(diag, off1, off2, rhs)

	// Residuals e = lambda * Q * g.
	e := make([]float64, n)
	for c := 0; c < m; c++ {
		j := c + 1
		p, q := 1/h[j-1], 1/h[j]
		e[j-1] += lambda * p * g[c]
		e[j] -= lambda * (p + q) * g[c]
		e[j+1] += lambda * q * g[c]
	}

	fitted = make([]float64, n)
	for i := range y {
		fitted[i] = y[i] - e[i]
	}
	m2 = make([]float64, n)
	copy(m2[1:], g)
	return fitted, m2
}

// solveBanded solves a symmetric positive definite pentadiagonal system via
// an LDLt factorization with bandwidth 2.
func solveBanded(diag, off1, off2, b []float64) []float64 {
	m := len(diag)
	d := make([]float64, m)
	l1 := make([]float64, m)
	l2 := make([]float64, m)

	for i := 0; i < m; i++ {
		if i >= 2 {
			l2[i] = off2[i-2] / d[i-2]
		}
		if i >= 1 {
			a := off1[i-1]
			if i >= 2 {
				a -= l2[i] * l1[i-1] * d[i-2]
			}
			l1[i] = a / d[i-1]
		}
		d[i] = diag[i]
		if i >= 1 {
			d[i] -= l1[i] * l1[i] * d[i-1]
		}
		if i >= 2 {
			d[i] -= l2[i] * l2[i] * d[i-2]
		}
	}

	z := make([]float64, m)
	for i := 0; i < m; i++ {
		z[i] = b[i]
		if i >= 1 {
			z[i] -= l1[i] * z[i-1]
		}
		if i >= 2 {
			z[i] -= l2[i] * z[i-2]
		}
	}
	for i := 0; i < m; i++ {
		z[i] /= d[i]
	}
	g := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		g[i] = z[i]
		if i+1 < m {
			g[i] -= l1[i+1] * g[i+1]
		}
		if i+2 < m {
			g[i] -= l2[i+2] * g[i+2]
		}
	}
	return g
}
