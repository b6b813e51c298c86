package trueskill

import "math"

// Standard normal density and cumulative distribution.

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normInvCDF is Acklam's rational approximation of the standard normal
// quantile function, accurate to ~1e-9 relative error which is far below
// anything the rating math can resolve.
// http://home.online.no/~pjacklam/notes/invnorm/
func normInvCDF(p float64) float64 {
	a := [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00,
	}
	b := [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01,
	}
	c := [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00,
	}
	d := [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00,
	}

	const low, high = 0.02425, 1 - 0.02425

	switch {
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	case p < low:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p > high:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
}

// vExceeds and wExceeds are the additive and multiplicative corrections
// for the case where the performance difference t exceeded the draw
// margin eps (a decisive game). Both arguments are normalized by c.
func vExceeds(t, eps float64) float64 {
	denom := normCDF(t - eps)
	if denom < 2.222758749e-162 {
		// The observed outcome was judged all but impossible, the limit
		// of the correction is a full shift to the margin.
		return eps - t
	}

	return normPDF(t-eps) / denom
}

func wExceeds(t, eps float64) float64 {
	denom := normCDF(t - eps)
	if denom < 2.222758749e-162 {
		if t < 0 {
			return 1
		}
		return 0
	}

	v := vExceeds(t, eps)
	return v * (v + t - eps)
}

// vWithin and wWithin are the corrections for a draw: the performance
// difference landed within the margin. vWithin is antisymmetric in t,
// wWithin symmetric.
func vWithin(t, eps float64) float64 {
	denom := normCDF(eps-t) - normCDF(-eps-t)
	if denom < 2.222758749e-162 {
		if t < 0 {
			return -t - eps
		}
		return -t + eps
	}

	return (normPDF(-eps-t) - normPDF(eps-t)) / denom
}

func wWithin(t, eps float64) float64 {
	denom := normCDF(eps-t) - normCDF(-eps-t)
	if denom < 2.222758749e-162 {
		return 1
	}

	v := vWithin(t, eps)
	return v*v + ((eps-t)*normPDF(eps-t)-(-eps-t)*normPDF(-eps-t))/denom
}
