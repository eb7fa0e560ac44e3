package leaf

import "math"

// expIntegralE1 evaluates the exponential integral E1(x) for x > 0.
//
// The plate transmissivity formula needs E1 at arbitrary positive absorption
// coefficients, so both regimes matter: a truncated power series for x <= 1
// and a rational approximation for x > 1 (Abramowitz & Stegun 5.1.53 and
// 5.1.56, both accurate to better than 2e-7 absolute).
func expIntegralE1(x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	if x <= 1 {
		p := ((((0.00107857*x-0.00976004)*x+0.05519968)*x-0.24991055)*x+0.99999193)*x - 0.57721566
		return p - math.Log(x)
	}
	num := (((x+8.5733287401)*x+18.059016973)*x+8.6347608925)*x + 0.2677737343
	den := (((x+9.5733223454)*x+25.6329561486)*x+21.0996530827)*x + 3.9584969228
	return num / den * math.Exp(-x) / x
}

// plateTransmissivity is the fraction of radiation transmitted through a
// single absorbing plate with absorption coefficient k, integrated over all
// propagation directions inside the plate:
//
//	tau(k) = (1-k)*exp(-k) + k^2*E1(k)
//
// The naive formula is indeterminate as k -> 0; the limit is 1 (a plate with
// no absorber transmits everything), so k <= 0 takes that branch directly.
func plateTransmissivity(k float64) float64 {
	if k <= 0 {
		return 1
	}
	tau := (1-k)*math.Exp(-k) + k*k*expIntegralE1(k)
	if tau < 0 {
		return 0
	}
	return tau
}

// interfaceTransmissivity computes the transmissivity of a dielectric plane
// interface for isotropic incident radiation restricted to a cone of
// half-angle alpha degrees, for refractive index n (Stern's integral in the
// closed form given by Allen). alpha = 90 gives the fully diffuse case used
// for the lower plate interfaces.
func interfaceTransmissivity(alphaDeg, n float64) float64 {
	if alphaDeg <= 0 {
		// Normal incidence limit of the Fresnel transmission factor.
		return 4 * n / ((n + 1) * (n + 1))
	}

	n2 := n * n
	np := n2 + 1
	nm := n2 - 1
	a := (n + 1) * (n + 1) / 2
	k := -nm * nm / 4
	sa := math.Sin(alphaDeg * math.Pi / 180)

	// At alpha = 90 the discriminant vanishes exactly; computing it would
	// take the square root of a tiny negative rounding residue.
	var b1 float64
	if alphaDeg != 90 {
		d := sa*sa - np/2
		b1 = math.Sqrt(d*d + k)
	}
	b2 := sa*sa - np/2
	b := b1 - b2

	// Perpendicular polarization term.
	ts := (k*k/(6*b*b*b) + k/b - b/2) - (k*k/(6*a*a*a) + k/a - a/2)

	// Parallel polarization terms.
	tp1 := -2 * n2 * (b - a) / (np * np)
	tp2 := -2 * n2 * np * math.Log(b/a) / (nm * nm)
	tp3 := n2 * (1/b - 1/a) / 2
	tp4 := 16 * n2 * n2 * (n2*n2 + 1) * math.Log((2*np*b-nm*nm)/(2*np*a-nm*nm)) / (np * np * np * nm * nm)
	tp5 := 16 * n2 * n2 * n2 * (1/(2*np*b-nm*nm) - 1/(2*np*a-nm*nm)) / (np * np * np)
	tp := tp1 + tp2 + tp3 + tp4 + tp5

	return (ts + tp) / (2 * sa * sa)
}
