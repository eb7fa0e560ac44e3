package canopy

import "math"

// cosEps floors cosines of zenith angles so that grazing geometry
// (zenith = 90 degrees) stays finite in the extinction terms.
const cosEps = 1e-6

// volumeScattering computes the Suits/Verhoef volume scattering terms for
// one leaf inclination class: the extinction cross sections chi_s (solar) and
// chi_o (view) and the bidirectional scattering area fractions frho and ftau
// to be weighted by leaf reflectance and transmittance. All angles in degrees.
func volumeScattering(tts, tto, psi, ttl float64) (chiS, chiO, frho, ftau float64) {
	rad := math.Pi / 180
	cts := math.Cos(tts * rad)
	cto := math.Cos(tto * rad)
	sts := math.Sin(tts * rad)
	sto := math.Sin(tto * rad)
	cospsi := math.Cos(psi * rad)
	psir := psi * rad
	cttl := math.Cos(ttl * rad)
	sttl := math.Sin(ttl * rad)

	cs := cttl * cts
	co := cttl * cto
	ss := sttl * sts
	so := sttl * sto

	// Transition azimuths where a leaf of this inclination turns its back to
	// the sun or the viewer. Values outside [-1, 1] mean no transition.
	cosbts := 5.0
	if math.Abs(ss) > 1e-6 {
		cosbts = -cs / ss
	}
	cosbto := 5.0
	if math.Abs(so) > 1e-6 {
		cosbto = -co / so
	}

	var bts, ds float64
	if math.Abs(cosbts) < 1 {
		bts = math.Acos(cosbts)
		ds = ss
	} else {
		bts = math.Pi
		ds = cs
	}
	chiS = 2 / math.Pi * ((bts-math.Pi/2)*cs + math.Sin(bts)*ss)

	var bto, do float64
	if math.Abs(cosbto) < 1 {
		bto = math.Acos(cosbto)
		do = so
	} else if tto < 90 {
		bto = math.Pi
		do = co
	} else {
		bto = 0
		do = -co
	}
	chiO = 2 / math.Pi * ((bto-math.Pi/2)*co + math.Sin(bto)*so)

	// Sort the three critical azimuths.
	btran1 := math.Abs(bts - bto)
	btran2 := math.Pi - math.Abs(bts+bto-math.Pi)
	var bt1, bt2, bt3 float64
	switch {
	case psir <= btran1:
		bt1, bt2, bt3 = psir, btran1, btran2
	case psir <= btran2:
		bt1, bt2, bt3 = btran1, psir, btran2
	default:
		bt1, bt2, bt3 = btran1, btran2, psir
	}

	t1 := 2*cs*co + ss*so*cospsi
	t2 := 0.0
	if bt2 > 0 {
		t2 = math.Sin(bt2) * (2*ds*do + ss*so*math.Cos(bt1)*math.Cos(bt3))
	}
	denom := 2 * math.Pi * math.Pi
	frho = ((math.Pi-bt2)*t1 + t2) / denom
	ftau = (-bt2*t1 + t2) / denom
	if frho < 0 {
		frho = 0
	}
	if ftau < 0 {
		ftau = 0
	}
	return chiS, chiO, frho, ftau
}

// geometry holds every wavelength-independent quantity of one canopy
// evaluation: the LIDF-weighted bulk extinction and scattering coefficients,
// the direct-beam transmittances, and the hotspot path integral. Computing
// these once and reusing them across the 2101 wavelengths is what keeps the
// model cheap.
type geometry struct {
	lai float64

	ks, ko float64 // extinction for the solar and view beams
	bf     float64 // mean squared leaf-normal projection
	sob    float64 // bidirectional scattering weight on reflectance
	sof    float64 // bidirectional scattering weight on transmittance

	// Linear combinations applied to leaf rho/tau per wavelength.
	sdb, sdf float64 // direct solar -> diffuse
	dob, dof float64 // diffuse -> directional view
	ddb, ddf float64 // diffuse -> diffuse

	tss    float64 // direct solar transmittance exp(-ks*LAI)
	too    float64 // direct view transmittance exp(-ko*LAI)
	tsstoo float64 // joint sun-view gap fraction with hotspot correlation
	sumint float64 // hotspot path integral
	z      float64 // bidirectional flux integral J2(ks, ko, LAI)
}

// newGeometry resolves the leaf angle distribution and integrates the volume
// scattering function over it, then precomputes the hotspot kernel.
// Angles in degrees; hotspot is the leaf-size to canopy-height ratio.
func newGeometry(lidfWeights []float64, lai, hotspot, tts, tto, psi float64) *geometry {
	rad := math.Pi / 180
	cts := math.Max(math.Cos(tts*rad), cosEps)
	cto := math.Max(math.Cos(tto*rad), cosEps)
	ctscto := cts * cto
	tants := math.Tan(tts * rad)
	tanto := math.Tan(tto * rad)
	cospsi := math.Cos(psi * rad)
	dso := math.Sqrt(tants*tants + tanto*tanto - 2*tants*tanto*cospsi)

	g := &geometry{lai: lai}

	classes := len(lidfWeights)
	step := 90.0 / float64(classes)
	for i, w := range lidfWeights {
		ttl := (float64(i) + 0.5) * step
		cttl := math.Cos(ttl * rad)
		chiS, chiO, frho, ftau := volumeScattering(tts, tto, psi, ttl)
		g.ks += w * chiS / cts
		g.ko += w * chiO / cto
		g.bf += w * cttl * cttl
		g.sob += w * frho * math.Pi / ctscto
		g.sof += w * ftau * math.Pi / ctscto
	}

	// Grazing beams can leave a projected extinction at a rounding-level
	// negative value; floor it like the cosines so the hotspot terms
	// (sqrt(ks*ko), 1/(ks+ko)) stay defined.
	if g.ks < cosEps {
		g.ks = cosEps
	}
	if g.ko < cosEps {
		g.ko = cosEps
	}

	g.sdb = 0.5 * (g.ks + g.bf)
	g.sdf = 0.5 * (g.ks - g.bf)
	g.dob = 0.5 * (g.ko + g.bf)
	g.dof = 0.5 * (g.ko - g.bf)
	g.ddb = 0.5 * (1 + g.bf)
	g.ddf = 0.5 * (1 - g.bf)

	if lai <= 0 {
		g.tss, g.too, g.tsstoo = 1, 1, 1
		return g
	}

	g.tss = math.Exp(-g.ks * lai)
	g.too = math.Exp(-g.ko * lai)
	g.z = jfunc2(g.ks, g.ko, lai)
	g.hotspotIntegral(dso, hotspot)
	return g
}

// hotspotIntegral evaluates the joint sun-view gap probability along the
// canopy depth, which drives the single-scattering term of the bidirectional
// reflectance. The correlation length is set by the hotspot parameter with
// the 2/(ks+ko) correction of Breon.
func (g *geometry) hotspotIntegral(dso, hotspot float64) {
	alf := 1e36 // no hotspot correlation
	if hotspot > 0 {
		alf = dso / hotspot * 2 / (g.ks + g.ko)
	}

	if alf == 0 {
		// Exact sun-view coincidence: the integrand collapses to the
		// one-beam gap fraction, and the 0/0 form has this closed limit.
		g.tsstoo = g.tss
		g.sumint = (1 - g.tss) / (g.ks * g.lai)
		return
	}

	// Outside exact coincidence, integrate exp of the joint extinction in 20
	// steps spaced for equal increments of the correlation term.
	// Expm1/Log1p keep the near-coincidence regime (alf -> 0) continuous
	// with the exact-coincidence branch above.
	fhot := g.lai * math.Sqrt(g.ko*g.ks)
	x1, y1, f1 := 0.0, 0.0, 1.0
	fint := -math.Expm1(-alf) * 0.05
	sumint := 0.0
	for istep := 1; istep <= 20; istep++ {
		var x2 float64
		if istep < 20 {
			x2 = -math.Log1p(-float64(istep)*fint) / alf
		} else {
			x2 = 1
		}
		y2 := -(g.ko+g.ks)*g.lai*x2 - fhot*math.Expm1(-alf*x2)/alf
		f2 := math.Exp(y2)
		if y2 != y1 {
			sumint += (f2 - f1) * (x2 - x1) / (y2 - y1)
		} else {
			// Flat segment: the exponential-midpoint weight degenerates to
			// the rectangle rule.
			sumint += f1 * (x2 - x1)
		}
		x1, y1, f1 = x2, y2, f2
	}
	g.tsstoo = f1
	g.sumint = sumint
}

// jfunc1 is the flux integral J1(k, l, t) = (exp(-l*t) - exp(-k*t)) / (k - l)
// with a series branch near k = l where the quotient is indeterminate.
func jfunc1(k, l, t float64) float64 {
	del := (k - l) * t
	if math.Abs(del) > 1e-3 {
		return (math.Exp(-l*t) - math.Exp(-k*t)) / (k - l)
	}
	return 0.5 * t * (math.Exp(-k*t) + math.Exp(-l*t)) * (1 - del*del/12)
}

// jfunc2 is the flux integral J2(k, l, t) = (1 - exp(-(k+l)*t)) / (k + l).
func jfunc2(k, l, t float64) float64 {
	return (1 - math.Exp(-(k+l)*t)) / (k + l)
}
