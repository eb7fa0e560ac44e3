package canopy

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/canopylab/go-canopy-rt/pkg/leaf"
	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

func flatOptics(rho, tau float64) leaf.Optics {
	return leaf.Optics{
		Reflectance:   spectral.Constant(rho),
		Transmittance: spectral.Constant(tau),
	}
}

func defaultParams() Params {
	return Params{
		LAI:             3,
		LIDF:            EllipsoidalLIDF{MeanAngle: 50},
		Hotspot:         0.01,
		SolarZenith:     30,
		ViewZenith:      0,
		RelativeAzimuth: 0,
	}
}

func TestCompute_OutputGrid(t *testing.T) {
	res, err := Compute(flatOptics(0.05, 0.05), defaultParams(), spectral.Constant(0.2))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for name, s := range map[string]spectral.Spectrum{
		"bidirectional":             res.Bidirectional,
		"bi-hemispherical":          res.BiHemispherical,
		"directional-hemispherical": res.DirectionalHemispherical,
		"hemispherical-directional": res.HemisphericalDirectional,
	} {
		if len(s) != spectral.Samples {
			t.Errorf("%s has %d samples, want %d", name, len(s), spectral.Samples)
		}
		for i, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				t.Fatalf("%s sample %d = %v", name, i, v)
			}
		}
	}
}

func TestCompute_ZeroLAIReturnsSoil(t *testing.T) {
	soil := spectral.New()
	for i := range soil {
		soil[i] = 0.1 + 0.3*float64(i)/float64(spectral.Samples) // sloped background
	}

	geometries := []Params{
		{LAI: 0, LIDF: EllipsoidalLIDF{MeanAngle: 50}, Hotspot: 0.01, SolarZenith: 30, ViewZenith: 0},
		{LAI: 0, LIDF: BimodalLIDF{A: -0.35, B: -0.15}, Hotspot: 0.5, SolarZenith: 0, ViewZenith: 0},
		{LAI: 0, LIDF: EllipsoidalLIDF{MeanAngle: 20}, Hotspot: 0, SolarZenith: 89, ViewZenith: 60, RelativeAzimuth: 120},
	}
	for _, p := range geometries {
		res, err := Compute(flatOptics(0.05, 0.05), p, soil)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		for name, s := range map[string]spectral.Spectrum{
			"bidirectional":             res.Bidirectional,
			"bi-hemispherical":          res.BiHemispherical,
			"directional-hemispherical": res.DirectionalHemispherical,
			"hemispherical-directional": res.HemisphericalDirectional,
		} {
			for i := range s {
				if s[i] != soil[i] {
					t.Fatalf("%s sample %d = %v, want bare soil %v", name, i, s[i], soil[i])
				}
			}
		}
	}
}

func TestCompute_HotspotCoincidence(t *testing.T) {
	// View and solar directions coincide exactly: the hotspot kernel hits
	// its 0/0 form and must fall back to the closed limit, which does not
	// depend on the hotspot size parameter.
	var values []float64
	for _, q := range []float64{1e-3, 0.01, 0.1, 0.5, 1, 5, 10} {
		p := Params{
			LAI:             3,
			LIDF:            EllipsoidalLIDF{MeanAngle: 50},
			Hotspot:         q,
			SolarZenith:     35,
			ViewZenith:      35,
			RelativeAzimuth: 0,
		}
		res, err := Compute(flatOptics(0.4, 0.4), p, spectral.Constant(0.2))
		if err != nil {
			t.Fatalf("Compute (hotspot %v): %v", q, err)
		}
		v := res.Bidirectional[0]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			t.Errorf("hotspot %v: bidirectional reflectance = %v", q, v)
		}
		values = append(values, v)
	}
	for _, v := range values[1:] {
		if v != values[0] {
			t.Errorf("coincident-direction reflectance varies with hotspot size: %v vs %v", v, values[0])
			break
		}
	}
}

func TestCompute_HotspotEnhancesBackscatter(t *testing.T) {
	// The bidirectional factor must peak where sun and view coincide
	// relative to the same geometry rotated away in azimuth.
	at := func(psi float64) float64 {
		p := defaultParams()
		p.SolarZenith, p.ViewZenith = 30, 30
		p.RelativeAzimuth = psi
		p.Hotspot = 0.25
		res, err := Compute(flatOptics(0.4, 0.45), p, spectral.Constant(0.2))
		if err != nil {
			t.Fatalf("Compute (psi %v): %v", psi, err)
		}
		return res.Bidirectional[800]
	}
	hot := at(0)
	cold := at(90)
	if !(hot > cold) {
		t.Errorf("bidirectional reflectance in hotspot (%v) not above off-hotspot (%v)", hot, cold)
	}
}

func TestCompute_BoundaryZenithAngles(t *testing.T) {
	// 0 and 90 degree zeniths are legal inputs and must not divide by zero.
	tests := []struct{ tts, tto float64 }{
		{0, 0},
		{90, 0},
		{0, 90},
		{90, 90},
	}
	for _, tt := range tests {
		p := defaultParams()
		p.SolarZenith, p.ViewZenith = tt.tts, tt.tto
		res, err := Compute(flatOptics(0.1, 0.1), p, spectral.Constant(0.2))
		if err != nil {
			t.Fatalf("Compute (tts=%v tto=%v): %v", tt.tts, tt.tto, err)
		}
		for _, v := range []float64{res.Bidirectional[0], res.BiHemispherical[0], res.DirectionalHemispherical[0], res.HemisphericalDirectional[0]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("tts=%v tto=%v produced %v", tt.tts, tt.tto, v)
			}
		}
	}
}

func TestCompute_MismatchedGridRejected(t *testing.T) {
	short := make(spectral.Spectrum, spectral.Samples-1)
	optics := leaf.Optics{Reflectance: short, Transmittance: spectral.Constant(0.05)}
	if _, err := Compute(optics, defaultParams(), spectral.Constant(0.2)); err == nil {
		t.Error("short leaf reflectance accepted")
	}
	if _, err := Compute(flatOptics(0.05, 0.05), defaultParams(), short); err == nil {
		t.Error("short soil spectrum accepted")
	}
}

func TestCompute_ParamValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative LAI", func(p *Params) { p.LAI = -1 }},
		{"nil LIDF", func(p *Params) { p.LIDF = nil }},
		{"negative hotspot", func(p *Params) { p.Hotspot = -0.1 }},
		{"solar zenith above 90", func(p *Params) { p.SolarZenith = 91 }},
		{"negative view zenith", func(p *Params) { p.ViewZenith = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams()
			tt.mutate(&p)
			if _, err := Compute(flatOptics(0.05, 0.05), p, spectral.Constant(0.2)); err == nil {
				t.Error("expected validation error, got none")
			}
		})
	}
}

func TestCompute_FlatSpectraReferenceValues(t *testing.T) {
	// Wavelength-invariant leaf optics and soil must give a
	// wavelength-invariant canopy reflectance. The levels are pinned to
	// values from the PROSAIL reference implementation for this scenario
	// (LAI 3, ellipsoidal 50 deg, hotspot 0.01, sun 30 deg, nadir view,
	// rho = tau = 0.05, soil 0.2).
	res, err := Compute(flatOptics(0.05, 0.05), defaultParams(), spectral.Constant(0.2))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for name, tc := range map[string]struct {
		spectrum spectral.Spectrum
		want     float64
	}{
		"bidirectional":             {res.Bidirectional, 0.02432142},
		"bi-hemispherical":          {res.BiHemispherical, 0.02692241},
		"directional-hemispherical": {res.DirectionalHemispherical, 0.02255985},
		"hemispherical-directional": {res.HemisphericalDirectional, 0.02181298},
	} {
		for i, v := range tc.spectrum {
			if !scalar.EqualWithinAbs(v, tc.want, 1e-6) {
				t.Fatalf("%s sample %d = %v, want %v", name, i, v, tc.want)
			}
		}
	}
}

func TestJfunc1_NearSingularBranch(t *testing.T) {
	// The closed form and the series branch must agree as k approaches l.
	const l, lai = 0.7, 3.0
	outside := jfunc1(l+2e-3/lai, l, lai)
	inside := jfunc1(l+0.9e-3/lai, l, lai)
	exact := jfunc1(l, l, lai)
	if math.IsNaN(exact) || math.IsInf(exact, 0) {
		t.Fatalf("jfunc1 at k = l returned %v", exact)
	}
	if !scalar.EqualWithinAbs(outside, inside, 1e-4) {
		t.Errorf("jfunc1 branches disagree near the seam: %v vs %v", outside, inside)
	}
	if !scalar.EqualWithinAbs(inside, exact, 1e-4) {
		t.Errorf("jfunc1 series %v does not approach the k = l limit %v", inside, exact)
	}
}
