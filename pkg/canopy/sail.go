package canopy

import (
	"fmt"
	"math"

	"github.com/canopylab/go-canopy-rt/pkg/leaf"
	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// Params configures the canopy layer and the illumination/view geometry.
// All angles are in degrees and converted to radians internally.
type Params struct {
	LAI             float64                     // leaf area index, >= 0
	LIDF            LeafInclinationDistribution // leaf angle distribution
	Hotspot         float64                     // leaf size to canopy height ratio, >= 0
	SolarZenith     float64                     // degrees, [0, 90]
	ViewZenith      float64                     // degrees, [0, 90]
	RelativeAzimuth float64                     // view minus solar azimuth, degrees
}

// Validate rejects geometry outside the physical domain of the model.
func (p Params) Validate() error {
	if p.LAI < 0 || math.IsNaN(p.LAI) {
		return fmt.Errorf("leaf area index = %v: must be >= 0", p.LAI)
	}
	if p.LIDF == nil {
		return fmt.Errorf("leaf inclination distribution is nil")
	}
	if p.Hotspot < 0 || math.IsNaN(p.Hotspot) {
		return fmt.Errorf("hotspot parameter = %v: must be >= 0", p.Hotspot)
	}
	if p.SolarZenith < 0 || p.SolarZenith > 90 {
		return fmt.Errorf("solar zenith angle = %v degrees: must be in [0, 90]", p.SolarZenith)
	}
	if p.ViewZenith < 0 || p.ViewZenith > 90 {
		return fmt.Errorf("view zenith angle = %v degrees: must be in [0, 90]", p.ViewZenith)
	}
	return nil
}

// Result carries the four canopy-level reflectance factors by name, one full
// spectrum each. Values are non-negative but not clamped to 1: hotspot
// backscatter can legitimately exceed unity at specific geometries.
type Result struct {
	// Bidirectional is the directional-directional reflectance factor (SDR):
	// directional sun, directional view.
	Bidirectional spectral.Spectrum
	// BiHemispherical is the diffuse-illumination, hemispherical-view factor (BHR).
	BiHemispherical spectral.Spectrum
	// DirectionalHemispherical integrates a directionally illuminated canopy
	// over all view directions (DHR).
	DirectionalHemispherical spectral.Spectrum
	// HemisphericalDirectional is the directional view of a diffusely
	// illuminated canopy (HDR).
	HemisphericalDirectional spectral.Spectrum
}

// Compute runs the four-stream canopy model: leaf optics and a soil
// background below a single homogeneous turbid layer. The geometry factors
// are wavelength-independent and evaluated once; the analytic layer solution
// is then applied per wavelength.
func Compute(optics leaf.Optics, p Params, soil spectral.Spectrum) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := optics.Validate(); err != nil {
		return nil, err
	}
	if err := spectral.Validate("soil reflectance", soil); err != nil {
		return nil, err
	}

	res := &Result{
		Bidirectional:            spectral.New(),
		BiHemispherical:          spectral.New(),
		DirectionalHemispherical: spectral.New(),
		HemisphericalDirectional: spectral.New(),
	}

	// A zero-depth canopy is transparent: every factor is the bare soil.
	if p.LAI <= 0 {
		copy(res.Bidirectional, soil)
		copy(res.BiHemispherical, soil)
		copy(res.DirectionalHemispherical, soil)
		copy(res.HemisphericalDirectional, soil)
		return res, nil
	}

	weights, err := p.LIDF.Weights(inclinationClasses)
	if err != nil {
		return nil, err
	}
	g := newGeometry(weights, p.LAI, p.Hotspot, p.SolarZenith, p.ViewZenith, p.RelativeAzimuth)

	for i := range soil {
		sdr, bhr, dhr, hdr := g.reflectances(optics.Reflectance[i], optics.Transmittance[i], soil[i])
		res.Bidirectional[i] = sdr
		res.BiHemispherical[i] = bhr
		res.DirectionalHemispherical[i] = dhr
		res.HemisphericalDirectional[i] = hdr
	}
	return res, nil
}

// reflectances solves the four-stream system at one wavelength for leaf
// reflectance rho, leaf transmittance tau and soil reflectance rsoil, and
// returns the four canopy factors in SDR, BHR, DHR, HDR order.
func (g *geometry) reflectances(rho, tau, rsoil float64) (sdr, bhr, dhr, hdr float64) {
	// Diffuse backscatter/forward-scatter coefficients of the layer.
	sigb := g.ddb*rho + g.ddf*tau
	sigf := g.ddf*rho + g.ddb*tau
	if sigb == 0 {
		sigb = 1e-36
	}
	att := 1 - sigf
	m2 := (att + sigb) * (att - sigb)
	if m2 < 0 {
		m2 = 0
	}
	m := math.Sqrt(m2)

	sb := g.sdb*rho + g.sdf*tau
	sf := g.sdf*rho + g.sdb*tau
	vb := g.dob*rho + g.dof*tau
	vf := g.dof*rho + g.dob*tau
	w := g.sob*rho + g.sof*tau

	e1 := math.Exp(-m * g.lai)
	e2 := e1 * e1
	rinf := (att - m) / sigb
	rinf2 := rinf * rinf
	re := rinf * e1
	denom := 1 - rinf2*e2
	if denom < 1e-36 {
		denom = 1e-36
	}

	j1ks := jfunc1(g.ks, m, g.lai)
	j2ks := jfunc2(g.ks, m, g.lai)
	j1ko := jfunc1(g.ko, m, g.lai)
	j2ko := jfunc2(g.ko, m, g.lai)

	ps := (sf + sb*rinf) * j1ks
	qs := (sf*rinf + sb) * j2ks
	pv := (vf + vb*rinf) * j1ko
	qv := (vf*rinf + vb) * j2ko

	// Diffuse and direct reflectance/transmittance of the isolated layer.
	tdd := (1 - rinf2) * e1 / denom
	rdd := rinf * (1 - e2) / denom
	tsd := (ps - re*qs) / denom
	rsd := (qs - re*ps) / denom
	tdo := (pv - re*qv) / denom
	rdo := (qv - re*pv) / denom

	// Multiple-scattering part of the bidirectional reflectance.
	g1 := (g.z - j1ks*g.too) / (g.ko + m)
	g2 := (g.z - j1ko*g.tss) / (g.ks + m)
	tv1 := (vf*rinf + vb) * g1
	tv2 := (vf + vb*rinf) * g2
	t1 := tv1 * (sf + sb*rinf)
	t2 := tv2 * (sf*rinf + sb)
	t3 := (rdo*qs + tdo*ps) * rinf
	dinf := 1 - rinf2
	if dinf < 1e-36 {
		dinf = 1e-36
	}
	rsod := (t1 + t2 - t3) / dinf

	// Single-scattering part, carrying the hotspot kernel.
	rsos := w * g.lai * g.sumint

	// Couple the layer to the soil lower boundary.
	dn := 1 - rsoil*rdd
	if dn < 1e-36 {
		dn = 1e-36
	}
	bhr = rdd + tdd*rsoil*tdd/dn
	dhr = rsd + (tsd+g.tss)*rsoil*tdd/dn
	hdr = rdo + tdd*rsoil*(tdo+g.too)/dn
	rsodt := rsod + ((g.tss+tsd)*tdo+(tsd+g.tss*rsoil*rdd)*g.too)*rsoil/dn
	rsost := rsos + g.tsstoo*rsoil
	sdr = rsost + rsodt
	return sdr, bhr, dhr, hdr
}
