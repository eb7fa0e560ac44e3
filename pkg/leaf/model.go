package leaf

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// Version selects which plate-model variant to run. The variants differ only
// in the coefficient table they read and in whether anthocyanin absorption
// is modeled.
type Version int

const (
	// Version5 is the five-channel model: chlorophyll, carotenoid, brown
	// pigment, water and dry matter. Anthocyanin content is ignored.
	Version5 Version = iota
	// VersionD adds the anthocyanin absorption channel.
	VersionD
)

// ParseVersion maps the conventional version names "5" and "D"
// (case-insensitive) onto the Version enum.
func ParseVersion(s string) (Version, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "5":
		return Version5, nil
	case "D":
		return VersionD, nil
	default:
		return 0, fmt.Errorf("unknown leaf model version %q: must be one of 5, D", s)
	}
}

// String returns the conventional version name
func (v Version) String() string {
	switch v {
	case Version5:
		return "5"
	case VersionD:
		return "D"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// Params holds the biochemical and structural inputs of a single leaf.
// Concentrations of zero are valid and contribute no absorption.
type Params struct {
	N            float64 // plate-model layer count, > 0 (typically 1-3)
	Chlorophyll  float64 // ug/cm2
	Carotenoid   float64 // ug/cm2
	BrownPigment float64 // senescent pigment fraction, unitless
	Anthocyanin  float64 // ug/cm2, only used by VersionD
	Water        float64 // equivalent water thickness, cm
	DryMatter    float64 // g/cm2
	Alpha        float64 // surface-scattering cone half-angle, degrees
	Version      Version
}

// Validate rejects parameter values outside the physical domain of the model.
func (p Params) Validate() error {
	if p.Version != Version5 && p.Version != VersionD {
		return fmt.Errorf("unknown leaf model version %q: must be one of 5, D", p.Version)
	}
	if p.N <= 0 || math.IsNaN(p.N) {
		return fmt.Errorf("leaf layer count N = %v: must be > 0", p.N)
	}
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"chlorophyll", p.Chlorophyll},
		{"carotenoid", p.Carotenoid},
		{"brown pigment", p.BrownPigment},
		{"anthocyanin", p.Anthocyanin},
		{"water", p.Water},
		{"dry matter", p.DryMatter},
	} {
		if c.value < 0 || math.IsNaN(c.value) {
			return fmt.Errorf("%s concentration = %v: must be >= 0", c.name, c.value)
		}
	}
	if p.Alpha < 0 || p.Alpha > 90 {
		return fmt.Errorf("surface scattering angle alpha = %v degrees: must be in [0, 90]", p.Alpha)
	}
	return nil
}

// Optics is the result of the leaf model: whole-leaf reflectance and
// transmittance, each a full spectrum with values in [0, 1].
type Optics struct {
	Reflectance   spectral.Spectrum
	Transmittance spectral.Spectrum
}

// Validate checks that both spectra lie on the fixed grid
func (o Optics) Validate() error {
	if err := spectral.Validate("leaf reflectance", o.Reflectance); err != nil {
		return err
	}
	return spectral.Validate("leaf transmittance", o.Transmittance)
}

// Model computes whole-leaf optical properties with the generalized
// plate model: a leaf is N stacked absorbing plates separated by air,
// bounded by dielectric interfaces. The coefficient tables are injected at
// construction and never mutated, so a Model is safe for concurrent use.
type Model struct {
	tables map[Version]*CoefficientTable
}

// NewModel builds a leaf model from one coefficient table per version.
// A nil table disables that version; at least one must be supplied.
func NewModel(v5, vd *CoefficientTable) (*Model, error) {
	tables := make(map[Version]*CoefficientTable)
	if v5 != nil {
		if err := v5.Validate(); err != nil {
			return nil, fmt.Errorf("version 5 table: %w", err)
		}
		tables[Version5] = v5
	}
	if vd != nil {
		if err := vd.Validate(); err != nil {
			return nil, fmt.Errorf("version D table: %w", err)
		}
		tables[VersionD] = vd
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("leaf model needs at least one coefficient table")
	}
	return &Model{tables: tables}, nil
}

// Compute runs the plate model and returns whole-leaf reflectance and
// transmittance spectra. It is a pure function of the parameters and the
// injected coefficient tables.
func (m *Model) Compute(p Params) (Optics, error) {
	if err := p.Validate(); err != nil {
		return Optics{}, err
	}
	table, ok := m.tables[p.Version]
	if !ok {
		return Optics{}, fmt.Errorf("leaf model version %s has no coefficient table loaded", p.Version)
	}

	// Total absorption coefficient per unit layer: the concentration-weighted
	// sum of the specific absorption channels, spread over the N layers.
	kall := spectral.New()
	floats.AddScaled(kall, p.Chlorophyll, table.Chlorophyll)
	floats.AddScaled(kall, p.Carotenoid, table.Carotenoid)
	floats.AddScaled(kall, p.BrownPigment, table.BrownPigment)
	floats.AddScaled(kall, p.Water, table.Water)
	floats.AddScaled(kall, p.DryMatter, table.DryMatter)
	if p.Version == VersionD {
		floats.AddScaled(kall, p.Anthocyanin, table.anthocyanin())
	}
	floats.Scale(1/p.N, kall)

	out := Optics{Reflectance: spectral.New(), Transmittance: spectral.New()}
	for i := range kall {
		r, t := plateStack(p.N, kall[i], p.Alpha, table.RefractiveIndex[i])
		out.Reflectance[i] = r
		out.Transmittance[i] = t
	}
	return out, nil
}

// plateStack computes reflectance and transmittance of a stack of n plates at
// one wavelength from the per-layer absorption coefficient k, the surface
// scattering angle alpha (degrees) and the refractive index nr.
func plateStack(n, k, alphaDeg, nr float64) (refl, tran float64) {
	tau := plateTransmissivity(k)

	// Interface factors. The top surface accepts light from a cone of
	// half-angle alpha; all internal interfaces see fully diffuse radiation.
	talf := interfaceTransmissivity(alphaDeg, nr)
	ralf := 1 - talf
	t12 := interfaceTransmissivity(90, nr)
	r12 := 1 - t12
	t21 := t12 / (nr * nr)
	r21 := 1 - t21

	// Top surface side: multiple reflections between the two faces of the
	// first plate (geometric series in r21*tau).
	denom := 1 - r21*r21*tau*tau
	ta := talf * tau * t21 / denom
	ra := ralf + r21*tau*ta

	// The same plate under diffuse illumination, for the layers below.
	t := t12 * tau * t21 / denom
	r := r12 + r21*tau*t

	// Stokes equations: extend one diffuse plate to a stack of n-1 plates.
	var rsub, tsub float64
	if r+t >= 1 {
		// Non-absorbing limit, where the general solution degenerates.
		tsub = t / (t + (1-t)*(n-1))
		rsub = 1 - tsub
	} else {
		d := math.Sqrt((1 + r + t) * (1 + r - t) * (1 - r + t) * (1 - r - t))
		r2 := r * r
		t2 := t * t
		va := (1 + r2 - t2 + d) / (2 * r)
		vb := (1 - r2 + t2 + d) / (2 * t)
		vbNN := math.Pow(vb, n-1)
		vbNN2 := vbNN * vbNN
		va2 := va * va
		denomx := va2*vbNN2 - 1
		rsub = va * (vbNN2 - 1) / denomx
		tsub = vbNN * (va2 - 1) / denomx
	}

	// Couple the stack back to the alpha-limited top surface.
	den := 1 - rsub*r
	tran = ta * tsub / den
	refl = ra + ta*rsub*t/den
	return refl, tran
}
