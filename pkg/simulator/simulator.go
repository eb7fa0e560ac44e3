// Package simulator couples the leaf optical model, the soil background and
// the four-stream canopy model into one forward simulation of canopy
// reflectance on the fixed 400-2500nm grid.
package simulator

import (
	"fmt"

	"github.com/canopylab/go-canopy-rt/pkg/canopy"
	"github.com/canopylab/go-canopy-rt/pkg/leaf"
	"github.com/canopylab/go-canopy-rt/pkg/soil"
	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// Logger is the minimal logging surface the simulator needs. Implementations
// can route to stdout, a test buffer, or a web console.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Simulator runs forward canopy reflectance simulations. The leaf
// coefficient tables and the two reference soil spectra are injected once at
// construction; a Simulator is immutable afterwards and safe for concurrent
// use.
type Simulator struct {
	leaves  *leaf.Model
	drySoil spectral.Spectrum
	wetSoil spectral.Spectrum
	logger  Logger
}

// New builds a simulator from a leaf model and the two reference soil
// spectra used when the caller asks for a brightness/moisture mixture.
func New(leaves *leaf.Model, drySoil, wetSoil spectral.Spectrum) (*Simulator, error) {
	if leaves == nil {
		return nil, fmt.Errorf("leaf model is nil")
	}
	if err := spectral.Validate("reference dry soil", drySoil); err != nil {
		return nil, err
	}
	if err := spectral.Validate("reference wet soil", wetSoil); err != nil {
		return nil, err
	}
	return &Simulator{leaves: leaves, drySoil: drySoil.Clone(), wetSoil: wetSoil.Clone()}, nil
}

// SetLogger attaches an optional progress logger. Must be called before the
// first Run if the simulator is shared between goroutines.
func (s *Simulator) SetLogger(l Logger) { s.logger = l }

func (s *Simulator) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Input is one forward simulation request. Exactly one of Leaf or LeafOptics
// must be set: either the leaf model runs on biochemistry, or precomputed
// leaf reflectance/transmittance spectra are used directly.
type Input struct {
	Leaf       *leaf.Params // biochemical route: run the leaf model
	LeafOptics *leaf.Optics // direct route: caller-supplied leaf spectra

	Canopy canopy.Params
	Soil   soil.Background
	Factor Factor
}

// Output is the result of one simulation: the full named canopy result plus
// the factor that was requested.
type Output struct {
	Requested Factor
	Result    *canopy.Result
}

// Spectra returns the requested factor(s) as a slice of spectra: one element
// for a single factor, four (SDR, BHR, DHR, HDR order) for FactorAll.
func (o *Output) Spectra() []spectral.Spectrum {
	return selectFactors(o.Result, o.Requested)
}

// Run validates the request, resolves the soil background, obtains leaf
// optics (from the plate model or verbatim), and solves the canopy model.
// All precondition failures surface before any spectral computation starts.
func (s *Simulator) Run(in Input) (*Output, error) {
	if !in.Factor.valid() {
		return nil, fmt.Errorf("unknown reflectance factor %q: must be one of SDR, BHR, DHR, HDR or ALL", in.Factor)
	}
	if (in.Leaf == nil) == (in.LeafOptics == nil) {
		return nil, fmt.Errorf("exactly one of leaf parameters or leaf optics must be supplied")
	}
	if in.Leaf != nil {
		if err := in.Leaf.Validate(); err != nil {
			return nil, err
		}
	} else if err := in.LeafOptics.Validate(); err != nil {
		return nil, err
	}
	if err := in.Canopy.Validate(); err != nil {
		return nil, err
	}

	background, err := in.Soil.Resolve(s.drySoil, s.wetSoil)
	if err != nil {
		return nil, err
	}

	var optics leaf.Optics
	if in.Leaf != nil {
		s.logf("leaf model: version %s, N=%.2f", in.Leaf.Version, in.Leaf.N)
		optics, err = s.leaves.Compute(*in.Leaf)
		if err != nil {
			return nil, err
		}
	} else {
		optics = *in.LeafOptics
	}

	s.logf("canopy model: LAI=%.2f, sun %.1f deg, view %.1f deg, azimuth %.1f deg",
		in.Canopy.LAI, in.Canopy.SolarZenith, in.Canopy.ViewZenith, in.Canopy.RelativeAzimuth)
	result, err := canopy.Compute(optics, in.Canopy, background)
	if err != nil {
		return nil, err
	}
	return &Output{Requested: in.Factor, Result: result}, nil
}
