package leaf

import (
	"fmt"

	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// CoefficientTable bundles the per-wavelength constants a leaf model version
// needs: the refractive index of the leaf interior and the specific absorption
// coefficient of each biochemical channel. Every field is a full spectrum on
// the fixed 400-2500nm grid. Tables are read-only once constructed and safe
// for concurrent use.
type CoefficientTable struct {
	RefractiveIndex spectral.Spectrum
	Chlorophyll     spectral.Spectrum
	Carotenoid      spectral.Spectrum
	BrownPigment    spectral.Spectrum
	Water           spectral.Spectrum
	DryMatter       spectral.Spectrum
	Anthocyanin     spectral.Spectrum // all zeros for tables without an anthocyanin channel
}

// Validate checks that every channel of the table lies on the fixed grid.
// An absent anthocyanin channel is allowed and treated as all zeros.
func (t *CoefficientTable) Validate() error {
	if t == nil {
		return fmt.Errorf("coefficient table is nil")
	}
	channels := []struct {
		name string
		s    spectral.Spectrum
	}{
		{"refractive index", t.RefractiveIndex},
		{"chlorophyll absorption", t.Chlorophyll},
		{"carotenoid absorption", t.Carotenoid},
		{"brown pigment absorption", t.BrownPigment},
		{"water absorption", t.Water},
		{"dry matter absorption", t.DryMatter},
	}
	for _, ch := range channels {
		if err := spectral.Validate(ch.name, ch.s); err != nil {
			return err
		}
	}
	if t.Anthocyanin != nil {
		return spectral.Validate("anthocyanin absorption", t.Anthocyanin)
	}
	return nil
}

// anthocyanin returns the anthocyanin channel, substituting zeros when the
// table does not carry one.
func (t *CoefficientTable) anthocyanin() spectral.Spectrum {
	if t.Anthocyanin == nil {
		return spectral.New()
	}
	return t.Anthocyanin
}
