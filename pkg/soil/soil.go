// Package soil resolves the background reflectance spectrum beneath the
// canopy, either verbatim from the caller or as a linear mixture of two
// reference spectra (conventionally a dry and a wet soil).
package soil

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// ErrUnderspecified reports that neither a precomputed background spectrum
// nor the brightness/moisture mixing scalars were supplied.
var ErrUnderspecified = errors.New("soil background underspecified: supply either a reflectance spectrum or brightness and moisture mixing scalars")

// Mix blends two reference soil spectra into one background reflectance:
//
//	brightness * (moisture*dry + (1-moisture)*wet)
//
// elementwise over the fixed grid. With moisture = 1 the dry spectrum is
// recovered exactly (scaled by brightness), with moisture = 0 the wet one.
func Mix(dry, wet spectral.Spectrum, brightness, moisture float64) (spectral.Spectrum, error) {
	if err := spectral.Validate("soil spectrum 1 (dry)", dry); err != nil {
		return nil, err
	}
	if err := spectral.Validate("soil spectrum 2 (wet)", wet); err != nil {
		return nil, err
	}
	out := spectral.New()
	floats.ScaleTo(out, moisture, dry)
	floats.AddScaled(out, 1-moisture, wet)
	floats.Scale(brightness, out)
	return out, nil
}

// Mixture holds the two scalars of the linear soil model.
type Mixture struct {
	Brightness float64 // overall soil brightness
	Moisture   float64 // fraction of the first (dry) reference spectrum
}

// Background selects the substrate reflectance under the canopy. Exactly one
// path must be resolvable: either Reflectance is set and used verbatim, or
// Mixture is set and blended with the reference spectra. Setting neither is
// a contract violation caught before any physics runs.
type Background struct {
	Reflectance spectral.Spectrum // precomputed background, used as is
	Mixture     *Mixture          // or mixing scalars for the reference spectra
}

// Resolve produces the background spectrum, mixing the reference spectra
// when no precomputed one was supplied.
func (b Background) Resolve(dry, wet spectral.Spectrum) (spectral.Spectrum, error) {
	if b.Reflectance != nil {
		if err := spectral.Validate("soil reflectance", b.Reflectance); err != nil {
			return nil, err
		}
		return b.Reflectance, nil
	}
	if b.Mixture == nil {
		return nil, ErrUnderspecified
	}
	return Mix(dry, wet, b.Mixture.Brightness, b.Mixture.Moisture)
}
