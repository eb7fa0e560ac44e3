package simulator

import (
	"fmt"
	"strings"

	"github.com/canopylab/go-canopy-rt/pkg/canopy"
	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// Factor identifies which canopy reflectance factor a simulation returns.
type Factor int

const (
	// FactorSDR is the bidirectional (directional-directional) factor.
	FactorSDR Factor = iota
	// FactorBHR is the bi-hemispherical factor.
	FactorBHR
	// FactorDHR is the directional-hemispherical factor (directional illumination).
	FactorDHR
	// FactorHDR is the hemispherical-directional factor (directional view).
	FactorHDR
	// FactorAll selects all four, in SDR, BHR, DHR, HDR order.
	FactorAll
)

// ParseFactor maps the conventional factor names onto the enum,
// case-insensitively. Anything outside the fixed set is rejected.
func ParseFactor(s string) (Factor, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SDR":
		return FactorSDR, nil
	case "BHR":
		return FactorBHR, nil
	case "DHR":
		return FactorDHR, nil
	case "HDR":
		return FactorHDR, nil
	case "ALL":
		return FactorAll, nil
	default:
		return 0, fmt.Errorf("unknown reflectance factor %q: must be one of SDR, BHR, DHR, HDR or ALL", s)
	}
}

// String returns the conventional factor name
func (f Factor) String() string {
	switch f {
	case FactorSDR:
		return "SDR"
	case FactorBHR:
		return "BHR"
	case FactorDHR:
		return "DHR"
	case FactorHDR:
		return "HDR"
	case FactorAll:
		return "ALL"
	default:
		return fmt.Sprintf("Factor(%d)", int(f))
	}
}

// valid reports whether f is a member of the fixed enumeration
func (f Factor) valid() bool {
	return f >= FactorSDR && f <= FactorAll
}

// selectFactors is the thin lookup from the factor enum onto the named
// fields of the canopy result, in the fixed SDR, BHR, DHR, HDR order.
func selectFactors(res *canopy.Result, f Factor) []spectral.Spectrum {
	switch f {
	case FactorSDR:
		return []spectral.Spectrum{res.Bidirectional}
	case FactorBHR:
		return []spectral.Spectrum{res.BiHemispherical}
	case FactorDHR:
		return []spectral.Spectrum{res.DirectionalHemispherical}
	case FactorHDR:
		return []spectral.Spectrum{res.HemisphericalDirectional}
	default: // FactorAll, guarded by valid()
		return []spectral.Spectrum{
			res.Bidirectional,
			res.BiHemispherical,
			res.DirectionalHemispherical,
			res.HemisphericalDirectional,
		}
	}
}
