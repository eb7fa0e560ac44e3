package spectral

import "fmt"

// The simulation grid is fixed: 400-2500nm sampled every 1nm.
// Every spectral quantity in the system (leaf reflectance, soil background,
// absorption coefficients, canopy reflectance factors) lives on this grid.
const (
	MinWavelength = 400  // nm
	MaxWavelength = 2500 // nm
	Samples       = MaxWavelength - MinWavelength + 1
)

// Spectrum is a per-wavelength quantity sampled on the fixed grid.
// Index i corresponds to wavelength 400+i nm.
type Spectrum []float64

// New returns a zero-valued spectrum on the fixed grid
func New() Spectrum {
	return make(Spectrum, Samples)
}

// Constant returns a spectrum with the same value at every wavelength
func Constant(v float64) Spectrum {
	s := New()
	for i := range s {
		s[i] = v
	}
	return s
}

// Wavelength returns the wavelength in nanometers of sample index i
func Wavelength(i int) float64 {
	return float64(MinWavelength + i)
}

// Clone returns an independent copy of the spectrum
func (s Spectrum) Clone() Spectrum {
	dst := make(Spectrum, len(s))
	copy(dst, s)
	return dst
}

// LengthError reports an input spectrum whose sample count does not match
// the fixed 400-2500nm grid. Name identifies which input was malformed.
type LengthError struct {
	Name string
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("spectrum %q has %d samples, want %d (400-2500nm at 1nm steps)", e.Name, e.Got, Samples)
}

// Validate checks that s lies on the fixed grid. The name is used in the
// error so callers can tell which of several inputs was malformed.
func Validate(name string, s Spectrum) error {
	if len(s) != Samples {
		return &LengthError{Name: name, Got: len(s)}
	}
	return nil
}
