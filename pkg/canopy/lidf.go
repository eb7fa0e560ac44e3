package canopy

import (
	"fmt"
	"math"
)

// inclinationClasses is the number of equal-width leaf inclination classes
// the canopy model integrates over: 18 classes of 5 degrees, with class
// centers at 2.5, 7.5, ..., 87.5 degrees.
const inclinationClasses = 18

// LeafInclinationDistribution yields the relative frequency of leaf
// inclination angles over a partition of [0, 90] degrees into equal-width
// classes. Weights are non-negative and sum to 1.
//
// The canopy model only consumes the discretized weights, so any
// distribution shape can be plugged in.
type LeafInclinationDistribution interface {
	Weights(classes int) ([]float64, error)
}

// BimodalLIDF is the two-parameter leaf angle distribution of Verhoef.
// A controls the average slope and B the bimodality; |A|+|B| <= 1 keeps the
// density non-negative. A = -0.35, B = -0.15 approximates a spherical
// distribution; A = 1, B = 0 is planophile; A = -1, B = 0 is erectophile.
type BimodalLIDF struct {
	A, B float64
}

// Weights discretizes the distribution by differencing its cumulative
// frequency at the class boundaries.
func (d BimodalLIDF) Weights(classes int) ([]float64, error) {
	if classes <= 0 {
		return nil, fmt.Errorf("leaf inclination classes = %d: must be > 0", classes)
	}
	if math.Abs(d.A)+math.Abs(d.B) > 1 {
		return nil, fmt.Errorf("bimodal LIDF parameters a=%v b=%v: |a|+|b| must be <= 1", d.A, d.B)
	}
	w := make([]float64, classes)
	step := 90.0 / float64(classes)
	prev := 0.0
	for i := range w {
		f := d.cumulative(float64(i+1) * step)
		w[i] = f - prev
		prev = f
	}
	return w, nil
}

// cumulative evaluates the cumulative inclination frequency at angleDeg via
// Verhoef's fixed-point iteration on x = angle parameter of the implicit
// distribution function.
func (d BimodalLIDF) cumulative(angleDeg float64) float64 {
	tl := angleDeg * math.Pi / 180
	if d.A > 1 {
		return 1 - math.Cos(tl)
	}
	const eps = 1e-8
	x := 2 * tl
	p := x
	var y float64
	for delta := 1.0; delta >= eps; {
		y = d.A*math.Sin(x) + 0.5*d.B*math.Sin(2*x)
		dx := 0.5 * (y - x + p)
		x += dx
		delta = math.Abs(dx)
	}
	return (2*y + p) / math.Pi
}

// EllipsoidalLIDF is Campbell's single-parameter distribution: leaf normals
// distributed like the surface of an ellipsoid whose eccentricity is fitted
// from the mean leaf inclination angle (degrees).
type EllipsoidalLIDF struct {
	MeanAngle float64
}

// Weights integrates the ellipsoidal density over each inclination class.
func (d EllipsoidalLIDF) Weights(classes int) ([]float64, error) {
	if classes <= 0 {
		return nil, fmt.Errorf("leaf inclination classes = %d: must be > 0", classes)
	}
	if d.MeanAngle <= 0 || d.MeanAngle >= 90 {
		return nil, fmt.Errorf("mean leaf angle = %v degrees: must be in (0, 90)", d.MeanAngle)
	}

	// Empirical fit of ellipsoid eccentricity to the mean inclination angle.
	a := d.MeanAngle
	excent := math.Exp(-1.6184e-5*a*a*a + 2.1145e-3*a*a - 1.2390e-1*a + 3.2491)

	w := make([]float64, classes)
	step := 90.0 / float64(classes)
	for i := range w {
		tl1 := float64(i) * step * math.Pi / 180
		tl2 := float64(i+1) * step * math.Pi / 180
		x1 := excent / math.Sqrt(1+excent*excent*math.Tan(tl1)*math.Tan(tl1))
		x2 := excent / math.Sqrt(1+excent*excent*math.Tan(tl2)*math.Tan(tl2))
		switch {
		case excent == 1:
			w[i] = math.Abs(math.Cos(tl1) - math.Cos(tl2))
		case excent > 1:
			alph := excent / math.Sqrt(math.Abs(1-excent*excent))
			alph2 := alph * alph
			alpx1 := math.Sqrt(alph2 + x1*x1)
			alpx2 := math.Sqrt(alph2 + x2*x2)
			dum := x1*alpx1 + alph2*math.Log(x1+alpx1)
			w[i] = math.Abs(dum - (x2*alpx2 + alph2*math.Log(x2+alpx2)))
		default: // excent < 1
			alph := excent / math.Sqrt(math.Abs(1-excent*excent))
			alph2 := alph * alph
			almx1 := math.Sqrt(alph2 - x1*x1)
			almx2 := math.Sqrt(alph2 - x2*x2)
			dum := x1*almx1 + alph2*math.Asin(x1/alph)
			w[i] = math.Abs(dum - (x2*almx2 + alph2*math.Asin(x2/alph)))
		}
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	for i := range w {
		w[i] /= sum
	}
	return w, nil
}
