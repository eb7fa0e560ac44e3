package simulator

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/canopylab/go-canopy-rt/pkg/canopy"
	"github.com/canopylab/go-canopy-rt/pkg/leaf"
	"github.com/canopylab/go-canopy-rt/pkg/soil"
	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

func syntheticTable() *leaf.CoefficientTable {
	t := &leaf.CoefficientTable{
		RefractiveIndex: spectral.Constant(1.45),
		Chlorophyll:     spectral.New(),
		Carotenoid:      spectral.New(),
		BrownPigment:    spectral.New(),
		Water:           spectral.New(),
		DryMatter:       spectral.New(),
		Anthocyanin:     spectral.New(),
	}
	for i := range t.Chlorophyll {
		wl := spectral.Wavelength(i)
		t.Chlorophyll[i] = 0.05 * math.Exp(-(wl-670)*(wl-670)/(2*50*50))
		t.Carotenoid[i] = 0.03 * math.Exp(-(wl-480)*(wl-480)/(2*40*40))
		t.Water[i] = 5.0 * math.Exp(-(wl-1450)*(wl-1450)/(2*100*100))
		t.DryMatter[i] = 10.0 * math.Exp(-(wl-2100)*(wl-2100)/(2*200*200))
		t.Anthocyanin[i] = 0.04 * math.Exp(-(wl-550)*(wl-550)/(2*30*30))
	}
	return t
}

func newTestSimulator(t *testing.T) *Simulator {
	t.Helper()
	table := syntheticTable()
	model, err := leaf.NewModel(table, table)
	if err != nil {
		t.Fatalf("leaf.NewModel: %v", err)
	}
	sim, err := New(model, spectral.Constant(0.3), spectral.Constant(0.1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sim
}

func testInput(f Factor) Input {
	return Input{
		Leaf: &leaf.Params{N: 1.5, Chlorophyll: 40, Carotenoid: 8, Water: 0.01, DryMatter: 0.009, Alpha: 40, Version: leaf.Version5},
		Canopy: canopy.Params{
			LAI:             3,
			LIDF:            canopy.EllipsoidalLIDF{MeanAngle: 50},
			Hotspot:         0.01,
			SolarZenith:     30,
			ViewZenith:      10,
			RelativeAzimuth: 0,
		},
		Soil:   soil.Background{Mixture: &soil.Mixture{Brightness: 1, Moisture: 0.5}},
		Factor: f,
	}
}

func TestParseFactor(t *testing.T) {
	tests := []struct {
		in        string
		want      Factor
		expectErr bool
	}{
		{"SDR", FactorSDR, false},
		{"sdr", FactorSDR, false},
		{"Bhr", FactorBHR, false},
		{"DHR", FactorDHR, false},
		{"hdr", FactorHDR, false},
		{"all", FactorAll, false},
		{" ALL ", FactorAll, false},
		{"BRF", 0, true},
		{"", 0, true},
		{"SDR,BHR", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFactor(tt.in)
		if tt.expectErr {
			if err == nil {
				t.Errorf("ParseFactor(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFactor(%q): %v", tt.in, err)
		} else if got != tt.want {
			t.Errorf("ParseFactor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRun_AllMatchesIndividualFactors(t *testing.T) {
	sim := newTestSimulator(t)

	all, err := sim.Run(testInput(FactorAll))
	if err != nil {
		t.Fatalf("Run(ALL): %v", err)
	}
	rows := all.Spectra()
	if len(rows) != 4 {
		t.Fatalf("ALL returned %d spectra, want 4", len(rows))
	}

	for i, f := range []Factor{FactorSDR, FactorBHR, FactorDHR, FactorHDR} {
		out, err := sim.Run(testInput(f))
		if err != nil {
			t.Fatalf("Run(%v): %v", f, err)
		}
		single := out.Spectra()
		if len(single) != 1 {
			t.Fatalf("%v returned %d spectra, want 1", f, len(single))
		}
		if len(single[0]) != spectral.Samples {
			t.Fatalf("%v spectrum has %d samples, want %d", f, len(single[0]), spectral.Samples)
		}
		for j := range single[0] {
			if single[0][j] != rows[i][j] {
				t.Fatalf("factor %v sample %d: individual %v != ALL row %v", f, j, single[0][j], rows[i][j])
			}
		}
	}
}

func TestRun_DirectLeafOptics(t *testing.T) {
	sim := newTestSimulator(t)

	in := testInput(FactorSDR)
	in.Leaf = nil
	in.LeafOptics = &leaf.Optics{
		Reflectance:   spectral.Constant(0.05),
		Transmittance: spectral.Constant(0.05),
	}
	in.Soil = soil.Background{Reflectance: spectral.Constant(0.2)}

	out, err := sim.Run(in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := out.Spectra()[0]
	// Flat inputs give a flat output spectrum.
	for i := range s {
		if s[i] != s[0] {
			t.Fatalf("sample %d = %v differs from sample 0 = %v", i, s[i], s[0])
		}
	}
	if s[0] <= 0 || math.IsNaN(s[0]) {
		t.Fatalf("reflectance = %v", s[0])
	}
}

func TestRun_LeafInputExclusivity(t *testing.T) {
	sim := newTestSimulator(t)

	neither := testInput(FactorSDR)
	neither.Leaf = nil
	if _, err := sim.Run(neither); err == nil {
		t.Error("input with neither leaf route accepted")
	}

	both := testInput(FactorSDR)
	both.LeafOptics = &leaf.Optics{Reflectance: spectral.Constant(0.05), Transmittance: spectral.Constant(0.05)}
	if _, err := sim.Run(both); err == nil {
		t.Error("input with both leaf routes accepted")
	}
}

func TestRun_MalformedSoilFailsBeforePhysics(t *testing.T) {
	sim := newTestSimulator(t)

	in := testInput(FactorSDR)
	in.Soil = soil.Background{Reflectance: make(spectral.Spectrum, spectral.Samples-1)}

	_, err := sim.Run(in)
	var lenErr *spectral.LengthError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error = %v, want LengthError", err)
	}
	if lenErr.Got != spectral.Samples-1 {
		t.Errorf("reported %d samples, want %d", lenErr.Got, spectral.Samples-1)
	}
}

func TestRun_UnderspecifiedSoil(t *testing.T) {
	sim := newTestSimulator(t)

	in := testInput(FactorSDR)
	in.Soil = soil.Background{}
	if _, err := sim.Run(in); !errors.Is(err, soil.ErrUnderspecified) {
		t.Fatalf("error = %v, want ErrUnderspecified", err)
	}
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestRun_LogsProgress(t *testing.T) {
	sim := newTestSimulator(t)
	logger := &recordingLogger{}
	sim.SetLogger(logger)

	if _, err := sim.Run(testInput(FactorSDR)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(logger.lines) == 0 {
		t.Fatal("no progress lines logged")
	}
	joined := strings.Join(logger.lines, "\n")
	for _, want := range []string{"leaf model", "canopy model"} {
		if !strings.Contains(joined, want) {
			t.Errorf("log output missing %q:\n%s", want, joined)
		}
	}
}

func TestRun_InvalidFactor(t *testing.T) {
	sim := newTestSimulator(t)
	in := testInput(Factor(12))
	if _, err := sim.Run(in); err == nil {
		t.Error("out-of-range factor accepted")
	}
}

func TestRun_InvalidCanopyParams(t *testing.T) {
	sim := newTestSimulator(t)
	in := testInput(FactorSDR)
	in.Canopy.LAI = -2
	if _, err := sim.Run(in); err == nil {
		t.Error("negative LAI accepted")
	}
}
