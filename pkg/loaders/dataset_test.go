package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// writeSoilCSV writes a synthetic soil table with rows rows starting at
// wavelength start, returning the file path.
func writeSoilCSV(t *testing.T, rows, start int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("wavelength,dry,wet\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,%g,%g\n", start+i, 0.2+0.0001*float64(i), 0.1+0.0001*float64(i))
	}
	path := filepath.Join(t.TempDir(), "soil.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadSoil(t *testing.T) {
	path := writeSoilCSV(t, spectral.Samples, spectral.MinWavelength)
	dry, wet, err := LoadSoil(path)
	if err != nil {
		t.Fatalf("LoadSoil: %v", err)
	}
	if len(dry) != spectral.Samples || len(wet) != spectral.Samples {
		t.Fatalf("lengths %d/%d, want %d", len(dry), len(wet), spectral.Samples)
	}
	if dry[0] != 0.2 || wet[0] != 0.1 {
		t.Errorf("first row = %v/%v, want 0.2/0.1", dry[0], wet[0])
	}
}

func TestLoadSoil_RejectsShortTable(t *testing.T) {
	path := writeSoilCSV(t, spectral.Samples-1, spectral.MinWavelength)
	if _, _, err := LoadSoil(path); err == nil {
		t.Error("short table accepted")
	}
}

func TestLoadSoil_RejectsMisalignedGrid(t *testing.T) {
	path := writeSoilCSV(t, spectral.Samples, spectral.MinWavelength+5)
	if _, _, err := LoadSoil(path); err == nil {
		t.Error("misaligned wavelength grid accepted")
	}
}

func TestLoadCoefficients(t *testing.T) {
	var b strings.Builder
	b.WriteString("wavelength,nr,kab,kcar,kbrown,kw,km,kant\n")
	for i := 0; i < spectral.Samples; i++ {
		fmt.Fprintf(&b, "%d,1.45,0.01,0.01,0.0,0.5,1.0,0.02\n", spectral.MinWavelength+i)
	}
	path := filepath.Join(t.TempDir(), "coeffs.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	table, err := LoadCoefficients(path, true)
	if err != nil {
		t.Fatalf("LoadCoefficients: %v", err)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("loaded table invalid: %v", err)
	}
	if table.RefractiveIndex[0] != 1.45 || table.Anthocyanin[0] != 0.02 {
		t.Errorf("columns mapped wrong: nr=%v kant=%v", table.RefractiveIndex[0], table.Anthocyanin[0])
	}

	// The same file read without the anthocyanin column has the wrong shape.
	if _, err := LoadCoefficients(path, false); err == nil {
		t.Error("8-column file accepted as a 7-column table")
	}
}

func TestLoadCoefficients_MissingFile(t *testing.T) {
	if _, err := LoadCoefficients(filepath.Join(t.TempDir(), "absent.csv"), false); err == nil {
		t.Error("missing file accepted")
	}
}
