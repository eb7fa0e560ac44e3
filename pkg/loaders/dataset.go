// Package loaders reads the reference spectral datasets from disk: the leaf
// coefficient tables and the dry/wet soil reference spectra. The physical
// engines never touch files themselves; everything loaded here is handed to
// them as plain spectra.
package loaders

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/canopylab/go-canopy-rt/pkg/leaf"
	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// readTable reads a CSV file with a single header row and a fixed number of
// float64 columns, one row per wavelength of the fixed grid. The first
// column must be the wavelength in nm and must align exactly with the grid.
func readTable(filename string, columns int) ([]spectral.Spectrum, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open spectral table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = columns

	// Skip the header row.
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", filename, err)
	}

	out := make([]spectral.Spectrum, columns-1)
	for i := range out {
		out[i] = spectral.New()
	}

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", filename, row+2, err)
		}
		if row >= spectral.Samples {
			return nil, fmt.Errorf("%s has more than %d data rows", filename, spectral.Samples)
		}

		wl, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad wavelength %q", filename, row+2, record[0])
		}
		if wl != spectral.Wavelength(row) {
			return nil, fmt.Errorf("%s row %d: wavelength %v, want %v (grid must be 400-2500nm at 1nm)", filename, row+2, wl, spectral.Wavelength(row))
		}
		for c := 1; c < columns; c++ {
			v, err := strconv.ParseFloat(record[c], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %d: bad value %q", filename, row+2, c+1, record[c])
			}
			out[c-1][row] = v
		}
		row++
	}
	if row != spectral.Samples {
		return nil, fmt.Errorf("%s has %d data rows, want %d", filename, row, spectral.Samples)
	}
	return out, nil
}

// LoadCoefficients reads a leaf coefficient table. The file must have a
// header and the columns wavelength, refractive index, chlorophyll,
// carotenoid, brown pigment, water, dry matter, and optionally anthocyanin.
func LoadCoefficients(filename string, withAnthocyanin bool) (*leaf.CoefficientTable, error) {
	columns := 7
	if withAnthocyanin {
		columns = 8
	}
	cols, err := readTable(filename, columns)
	if err != nil {
		return nil, err
	}
	table := &leaf.CoefficientTable{
		RefractiveIndex: cols[0],
		Chlorophyll:     cols[1],
		Carotenoid:      cols[2],
		BrownPigment:    cols[3],
		Water:           cols[4],
		DryMatter:       cols[5],
	}
	if withAnthocyanin {
		table.Anthocyanin = cols[6]
	}
	return table, nil
}

// LoadSoil reads the two reference soil spectra from a CSV with the columns
// wavelength, dry reflectance, wet reflectance.
func LoadSoil(filename string) (dry, wet spectral.Spectrum, err error) {
	cols, err := readTable(filename, 3)
	if err != nil {
		return nil, nil, err
	}
	return cols[0], cols[1], nil
}
