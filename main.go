package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/canopylab/go-canopy-rt/pkg/canopy"
	"github.com/canopylab/go-canopy-rt/pkg/leaf"
	"github.com/canopylab/go-canopy-rt/pkg/loaders"
	"github.com/canopylab/go-canopy-rt/pkg/simulator"
	"github.com/canopylab/go-canopy-rt/pkg/soil"
	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// config collects every command line parameter of one simulation
type config struct {
	dataDir string
	factor  string

	// Leaf biochemistry
	version string
	n       float64
	cab     float64
	car     float64
	cbrown  float64
	anth    float64
	cw      float64
	cm      float64
	alpha   float64

	// Canopy structure and geometry
	lai      float64
	lidfType string
	lidfA    float64
	lidfB    float64
	meanLeaf float64
	hotspot  float64
	tts      float64
	tto      float64
	psi      float64

	// Soil
	brightness float64
	moisture   float64
}

func main() {
	var cfg config
	flag.StringVar(&cfg.dataDir, "data", "spectraldata", "Directory with the reference spectral tables")
	flag.StringVar(&cfg.factor, "factor", "SDR", "Reflectance factor: SDR, BHR, DHR, HDR or ALL")
	flag.StringVar(&cfg.version, "version", "D", "Leaf model version: 5 or D")
	flag.Float64Var(&cfg.n, "n", 1.5, "Leaf structure parameter (plate layers)")
	flag.Float64Var(&cfg.cab, "cab", 40, "Chlorophyll a+b concentration (ug/cm2)")
	flag.Float64Var(&cfg.car, "car", 8, "Carotenoid concentration (ug/cm2)")
	flag.Float64Var(&cfg.cbrown, "cbrown", 0, "Brown pigment fraction")
	flag.Float64Var(&cfg.anth, "anth", 0, "Anthocyanin concentration (ug/cm2, version D only)")
	flag.Float64Var(&cfg.cw, "cw", 0.01, "Equivalent water thickness (cm)")
	flag.Float64Var(&cfg.cm, "cm", 0.009, "Dry matter content (g/cm2)")
	flag.Float64Var(&cfg.alpha, "alpha", 40, "Leaf surface scattering angle (degrees)")
	flag.Float64Var(&cfg.lai, "lai", 3, "Leaf area index")
	flag.StringVar(&cfg.lidfType, "lidf-type", "ellipsoidal", "Leaf angle distribution: 'ellipsoidal' or 'bimodal'")
	flag.Float64Var(&cfg.lidfA, "lidfa", -0.35, "Bimodal LIDF a parameter")
	flag.Float64Var(&cfg.lidfB, "lidfb", -0.15, "Bimodal LIDF b parameter")
	flag.Float64Var(&cfg.meanLeaf, "mean-leaf-angle", 57, "Ellipsoidal LIDF mean leaf angle (degrees)")
	flag.Float64Var(&cfg.hotspot, "hotspot", 0.01, "Hotspot size parameter (leaf size / canopy height)")
	flag.Float64Var(&cfg.tts, "tts", 30, "Solar zenith angle (degrees)")
	flag.Float64Var(&cfg.tto, "tto", 10, "View zenith angle (degrees)")
	flag.Float64Var(&cfg.psi, "psi", 0, "Relative azimuth angle (degrees)")
	flag.Float64Var(&cfg.brightness, "rsoil", 1, "Soil brightness scalar")
	flag.Float64Var(&cfg.moisture, "psoil", 1, "Soil moisture scalar (1 = dry reference)")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Canopy Reflectance Simulator")
		fmt.Println("Usage: canopy-rt [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Output will be saved to output/<factor>/spectrum_<timestamp>.csv")
		return
	}

	sim, err := createSimulator(cfg.dataDir)
	if err != nil {
		fmt.Printf("Error loading spectral tables: %v\n", err)
		os.Exit(1)
	}
	sim.SetLogger(log.New(os.Stdout, "", 0))

	input, err := buildInput(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Simulating %s: LAI=%.2f, sun %.1f deg, view %.1f deg...\n",
		input.Factor, cfg.lai, cfg.tts, cfg.tto)
	startTime := time.Now()
	out, err := sim.Run(input)
	if err != nil {
		fmt.Printf("Simulation error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Simulation completed in %v\n", time.Since(startTime))

	path, err := saveSpectra(out, input.Factor)
	if err != nil {
		fmt.Printf("Error saving output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Spectrum saved to: %s\n", path)
}

// createSimulator loads the reference tables from dataDir and wires up the
// leaf model and the simulator.
func createSimulator(dataDir string) (*simulator.Simulator, error) {
	v5, err := loaders.LoadCoefficients(filepath.Join(dataDir, "prospect5.csv"), false)
	if err != nil {
		return nil, err
	}
	vd, err := loaders.LoadCoefficients(filepath.Join(dataDir, "prospectd.csv"), true)
	if err != nil {
		return nil, err
	}
	dry, wet, err := loaders.LoadSoil(filepath.Join(dataDir, "soil.csv"))
	if err != nil {
		return nil, err
	}
	model, err := leaf.NewModel(v5, vd)
	if err != nil {
		return nil, err
	}
	return simulator.New(model, dry, wet)
}

// buildInput translates command line settings into a simulation request
func buildInput(cfg config) (simulator.Input, error) {
	factor, err := simulator.ParseFactor(cfg.factor)
	if err != nil {
		return simulator.Input{}, err
	}
	version, err := leaf.ParseVersion(cfg.version)
	if err != nil {
		return simulator.Input{}, err
	}
	lidf, err := buildLIDF(cfg)
	if err != nil {
		return simulator.Input{}, err
	}

	return simulator.Input{
		Leaf: &leaf.Params{
			N:            cfg.n,
			Chlorophyll:  cfg.cab,
			Carotenoid:   cfg.car,
			BrownPigment: cfg.cbrown,
			Anthocyanin:  cfg.anth,
			Water:        cfg.cw,
			DryMatter:    cfg.cm,
			Alpha:        cfg.alpha,
			Version:      version,
		},
		Canopy: canopy.Params{
			LAI:             cfg.lai,
			LIDF:            lidf,
			Hotspot:         cfg.hotspot,
			SolarZenith:     cfg.tts,
			ViewZenith:      cfg.tto,
			RelativeAzimuth: cfg.psi,
		},
		Soil:   soil.Background{Mixture: &soil.Mixture{Brightness: cfg.brightness, Moisture: cfg.moisture}},
		Factor: factor,
	}, nil
}

// buildLIDF selects the leaf angle distribution strategy from the flags
func buildLIDF(cfg config) (canopy.LeafInclinationDistribution, error) {
	switch cfg.lidfType {
	case "ellipsoidal":
		return canopy.EllipsoidalLIDF{MeanAngle: cfg.meanLeaf}, nil
	case "bimodal":
		return canopy.BimodalLIDF{A: cfg.lidfA, B: cfg.lidfB}, nil
	default:
		return nil, fmt.Errorf("unknown LIDF type %q: must be 'ellipsoidal' or 'bimodal'", cfg.lidfType)
	}
}

// saveSpectra writes the requested factor spectra as CSV under
// output/<factor>/spectrum_<timestamp>.csv and returns the path.
func saveSpectra(out *simulator.Output, factor simulator.Factor) (string, error) {
	dir := filepath.Join("output", factor.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("spectrum_%s.csv", time.Now().Format("2006-01-02_15-04-05")))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	spectra := out.Spectra()
	header := []string{"wavelength"}
	if factor == simulator.FactorAll {
		header = append(header, "SDR", "BHR", "DHR", "HDR")
	} else {
		header = append(header, factor.String())
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}
	row := make([]string, len(header))
	for i := 0; i < spectral.Samples; i++ {
		row[0] = strconv.Itoa(spectral.MinWavelength + i)
		for c, s := range spectra {
			row[c+1] = strconv.FormatFloat(s[i], 'g', -1, 64)
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	return path, nil
}
