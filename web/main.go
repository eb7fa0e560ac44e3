package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/canopylab/go-canopy-rt/pkg/leaf"
	"github.com/canopylab/go-canopy-rt/pkg/loaders"
	"github.com/canopylab/go-canopy-rt/pkg/simulator"
	"github.com/canopylab/go-canopy-rt/web/server"
)

func main() {
	port := flag.String("port", "8080", "Port to run the web server on")
	dataDir := flag.String("data", "spectraldata", "Directory with the reference spectral tables")
	flag.Parse()

	v5, err := loaders.LoadCoefficients(filepath.Join(*dataDir, "prospect5.csv"), false)
	if err != nil {
		fmt.Printf("Error loading version 5 coefficients: %v\n", err)
		os.Exit(1)
	}
	vd, err := loaders.LoadCoefficients(filepath.Join(*dataDir, "prospectd.csv"), true)
	if err != nil {
		fmt.Printf("Error loading version D coefficients: %v\n", err)
		os.Exit(1)
	}
	dry, wet, err := loaders.LoadSoil(filepath.Join(*dataDir, "soil.csv"))
	if err != nil {
		fmt.Printf("Error loading soil spectra: %v\n", err)
		os.Exit(1)
	}

	model, err := leaf.NewModel(v5, vd)
	if err != nil {
		fmt.Printf("Error building leaf model: %v\n", err)
		os.Exit(1)
	}
	sim, err := simulator.New(model, dry, wet)
	if err != nil {
		fmt.Printf("Error building simulator: %v\n", err)
		os.Exit(1)
	}
	// Simulation progress goes to the same server log as the HTTP handlers.
	sim.SetLogger(log.Default())

	srv := server.NewServer(sim)
	if err := srv.Start(*port); err != nil {
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
}
