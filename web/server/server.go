// Package server exposes the canopy reflectance simulator over HTTP: one
// JSON endpoint runs a forward simulation and streams the resulting spectra
// back to the caller.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/canopylab/go-canopy-rt/pkg/canopy"
	"github.com/canopylab/go-canopy-rt/pkg/leaf"
	"github.com/canopylab/go-canopy-rt/pkg/simulator"
	"github.com/canopylab/go-canopy-rt/pkg/soil"
	"github.com/canopylab/go-canopy-rt/pkg/spectral"
)

// Server handles HTTP requests against a shared simulator. The simulator is
// immutable, so requests are served concurrently without locking.
type Server struct {
	sim *simulator.Simulator
}

// NewServer creates a web server around a configured simulator
func NewServer(sim *simulator.Simulator) *Server {
	return &Server{sim: sim}
}

// Start begins listening on the specified port
func (s *Server) Start(port string) error {
	mux := s.Routes()
	log.Printf("Canopy reflectance server starting on http://localhost:%s", port)
	return http.ListenAndServe(":"+port, mux)
}

// Routes registers the API handlers and returns the mux, separated from
// Start so tests can drive the handlers directly.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/simulate", s.handleSimulate)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// SimulateRequest mirrors the simulation input as JSON. Leaf biochemistry is
// the default route; callers can instead supply leaf reflectance and
// transmittance spectra directly. The soil background is either the rsoil0
// spectrum or the rsoil/psoil mixing scalars.
type SimulateRequest struct {
	Factor  string `json:"factor"`
	Version string `json:"version"` // leaf model version, "5" or "D"

	// Leaf biochemistry route. N defaults to 1.5 and Alpha to 40 degrees
	// when absent.
	N      *float64 `json:"n,omitempty"`
	Cab    float64  `json:"cab"`
	Car    float64  `json:"car"`
	Cbrown float64  `json:"cbrown"`
	Anth   float64  `json:"anth"`
	Cw     float64  `json:"cw"`
	Cm     float64  `json:"cm"`
	Alpha  *float64 `json:"alpha,omitempty"`

	// Direct leaf optics route
	LeafReflectance   []float64 `json:"leaf_reflectance,omitempty"`
	LeafTransmittance []float64 `json:"leaf_transmittance,omitempty"`

	// Canopy structure and geometry
	LAI           float64 `json:"lai"`
	LIDFType      string  `json:"lidf_type"` // "ellipsoidal" or "bimodal"
	LIDFA         float64 `json:"lidfa"`
	LIDFB         float64 `json:"lidfb"`
	MeanLeafAngle float64 `json:"mean_leaf_angle"`
	Hotspot       float64 `json:"hotspot"`
	SolarZenith   float64 `json:"tts"`
	ViewZenith    float64 `json:"tto"`
	RelAzimuth    float64 `json:"psi"`

	// Soil background
	SoilReflectance []float64 `json:"rsoil0,omitempty"`
	SoilBrightness  *float64  `json:"rsoil,omitempty"`
	SoilMoisture    *float64  `json:"psoil,omitempty"`
}

// SimulateResponse returns the requested factor spectra keyed by factor name
// plus the grid description, so clients can reconstruct wavelengths.
type SimulateResponse struct {
	Factor          string               `json:"factor"`
	WavelengthStart int                  `json:"wavelength_start_nm"`
	WavelengthStep  int                  `json:"wavelength_step_nm"`
	Samples         int                  `json:"samples"`
	Spectra         map[string][]float64 `json:"spectra"`
	ElapsedMs       int64                `json:"elapsed_ms"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	input, err := buildInput(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	startTime := time.Now()
	out, err := s.sim.Run(input)
	if err != nil {
		// Every Run failure is a caller contract violation: the engines
		// themselves never error on in-domain values.
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := SimulateResponse{
		Factor:          input.Factor.String(),
		WavelengthStart: spectral.MinWavelength,
		WavelengthStep:  1,
		Samples:         spectral.Samples,
		Spectra:         map[string][]float64{},
		ElapsedMs:       time.Since(startTime).Milliseconds(),
	}
	names := []string{input.Factor.String()}
	if input.Factor == simulator.FactorAll {
		names = []string{"SDR", "BHR", "DHR", "HDR"}
	}
	for i, spec := range out.Spectra() {
		resp.Spectra[names[i]] = spec
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// buildInput translates the JSON request into a simulator input
func buildInput(req SimulateRequest) (simulator.Input, error) {
	factor, err := simulator.ParseFactor(req.Factor)
	if err != nil {
		return simulator.Input{}, err
	}

	var input simulator.Input
	input.Factor = factor

	if len(req.LeafReflectance) > 0 || len(req.LeafTransmittance) > 0 {
		input.LeafOptics = &leaf.Optics{
			Reflectance:   req.LeafReflectance,
			Transmittance: req.LeafTransmittance,
		}
	} else {
		version, err := leaf.ParseVersion(req.Version)
		if err != nil {
			return simulator.Input{}, err
		}
		n := 1.5
		if req.N != nil {
			n = *req.N
		}
		alpha := 40.0
		if req.Alpha != nil {
			alpha = *req.Alpha
		}
		input.Leaf = &leaf.Params{
			N:            n,
			Chlorophyll:  req.Cab,
			Carotenoid:   req.Car,
			BrownPigment: req.Cbrown,
			Anthocyanin:  req.Anth,
			Water:        req.Cw,
			DryMatter:    req.Cm,
			Alpha:        alpha,
			Version:      version,
		}
	}

	var lidf canopy.LeafInclinationDistribution
	switch req.LIDFType {
	case "ellipsoidal", "":
		lidf = canopy.EllipsoidalLIDF{MeanAngle: req.MeanLeafAngle}
	case "bimodal":
		lidf = canopy.BimodalLIDF{A: req.LIDFA, B: req.LIDFB}
	default:
		return simulator.Input{}, fmt.Errorf("unknown LIDF type %q: must be 'ellipsoidal' or 'bimodal'", req.LIDFType)
	}
	input.Canopy = canopy.Params{
		LAI:             req.LAI,
		LIDF:            lidf,
		Hotspot:         req.Hotspot,
		SolarZenith:     req.SolarZenith,
		ViewZenith:      req.ViewZenith,
		RelativeAzimuth: req.RelAzimuth,
	}

	if req.SoilReflectance != nil {
		input.Soil = soil.Background{Reflectance: req.SoilReflectance}
	} else if req.SoilBrightness != nil && req.SoilMoisture != nil {
		input.Soil = soil.Background{Mixture: &soil.Mixture{Brightness: *req.SoilBrightness, Moisture: *req.SoilMoisture}}
	}
	// Leaving Soil zero-valued surfaces the underspecified-soil error from
	// the simulator itself, with its own message.

	return input, nil
}
