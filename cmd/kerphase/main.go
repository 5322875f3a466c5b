package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"kerphase/internal/models"
	"kerphase/pkg/config"
	"kerphase/pkg/fits"
	"kerphase/pkg/kernelphase"
	"kerphase/pkg/visualization"
)

// frameRecord is the serialized result for one cube frame.
type frameRecord struct {
	Frame        int       `yaml:"frame"`
	LowSignal    bool      `yaml:"low_signal,omitempty"`
	KernelPhases []float64 `yaml:"kernel_phases,omitempty"`
	UVPhases     []float64 `yaml:"uv_phases"`
	Vis2         []float64 `yaml:"vis2"`
	Bispectrum   []float64 `yaml:"bispectrum,omitempty"`
	Error        string    `yaml:"error,omitempty"`
}

// resultFile is the on-disk output document.
type resultFile struct {
	Instrument  string        `yaml:"instrument"`
	Source      string        `yaml:"source"`
	Wavelength  float64       `yaml:"wavelength"`
	PlateScale  float64       `yaml:"plate_scale"`
	Orientation float64       `yaml:"orientation"`
	Frames      []frameRecord `yaml:"frames"`
}

func main() {
	// Parse command line arguments
	inputFile := flag.String("input", "", "Input FITS frame or cube")
	geometryFile := flag.String("geometry", "", "Aperture geometry YAML file")
	instrumentTag := flag.String("instrument", "", "Instrument tag: keck, nicmos, pharo or simulated")
	outputName := flag.String("output", "observables.yaml", "Output YAML filename")
	configFile := flag.String("config", "", "Pipeline configuration file (optional)")
	writeConfig := flag.Bool("write-config", false, "Write a default configuration file and exit")
	flag.Parse()

	if *writeConfig {
		path := *configFile
		if path == "" {
			path = "kerphase.yaml"
		}
		if err := config.CreateDefaultConfigFile(path); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", path)
		return
	}

	// Validate inputs
	if *inputFile == "" || *geometryFile == "" || *instrumentTag == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}

	instrument, err := models.ParseInstrument(*instrumentTag)
	if err != nil {
		log.Fatalf("Unknown instrument: %v", err)
	}

	geometry, err := kernelphase.LoadGeometry(*geometryFile)
	if err != nil {
		log.Fatalf("Failed to load geometry: %v", err)
	}

	cube, err := fits.Open(*inputFile)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	info, err := models.InfoFromHeader(instrument, cube.Header)
	if err != nil {
		log.Fatalf("Failed to decode observation header: %v", err)
	}
	info.FileName = filepath.Base(*inputFile)

	fmt.Println("================================")
	fmt.Println("KERNEL-PHASE OBSERVABLE EXTRACTION")
	fmt.Println("================================")
	fmt.Printf("Instrument: %s\n", info.Instrument)
	fmt.Printf("Wavelength: %.4g m, plate scale %.3f mas/pixel\n", info.Wavelength, info.PlateScale)
	fmt.Printf("Frames: %d, baselines: %d, kernels: %d\n",
		cube.Frames, len(geometry.UV), geometry.KernelCount())

	opts := kernelphase.DefaultOptions()
	opts.Recenter = cfg.Recentering.Enabled
	opts.Window = cfg.Recentering.WindowWhenDisabled
	opts.RecenterIterations = cfg.Recentering.Iterations
	opts.WindowRadius = cfg.Extraction.WindowRadius
	opts.WindowRadiusLD = cfg.Extraction.WindowRadiusLD
	opts.PupilDiameter = cfg.Extraction.PupilDiameter
	opts.GridSize = cfg.Extraction.GridSize
	opts.WFS = cfg.Extraction.WFS
	opts.Bispectrum = cfg.Bispectrum.Enabled
	opts.BispectrumRange = [2]int{cfg.Bispectrum.Lower, cfg.Bispectrum.Upper}
	opts.NonRedundant = cfg.Bispectrum.NonRedundant
	opts.SaveImages = cfg.Output.SaveImages || cfg.Output.DiagnosticsDir != ""
	opts.Verbose = cfg.Output.Verbose

	extractor, err := kernelphase.NewExtractor(geometry, opts)
	if err != nil {
		log.Fatalf("Failed to initialize extractor: %v", err)
	}

	frames := make([]*mat.Dense, cube.Frames)
	for k := range frames {
		frame, err := cube.Frame(k)
		if err != nil {
			log.Fatalf("Failed to read frame %d: %v", k, err)
		}
		frames[k] = frame
	}

	fmt.Println("Starting extraction...")
	startTime := time.Now()
	bundles, errs := extractor.ExtractBatch(frames, info, cfg.Extraction.NumWorkers)
	elapsed := time.Since(startTime)

	result := resultFile{
		Instrument:  info.Instrument.String(),
		Source:      info.FileName,
		Wavelength:  info.Wavelength,
		PlateScale:  info.PlateScale,
		Orientation: info.Orientation,
	}
	good := 0
	for k, bundle := range bundles {
		record := frameRecord{Frame: k}
		if errs[k] != nil {
			record.Error = errs[k].Error()
		} else {
			record.LowSignal = bundle.LowSignal
			record.KernelPhases = bundle.KernelPhases
			record.UVPhases = bundle.UVPhases
			record.Vis2 = bundle.Vis2
			record.Bispectrum = bundle.Bispectrum
			good++
		}
		result.Frames = append(result.Frames, record)
	}

	data, err := yaml.Marshal(&result)
	if err != nil {
		log.Fatalf("Failed to serialize results: %v", err)
	}
	if err := os.WriteFile(*outputName, data, 0644); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	fmt.Printf("\nExtraction completed in %.2f seconds\n", elapsed.Seconds())
	fmt.Printf("Frames extracted: %d/%d\n", good, cube.Frames)
	fmt.Printf("Observables saved to: %s\n", *outputName)
	for k, err := range errs {
		if err != nil {
			log.Printf("Warning: frame %d failed: %v", k, err)
		}
	}

	if cfg.Output.DiagnosticsDir != "" {
		fmt.Printf("Saving diagnostic images to: %s\n", cfg.Output.DiagnosticsDir)
		for k, bundle := range bundles {
			if errs[k] != nil {
				continue
			}
			viewer, err := visualization.NewViewer(bundle)
			if err != nil {
				log.Printf("Warning: frame %d has no diagnostics: %v", k, err)
				continue
			}
			frameDir := filepath.Join(cfg.Output.DiagnosticsDir, fmt.Sprintf("frame_%03d", k))
			if err := viewer.SaveDiagnostics(frameDir); err != nil {
				log.Printf("Warning: failed to save diagnostics for frame %d: %v", k, err)
			}
		}
	}
}
