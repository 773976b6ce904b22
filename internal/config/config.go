package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/chemosim/internal/analysis"
	"github.com/san-kum/chemosim/internal/dataset"
	"github.com/san-kum/chemosim/internal/integrators"
	"github.com/san-kum/chemosim/internal/mcmc"
	"github.com/san-kum/chemosim/internal/proposal"
	"github.com/san-kum/chemosim/internal/response"
	"github.com/san-kum/chemosim/internal/sim"
)

// ErrInvalid marks configuration errors: unknown keys, missing required
// values and out-of-range settings. They are never recovered.
var ErrInvalid = errors.New("config: invalid configuration")

const (
	DefaultDilution        = 0.05
	DefaultIntegrationTime = 1000.0
	DefaultNumToStore      = 1000
	DefaultNumSamples      = 100

	SamplerMH     = "mh"
	SamplerStored = "stored"
)

type Config struct {
	RunName       string                      `yaml:"run_name"`
	OutputDir     string                      `yaml:"output_dir"`
	CreateDir     bool                        `yaml:"create_dir"`
	Dilution      float64                     `yaml:"dilution"`
	Seed          uint64                      `yaml:"seed"`
	Response      ResponseConfig              `yaml:"response"`
	Sampler       SamplerConfig               `yaml:"sampler"`
	Data          dataset.Settings            `yaml:"data"`
	Model         ModelConfig                 `yaml:"model"`
	Classifier    analysis.ClassifierSettings `yaml:"classifier"`
	Sweep         SweepConfig                 `yaml:"sweep"`
	Visualization VisualizationConfig         `yaml:"visualization"`
}

type ResponseConfig struct {
	Type response.Kind `yaml:"type"`
	// Params optionally overrides the starting parameters of an analytic family.
	Params []float64               `yaml:"params,omitempty"`
	Spline response.SplineSettings `yaml:"spline"`
}

type SamplerConfig struct {
	Type        string            `yaml:"type"`
	MH          mcmc.Settings     `yaml:"mh"`
	Proposal    proposal.Settings `yaml:"proposal"`
	StoredFiles []string          `yaml:"stored_files,omitempty"`
}

type ModelConfig struct {
	IntegrationTime float64          `yaml:"integration_time"`
	InitialValue    []float64        `yaml:"initial_value"`
	NumToStore      int              `yaml:"num_to_store"`
	Stepper         integrators.Kind `yaml:"stepper"`
	StepperControl  sim.Settings     `yaml:"stepper_control"`
}

type SweepConfig struct {
	Dilutions []float64 `yaml:"dilutions"`
	Workers   int       `yaml:"workers"`
	Catalog   string    `yaml:"catalog"`
}

type VisualizationConfig struct {
	NumCurves  int    `yaml:"num_curves"`
	Format     string `yaml:"format"`
	ShowCurves bool   `yaml:"show_curves"`
}

func DefaultConfig() *Config {
	mh := mcmc.DefaultSettings()
	mh.NumSamples = DefaultNumSamples
	mh.BurnLength = 1000
	mh.DecorrelationLength = 5
	mh.OutputInterval = 50
	mh.Verbosity = 1

	control := sim.DefaultSettings()
	// 0.1 time units over the default integration time.
	control.HInit = 1e-4

	data := dataset.DefaultSettings()
	data.SigmaFactor = 2.0

	return &Config{
		RunName:   "chemostat",
		OutputDir: "runs",
		CreateDir: true,
		Dilution:  DefaultDilution,
		Seed:      1,
		Response: ResponseConfig{
			Type:   response.KindSpline,
			Spline: response.DefaultSplineSettings(),
		},
		Sampler: SamplerConfig{
			Type:     SamplerMH,
			MH:       mh,
			Proposal: proposal.DefaultSettings(),
		},
		Data: data,
		Model: ModelConfig{
			IntegrationTime: DefaultIntegrationTime,
			InitialValue:    []float64{40.0, 10.0, 40.0},
			NumToStore:      DefaultNumToStore,
			Stepper:         integrators.KindHeun,
			StepperControl:  control,
		},
		Classifier: analysis.DefaultClassifierSettings(),
		Sweep: SweepConfig{
			Dilutions: []float64{0.03, 0.04, 0.05, 0.06},
			Workers:   4,
			Catalog:   "catalog.db",
		},
		Visualization: VisualizationConfig{
			NumCurves:  100,
			Format:     "pdf",
			ShowCurves: true,
		},
	}
}

// Load overlays the YAML file at path on the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the YAML file at path on cfg.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decode(data, cfg)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	switch {
	case c.RunName == "":
		return invalid("run_name is required")
	case c.OutputDir == "":
		return invalid("output_dir is required")
	case c.Dilution <= 0:
		return invalid("dilution must be positive, got %g", c.Dilution)
	case c.Model.IntegrationTime <= 0:
		return invalid("model.integration_time must be positive, got %g", c.Model.IntegrationTime)
	case c.Model.NumToStore < 1:
		return invalid("model.num_to_store must be at least 1, got %d", c.Model.NumToStore)
	case len(c.Model.InitialValue) != 3:
		return invalid("model.initial_value needs 3 components, got %d", len(c.Model.InitialValue))
	case c.Classifier.NumStepsToCheck < 1:
		return invalid("classifier.num_steps_to_check must be at least 1")
	case c.Classifier.LimitPointTolerance < 0:
		return invalid("classifier.limit_point_tolerance must be non-negative")
	}

	if !slices.Contains(integrators.Kinds(), c.Model.Stepper) {
		return invalid("unknown stepper %q", c.Model.Stepper)
	}
	if err := c.Model.StepperControl.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := response.New(c.Response.Type, c.Response.Spline); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Sampler.MH.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch c.Sampler.Type {
	case SamplerMH:
		if c.Data.File == "" {
			return invalid("data.file is required")
		}
	case SamplerStored:
		if len(c.Sampler.StoredFiles) == 0 {
			return invalid("sampler.stored_files is required for the stored sampler")
		}
	default:
		return invalid("unknown sampler type %q", c.Sampler.Type)
	}

	switch c.Visualization.Format {
	case "pdf", "png", "svg", "eps":
	default:
		return invalid("unsupported figure format %q", c.Visualization.Format)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Response.Params = slices.Clone(c.Response.Params)
	cp.Sampler.Proposal.Sigma = slices.Clone(c.Sampler.Proposal.Sigma)
	cp.Sampler.StoredFiles = slices.Clone(c.Sampler.StoredFiles)
	cp.Model.InitialValue = slices.Clone(c.Model.InitialValue)
	cp.Sweep.Dilutions = slices.Clone(c.Sweep.Dilutions)
	return &cp
}
