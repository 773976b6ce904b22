package config

import (
	"maps"
	"slices"

	"github.com/san-kum/chemosim/internal/proposal"
	"github.com/san-kum/chemosim/internal/response"
)

// Presets holds named run configurations per response family.
var Presets = map[string]map[string]func() *Config{
	"spline": {
		"quick": func() *Config { return preset(response.KindSpline, 20, 100, 2) },
		"standard": func() *Config {
			return preset(response.KindSpline, 1000, 1000, 5)
		},
		"smooth": func() *Config {
			cfg := preset(response.KindSpline, 1000, 1000, 5)
			cfg.Sampler.Proposal.Spline.FilterWidth = 8
			cfg.Sampler.Proposal.Spline.PreviousWeight = 0.5
			return cfg
		},
	},
	"tanh": {
		"quick":    func() *Config { return preset(response.KindTanh, 20, 100, 2) },
		"standard": func() *Config { return preset(response.KindTanh, 1000, 1000, 5) },
	},
	"ivlev": {
		"quick":    func() *Config { return preset(response.KindIvlev, 20, 100, 2) },
		"standard": func() *Config { return preset(response.KindIvlev, 1000, 1000, 5) },
	},
	"holling": {
		"quick":    func() *Config { return preset(response.KindHolling, 20, 100, 2) },
		"standard": func() *Config { return preset(response.KindHolling, 1000, 1000, 5) },
	},
	"combination": {
		"quick": func() *Config {
			cfg := preset(response.KindCombination, 20, 100, 2)
			cfg.Sampler.Proposal.Sigma = []float64{0.1}
			return cfg
		},
	},
}

func preset(kind response.Kind, samples, burn, decor int) *Config {
	cfg := DefaultConfig()
	cfg.RunName = string(kind)
	cfg.Response.Type = kind
	cfg.Sampler.MH.NumSamples = samples
	cfg.Sampler.MH.BurnLength = burn
	cfg.Sampler.MH.DecorrelationLength = decor
	if kind == response.KindSpline {
		cfg.Sampler.Proposal.Type = proposal.KindSpline
	} else {
		cfg.Sampler.Proposal.Type = proposal.KindLogNormal
	}
	return cfg
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(family, name string) *Config {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	build, ok := familyPresets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(familyPresets))
}

func Families() []string {
	return slices.Sorted(maps.Keys(Presets))
}
