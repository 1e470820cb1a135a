// Package config defines the application configuration and loads it from
// files, environment variables and flags.
package config

import (
	"fmt"
	"time"

	"github.com/cardfolio/cardscan/internal/detector"
	"github.com/cardfolio/cardscan/internal/enhance"
	"github.com/cardfolio/cardscan/internal/normalize"
	"github.com/cardfolio/cardscan/internal/scanner"
	"github.com/cardfolio/cardscan/internal/stability"
	"github.com/cardfolio/cardscan/internal/textextract"
)

// Config is the complete application configuration.
type Config struct {
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detector  DetectorConfig  `mapstructure:"detector" yaml:"detector" json:"detector"`
	Stability StabilityConfig `mapstructure:"stability" yaml:"stability" json:"stability"`
	Normalize NormalizeConfig `mapstructure:"normalize" yaml:"normalize" json:"normalize"`
	Enhance   EnhanceConfig   `mapstructure:"enhance" yaml:"enhance" json:"enhance"`
	Extract   ExtractConfig   `mapstructure:"extract" yaml:"extract" json:"extract"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session" json:"session"`
}

// DetectorConfig tunes card detection on preview frames and stills.
type DetectorConfig struct {
	MinAspectRatio      float64 `mapstructure:"min_aspect_ratio" yaml:"min_aspect_ratio" json:"min_aspect_ratio"`
	MaxAspectRatio      float64 `mapstructure:"max_aspect_ratio" yaml:"max_aspect_ratio" json:"max_aspect_ratio"`
	MinSizeFraction     float64 `mapstructure:"min_size_fraction" yaml:"min_size_fraction" json:"min_size_fraction"`
	MinConfidence       float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	QuadratureTolerance float64 `mapstructure:"quadrature_tolerance" yaml:"quadrature_tolerance" json:"quadrature_tolerance"`
	MaxDetectSize       int     `mapstructure:"max_detect_size" yaml:"max_detect_size" json:"max_detect_size"`
}

// StabilityConfig tunes the auto-capture tracker.
type StabilityConfig struct {
	Threshold       int     `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	DecayRate       int     `mapstructure:"decay_rate" yaml:"decay_rate" json:"decay_rate"`
	MinAreaFraction float64 `mapstructure:"min_area_fraction" yaml:"min_area_fraction" json:"min_area_fraction"`
}

// NormalizeConfig tunes still normalization.
type NormalizeConfig struct {
	MaxOutputDimension     int           `mapstructure:"max_output_dimension" yaml:"max_output_dimension" json:"max_output_dimension"`
	TextOrientationTimeout time.Duration `mapstructure:"text_orientation_timeout" yaml:"text_orientation_timeout" json:"text_orientation_timeout"`
	TextOrientationRegions int           `mapstructure:"text_orientation_regions" yaml:"text_orientation_regions" json:"text_orientation_regions"`
}

// EnhanceConfig tunes the post-capture filter chain.
type EnhanceConfig struct {
	ContrastCutoff    float64 `mapstructure:"contrast_cutoff" yaml:"contrast_cutoff" json:"contrast_cutoff"`
	SaturationBoost   float64 `mapstructure:"saturation_boost" yaml:"saturation_boost" json:"saturation_boost"`
	LumaSharpenSigma  float64 `mapstructure:"luma_sharpen_sigma" yaml:"luma_sharpen_sigma" json:"luma_sharpen_sigma"`
	LumaSharpenAmount float64 `mapstructure:"luma_sharpen_amount" yaml:"luma_sharpen_amount" json:"luma_sharpen_amount"`
	DenoiseSigma      float64 `mapstructure:"denoise_sigma" yaml:"denoise_sigma" json:"denoise_sigma"`
	SharpenSigma      float64 `mapstructure:"sharpen_sigma" yaml:"sharpen_sigma" json:"sharpen_sigma"`
	SharpenAmount     float64 `mapstructure:"sharpen_amount" yaml:"sharpen_amount" json:"sharpen_amount"`
	DocumentColor     bool    `mapstructure:"document_color" yaml:"document_color" json:"document_color"`
}

// ExtractConfig tunes text extraction.
type ExtractConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	MaxRegions    int           `mapstructure:"max_regions" yaml:"max_regions" json:"max_regions"`
	MinConfidence float64       `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
}

// SessionConfig tunes the capture session.
type SessionConfig struct {
	DocumentMode bool `mapstructure:"document_mode" yaml:"document_mode" json:"document_mode"`
	TorchPulse   bool `mapstructure:"torch_pulse" yaml:"torch_pulse" json:"torch_pulse"`
}

// Default returns the configuration the session runs with when nothing is
// set: built from each component's own defaults.
func Default() *Config {
	det := detector.DefaultConfig()
	stab := stability.DefaultConfig()
	norm := normalize.DefaultConfig()
	enh := enhance.DefaultConfig()
	ext := textextract.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Detector: DetectorConfig{
			MinAspectRatio:      det.MinAspectRatio,
			MaxAspectRatio:      det.MaxAspectRatio,
			MinSizeFraction:     det.MinSizeFraction,
			MinConfidence:       det.MinConfidence,
			QuadratureTolerance: det.QuadratureTolerance,
			MaxDetectSize:       det.MaxDetectSize,
		},
		Stability: StabilityConfig{
			Threshold:       stab.Threshold,
			DecayRate:       stab.DecayRate,
			MinAreaFraction: stab.MinAreaFraction,
		},
		Normalize: NormalizeConfig{
			MaxOutputDimension:     norm.MaxOutputDimension,
			TextOrientationTimeout: norm.TextOrientation.Timeout,
			TextOrientationRegions: norm.TextOrientation.MaxRegions,
		},
		Enhance: EnhanceConfig{
			ContrastCutoff:    enh.ContrastCutoff,
			SaturationBoost:   enh.SaturationBoost,
			LumaSharpenSigma:  enh.LumaSharpenSigma,
			LumaSharpenAmount: enh.LumaSharpenAmount,
			DenoiseSigma:      enh.DenoiseSigma,
			SharpenSigma:      enh.SharpenSigma,
			SharpenAmount:     enh.SharpenAmount,
			DocumentColor:     enh.DocumentColor,
		},
		Extract: ExtractConfig{
			Timeout:       ext.Timeout,
			MaxRegions:    ext.MaxRegions,
			MinConfidence: ext.MinConfidence,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Detector.MinAspectRatio < 0 || c.Detector.MaxAspectRatio < 0 {
		return fmt.Errorf("detector aspect ratios must be non-negative")
	}
	if c.Detector.MinAspectRatio > 0 && c.Detector.MaxAspectRatio > 0 &&
		c.Detector.MinAspectRatio > c.Detector.MaxAspectRatio {
		return fmt.Errorf("detector min_aspect_ratio %.2f exceeds max_aspect_ratio %.2f",
			c.Detector.MinAspectRatio, c.Detector.MaxAspectRatio)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector min_confidence must be within [0, 1], got %.2f", c.Detector.MinConfidence)
	}
	if c.Detector.QuadratureTolerance < 0 || c.Detector.QuadratureTolerance > 90 {
		return fmt.Errorf("detector quadrature_tolerance must be within [0, 90] degrees, got %.1f",
			c.Detector.QuadratureTolerance)
	}
	if c.Detector.MaxDetectSize < 0 {
		return fmt.Errorf("detector max_detect_size must be non-negative, got %d", c.Detector.MaxDetectSize)
	}
	if c.Stability.Threshold < 0 {
		return fmt.Errorf("stability threshold must be non-negative, got %d", c.Stability.Threshold)
	}
	if c.Stability.DecayRate < 0 {
		return fmt.Errorf("stability decay_rate must be non-negative, got %d", c.Stability.DecayRate)
	}
	if c.Stability.MinAreaFraction < 0 || c.Stability.MinAreaFraction > 1 {
		return fmt.Errorf("stability min_area_fraction must be within [0, 1], got %.2f",
			c.Stability.MinAreaFraction)
	}
	if c.Normalize.TextOrientationTimeout < 0 {
		return fmt.Errorf("normalize text_orientation_timeout must be non-negative")
	}
	if c.Extract.Timeout < 0 {
		return fmt.Errorf("extract timeout must be non-negative")
	}
	if c.Extract.MinConfidence < 0 || c.Extract.MinConfidence > 1 {
		return fmt.Errorf("extract min_confidence must be within [0, 1], got %.2f", c.Extract.MinConfidence)
	}
	return nil
}

// DetectorConfig converts to the detector package's config.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MinAspectRatio:      c.Detector.MinAspectRatio,
		MaxAspectRatio:      c.Detector.MaxAspectRatio,
		MinSizeFraction:     c.Detector.MinSizeFraction,
		MinConfidence:       c.Detector.MinConfidence,
		QuadratureTolerance: c.Detector.QuadratureTolerance,
		MaxDetectSize:       c.Detector.MaxDetectSize,
	}
}

// StabilityConfig converts to the stability package's config.
func (c *Config) StabilityConfig() stability.Config {
	return stability.Config{
		Threshold:       c.Stability.Threshold,
		DecayRate:       c.Stability.DecayRate,
		MinAreaFraction: c.Stability.MinAreaFraction,
	}
}

// NormalizeConfig converts to the normalize package's config.
func (c *Config) NormalizeConfig() normalize.Config {
	return normalize.Config{
		MaxOutputDimension: c.Normalize.MaxOutputDimension,
		TextOrientation: normalize.TextOrientationConfig{
			MaxRegions: c.Normalize.TextOrientationRegions,
			Timeout:    c.Normalize.TextOrientationTimeout,
		},
	}
}

// EnhanceConfig converts to the enhance package's config.
func (c *Config) EnhanceConfig() enhance.Config {
	return enhance.Config{
		ContrastCutoff:    c.Enhance.ContrastCutoff,
		SaturationBoost:   c.Enhance.SaturationBoost,
		LumaSharpenSigma:  c.Enhance.LumaSharpenSigma,
		LumaSharpenAmount: c.Enhance.LumaSharpenAmount,
		DenoiseSigma:      c.Enhance.DenoiseSigma,
		SharpenSigma:      c.Enhance.SharpenSigma,
		SharpenAmount:     c.Enhance.SharpenAmount,
		DocumentColor:     c.Enhance.DocumentColor,
	}
}

// ExtractConfig converts to the textextract package's config.
func (c *Config) ExtractConfig() textextract.Config {
	return textextract.Config{
		Timeout:       c.Extract.Timeout,
		MaxRegions:    c.Extract.MaxRegions,
		MinConfidence: c.Extract.MinConfidence,
	}
}

// SessionConfig converts to the scanner package's config.
func (c *Config) SessionConfig() scanner.Config {
	return scanner.Config{
		Stability:    c.StabilityConfig(),
		DocumentMode: c.Session.DocumentMode,
		TorchPulse:   c.Session.TorchPulse,
	}
}
