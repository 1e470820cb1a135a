package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the configuration file base name, without extension.
	ConfigFileName = "cardscan"

	// EnvPrefix is the environment variable prefix, e.g. CARDSCAN_LOG_LEVEL.
	EnvPrefix = "CARDSCAN"
)

// Loader reads configuration from files, environment variables and bound
// flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a loader over the global viper instance so cobra flag
// bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the search paths and environment, applies
// defaults and validates the result. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadFile reads configuration from a specific file, which must exist.
func (l *Loader) LoadFile(path string) (*Config, error) {
	if path == "" {
		return l.Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	l.v.SetConfigFile(path)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "cardscan"))
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath("/etc/cardscan")
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	def := Default()
	l.v.SetDefault("log_level", def.LogLevel)
	l.v.SetDefault("detector.min_aspect_ratio", def.Detector.MinAspectRatio)
	l.v.SetDefault("detector.max_aspect_ratio", def.Detector.MaxAspectRatio)
	l.v.SetDefault("detector.min_size_fraction", def.Detector.MinSizeFraction)
	l.v.SetDefault("detector.min_confidence", def.Detector.MinConfidence)
	l.v.SetDefault("detector.quadrature_tolerance", def.Detector.QuadratureTolerance)
	l.v.SetDefault("detector.max_detect_size", def.Detector.MaxDetectSize)
	l.v.SetDefault("stability.threshold", def.Stability.Threshold)
	l.v.SetDefault("stability.decay_rate", def.Stability.DecayRate)
	l.v.SetDefault("stability.min_area_fraction", def.Stability.MinAreaFraction)
	l.v.SetDefault("normalize.max_output_dimension", def.Normalize.MaxOutputDimension)
	l.v.SetDefault("normalize.text_orientation_timeout", def.Normalize.TextOrientationTimeout)
	l.v.SetDefault("normalize.text_orientation_regions", def.Normalize.TextOrientationRegions)
	l.v.SetDefault("enhance.contrast_cutoff", def.Enhance.ContrastCutoff)
	l.v.SetDefault("enhance.saturation_boost", def.Enhance.SaturationBoost)
	l.v.SetDefault("enhance.luma_sharpen_sigma", def.Enhance.LumaSharpenSigma)
	l.v.SetDefault("enhance.luma_sharpen_amount", def.Enhance.LumaSharpenAmount)
	l.v.SetDefault("enhance.denoise_sigma", def.Enhance.DenoiseSigma)
	l.v.SetDefault("enhance.sharpen_sigma", def.Enhance.SharpenSigma)
	l.v.SetDefault("enhance.sharpen_amount", def.Enhance.SharpenAmount)
	l.v.SetDefault("enhance.document_color", def.Enhance.DocumentColor)
	l.v.SetDefault("extract.timeout", def.Extract.Timeout)
	l.v.SetDefault("extract.max_regions", def.Extract.MaxRegions)
	l.v.SetDefault("extract.min_confidence", def.Extract.MinConfidence)
	l.v.SetDefault("session.document_mode", def.Session.DocumentMode)
	l.v.SetDefault("session.torch_pulse", def.Session.TorchPulse)
}
