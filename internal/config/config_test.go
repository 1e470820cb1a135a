package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestDefaultMatchesComponentDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.Stability.Threshold)
	assert.Equal(t, 2, cfg.Stability.DecayRate)
	assert.Equal(t, 500*time.Millisecond, cfg.Normalize.TextOrientationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Extract.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.InDelta(t, 18.0, cfg.Detector.QuadratureTolerance, 1e-9)
	assert.Equal(t, 480, cfg.Detector.MaxDetectSize)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.Stability.Threshold = -1 }},
		{"negative decay", func(c *Config) { c.Stability.DecayRate = -2 }},
		{"area fraction above one", func(c *Config) { c.Stability.MinAreaFraction = 1.5 }},
		{"confidence above one", func(c *Config) { c.Detector.MinConfidence = 2 }},
		{"aspect ratios inverted", func(c *Config) {
			c.Detector.MinAspectRatio = 3
			c.Detector.MaxAspectRatio = 2
		}},
		{"negative extract timeout", func(c *Config) { c.Extract.Timeout = -time.Second }},
		{"extract confidence above one", func(c *Config) { c.Extract.MinConfidence = 1.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestComponentConversions(t *testing.T) {
	cfg := Default()
	cfg.Stability.Threshold = 7
	cfg.Session.DocumentMode = true

	require.Equal(t, 7, cfg.StabilityConfig().Threshold)
	require.Equal(t, 7, cfg.SessionConfig().Stability.Threshold)
	assert.True(t, cfg.SessionConfig().DocumentMode)

	det := cfg.DetectorConfig()
	assert.InDelta(t, cfg.Detector.MinAspectRatio, det.MinAspectRatio, 1e-9)
	assert.InDelta(t, cfg.Detector.QuadratureTolerance, det.QuadratureTolerance, 1e-9)
	assert.Equal(t, cfg.Detector.MaxDetectSize, det.MaxDetectSize)

	norm := cfg.NormalizeConfig()
	assert.Equal(t, cfg.Normalize.TextOrientationTimeout, norm.TextOrientation.Timeout)

	ext := cfg.ExtractConfig()
	assert.Equal(t, cfg.Extract.Timeout, ext.Timeout)

	enh := cfg.EnhanceConfig()
	assert.InDelta(t, cfg.Enhance.SharpenSigma, enh.SharpenSigma, 1e-9)
	assert.InDelta(t, cfg.Enhance.SaturationBoost, enh.SaturationBoost, 1e-9)
	assert.False(t, enh.DocumentColor)
}

func TestValidateRejectsBadDetectorBounds(t *testing.T) {
	cfg := Default()
	cfg.Detector.QuadratureTolerance = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Detector.QuadratureTolerance = 120
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Detector.MaxDetectSize = -480
	assert.Error(t, cfg.Validate())
}
