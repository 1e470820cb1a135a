// Package models resolves the on-disk locations of the ONNX models and
// dictionaries the text extractor loads.
package models

import (
	"fmt"
	"os"
	"path/filepath"
)

// Model and dictionary filenames.
const (
	RecognitionMobile = "PP-OCRv5_mobile_rec.onnx"
	DictionaryDefault = "ppocr_keys_v1.txt"
)

// DefaultModelsDir is the models directory relative to the working
// directory when nothing else is configured.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory when set.
const EnvModelsDir = "CARDSCAN_MODELS_DIR"

// Dir resolves the models directory. Priority: the explicit argument, the
// environment variable, then DefaultModelsDir under the working directory.
func Dir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvModelsDir); env != "" {
		return env
	}
	return DefaultModelsDir
}

// RecognitionModelPath returns the recognition model path under dir,
// verifying the file exists.
func RecognitionModelPath(dir string) (string, error) {
	return existingPath(filepath.Join(Dir(dir), RecognitionMobile))
}

// DictionaryPath returns the character dictionary path under dir, verifying
// the file exists.
func DictionaryPath(dir string) (string, error) {
	return existingPath(filepath.Join(Dir(dir), DictionaryDefault))
}

func existingPath(p string) (string, error) {
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("model file %s: %w", p, err)
	}
	return p, nil
}
