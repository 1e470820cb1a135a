// Package onnx wraps the ONNX Runtime environment setup and the small
// tensor plumbing shared by model-backed components.
package onnx

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// EnvLibraryPath overrides the shared library discovery when set.
const EnvLibraryPath = "CARDSCAN_ONNX_LIB"

var (
	initOnce sync.Once
	initErr  error
)

// InitRuntime locates the ONNX Runtime shared library and initializes the
// environment. Safe to call from multiple components; the work happens once.
func InitRuntime() error {
	initOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if err := setLibraryPath(); err != nil {
			initErr = err
			return
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

func setLibraryPath() error {
	if p := os.Getenv(EnvLibraryPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("onnx library from %s not found: %w", EnvLibraryPath, err)
		}
		ort.SetSharedLibraryPath(p)
		return nil
	}

	name, err := libraryName()
	if err != nil {
		return err
	}
	candidates := []string{
		filepath.Join("/usr/local/lib", name),
		filepath.Join("/usr/lib", name),
		filepath.Join("/opt/onnxruntime/cpu/lib", name),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			ort.SetSharedLibraryPath(p)
			return nil
		}
	}
	return fmt.Errorf("onnx runtime library %s not found; set %s", name, EnvLibraryPath)
}

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}
