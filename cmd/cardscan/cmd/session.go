package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cardfolio/cardscan/internal/detector"
	"github.com/cardfolio/cardscan/internal/enhance"
	"github.com/cardfolio/cardscan/internal/framesource"
	"github.com/cardfolio/cardscan/internal/normalize"
	"github.com/cardfolio/cardscan/internal/scanner"
	"github.com/cardfolio/cardscan/internal/stability"
	"github.com/cardfolio/cardscan/internal/textextract"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session [frames-dir]",
	Short: "Replay recorded frames through a live capture session",
	Long: `Session replays a directory of frame images through the live
capture loop: frames run through card detection, a steady card triggers a
capture, and the result is written out as if a camera had been pointed at
the card.

Frames are replayed in filename order.

Examples:
  cardscan session ./frames
  cardscan session ./frames --interval 30ms --out result.png --torch`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

func init() {
	sessionCmd.Flags().Duration("interval", 33*time.Millisecond, "delay between replayed frames")
	sessionCmd.Flags().Duration("timeout", 30*time.Second, "give up if no capture happens in this time")
	sessionCmd.Flags().String("out", "", "write the captured image to this path")
	sessionCmd.Flags().Bool("document", false, "use the document enhancement chain")
	sessionCmd.Flags().Bool("torch", false, "pulse the torch during capture")
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := slog.Default()

	frames, err := loadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frame images found in %s", args[0])
	}
	logger.Info("frames loaded", "dir", args[0], "count", len(frames))

	det := detector.New(cfg.DetectorConfig())
	norm := normalize.New(cfg.NormalizeConfig(), det, det, logger)
	enh := enhance.New(enhance.NewContext(cfg.EnhanceConfig(), logger))
	engine := textextract.DefaultEngine(textextract.ONNXEngineConfig{ModelsDir: cfg.ModelsDir}, logger)
	ext := textextract.New(cfg.ExtractConfig(), det, engine, logger)

	interval, _ := cmd.Flags().GetDuration("interval")
	document, _ := cmd.Flags().GetBool("document")
	torch, _ := cmd.Flags().GetBool("torch")

	var sess *scanner.Session
	src := framesource.NewPlayback(frames, func(f image.Image) { sess.HandleFrame(f) },
		framesource.PlaybackConfig{Interval: interval, Loop: true}, logger)

	sess, err = scanner.NewSession(scanner.Options{
		Source:     src,
		Permission: func() framesource.Permission { return framesource.PermissionGranted },
		Detector:   det,
		Normalizer: norm,
		Enhancer:   enh,
		Extractor:  ext,
		Logger:     logger,
		Config: scanner.Config{
			Stability:    cfg.StabilityConfig(),
			DocumentMode: document,
			TorchPulse:   torch,
		},
		OnProgress: func(p scanner.Progress) {
			if p.State == stability.StateAccumulating {
				logger.Debug("holding steady", "progress", p.Value)
			}
		},
	})
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.Stop()

	result, err := sess.Scan(ctx)
	if err != nil {
		return fmt.Errorf("no capture within %s: %w", timeout, err)
	}

	logger.Info("capture finished",
		"trigger", result.Trigger,
		"lines", len(result.Text),
		"duration", result.Timings.Total)
	for _, line := range result.Text {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" && result.FinalImage != nil {
		if err := imaging.Save(result.FinalImage, out); err != nil {
			return fmt.Errorf("save image %s: %w", out, err)
		}
		logger.Info("captured image written", "path", out)
	}
	return nil
}

// loadFrames reads every image file in dir in filename order.
func loadFrames(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("open frame %s: %w", name, err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}
