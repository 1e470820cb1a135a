package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cardfolio/cardscan/internal/detector"
	"github.com/cardfolio/cardscan/internal/enhance"
	"github.com/cardfolio/cardscan/internal/framesource"
	"github.com/cardfolio/cardscan/internal/normalize"
	"github.com/cardfolio/cardscan/internal/textextract"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image]",
	Short: "Normalize and read a single card photo",
	Long: `Scan runs the full pipeline on one image file: detect the card,
correct its perspective, enhance the result and extract the printed text.

Examples:
  cardscan scan card.jpg
  cardscan scan card.jpg --out card_scanned.png --format json
  cardscan scan back.jpg --document`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("out", "", "write the processed image to this path")
	scanCmd.Flags().String("format", "text", "output format (text, json)")
	scanCmd.Flags().Bool("document", false, "use the document enhancement chain")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := slog.Default()

	img, err := imaging.Open(args[0], imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open image %s: %w", args[0], err)
	}

	det := detector.New(cfg.DetectorConfig())
	norm := normalize.New(cfg.NormalizeConfig(), det, det, logger)
	enh := enhance.New(enhance.NewContext(cfg.EnhanceConfig(), logger))
	engine := textextract.DefaultEngine(textextract.ONNXEngineConfig{ModelsDir: cfg.ModelsDir}, logger)
	ext := textextract.New(cfg.ExtractConfig(), det, engine, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	still := framesource.Still{Image: img, Orientation: framesource.OrientationUp}
	normalized := norm.Normalize(ctx, still)

	document, _ := cmd.Flags().GetBool("document")
	var final = normalized
	if document {
		final = enh.EnhanceDocument(normalized)
	} else {
		final = enh.Enhance(normalized)
	}
	lines := ext.ExtractText(ctx, normalized)

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := imaging.Save(final, out); err != nil {
			return fmt.Errorf("save image %s: %w", out, err)
		}
		logger.Info("processed image written", "path", out)
	}

	format, _ := cmd.Flags().GetString("format")
	return printScanResult(cmd, format, args[0], lines)
}

func printScanResult(cmd *cobra.Command, format, source string, lines []string) error {
	switch format {
	case "json":
		payload := struct {
			Source string   `json:"source"`
			Lines  []string `json:"lines"`
		}{Source: source, Lines: lines}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "text":
		for _, line := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
