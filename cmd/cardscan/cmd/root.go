package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cardfolio/cardscan/internal/config"
	"github.com/cardfolio/cardscan/internal/models"
	"github.com/cardfolio/cardscan/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	globalConfig *config.Config
	cfgFile      string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cardscan",
	Short: "Card capture and normalization pipeline",
	Long: `cardscan turns photos and frame recordings of trading cards into
normalized, enhanced card images with the printed text extracted.

This tool provides:
- Card detection with perspective correction
- Automatic capture when a card holds steady in a frame stream
- Image enhancement tuned for card faces and documents
- Text extraction with ONNX Runtime recognition models

Examples:
  cardscan scan card.jpg --out card_scanned.png
  cardscan session ./frames --interval 30ms
  cardscan config`,
	Version: version.String(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command so tests can execute subcommands
// without exiting the process.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/cardscan, /etc/cardscan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	defaultModelsDir := models.DefaultModelsDir
	if envDir := os.Getenv(models.EnvModelsDir); envDir != "" {
		defaultModelsDir = envDir
	}
	rootCmd.PersistentFlags().String("models-dir", defaultModelsDir,
		"directory containing ONNX models (can also be set via CARDSCAN_MODELS_DIR)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("models_dir", rootCmd.PersistentFlags().Lookup("models-dir"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}

		var logLevel slog.Level
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// initConfig reads the config file and environment.
func initConfig() {
	loader := config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = loader.LoadFile(cfgFile)
	} else {
		globalConfig, err = loader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the effective configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}
	return globalConfig
}
