package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/internal/loader"
	"github.com/philipparndt/gobim/internal/logging"
	"github.com/philipparndt/gobim/version"
	"github.com/spf13/cobra"
)

var (
	logLevel     string
	openscadPath string
)

var rootCmd = &cobra.Command{
	Use:   "gobim",
	Short: "Inspect and drive the object state of BIM scenes",
	Long: `gobim loads building models described by a YAML manifest, with element
geometry taken from STL and OpenSCAD files, and controls the visual state of
their objects: isolating a story or space, highlighting a picked element and
toggling x-ray.`,
	Version: version.GetFullVersion(),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&openscadPath, "openscad", "", "path to the openscad binary")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup reads the environment configuration and applies the global flags
func setup() (config.Config, *slog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.LogLevel = level
	}
	if openscadPath != "" {
		cfg.OpenSCAD = openscadPath
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger
}

func loaderOptions(cfg config.Config, logger *slog.Logger) []loader.Option {
	return []loader.Option{loader.WithOpenSCAD(cfg.OpenSCAD), loader.WithLogger(logger)}
}

func controllerOptions(cfg config.Config) []controller.Option {
	return []controller.Option{controller.WithPolicy(cfg.Policy())}
}
