package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/internal/loader"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [manifest]",
	Short: "Reload a scene whenever its files change",
	Long: `Load the manifest and keep it loaded, reloading changed models while keeping
the current isolation. The scene statistics are printed after every reload.`,
	Args: cobra.ExactArgs(1),
	Run:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	cfg, logger := setup()
	manifest := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := controller.NewSession(scene.New(), nil, logger, controllerOptions(cfg)...)
	if err := loader.Feed(ctx, session, manifest, loaderOptions(cfg, logger)...); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}

	report := func() {
		fmt.Printf("\nMode: %s\n", session.Controller().Mode())
		printSummary(analysis.Summarize(session.Scene()))
	}
	report()
	fmt.Printf("\nWatching %s (Ctrl+C to stop)\n", manifest)

	if err := loader.Watch(ctx, session, manifest, cfg.WatchDebounce, report, loaderOptions(cfg, logger)...); err != nil {
		fmt.Fprintf(os.Stderr, "Error watching files: %v\n", err)
		os.Exit(1)
	}
}
