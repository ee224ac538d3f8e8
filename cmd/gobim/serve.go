package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/philipparndt/gobim/internal/camera"
	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/internal/loader"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/internal/server"
	"github.com/philipparndt/gobim/internal/views"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveDB    string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [manifest]",
	Short: "Serve the object state controller over HTTP",
	Long: `Start the HTTP control API and load the manifest in the background. Queries
answer 503 until the first model is loaded. With --watch the scene is reloaded
whenever the manifest or one of its geometry files changes.`,
	Args: cobra.ExactArgs(1),
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $GOBIM_ADDR)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "saved views database (default $GOBIM_VIEWS_DB)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the scene when its files change")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, logger := setup()
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveDB != "" {
		cfg.ViewsDB = serveDB
	}
	manifest := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := views.Open(cfg.ViewsDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening views database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cam := camera.New(geometry.NewBoundingBox(), logger)
	session := controller.NewSession(scene.New(), cam, logger, controllerOptions(cfg)...)
	session.OnReady(func(c *controller.Controller) {
		c.Subscribe(func(ev controller.StateChanged) {
			logger.Debug("state changed", "event", ev.ID, "op", ev.Op, "mode", ev.Mode.String(), "objects", len(ev.Objects))
		})
	})

	srv := server.New(session, store, logger)

	go func() {
		if err := loader.Feed(ctx, session, manifest, loaderOptions(cfg, logger)...); err != nil {
			logger.Error("initial load failed", "manifest", manifest, "err", err)
			return
		}
		logger.Info("scene ready", "objects", session.Scene().Len())
		if serveWatch {
			if err := loader.Watch(ctx, session, manifest, cfg.WatchDebounce, nil, loaderOptions(cfg, logger)...); err != nil {
				logger.Error("watch failed", "err", err)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()

	if err := srv.Listen(cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
		os.Exit(1)
	}
}
