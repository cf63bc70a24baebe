package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conduit-sync/core/loader"
	"conduit-sync/core/logger"
	"conduit-sync/core/middleware/auth"
	"conduit-sync/core/middleware/rayid"
	"conduit-sync/feature/conduit"
	"conduit-sync/feature/integrity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "conduit-sync/docs/swagger"
)

// @title Conduit Sync API
// @version 1.0
// @description API for running and inspecting synchronization conduits.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

var noAutosync bool

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the conduit sync server",
	Long:  `Starts the HTTP server, initializes all enabled features and watches autosync conduits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		logg := a.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		mgr := loader.NewManager(logg)
		mgr.Register(conduit.NewFeature(a.conduits, logg))
		mgr.Register(integrity.NewFeature(a.db, a.conduits, logg))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		if a.cfg.Server.AuthEnabled() {
			app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Public: []string{"/swagger"}}))
		} else {
			logg.Warn("API key not set, the API is open")
		}

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		var auto *conduit.Autosync
		if !noAutosync {
			auto, err = conduit.NewAutosync(a.conduits, a.cfg.Sync.AutosyncDelay(), logg)
			if err != nil {
				return err
			}
			n, err := auto.Start(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logg.Debug("Watching folders", zap.Strings("dirs", auto.Watched()))
			}
		}

		go func() {
			logg.Info("Starting server",
				zap.String("address", a.cfg.Server.Address()),
				zap.Int("conduits", len(a.conduits.Names())),
				zap.Int("features", len(mgr.Features())),
			)
			if err := app.Listen(a.cfg.Server.Address()); err != nil {
				logg.Error("Server stopped", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		logg.Info("Shutting down server...")
		if auto != nil {
			if err := auto.Stop(); err != nil {
				logg.Warn("Failed to stop autosync", zap.Error(err))
			}
		}
		a.scans.CancelAll()
		a.scans.JoinAll()
		stats := a.scans.Stats()
		logg.Debug("Scanners stopped", zap.Int("running", stats.Running), zap.Int("pending", stats.Pending))
		return app.ShutdownWithTimeout(10 * time.Second)
	},
}

func init() {
	startCmd.Flags().BoolVar(&noAutosync, "no-autosync", false, "Do not watch autosync conduits")
	RootCmd.AddCommand(startCmd)
}
