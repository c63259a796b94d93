package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"delta-apply/core/config"
	"delta-apply/core/loader"
	"delta-apply/core/logger"
	"delta-apply/core/middleware/auth"
	"delta-apply/core/middleware/rayid"
	"delta-apply/core/reconcile"
	syncfeature "delta-apply/feature/sync"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "delta-apply/docs/swagger"
)

// @title Delta Apply API
// @version 1.0
// @description Compares a source and a target dataset by key and applies the difference to the target.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-Api-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server",
	Long:  `Starts the HTTP server for the sync job configured through SYNC_* settings.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if err := cfg.Server.Validate(); err != nil {
			log.Fatalf("Invalid server configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Build the sync job (optional, the feature stays disabled without one)
		var syncer *reconcile.Syncer
		if cfg.Sync.Source != "" || cfg.Sync.Target != "" {
			s, r, err := buildSyncer(cfg, cfg.Sync, logg)
			if err != nil {
				logg.Fatal("Failed to configure sync job", zap.Error(err))
			}
			defer r.Close()
			syncer = s
			logg = logg.With(zap.String("source", cfg.Sync.Source), zap.String("target", cfg.Sync.Target))
		} else {
			logg.Warn("No sync job configured; set SYNC_SOURCE and SYNC_TARGET")
		}

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             cfg.Server.BodyLimitBytes,
			JSONEncoder:           json.Marshal,
			JSONDecoder:           json.Unmarshal,
		})

		// 5. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(syncfeature.NewFeature(syncer, cfg.Sync.OperationList(), logg))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with the RayID
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

		// 3. Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 4. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 6. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
