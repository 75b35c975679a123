package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"pr-dashboard/core/config"
	"pr-dashboard/core/database"
	"pr-dashboard/core/loader"
	"pr-dashboard/core/logger"
	"pr-dashboard/core/middleware/auth"
	"pr-dashboard/core/middleware/rayid"
	"pr-dashboard/core/storage"
	"pr-dashboard/core/upstream"

	"pr-dashboard/feature/backup"
	"pr-dashboard/feature/triage"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dashboard server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to the store (required)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}

		store := triage.NewStore(db)
		if err := store.Migrate(); err != nil {
			logg.Fatal("Failed to migrate database", zap.Error(err))
		}
		if missing, err := store.VerifySchema(); err != nil {
			logg.Warn("Schema verification failed", zap.Error(err))
		} else if len(missing) > 0 {
			logg.Warn("Schema is missing expected columns", zap.Strings("columns", missing))
		}

		// 4. Upstream client
		gh, err := upstream.NewClient(cfg.Upstream)
		if err != nil {
			logg.Fatal("Failed to create upstream client", zap.Error(err))
		}

		// 5. Object storage for snapshots (optional)
		var snapStore storage.Client
		if client, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Optional storage client failed, backups disabled", zap.Error(err))
		} else {
			snapStore = client
		}

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(triage.NewFeature(db, gh, cfg.Upstream, logg))
		mgr.Register(backup.NewFeature(snapStore, db, cfg.Storage, logg))

		// Middleware Registration
		// RayID must come first so every later log line can be traced.
		app.Use(rayid.New())

		// Request logging with Zap + RayID
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

		// Auth protects the whole API when a key is configured.
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server",
				zap.String("port", cfg.Server.Port),
				zap.String("repository", cfg.Upstream.Owner+"/"+cfg.Upstream.Repo))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
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
