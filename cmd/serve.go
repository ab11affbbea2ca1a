package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bugsync/core/config"
	"bugsync/core/database"
	"bugsync/core/logger"
	"bugsync/feature/fakezilla"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fake tracker",
	Long: `Starts a local tracker serving the REST API subset bugsync uses, backed by
the configured database. Point REMOTE_URL at http://localhost:<port>/rest to
use it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		store, err := fakezilla.NewStore(db)
		if err != nil {
			return err
		}
		logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

		// 4. Build the app and load features
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		app, err := fakezilla.NewApp(logg, reg, fakezilla.NewFeature(store, cfg.Server, logg))
		if err != nil {
			return err
		}

		// 5. Start Server
		errc := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("addr", cfg.Server.Addr()))
			errc <- app.Listen(cfg.Server.Addr())
		}()

		// 6. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errc:
			return fmt.Errorf("server failed: %w", err)
		case <-c:
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
