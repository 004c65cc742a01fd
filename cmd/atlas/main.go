package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/SourceM7/syrianzone/internal/atlas"
	"github.com/SourceM7/syrianzone/internal/config"
	"github.com/SourceM7/syrianzone/internal/database"
	"github.com/SourceM7/syrianzone/internal/enrich"
	"github.com/SourceM7/syrianzone/internal/observability"
	"github.com/SourceM7/syrianzone/internal/seed"
	"github.com/SourceM7/syrianzone/internal/server"
	"github.com/SourceM7/syrianzone/internal/weather"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "atlas",
	Short:        "Syria population atlas backend",
	Long:         "atlas serves the population atlas read API and enriches its cities with climate data from Open-Meteo.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger = observability.NewLogger(cfg.Logging, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(updateClimateCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("atlas", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/atlas/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Next: run 'atlas seed' to import the reference data and cities.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Demographics:")
		fmt.Printf("  Rows: %d\n", stats.Demographics)
		fmt.Printf("  Sources: %d\n", stats.DemographicSources)
		fmt.Println("\nRainfall:")
		fmt.Printf("  Rows: %d\n", stats.RainfallRecords)
		fmt.Printf("  Regions: %d\n", stats.RainfallRegions)
		fmt.Println("\nEnvironmental log:")
		fmt.Printf("  Cities: %d\n", stats.Cities)
		fmt.Printf("  Enriched: %d\n", stats.CitiesEnriched)
		if stats.LastUpdatedAt != nil {
			fmt.Printf("  Last updated: %s\n", stats.LastUpdatedAt.Local().Format(time.DateTime))
		}
		return nil
	},
}

// --- seed command ---

var (
	populationFile string
	rainfallFile   string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import demographics, rainfall and the fixed city list",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := seedFile(populationFile, "demographics", func(f *os.File) (*seed.Result, error) {
			return seed.Demographics(db, f)
		}); err != nil {
			return err
		}
		if err := seedFile(rainfallFile, "rainfall", func(f *os.File) (*seed.Result, error) {
			return seed.Rainfall(db, f)
		}); err != nil {
			return err
		}

		if err := seed.Cities(db, time.Now()); err != nil {
			return fmt.Errorf("seeding cities: %w", err)
		}
		fmt.Printf("Seeded %d cities\n", len(seed.FixedCities))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&populationFile, "population", "seed_data/population.csv", "Demographics CSV file")
	seedCmd.Flags().StringVar(&rainfallFile, "rainfall", "seed_data/rainfall_yearly.json", "Yearly rainfall JSON file")
}

// seedFile runs an importer over path, warning and skipping when it is missing.
func seedFile(path, name string, importer func(*os.File) (*seed.Result, error)) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("seed file not found, skipping", "dataset", name, "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	result, err := importer(f)
	if err != nil {
		return fmt.Errorf("seeding %s: %w", name, err)
	}
	fmt.Printf("Seeded %s: %d new, %d already present\n", name, result.Inserted, result.Skipped)
	return nil
}

// --- update-climate command ---

var updateClimateCmd = &cobra.Command{
	Use:   "update-climate",
	Short: "Update climate and environmental data for all cities",
	Long: "Fetches current and historical weather for every seeded city and stores the derived summaries.\n" +
		"Intended to run hourly from cron or a systemd timer; exits non-zero if the run fails.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		metrics := observability.NewMetrics()
		updater := enrich.NewUpdater(db, weather.NewClient(cfg.Weather, logger, metrics), enrich.Options{
			Delay:    cfg.Enrich.Delay,
			Clock:    clockwork.NewRealClock(),
			Logger:   logger,
			Metrics:  metrics,
			Progress: enrich.WriterProgress(os.Stdout),
		})

		fmt.Println("Starting Syria climate data update...")
		fmt.Println("This may take several minutes as it fetches data for each city...")

		started := time.Now()
		result, runErr := updater.Run(ctx)
		elapsed := time.Since(started).Round(time.Second)

		if url := cfg.Metrics.PushgatewayURL; url != "" {
			if err := metrics.Push(context.WithoutCancel(ctx), url); err != nil {
				logger.Warn("pushing metrics failed", "error", err)
			}
		}

		if runErr != nil {
			fmt.Printf("✗ Climate data update failed: %v\n", runErr)
			fmt.Printf("Run failed after %s\n", elapsed)
			logger.Error("climate data update failed", "error", runErr, "duration", elapsed)
			return runErr
		}

		fmt.Printf("✓ Climate data updated successfully (%s): %d succeeded, %d failed\n",
			elapsed, result.Succeeded, result.Failed)
		fmt.Printf("Run completed at: %s\n", time.Now().Format(time.DateTime))
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		metrics := observability.NewMetrics()
		svc := atlas.NewService(db, atlas.Options{
			TTL:     cfg.Server.CacheTTL,
			Logger:  logger,
			Metrics: metrics,
		})
		srv, err := server.New(svc, prometheus.DefaultGatherer, logger)
		if err != nil {
			return err
		}

		fmt.Printf("Starting server at http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, cfg.Addr(), srv.Handler(), logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on (overrides config)")
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.GetDatabasePath(), logger)
}
