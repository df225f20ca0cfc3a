package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"vehicle-dashboard/charts"
	"vehicle-dashboard/config"
	"vehicle-dashboard/models"
	"vehicle-dashboard/services"
	"vehicle-dashboard/snapshot"
	"vehicle-dashboard/storage"
	"vehicle-dashboard/utils"
	"vehicle-dashboard/web"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogDebug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Vehicle Listings Dashboard starting ===")
	logger.Info("Config: mode: %s | source: %s | csv: %s", cfg.Mode, cfg.DataSource, cfg.CSVPath)

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	var err error
	switch cfg.Mode {
	case "serve":
		err = runServe(ctx, cfg, retry, logger)
	case "report":
		err = runReport(ctx, cfg, retry, logger)
	case "snapshot":
		err = runSnapshot(ctx, cfg, retry, logger)
	case "import":
		err = runImport(ctx, cfg, retry, logger)
	default:
		err = fmt.Errorf("unknown MODE %q (want serve, report, snapshot or import)", cfg.Mode)
	}

	if err != nil {
		logger.Error("%v", err)
		if errors.Is(err, models.ErrDataUnavailable) {
			logger.Error("Check CSV_PATH (or the vehicles table when DATA_SOURCE=postgres)")
		}
		os.Exit(1)
	}
}

// openSource returns the configured dataset backend and its cleanup.
func openSource(ctx context.Context, cfg *config.Config, retry *utils.RetryConfig, logger *utils.Logger) (storage.RawSource, func(), error) {
	switch cfg.DataSource {
	case "csv":
		return storage.NewCSVReader(cfg.CSVPath), func() {}, nil
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, cfg.DSN(), retry, logger)
		if err != nil {
			logger.Error("Make sure PostgreSQL is running: docker compose up -d")
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown DATA_SOURCE %q (want csv or postgres)", cfg.DataSource)
}

func newServer(ctx context.Context, cfg *config.Config, retry *utils.RetryConfig, logger *utils.Logger) (*web.Server, func(), error) {
	source, cleanup, err := openSource(ctx, cfg, retry, logger)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.LogDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := web.NewServer(
		services.NewDatasetLoader(source, logger),
		services.NewDashboardService(logger),
		charts.NewRenderer(),
		logger,
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return srv, cleanup, nil
}

func runServe(ctx context.Context, cfg *config.Config, retry *utils.RetryConfig, logger *utils.Logger) error {
	srv, cleanup, err := newServer(ctx, cfg, retry, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		return fmt.Errorf("web: %w", err)
	}
	logger.Info("Dashboard stopped")
	return nil
}

func runReport(ctx context.Context, cfg *config.Config, retry *utils.RetryConfig, logger *utils.Logger) error {
	source, cleanup, err := openSource(ctx, cfg, retry, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rs, err := services.NewDatasetLoader(source, logger).Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("Loaded %d vehicle listings", rs.Len())

	d, err := services.NewDashboardService(logger).Render(rs, models.AllViews())
	if err != nil {
		return err
	}
	services.NewReportPrinter(os.Stdout).Print(d)

	exporter := charts.NewExporter(charts.NewRenderer(), cfg.MaxConcurrency, logger)
	paths, err := exporter.ExportAll(cfg.ChartDir, d, rs)
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Info("Chart saved to %s", p)
	}
	return nil
}

func runSnapshot(ctx context.Context, cfg *config.Config, retry *utils.RetryConfig, logger *utils.Logger) error {
	srv, cleanup, err := newServer(ctx, cfg, retry, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("snapshot: listen: %w", err)
	}

	serveCtx, stopServe := context.WithCancel(ctx)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(serveCtx, ln) }()

	pageURL := fmt.Sprintf("http://%s/?%s", ln.Addr(), web.Query(models.AllViews()))
	capErr := snapshot.New(cfg.ChromeBin, retry, logger).CaptureToFile(ctx, pageURL, cfg.SnapshotPath)

	stopServe()
	if err := <-serveErr; err != nil && capErr == nil {
		return fmt.Errorf("snapshot: serve: %w", err)
	}
	return capErr
}

func runImport(ctx context.Context, cfg *config.Config, retry *utils.RetryConfig, logger *utils.Logger) error {
	table, err := storage.NewCSVReader(cfg.CSVPath).ReadRaw(ctx)
	if err != nil {
		return err
	}

	// Validate the header before touching the database.
	if _, err := services.NewCleaner(logger).Clean(table); err != nil {
		return err
	}

	store, err := storage.NewPostgresStore(ctx, cfg.DSN(), retry, logger)
	if err != nil {
		logger.Error("Make sure PostgreSQL is running: docker compose up -d")
		return err
	}
	defer store.Close()

	n, err := store.Import(ctx, table)
	if err != nil {
		return err
	}
	logger.Info("Imported %d listings from %s into PostgreSQL (table: vehicles)", n, cfg.CSVPath)
	return nil
}
