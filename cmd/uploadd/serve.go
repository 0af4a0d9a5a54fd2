package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"fileupload/docs"
	"fileupload/internal/config"
	"fileupload/internal/database"
	"fileupload/internal/database/migration"
	"fileupload/internal/hooks"
	handlers "fileupload/internal/http/handler"
	"fileupload/internal/http/middleware"
	"fileupload/internal/logging"
	"fileupload/internal/otel"
	"fileupload/internal/repository/postgres"
	"fileupload/internal/service"
	"fileupload/internal/storage"
	"fileupload/internal/upload"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")

	return cmd
}

func serve(parent context.Context, cfg *config.AppConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()
	logging.SetLocation(loc)

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	st, err := newStack(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	if cfg.Archive.Enabled {
		db, archive, err := openArchive(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		st.db, st.archive = db, archive
		st.bus.On(upload.EventStored, service.StoredHook(archive))
	}

	app, err := st.app(ctx)
	if err != nil {
		return err
	}

	upCfg, _ := st.plugin.Effective()
	addr := ":" + cfg.Port
	logging.Info("server_starting", logging.Fields{
		"addr":             addr,
		"upload_directory": upCfg.Directory,
		"upload_route":     upCfg.Route,
		"public_route":     upCfg.PublicRoute,
		"archive_enabled":  cfg.Archive.Enabled,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(addr) }()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logging.Info("server_stopping", nil)
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// multipartOverhead is the room left above the file size limit for the form
// boundaries and the other fields of an upload request.
const multipartOverhead = 64 << 10

// stack holds what the HTTP app is assembled from.
type stack struct {
	cfg     *config.AppConfig
	bus     *hooks.Dispatcher
	plugin  *upload.Plugin
	metrics *middleware.PrometheusMiddleware

	// db and archive stay nil while archiving is disabled.
	db      *sql.DB
	archive service.ArchiveService
}

// newStack registers the metrics on reg and creates the upload plugin
// subscribed to a fresh hook bus.
func newStack(cfg *config.AppConfig, reg prometheus.Registerer) (*stack, error) {
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}
	uploadMetrics, err := upload.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register upload metrics: %w", err)
	}

	bus := hooks.New()

	section := cfg.Upload.Section()
	section[upload.KeyMiddleware] = []fiber.Handler{middleware.RequireMultipart()}
	plugin, err := upload.New(section,
		upload.WithReceiver(upload.FormReceiver{MaxBytes: int64(cfg.Upload.MaxBytes)}),
		upload.WithMetrics(uploadMetrics),
		upload.WithEmitter(bus),
	)
	if err != nil {
		return nil, fmt.Errorf("upload plugin: %w", err)
	}
	if err := plugin.Register(bus); err != nil {
		return nil, fmt.Errorf("register upload plugin: %w", err)
	}
	if !bus.Has(upload.EventBindRoutes) {
		logging.Warn("upload_routes_unbound", logging.Fields{
			"event":  upload.EventBindRoutes,
			"reason": "no upload method subscribed; check UPLOAD_EVENTS",
		})
	}

	return &stack{cfg: cfg, bus: bus, plugin: plugin, metrics: promMiddleware}, nil
}

// app builds the Fiber app and dispatches EventBindRoutes on it.
func (s *stack) app(ctx context.Context) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler:          s.plugin.ErrorHandler(handlers.ErrorHandler()),
		BodyLimit:             s.cfg.Upload.MaxBytes + multipartOverhead,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(s.metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.RegisterRoutes(app, s.db, s.archive)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	if err := s.bus.Dispatch(ctx, upload.EventBindRoutes, fiber.Router(app)); err != nil {
		return nil, fmt.Errorf("bind upload routes: %w", err)
	}
	return app, nil
}

// openArchive connects the catalog database and the object store. The caller
// owns the returned *sql.DB.
func openArchive(ctx context.Context, cfg *config.AppConfig) (*sql.DB, service.ArchiveService, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	repo := postgres.NewUploadPostgres(db)
	return db, service.NewArchiveService(objStore, repo), nil
}
