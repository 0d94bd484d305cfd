package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-canteen/api"
	"campus-canteen/bot"
	"campus-canteen/config"
	"campus-canteen/db"
	"campus-canteen/logger"
	"campus-canteen/metrics"
	"campus-canteen/services"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	defer logger.Sync()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "canteen",
		Short:         "Campus canteen menu, cart and favourites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "bot",
			Short: "Run the Telegram bot",
			RunE:  func(cmd *cobra.Command, args []string) error { return run(cmd.Context(), runBot) },
		},
		&cobra.Command{
			Use:   "api",
			Short: "Serve the HTTP API",
			RunE:  func(cmd *cobra.Command, args []string) error { return run(cmd.Context(), runAPI) },
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE:  func(cmd *cobra.Command, args []string) error { return runMigrate(cmd.Context()) },
		},
		seedCmd(),
	)
	return root
}

// app is what the bot and the API share: one catalog and one session registry.
type app struct {
	cfg      *config.Config
	catalog  *services.CatalogHolder
	sessions *services.SessionManager
	metrics  *metrics.Recorder
}

func setup(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "config")
	}
	logger.SetLevel(cfg.LogLevel)
	log := logger.GetLogger()
	log.Debug(cfg.String())

	cleanup := func() {}
	if cfg.NeedsDB() {
		if err := db.Init(ctx, cfg.DB); err != nil {
			return nil, nil, errors.Wrap(err, "db")
		}
		cleanup = db.Close
		if cfg.AutoMigrate {
			if err := applyMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, errors.Wrap(err, "migrate")
			}
		}
	}

	src := catalogSource(cfg)
	catalog, err := services.LoadCatalog(ctx, src)
	if err != nil {
		cleanup()
		return nil, nil, errors.Wrap(err, "load catalog")
	}
	log.Infof("catalog loaded: %d items, %d categories, %d cuisines",
		catalog.Len(), len(catalog.Categories())-1, len(catalog.Cuisines())-1)
	holder := services.NewCatalogHolder(catalog)
	if cfg.Catalog.RefreshSecs > 0 {
		go services.RefreshCatalog(ctx, holder, src, time.Duration(cfg.Catalog.RefreshSecs)*time.Second)
	}

	rec := metrics.NewRecorder()
	opts := []services.SessionOption{services.WithObserver(rec)}
	if cfg.Storage == config.StoragePostgres {
		opts = append(opts, services.WithRepository(services.NewPostgresCartRepository()))
	}

	return &app{
		cfg:      cfg,
		catalog:  holder,
		sessions: services.NewSessionManager(cfg.Catalog.PriceCeiling, opts...),
		metrics:  rec,
	}, cleanup, nil
}

func catalogSource(cfg *config.Config) services.CatalogSource {
	if cfg.Catalog.Source == config.CatalogSourcePostgres {
		return services.PostgresCatalogSource{}
	}
	return services.FileCatalogSource{Path: cfg.Catalog.File}
}

func run(parent context.Context, fn func(ctx context.Context, a *app) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, a)
}

func runBot(ctx context.Context, a *app) error {
	if a.cfg.Telegram.Token == "" {
		return errors.New("TOKEN not set")
	}
	b, err := bot.New(a.cfg, a.catalog, a.sessions)
	if err != nil {
		return err
	}
	logger.GetLogger().Info("Bot started.")
	b.Start(ctx)
	return nil
}

func runAPI(ctx context.Context, a *app) error {
	log := logger.GetLogger()
	h := api.NewHandler(a.catalog, a.sessions, a.cfg.Catalog.PriceCeiling)
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Address,
		Handler:           api.NewRouter(h, a.metrics.Registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP API listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	if err := db.Init(ctx, cfg.DB); err != nil {
		return errors.Wrap(err, "db")
	}
	defer db.Close()
	return applyMigrations(ctx)
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Copy a YAML catalog into the menu_items table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "config")
			}
			if file == "" {
				file = cfg.Catalog.File
			}
			items, err := services.FileCatalogSource{Path: file}.LoadCatalog(ctx)
			if err != nil {
				return err
			}
			if err := services.ValidateMenu(items); err != nil {
				return err
			}
			if err := db.Init(ctx, cfg.DB); err != nil {
				return errors.Wrap(err, "db")
			}
			defer db.Close()
			for _, item := range items {
				if err := services.AddMenuItem(ctx, item); err != nil {
					return err
				}
			}
			logger.GetLogger().Infof("seeded %d menu items from %s", len(items), file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (defaults to CATALOG_FILE)")
	return cmd
}
