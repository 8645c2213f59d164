package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/dashboard"
	"github.com/hms/hms/internal/domain/medservice"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/prescription"
	"github.com/hms/hms/internal/platform/activity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/httputil"
	"github.com/hms/hms/internal/platform/metrics"
	"github.com/hms/hms/internal/platform/middleware"
	"github.com/hms/hms/internal/platform/websocket"
	"github.com/hms/hms/internal/sandbox"
	"github.com/hms/hms/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital management back office API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	cmd.PersistentFlags().String("dir", "", "Read migrations from this directory instead of the embedded set")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			v, err := migrator.Down(cmd.Context())
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back migration %d.\n", v)
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	defaults := sandbox.DefaultSeedConfig()
	var seedCfg sandbox.SeedConfig
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.IsDev() && !force {
				return fmt.Errorf("refusing to seed in %s mode without --force", cfg.Env)
			}
			logger := newLogger(cfg, os.Stderr)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, poolOptions(cfg, &logger))
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := newSeeder(pool, logger).Seed(auth.WithUser(ctx, "sandbox-seeder", []string{auth.RoleAdmin}), seedCfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d medical service(s), %d patient(s), %d prescription(s), %d invoice(s) in %s.\n",
				res.MedicalServices, res.Patients, res.Prescriptions, res.Invoices, res.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVar(&seedCfg.MedicalServices, "services", defaults.MedicalServices, "Medical services to create")
	cmd.Flags().IntVar(&seedCfg.Patients, "patients", defaults.Patients, "Patients to create")
	cmd.Flags().IntVar(&seedCfg.PrescriptionsPerPatient, "prescriptions", defaults.PrescriptionsPerPatient, "Prescriptions per patient")
	cmd.Flags().IntVar(&seedCfg.InvoicesPerPatient, "invoices", defaults.InvoicesPerPatient, "Invoices per patient")
	cmd.Flags().Int64Var(&seedCfg.Seed, "seed", 0, "Random seed; 0 picks one from the clock")
	cmd.Flags().BoolVar(&force, "force", false, "Allow seeding outside development")
	return cmd
}

// newSeeder builds audited services over q for the sandbox seeder.
func newSeeder(q db.Querier, logger zerolog.Logger) *sandbox.Seeder {
	recorder := activity.NewRecorder(activity.NewRepoPG(q), auth.ContextUserResolver{}, logger)
	return sandbox.NewSeeder(
		patient.NewService(patient.NewPatientRepoPG(q), recorder, logger),
		medservice.NewService(medservice.NewMedicalServiceRepoPG(q), recorder, logger),
		prescription.NewService(prescription.NewPrescriptionRepoPG(q), auth.ContextUserResolver{}, recorder, logger),
		billing.NewService(billing.NewInvoiceRepoPG(q), recorder, logger),
		logger,
	)
}

func openMigrator(cmd *cobra.Command) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.MigrationsDir
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, poolOptions(cfg, nil))
	if err != nil {
		return nil, nil, err
	}
	migrator, err := db.NewMigrator(pool, migrationsSource(dir))
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return migrator, func() {
		_ = migrator.Close()
		pool.Close()
	}, nil
}

// migrationsSource prefers an on-disk directory when one is configured.
func migrationsSource(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return migrations.FS
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// poolOptions maps config onto the pool. Slow query logging needs a logger.
func poolOptions(cfg *config.Config, logger *zerolog.Logger) db.PoolOptions {
	return db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBConnLifetime,
		MaxConnIdleTime: cfg.DBConnIdle,
		SlowQuery:       cfg.DBSlowQuery,
		Logger:          logger,
	}
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(cfg.Level()).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg, os.Stdout)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("development mode: DevAuthMiddleware grants admin to unauthenticated requests")
	}
	if !middleware.ValidBodyLimit(cfg.BodyLimit) {
		logger.Warn().Str("body_limit", cfg.BodyLimit).Msgf("unparseable BODY_LIMIT, using %s", middleware.DefaultBodyLimit)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, poolOptions(cfg, &logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := newRouter(cfg, logger, pool, pool)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newRouter wires middleware, services and handlers onto a fresh echo instance.
func newRouter(cfg *config.Config, logger zerolog.Logger, q db.Querier, pinger db.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httputil.NewValidator()

	instruments := metrics.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(instruments.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pinger))
	e.GET("/metrics", echo.WrapHandler(instruments.Handler()))
	if pool, ok := pinger.(interface{ Stat() *pgxpool.Stat }); ok {
		registerPoolGauges(instruments, pool.Stat, logger)
	}

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Activity feed and audit recorder
	activityRepo := activity.NewRepoPG(q)
	activitySvc := activity.NewService(activityRepo)
	feed := websocket.NewFeed(logger).WithDropCounter(instruments)
	recorder := activity.NewRecorder(activityRepo, auth.ContextUserResolver{}, logger).
		WithNotifier(feed).
		WithObserver(instruments)
	if err := instruments.Gauge("activity_feed", "subscribers", "Connected activity feed subscribers.",
		func() float64 { return float64(feed.Len()) }); err != nil {
		logger.Warn().Err(err).Msg("failed to register feed gauge")
	}
	activity.NewHandler(activitySvc, logger).RegisterRoutes(apiV1)
	websocket.NewHandler(feed, cfg.CORSOrigins, logger).RegisterRoutes(apiV1)

	// Medical services catalogue
	msSvc := medservice.NewService(medservice.NewMedicalServiceRepoPG(q), recorder, logger)
	medservice.NewHandler(msSvc).RegisterRoutes(apiV1)

	// Patients
	patientSvc := patient.NewService(patient.NewPatientRepoPG(q), recorder, logger)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Prescriptions
	rxSvc := prescription.NewService(prescription.NewPrescriptionRepoPG(q), auth.ContextUserResolver{}, recorder, logger)
	prescription.NewHandler(rxSvc).RegisterRoutes(apiV1)

	// Invoices
	billingSvc := billing.NewService(billing.NewInvoiceRepoPG(q), recorder, logger)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	// Dashboard
	dashSvc := dashboard.NewService(dashboard.NewRepoPG(q), activitySvc, logger)
	dashboard.NewHandler(dashSvc).RegisterRoutes(apiV1)

	return e
}

func registerPoolGauges(m *metrics.Metrics, stat func() *pgxpool.Stat, logger zerolog.Logger) {
	gauges := []struct {
		name, help string
		fn         func(*pgxpool.Stat) int32
	}{
		{"total_conns", "Open database connections.", (*pgxpool.Stat).TotalConns},
		{"acquired_conns", "Database connections in use.", (*pgxpool.Stat).AcquiredConns},
		{"idle_conns", "Idle database connections.", (*pgxpool.Stat).IdleConns},
	}
	for _, g := range gauges {
		fn := g.fn
		if err := m.Gauge("db_pool", g.name, g.help, func() float64 { return float64(fn(stat())) }); err != nil {
			logger.Warn().Err(err).Str("gauge", g.name).Msg("failed to register pool gauge")
		}
	}
}
