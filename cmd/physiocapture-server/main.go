package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/physiocapture/physiocapture/internal/config"
	"github.com/physiocapture/physiocapture/internal/domain/audit"
	"github.com/physiocapture/physiocapture/internal/domain/clinic"
	"github.com/physiocapture/physiocapture/internal/domain/consultation"
	"github.com/physiocapture/physiocapture/internal/domain/document"
	"github.com/physiocapture/physiocapture/internal/domain/patient"
	"github.com/physiocapture/physiocapture/internal/domain/report"
	"github.com/physiocapture/physiocapture/internal/domain/user"
	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
	"github.com/physiocapture/physiocapture/internal/platform/db"
	"github.com/physiocapture/physiocapture/internal/platform/filestore"
	"github.com/physiocapture/physiocapture/internal/platform/middleware"
	"github.com/physiocapture/physiocapture/internal/platform/viacep"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "physiocapture-server",
		Short: "PhysioCapture clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(clinicCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
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

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger()
	ctx := context.Background()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := filestore.NewLocal(cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("init file storage: %w", err)
	}

	var cep viacep.Lookuper = viacep.New(cfg.ViaCEPBaseURL, logger)
	if cfg.RedisURL != "" {
		rdb, err := viacep.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		cep = viacep.NewCached(cep, rdb, logger)
		logger.Info().Msg("cep lookups cached via redis")
	}

	// Repositories
	auditRepo := audit.NewRepo(pool)
	patientRepo := patient.NewRepo(pool)
	userRepo := user.NewRepo(pool)
	documentRepo := document.NewRepo(pool)
	consultationRepo := consultation.NewRepo(pool)
	clinicRepo := clinic.NewRepo(pool)
	reportRepo := report.NewRepo(pool)

	recorder := audit.NewRecorder(auditRepo, logger)

	// Services
	patientSvc := patient.NewService(patientRepo, userRepo, documentRepo, store, auditRepo, recorder, logger)
	userSvc := user.NewService(userRepo, logger)
	documentSvc := document.NewService(documentRepo, patientRepo, store, recorder, logger)
	consultationSvc := consultation.NewService(consultationRepo, patientRepo, userRepo, recorder, logger)
	clinicSvc := clinic.NewService(clinicRepo, logger)
	reportSvc := report.NewService(reportRepo, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	e.GET("/health", db.HealthHandler(pool))

	api := e.Group("/api/v1")
	if cfg.IsDev() && cfg.JWTSecret == "" {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
			Issuer:     cfg.JWTIssuer,
		}))
	}
	api.Use(middleware.AccessLog(logger))
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	patient.NewHandler(patientSvc).RegisterRoutes(api)
	user.NewHandler(userSvc).RegisterRoutes(api)
	document.NewHandler(documentSvc).RegisterRoutes(api)
	consultation.NewHandler(consultationSvc).RegisterRoutes(api)
	clinic.NewHandler(clinicSvc).RegisterRoutes(api)
	report.NewHandler(reportSvc).RegisterRoutes(api)
	viacep.NewHandler(cep).RegisterRoutes(api)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "./migrations", "migrations directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			m := db.NewMigrator(pool, dir)
			n, err := m.Up(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s)\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			m := db.NewMigrator(pool, dir)
			statuses, err := m.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%04d  %-40s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	})

	return cmd
}

func clinicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinic",
		Short: "Manage clinics",
	}

	var name string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new clinic",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			c := &clinic.Clinic{Name: name, IsActive: true}
			if err := clinic.NewRepo(pool).Create(ctx, c); err != nil {
				return err
			}
			fmt.Printf("clinic created: %s\n", c.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "clinic name")

	cmd.AddCommand(createCmd)
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var clinicID, name, email, password string
	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN user for a clinic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cid, err := uuid.Parse(clinicID)
			if err != nil {
				return fmt.Errorf("--clinic-id must be a UUID")
			}
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email are required")
			}
			if len(password) < 8 {
				return fmt.Errorf("--password must be at least 8 characters")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u := &user.User{
				ClinicID:     cid,
				Name:         name,
				Email:        email,
				Role:         auth.RoleAdmin,
				PasswordHash: string(hash),
				IsActive:     true,
			}
			if err := user.NewRepo(pool).Create(ctx, u); err != nil {
				return err
			}
			fmt.Printf("admin user created: %s\n", u.ID)
			return nil
		},
	}
	createAdminCmd.Flags().StringVar(&clinicID, "clinic-id", "", "clinic UUID")
	createAdminCmd.Flags().StringVar(&name, "name", "", "full name")
	createAdminCmd.Flags().StringVar(&email, "email", "", "login email")
	createAdminCmd.Flags().StringVar(&password, "password", "", "initial password")

	cmd.AddCommand(createAdminCmd)
	return cmd
}
