package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firmbill/internal/config"
	"firmbill/internal/handlers"
	"firmbill/internal/jobs/background"
	"firmbill/internal/logger"
	"firmbill/internal/middleware"
	"firmbill/pkg/database"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

const shutdownTimeout = 15 * time.Second

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "firmbill",
	Short:   "Invoicing administration for law-firm subscriptions",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Setup(logger.LogConfig{Level: loaded.LogLevel, Pretty: loaded.LogPretty}); err != nil {
			return fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily scheduled invoice job",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var processScheduledCmd = &cobra.Command{
	Use:   "process-scheduled",
	Short: "Process every due scheduled invoice once and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("process-scheduled")
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.processor.ProcessDue(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		password, _ := cmd.Flags().GetString("password")

		log := logger.WithComponent("create-admin")
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.authService.CreateAdmin(cmd.Context(), email, name, password)
		if err != nil {
			return err
		}
		log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("administrator created")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("migrate")
		pool, err := openPool(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := database.Migrate(cmd.Context(), pool, log)
		if err != nil {
			return err
		}
		log.Info().Int("applied", applied).Msg("schema up to date")
		return nil
	},
}

func init() {
	createAdminCmd.Flags().String("email", "", "administrator email")
	createAdminCmd.Flags().String("name", "", "administrator display name")
	createAdminCmd.Flags().String("password", "", "administrator password, at least 8 characters")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processScheduledCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(migrateCmd)
}

func serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.WithComponent("server")
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	hour, minute, err := cfg.Invoicing.RunAtClock()
	if err != nil {
		return err
	}
	loc, err := cfg.Invoicing.Location()
	if err != nil {
		return err
	}
	scheduler, err := background.NewJobScheduler(a.processor, hour, minute, loc, logger.WithComponent("scheduler"))
	if err != nil {
		return err
	}
	scheduler.Start()

	e := newEcho(a, scheduler, log)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("version", version).Msg("starting server")
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errCh:
		log.Error().Err(err).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("http shutdown incomplete")
	}
	if stopErr := scheduler.Stop(); stopErr != nil {
		log.Warn().Err(stopErr).Msg("scheduler shutdown incomplete")
	}
	return err
}

func newEcho(a *app, scheduler *background.JobScheduler, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Dur("latency", v.Latency).Msg("request")
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	h := &handlers.Handlers{
		Health:    handlers.NewHealthHandlers(a.pool, a.cache, a.archive, version),
		Auth:      handlers.NewAuthHandlers(a.authService),
		Firms:     handlers.NewFirmHandlers(a.firmService),
		Invoices:  handlers.NewInvoiceHandlers(a.invoiceService),
		Scheduled: handlers.NewScheduledInvoiceHandlers(a.scheduledService, a.processor),
		Jobs:      handlers.NewJobHandlers(scheduler),
		AuditLogs: handlers.NewAuditLogsHandlers(a.auditService),
	}
	audit := middleware.NewAuditMiddleware(a.auditService, a.logger)
	h.Register(e, middleware.JWTMiddleware(a.authService), audit.AuditRequest())
	return e
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
