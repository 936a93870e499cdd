package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"firmbill/internal/caching"
	"firmbill/internal/config"
	"firmbill/internal/delivery"
	"firmbill/internal/documents"
	"firmbill/internal/jobs"
	"firmbill/internal/repositories"
	"firmbill/internal/services"
	"firmbill/pkg/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	lockTTL     = 2 * time.Minute
	lockWait    = 10 * time.Second
	smtpTimeout = 30 * time.Second
)

// app holds every long-lived dependency the commands share
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	pool    *pgxpool.Pool
	redis   *redis.Client
	cache   caching.CacheService
	locker  caching.Locker
	archive services.DocumentArchive
	mailer  *delivery.Mailer

	authService      services.AuthService
	auditService     services.AuditLogsService
	firmService      services.FirmService
	invoiceService   services.InvoiceServiceInterface
	scheduledService services.ScheduledInvoiceService
	processor        *jobs.Processor
}

func openPool(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, int32(cfg.DatabaseMaxConns), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

// newApp connects to the database and wires the services. Redis, MinIO and
// SMTP are optional; without them the in-process cache and locker are used,
// documents are not archived and sending fails with a delivery error.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	if err := cfg.RequireJWTSecret(); err != nil {
		return nil, err
	}
	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, pool: pool}

	if cfg.RedisAddr != "" {
		a.redis = caching.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		a.cache = caching.NewRedisCacheService(a.redis)
		a.locker = caching.NewRedisLocker(a.redis, lockTTL, lockWait)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, using in-process cache and locks")
		a.cache = caching.NewMemoryCacheService()
		a.locker = caching.NewLocalLocker()
	}

	if cfg.MinioEndpoint != "" {
		archive, err := services.NewMinioArchive(services.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create document archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Str("bucket", cfg.MinioBucket).Msg("document bucket is not reachable")
		}
		a.archive = archive
	} else {
		logger.Warn().Msg("MINIO_ENDPOINT not set, documents will not be archived")
	}

	inv := cfg.Invoicing
	var docxTemplate []byte
	if inv.Documents.DocxTemplate != "" {
		docxTemplate, err = os.ReadFile(inv.Documents.DocxTemplate)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to read docx template: %w", err)
		}
	}
	renderer := documents.NewRenderer(docxTemplate)

	loc, err := inv.Location()
	if err != nil {
		a.Close()
		return nil, err
	}
	issuer := documents.Issuer{
		Name:        inv.Issuer.Name,
		Address:     inv.Issuer.Address,
		Email:       inv.Issuer.Email,
		BankDetails: inv.Issuer.BankDetails,
	}
	kind := documents.Kind(inv.Batch.DocumentKind)

	firmRepo := repositories.NewFirmRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	scheduledRepo := repositories.NewScheduledInvoiceRepo(pool)

	a.mailer, err = delivery.NewMailer(delivery.Settings{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		Username:   cfg.SMTP.Username,
		Password:   cfg.SMTP.Password,
		From:       cfg.SMTP.From,
		DefaultBCC: cfg.SMTP.DefaultBCC,
		Timeout:    smtpTimeout,
	}, invoiceRepo, logger.With().Str("component", "mailer").Logger())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}
	if !a.mailer.Configured() {
		logger.Warn().Msg("SMTP_HOST or SMTP_FROM not set, invoices cannot be sent")
	}

	a.authService = services.NewAuthService(repositories.NewUserRepo(pool), a.cache, cfg.JWTSecret, cfg.JWTTTL())
	a.auditService = services.NewAuditLogsService(repositories.NewAuditLogsRepo(pool))
	a.firmService = services.NewFirmService(firmRepo, a.cache, logger.With().Str("component", "firms").Logger())
	a.invoiceService = services.NewInvoiceService(invoiceRepo, firmRepo, a.locker, renderer, a.archive, a.mailer, services.InvoiceSettings{
		Prefix:         inv.Numbering.Prefix,
		DefaultDueDays: inv.Terms.DefaultDueDays,
		DocumentKind:   kind,
		Issuer:         issuer,
		Location:       loc,
	}, logger.With().Str("component", "invoices").Logger())
	a.scheduledService = services.NewScheduledInvoiceService(scheduledRepo, firmRepo, inv.Terms.ScheduleLeadDays, logger.With().Str("component", "scheduled_invoices").Logger())
	a.processor = jobs.NewProcessor(scheduledRepo, invoiceRepo, firmRepo, a.locker, renderer, a.archive, a.mailer, jobs.ProcessorConfig{
		Prefix:       inv.Numbering.Prefix,
		DocumentKind: kind,
		Issuer:       issuer,
		Location:     loc,
	}, logger.With().Str("component", "processor").Logger())

	return a, nil
}

// Close releases connections in reverse order of acquisition
func (a *app) Close() {
	if a.mailer != nil {
		if err := a.mailer.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close mail client")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
