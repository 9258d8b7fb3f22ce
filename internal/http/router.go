// Package httpapi wires the HTTP transport (Gin) to the conversational
// services, middleware, and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging, panic recovery,
// metrics, delivery deduplication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/fieldwerk/go-report-backend/docs"
	"github.com/fieldwerk/go-report-backend/internal/config"
	"github.com/fieldwerk/go-report-backend/internal/conv"
	"github.com/fieldwerk/go-report-backend/internal/domain"
	"github.com/fieldwerk/go-report-backend/internal/format"
	"github.com/fieldwerk/go-report-backend/internal/http/handlers"
	"github.com/fieldwerk/go-report-backend/internal/http/middleware"
	"github.com/fieldwerk/go-report-backend/internal/repo"
	"github.com/fieldwerk/go-report-backend/internal/services"
)

// reportRepoShim adapts the repository free functions to the
// services.ReportRepo interface expected by the ReportService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type reportRepoShim struct{}

// CreateReport proxies repo.CreateReport.
func (reportRepoShim) CreateReport(ctx context.Context, db *gorm.DB, groupID, messageID int64, d domain.ReportDraft) (*domain.Report, error) {
	return repo.CreateReport(ctx, db, groupID, messageID, d)
}

// GetReport proxies repo.GetReport.
func (reportRepoShim) GetReport(ctx context.Context, db *gorm.DB, groupID, messageID int64) (*domain.Report, error) {
	return repo.GetReport(ctx, db, groupID, messageID)
}

// UpdateReportField proxies repo.UpdateReportField.
func (reportRepoShim) UpdateReportField(ctx context.Context, db *gorm.DB, groupID, messageID int64, field, value string) error {
	return repo.UpdateReportField(ctx, db, groupID, messageID, field, value)
}

// UpdateReportStatus proxies repo.UpdateReportStatus.
func (reportRepoShim) UpdateReportStatus(ctx context.Context, db *gorm.DB, groupID, messageID int64, status string) error {
	return repo.UpdateReportStatus(ctx, db, groupID, messageID, status)
}

// DeleteReport proxies repo.DeleteReport.
func (reportRepoShim) DeleteReport(ctx context.Context, db *gorm.DB, groupID, messageID int64) error {
	return repo.DeleteReport(ctx, db, groupID, messageID)
}

// CountReports proxies repo.CountReports (pagination support).
func (reportRepoShim) CountReports(ctx context.Context, db *gorm.DB, groupID int64) (int64, error) {
	return repo.CountReports(ctx, db, groupID)
}

// ListReportsPage proxies repo.ListReportsPage (pagination support).
func (reportRepoShim) ListReportsPage(ctx context.Context, db *gorm.DB, groupID int64, offset, limit int) ([]domain.Report, error) {
	return repo.ListReportsPage(ctx, db, groupID, offset, limit)
}

// ReassignReportGroup proxies repo.ReassignReportGroup (migration support).
func (reportRepoShim) ReassignReportGroup(ctx context.Context, db *gorm.DB, oldGroupID, messageID, newGroupID int64) error {
	return repo.ReassignReportGroup(ctx, db, oldGroupID, messageID, newGroupID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), delivery
// deduplication and rate limiting, CORS and security headers, health and
// metrics endpoints, and then mounts the webhook under the configured base
// path. The renderer is injected so tests can swap the outbound client.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Structured logging with webhook attribution
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. Delivery dedup (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per operator/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, renderer conv.Renderer, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging (picks up group/operator ids set by the handler)
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Drop retransmitted webhook deliveries (before rate limiting)
	r.Use(middleware.DeliveryDedup(
		func(ctx context.Context, groupID, updateID int64) (bool, error) {
			return repo.SeenDelivery(ctx, db, groupID, updateID, time.Now())
		},
		func(ctx context.Context, groupID, updateID int64) error {
			return repo.RecordDelivery(ctx, db, groupID, updateID, cfg.DedupTTL)
		},
	))

	// 9) Token-bucket rate limiter per operator/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByOperatorOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Operator-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Operator-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Interactive API docs (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/renderer
	store := services.NewReportService(db, reportRepoShim{})
	store.PageSize = cfg.PageSize

	fmtr := format.New(cfg.Locale)

	formSvc := services.NewFormService(store, renderer, fmtr)
	formSvc.IdleTimeout = cfg.SessionIdleTimeout

	// Background hygiene for the process lifetime: expire idle form
	// sessions and purge remembered delivery ids.
	formSvc.StartSweeper(cfg.SweepInterval)
	go purgeDeliveries(db, cfg.SweepInterval)

	statusSvc := services.NewStatusService(store, renderer, fmtr)
	statusSvc.PageSize = cfg.PageSize

	auth := services.NewAuthorizer(cfg.AllowedOperators, cfg.AllowedGroups, cfg.AuthEnforce)

	h := handlers.New(formSvc, statusSvc, auth)

	// Webhook entrypoint
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/webhook", h.Receive)
	}
}

// purgeDeliveries drops expired delivery-dedup rows on a fixed cadence.
func purgeDeliveries(db *gorm.DB, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for range t.C {
		if _, err := repo.PurgeExpiredDeliveries(context.Background(), db, time.Now()); err != nil {
			log.Warn().Err(err).Msg("delivery purge failed")
		}
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
