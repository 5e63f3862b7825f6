package handlers

import (
	"context"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// ReadinessCheck reports whether a backing store is reachable.
type ReadinessCheck func(ctx context.Context) error

// RegisterRoutes sets up all application routes. When cfg.EnableDBCheck is set, /health also
// runs ready. extra middleware (rate limiting, usage tracking) runs on the /api/v1 group after
// authentication.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	ready ReadinessCheck,
	extra ...gin.HandlerFunc,
) {
	registerValidators()

	r.GET("/health", func(c *gin.Context) {
		if cfg.EnableDBCheck && ready != nil {
			if err := ready(c.Request.Context()); err != nil {
				middleware.GetLoggerFromCtx(c.Request.Context()).Error("Readiness check failed", slog.String("error", err.Error()))
				c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
				return
			}
		}
		c.String(http.StatusOK, "OK")
	})

	setupAPIV1Routes(r, cfg, services, extra)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	extra []gin.HandlerFunc,
) {
	chain := append([]gin.HandlerFunc{middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer)}, extra...)
	v1 := r.Group("/api/v1", chain...)

	registerAccountRoutes(v1, services.Account, services.Ledger)
	registerJournalRoutes(v1, services.Journal)
	registerReportingRoutes(v1, services.Ledger)
	registerPeriodRoutes(v1, services.Period)
	registerReconciliationRoutes(v1, services.Reconciliation)
}
