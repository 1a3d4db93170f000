package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edlund/sentinel/internal/api/handler"
	mw "github.com/edlund/sentinel/internal/api/middleware"
	"github.com/edlund/sentinel/internal/config"
	"github.com/edlund/sentinel/internal/core"
	"github.com/edlund/sentinel/internal/export"
	"github.com/edlund/sentinel/internal/llm"
	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/ratelimit"
	"github.com/edlund/sentinel/internal/stream"
)

//go:embed docs/swagger.json
var swaggerJSON []byte

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	pool           *pgxpool.Pool
	temporalClient temporalclient.Client
	cfg            *config.Config
	auditLogger    *mw.AuditLogger
	hub            *stream.Hub
	exporter       *export.Exporter
	scanLimiter    *ratelimit.Limiter
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, temporalClient temporalclient.Client, cfg *config.Config, hub *stream.Hub) *Server {
	analyst := llm.NewAnalyst(llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel), logger)
	services := core.NewServices(pool, analyst, logger)
	auditLogger := mw.NewAuditLogger(pool, logger)

	var exporter *export.Exporter
	if cfg.S3Bucket != "" {
		exporter = export.NewExporter(pool, export.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, logger)
	}

	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		pool:           pool,
		temporalClient: temporalClient,
		cfg:            cfg,
		auditLogger:    auditLogger,
		hub:            hub,
		exporter:       exporter,
		scanLimiter:    ratelimit.New(cfg.RedisAddr, cfg.RedisPassword, cfg.ScanRateLimit, time.Minute, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.pool))
		r.Use(s.auditLogger.Middleware)

		// Dashboard
		dashboard := handler.NewDashboard(s.services.Dashboard)
		r.Get("/dashboard/stats", dashboard.Stats)

		// Threats
		threat := handler.NewThreat(s.services.Threat)
		r.Get("/threats", threat.List)
		r.Get("/threats/{id}", threat.Get)

		// Live attacks
		attack := handler.NewAttack(s.services.Attack)
		r.Get("/live-attacks", attack.List)
		r.Get("/live-attacks/{id}", attack.Get)
		r.Get("/blocked-attacks", attack.ListBlocked)

		// Blocked entities
		block := handler.NewBlock(s.services.Block, s.services.Attack)
		r.Get("/blocked-entities", block.List)
		r.Get("/blocked-entities/{id}", block.Get)

		// Scan results
		scan := handler.NewScan(s.services.Scan)
		r.Get("/scan-results", scan.List)
		r.Get("/scan-results/{id}", scan.Get)

		// Incidents
		incident := handler.NewIncident(s.services.Incident)
		r.Get("/incidents", incident.List)
		r.Get("/incidents/{id}", incident.Get)
		r.Get("/incidents/{id}/events", incident.ListEvents)

		// Monitors
		monitor := handler.NewMonitor(s.services.Monitor, s.services.Incident)
		r.Get("/monitors", monitor.List)
		r.Get("/monitors/{id}", monitor.Get)

		// Live threat stream (WebSocket)
		streamHandler := handler.NewStream(s.hub, s.logger)
		r.Get("/stream", streamHandler.Connect)

		// Mutations below require the analyst role.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(model.RoleAnalyst))

			r.Post("/threats", threat.Create)
			r.Put("/threats/{id}/status", threat.UpdateStatus)

			r.Post("/live-attacks", attack.Create)

			r.Post("/blocked-entities", block.Create)
			r.Delete("/blocked-entities/{id}", block.Unblock)

			r.Post("/incidents", incident.Create)
			r.Patch("/incidents/{id}", incident.Update)
			r.Post("/incidents/{id}/resolve", incident.Resolve)
			r.Post("/incidents/{id}/escalate", incident.Escalate)
			r.Post("/incidents/{id}/cancel", incident.Cancel)
			r.Post("/incidents/{id}/events", incident.AddEvent)

			r.Post("/monitors/{id}/heartbeat", monitor.Heartbeat)

			// Scans burn LLM tokens, so they get their own rate limit.
			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimit(s.scanLimiter))

				r.Post("/scan/website", scan.Website)
				r.Post("/scan/api", scan.API)
				r.Post("/scan/qr", scan.QR)
				r.Post("/scan/static", scan.Static)
				r.Post("/scan/multi-agent", scan.MultiAgent)
			})
		})

		// Administration requires the admin role.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(model.RoleAdmin))

			r.Delete("/threats/{id}", threat.Delete)

			r.Post("/monitors", monitor.Create)
			r.Post("/monitors/{id}/start", monitor.Start)
			r.Post("/monitors/{id}/stop", monitor.Stop)
			r.Put("/monitors/{id}/auto-block", monitor.SetAutoBlock)

			profile := handler.NewProfile(s.services.Profile)
			r.Get("/profiles", profile.List)
			r.Post("/profiles", profile.Create)
			r.Get("/profiles/{id}", profile.Get)
			r.Delete("/profiles/{id}", profile.Delete)
			r.Get("/profiles/{id}/role", profile.GetRole)
			r.Put("/profiles/{id}/role", profile.SetRole)

			apiKey := handler.NewAPIKey(s.services.APIKey)
			r.Get("/api-keys", apiKey.List)
			r.Post("/api-keys", apiKey.Create)
			r.Delete("/api-keys/{id}", apiKey.Revoke)

			audit := handler.NewAudit(s.pool)
			r.Get("/audit-logs", audit.List)

			exportHandler := handler.NewExport(s.exporter)
			r.Get("/export/datasets", exportHandler.Datasets)
			r.Post("/export", exportHandler.Run)
		})
	})
}

// Close flushes the async audit log writer.
func (s *Server) Close() {
	s.auditLogger.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Sentinel Security API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
