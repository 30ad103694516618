package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	agentapi "github.com/rmachado/inventra/internal/api/agent"
	"github.com/rmachado/inventra/internal/api/management"
	"github.com/rmachado/inventra/internal/api/middleware"
	"github.com/rmachado/inventra/internal/api/response"
	"github.com/rmachado/inventra/internal/auth"
	"github.com/rmachado/inventra/internal/service"
)

type RouterDeps struct {
	InventorySvc *service.InventoryService
	JWTManager   *auth.JWTManager
	AgentToken   string
	AdminEmail   string
	AdminPass    string
	CORSOrigins  string
	Logger       *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	metrics := middleware.NewMetrics()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(metrics.Middleware())

	origins := strings.Split(deps.CORSOrigins, ",")
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/metrics", metrics.Handler())

	// Agent API — inventra-agent reports snapshots here
	reportHandler := agentapi.NewReportHandler(deps.InventorySvc)

	r.Route("/api/v1/agent", func(r chi.Router) {
		r.Use(middleware.RateLimit(10, 20))
		r.Use(middleware.AgentAuth(deps.AgentToken))
		r.Post("/report", reportHandler.Report)
	})

	// Management API — used by the frontend
	authHandler := management.NewAuthHandler(deps.JWTManager, deps.AdminEmail, deps.AdminPass)
	deviceHandler := management.NewDeviceHandler(deps.InventorySvc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(30, 60))

		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ManagementAuth(deps.JWTManager))

			r.Post("/auth/refresh", authHandler.Refresh)

			r.Get("/devices", deviceHandler.List)
			r.Get("/devices/{id}", deviceHandler.Get)
			r.Put("/devices/{id}", deviceHandler.Update)
			r.Delete("/devices/{id}", deviceHandler.Delete)
			r.Get("/devices/{id}/history", deviceHandler.History)
		})
	})

	return r
}
