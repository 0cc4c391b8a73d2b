package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/services"
)

type Server struct {
	explorer     *services.Explorer
	mux          *http.ServeMux
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

func NewServer(explorer *services.Explorer, logger *slog.Logger, sessionCfg config.SessionConfig) *Server {
	s := &Server{
		explorer:     explorer,
		mux:          http.NewServeMux(),
		logger:       logger,
		apiHandlers:  handlers.NewAPIHandlers(explorer, logger),
		sseHandlers:  handlers.NewSSEHandlers(explorer, logger),
		pageHandlers: handlers.NewPageHandlers(explorer, logger),
	}
	s.setupRoutes(middleware.Session(explorer.Sessions(), sessionCfg))
	return s
}

func (s *Server) setupRoutes(withSession middleware.Middleware) {
	session := func(h http.HandlerFunc) http.Handler {
		return withSession(h)
	}

	// Dashboard routes
	s.mux.Handle("GET /", session(s.pageHandlers.HandleDashboard))
	s.mux.Handle("GET /export", session(s.apiHandlers.HandleExport))
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.Handle("GET /api/options", session(s.apiHandlers.HandleOptions))
	s.mux.Handle("GET /api/kpis", session(s.apiHandlers.HandleKPIs))
	s.mux.Handle("GET /api/branches", session(s.apiHandlers.HandleBranches))
	s.mux.Handle("GET /api/categories", session(s.apiHandlers.HandleCategories))
	s.mux.Handle("GET /api/categories/distribution", session(s.apiHandlers.HandleCategoryDistribution))
	s.mux.Handle("GET /api/daily", session(s.apiHandlers.HandleDaily))
	s.mux.Handle("GET /api/monthly", session(s.apiHandlers.HandleMonthly))
	s.mux.Handle("GET /api/weekdays", session(s.apiHandlers.HandleWeekdays))
	s.mux.Handle("GET /api/hourly", session(s.apiHandlers.HandleHourly))
	s.mux.Handle("GET /api/customer-types", session(s.apiHandlers.HandleCustomerTypes))
	s.mux.Handle("GET /api/genders", session(s.apiHandlers.HandleGenders))
	s.mux.Handle("GET /api/rows", session(s.apiHandlers.HandleRows))

	// Datastar SSE endpoints
	s.mux.Handle("GET /sse/refresh", session(s.sseHandlers.HandleRefresh))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
