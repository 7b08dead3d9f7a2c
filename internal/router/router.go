package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"disaster-bot/internal/handlers"
	"disaster-bot/internal/middleware"
	"disaster-bot/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	chatbotHandler *handlers.ChatbotHandler,
	alertHandler *handlers.AlertHandler,
	disasterHandler *handlers.DisasterHandler,
	resourceHandler *handlers.ResourceHandler,
	reportHandler *handlers.ReportHandler,
	statsHandler *handlers.StatsHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	chatRateLimitPerMin int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))
	r.Use(middleware.Metrics)

	// Chat rate limiter (per IP)
	chatLimiter := middleware.NewRateLimiter(chatRateLimitPerMin, time.Minute)

	r.Get("/", handlers.Root)
	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ──── Chatbot ────
	r.Route("/bot/v1", func(r chi.Router) {
		r.Use(chatLimiter.Middleware)
		r.Post("/message", chatbotHandler.Message)
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Public dashboard routes ────
		r.Get("/alerts/active", alertHandler.ListActive)
		r.Get("/alerts/live", wsHub.HandleWebSocket)
		r.Get("/stats/summary", statsHandler.Summary)
		r.Get("/resources/shelters", resourceHandler.Shelters)
		r.Get("/resources/nearby", resourceHandler.Nearby)
		r.Get("/disasters/active", disasterHandler.ListActive)
		r.Post("/reports", reportHandler.Create)

		// ──── Operator routes ────
		r.Route("/operator", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/alerts", alertHandler.Create)
			r.Post("/disasters", disasterHandler.Create)
			r.Put("/resources/{id}/capacity", resourceHandler.UpdateCapacity)
			r.Put("/reports/{id}/status", reportHandler.UpdateStatus)
		})
	})

	return r
}
