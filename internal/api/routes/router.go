package routes

import (
	"net/http"

	"github.com/verifix/backend/internal/api/handlers"
	"github.com/verifix/backend/internal/api/middleware"
	"github.com/verifix/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	askHandler           *handlers.AskHandler
	solutionHandler      *handlers.SolutionHandler
	investigationHandler *handlers.InvestigationHandler
	chatHandler          *handlers.ChatHandler
	sseHandler           *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	askHandler *handlers.AskHandler,
	solutionHandler *handlers.SolutionHandler,
	investigationHandler *handlers.InvestigationHandler,
	chatHandler *handlers.ChatHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		askHandler:           askHandler,
		solutionHandler:      solutionHandler,
		investigationHandler: investigationHandler,
		chatHandler:          chatHandler,
		sseHandler:           sseHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Question endpoints
	r.mux.HandleFunc("POST /api/ask", r.askHandler.Ask)
	r.mux.HandleFunc("POST /api/chat", r.chatHandler.Chat)
	r.mux.HandleFunc("GET /api/questions", r.solutionHandler.ListQuestions)

	// Investigation endpoints
	r.mux.HandleFunc("POST /api/investigate", r.investigationHandler.Investigate)
	r.mux.HandleFunc("GET /api/solutions/{id}/status", r.sseHandler.StreamSolutionStatus)

	// Solution endpoints
	r.mux.HandleFunc("POST /api/solutions", r.solutionHandler.Create)
	r.mux.HandleFunc("GET /api/solutions", r.solutionHandler.List)
	r.mux.HandleFunc("GET /api/solutions/recent", r.solutionHandler.ListRecent)
	r.mux.HandleFunc("GET /api/solutions/{id}", r.solutionHandler.GetByID)
	r.mux.HandleFunc("POST /api/solutions/{id}/verify", r.solutionHandler.Verify)
	r.mux.HandleFunc("DELETE /api/solutions/{id}", r.solutionHandler.Delete)
	r.mux.HandleFunc("GET /api/solutions/{id}/inventory", r.solutionHandler.GetInventory)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
