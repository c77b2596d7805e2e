package routes

import (
	"net/http"

	"github.com/civicpulse/reporter/backend/internal/api/handlers"
	"github.com/civicpulse/reporter/backend/internal/api/loaders"
	"github.com/civicpulse/reporter/backend/internal/api/middleware"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler        *handlers.AuthHandler
	issueHandler       *handlers.IssueHandler
	engagementHandler  *handlers.EngagementHandler
	moderationHandler  *handlers.ModerationHandler
	geolocationHandler *handlers.GeolocationHandler
	imageHandler       *handlers.ImageHandler

	sessions       middleware.SessionResolver
	users          repositories.UserRepository
	intakeLimiter  *middleware.RateLimiter
	allowedOrigins []string
	metrics        *observability.Metrics
}

// Options carries the non-handler dependencies of the router
type Options struct {
	Sessions       middleware.SessionResolver
	Users          repositories.UserRepository
	IntakeLimiter  *middleware.RateLimiter
	AllowedOrigins []string
	Metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	authHandler *handlers.AuthHandler,
	issueHandler *handlers.IssueHandler,
	engagementHandler *handlers.EngagementHandler,
	moderationHandler *handlers.ModerationHandler,
	geolocationHandler *handlers.GeolocationHandler,
	imageHandler *handlers.ImageHandler,
	opts Options,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		authHandler:        authHandler,
		issueHandler:       issueHandler,
		engagementHandler:  engagementHandler,
		moderationHandler:  moderationHandler,
		geolocationHandler: geolocationHandler,
		imageHandler:       imageHandler,
		sessions:           opts.Sessions,
		users:              opts.Users,
		intakeLimiter:      opts.IntakeLimiter,
		allowedOrigins:     opts.AllowedOrigins,
		metrics:            opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", handlers.Health)

	// Session endpoints
	r.mux.HandleFunc("POST /api/auth/register", r.authHandler.Register)
	r.mux.HandleFunc("POST /api/auth/login", r.authHandler.Login)
	r.mux.HandleFunc("POST /api/auth/logout", r.authHandler.Logout)
	r.mux.HandleFunc("GET /api/auth/session", r.authHandler.Session)

	// Issue endpoints
	createIssue := r.issueHandler.CreateIssue
	if r.intakeLimiter != nil {
		createIssue = r.intakeLimiter.PerUser(createIssue)
	}
	r.mux.HandleFunc("GET /api/issues", r.issueHandler.ListIssues)
	r.mux.HandleFunc("GET /api/issues/search", r.issueHandler.SearchIssues)
	r.mux.HandleFunc("GET /api/issues/{id}", r.issueHandler.GetIssue)
	r.mux.HandleFunc("POST /api/issues", createIssue)

	// Engagement endpoints
	r.mux.HandleFunc("POST /api/issues/{id}/like", r.engagementHandler.ToggleLike)
	r.mux.HandleFunc("GET /api/issues/{id}/comments", r.engagementHandler.ListComments)
	r.mux.HandleFunc("POST /api/issues/{id}/comments", r.engagementHandler.AddComment)

	// Moderation endpoints
	r.mux.HandleFunc("GET /api/admin/issues", r.moderationHandler.Summary)
	r.mux.HandleFunc("PATCH /api/admin/issues/{id}/status", r.moderationHandler.UpdateStatus)

	r.mux.HandleFunc("GET /api/geocode/reverse", r.geolocationHandler.ReverseGeocode)

	if r.imageHandler != nil {
		r.mux.HandleFunc("POST /api/images", r.imageHandler.Upload)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// Observability wraps the mux directly so it sees the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	if r.users != nil {
		handler = loaders.Middleware(r.users)(handler)
	}
	if r.sessions != nil {
		handler = middleware.Authenticate(r.sessions)(handler)
	}

	// CORS wraps everything so preflight requests never reach auth
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
