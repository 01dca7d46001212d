package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/isdelr/bookfeed-be/internal/api/handlers"
	"github.com/isdelr/bookfeed-be/internal/auth"
	"github.com/isdelr/bookfeed-be/internal/logger"
	"github.com/isdelr/bookfeed-be/internal/services"
	"github.com/isdelr/bookfeed-be/internal/websocket"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Tokens *auth.Manager
	Users  services.UserServiceProvider
	Books  services.BookServiceProvider
	Feed   services.FeedServiceProvider
	Events services.EventServiceProvider
	Hub    *websocket.Hub
	Store  handlers.Pinger

	CORSAllowedOrigins []string
	// LoginRatePerMinute throttles POST /login per client IP; 0 disables it.
	LoginRatePerMinute int
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(PeerAddr)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.Users)
	bookHandler := handlers.NewBookHandler(deps.Books)
	feedHandler := handlers.NewFeedHandler(deps.Feed)
	eventHandler := handlers.NewEventHandler(deps.Events)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.CORSAllowedOrigins)
	healthHandler := handlers.NewHealthHandler(deps.Store)

	r.Get("/health", healthHandler.Get)
	r.Get("/api-docs/openapi.yaml", handlers.OpenAPI)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.LoginRatePerMinute > 0 {
				r.Use(NewIPRateLimiter(deps.LoginRatePerMinute).Middleware)
			}
			r.Post("/login", authHandler.Login)
		})

		// WebSocket connection endpoint; browsers pass the token as a query parameter.
		r.With(auth.WebSocketJWTMiddleware(deps.Tokens, handlers.WriteError)).Get("/ws", wsHandler.Serve)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware(deps.Tokens, handlers.WriteError))

			r.Route("/books", func(r chi.Router) {
				r.Get("/", bookHandler.GetAll)
				r.Post("/", bookHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", bookHandler.Get)
					r.Put("/", bookHandler.Update)
					r.Patch("/", bookHandler.Update)
					r.Delete("/", bookHandler.Delete)
				})
			})

			r.Get("/feed", feedHandler.Get)
			r.Get("/events", eventHandler.GetRecent)
		})
	})

	return r
}
