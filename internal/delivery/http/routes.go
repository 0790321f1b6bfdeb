package http

import (
	"net/http"

	"comictalk/infrastructure/cache"
	wsDelivery "comictalk/internal/delivery/websocket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter builds the router with the shared middleware stack.
func NewRouter(log zerolog.Logger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	return r
}

func MapHttpRoutes(
	r *chi.Mux,
	httpHandler *HttpHandler,
	websocketHandler *wsDelivery.WebsocketHandler,
	authHandler *AuthHandler,
	authMiddleware *AuthMiddleware,
	limiter cache.Limiter,
	log zerolog.Logger,
) {
	r.Get("/health", httpHandler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", http.HandlerFunc(websocketHandler.HandleWebSocket))

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimit(limiter, log))
		}

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Get("/me", authHandler.Me)
			})
		})

		// Chat routes
		r.Route("/chat", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/messages/{userId}", httpHandler.GetMessages)
			r.Get("/conversations", httpHandler.GetConversations)
			r.Post("/send", httpHandler.SendMessage)
			r.Put("/mark-read/{senderId}", httpHandler.MarkRead)
			r.Get("/online-users", httpHandler.OnlineUsers)
		})

		// Profile routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/users/{userId}", httpHandler.GetUser)
			r.Get("/profile", httpHandler.GetProfile)
			r.Put("/profile", httpHandler.UpdateProfile)
		})
	})
}
