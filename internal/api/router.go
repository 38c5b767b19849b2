package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/artchat/artchat/internal/api/handler"
	"github.com/artchat/artchat/internal/api/middleware"
	"github.com/artchat/artchat/internal/chat"
	"github.com/artchat/artchat/internal/config"
	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/repository/redis"
	"github.com/artchat/artchat/internal/security"
	"github.com/artchat/artchat/internal/service"
)

// Deps bundles the storage backends the router wires together. Redis is
// optional; when nil the rate limiter and history cache are skipped.
type Deps struct {
	Users    domain.UserRepository
	Messages domain.MessageRepository
	Friends  domain.FriendRepository
	DB       handler.Pinger
	Redis    *redis.Client
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Optional Redis-backed pieces
	var historyCache *redis.HistoryCache
	var rateLimiter *redis.RateLimiter
	if deps.Redis != nil {
		historyCache = redis.NewHistoryCache(deps.Redis, cfg.Chat.HistoryCacheTTL)
		rateLimiter = redis.NewRateLimiter(
			deps.Redis,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
	}

	// Realtime plumbing. The chat service doubles as the socket message
	// store so both send paths share persistence and cache invalidation.
	registry := chat.NewRegistry()
	broadcaster := chat.NewBroadcaster(registry)

	chatService := service.NewChatService(deps.Messages, deps.Users, broadcaster, historyCache, cfg.Chat.DefaultRoom, cfg.Chat.HistoryLimit)
	core := chat.NewCore(registry, broadcaster, deps.Users, chatService, cfg.Chat.DefaultRoom)

	authService := service.NewAuthService(deps.Users, jwtManager)
	userService := service.NewUserService(deps.Users)
	friendService := service.NewFriendService(deps.Friends, deps.Users)

	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(userService)
	chatHandler := handler.NewChatHandler(chatService, userService)
	friendHandler := handler.NewFriendHandler(friendService)
	uploadHandler := handler.NewUploadHandler(userService, cfg.Chat.UploadDir, cfg.Chat.MaxUploadBytes)
	socketHandler := handler.NewSocketHandler(core, jwtManager, cfg.Chat.WebSocket)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// Websocket endpoint. Authenticates via token query param or header.
	r.Get("/ws", socketHandler.Serve)

	// Uploaded avatars and drawings
	fileServer := http.FileServer(http.Dir(cfg.Chat.UploadDir))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.DB))

		// Auth routes (public)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/guest", authHandler.Guest)
		r.Post("/auth/refresh", authHandler.Refresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			if rateLimiter != nil {
				r.Use(middleware.NewRateLimitMiddleware(rateLimiter).Limit)
			}

			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.Get)
				r.Put("/", profileHandler.Update)
				r.Put("/password", profileHandler.ChangePassword)
				r.Post("/avatar", uploadHandler.UploadAvatar)
			})
			r.Post("/change-password", profileHandler.ChangePassword)

			r.Route("/chat", func(r chi.Router) {
				r.Get("/global/messages", chatHandler.History)
				r.Get("/{room}/messages", chatHandler.History)
				r.Post("/send", chatHandler.Send)
			})

			r.Get("/users/online", chatHandler.OnlineUsers)

			r.Route("/friends", func(r chi.Router) {
				r.Get("/", friendHandler.List)
				r.Post("/add/{friendID}", friendHandler.Add)
				r.Post("/{friendID}/accept", friendHandler.Accept)
			})
		})
	})

	return r
}
