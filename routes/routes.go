package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/Dosada05/hoops-predictor/handlers"
	"github.com/Dosada05/hoops-predictor/middleware"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Tournament  *handlers.TournamentHandler
	Game        *handlers.GameHandler
	Leaderboard *handlers.LeaderboardHandler
	Chat        *handlers.ChatHandler
	AdminUser   *handlers.AdminUserHandler
	Health      *handlers.HealthHandler
}

type Options struct {
	Tokens         *middleware.TokenManager
	Users          middleware.UserLookup
	CORSOrigins    []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(requestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.Tokens)
	requireAdmin := middleware.RequireAdmin(opts.Users, opts.Logger)

	// Долгоживущее соединение, поэтому без Timeout
	router.Get("/ws/chat", h.Chat.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(opts.RequestTimeout))

		r.Get("/health", h.Health.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Get("/verify", h.Auth.VerifyEmail)
		})

		r.With(authenticate).Get("/users/me", h.User.Me)
		r.With(authenticate).Patch("/users/me", h.User.UpdateMe)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListHandler)
			r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
			r.Get("/{tournamentID}/games", h.Tournament.GamesHandler)
		})

		r.Route("/games", func(r chi.Router) {
			r.With(middleware.OptionalAuth(opts.Tokens)).Get("/upcoming", h.Game.UpcomingHandler)
			r.Get("/{gameID}", h.Game.GetByIDHandler)
			r.Get("/{gameID}/guesses", h.Game.GuessesHandler)
			r.With(authenticate).Post("/{gameID}/guess", h.Game.SubmitGuessHandler)
		})

		r.Route("/leaderboards", func(r chi.Router) {
			r.Get("/tournament/{tournamentID}", h.Leaderboard.TournamentHandler)
			r.Get("/all-time", h.Leaderboard.AllTimeHandler)
		})

		r.Get("/chat/history", h.Chat.HistoryHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(requireAdmin)

			r.Route("/tournaments", func(r chi.Router) {
				r.Get("/", h.Tournament.AdminListHandler)
				r.Post("/", h.Tournament.CreateHandler)
				r.Patch("/{tournamentID}", h.Tournament.UpdateHandler)
				r.Delete("/{tournamentID}", h.Tournament.DeleteHandler)
				r.Post("/{tournamentID}/finish", h.Tournament.FinishHandler)
			})

			r.Route("/games", func(r chi.Router) {
				r.Post("/", h.Game.CreateHandler)
				r.Patch("/{gameID}", h.Game.UpdateHandler)
				r.Delete("/{gameID}", h.Game.DeleteHandler)
				r.Post("/{gameID}/lock", h.Game.LockHandler)
				r.Post("/{gameID}/finish", h.Game.FinishHandler)
				r.Post("/{gameID}/correct", h.Game.CorrectHandler)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.AdminUser.ListUsers)
				r.Patch("/{userID}", h.AdminUser.UpdateAccess)
			})
		})
	})
}

// requestLogger пишет одну строку slog на запрос
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
