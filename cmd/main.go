package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/hoops-predictor/chat"
	"github.com/Dosada05/hoops-predictor/config"
	"github.com/Dosada05/hoops-predictor/db"
	"github.com/Dosada05/hoops-predictor/events"
	"github.com/Dosada05/hoops-predictor/handlers"
	"github.com/Dosada05/hoops-predictor/middleware"
	"github.com/Dosada05/hoops-predictor/ratelimit"
	"github.com/Dosada05/hoops-predictor/repositories"
	api "github.com/Dosada05/hoops-predictor/routes"
	"github.com/Dosada05/hoops-predictor/services"
	"github.com/Dosada05/hoops-predictor/storage"
)

const (
	shutdownTimeout = 15 * time.Second
	requestTimeout  = 30 * time.Second
	chatSendEvery   = time.Second
	chatSendBurst   = 1
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("database ready")

	// Архив итоговых таблиц (Cloudflare R2)
	var store storage.ObjectStore = storage.Noop{}
	if cfg.R2Enabled() {
		store, err = storage.NewR2Store(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize R2 store: %w", err)
		}
		logger.Info("R2 snapshot store initialized", slog.String("bucket", cfg.R2BucketName))
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP broker: %w", err)
		}
		publisher = amqpPublisher
		logger.Info("AMQP event publisher initialized", slog.String("exchange", cfg.AMQPExchange))
	}
	defer publisher.Close()

	var mailer services.Mailer
	if cfg.SMTPHost != "" {
		mailer = services.NewSMTPMailer(services.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			User:      cfg.SMTPUser,
			Pass:      cfg.SMTPPass,
			From:      cfg.SMTPFrom,
			PublicURL: cfg.PublicURL,
		})
	} else {
		mailer = services.NewLogMailer(cfg.PublicURL, logger)
	}

	// Инициализация репозиториев
	tx := repositories.NewSQLTransactor(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	guessRepo := repositories.NewPostgresGuessRepository(dbConn)
	scoreRepo := repositories.NewPostgresTournamentScoreRepository(dbConn)
	chatRepo := repositories.NewPostgresChatMessageRepository(dbConn)

	hub := chat.NewHub(logger)
	chatLimiter := ratelimit.NewKeyed(chatSendEvery, chatSendBurst)

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, mailer, logger)
	userService := services.NewUserService(userRepo, scoreRepo)
	adminUserService := services.NewAdminUserService(userRepo)
	standingsService := services.NewStandingsService(guessRepo, scoreRepo, tournamentRepo)
	gameService := services.NewGameService(tx, gameRepo, guessRepo, tournamentRepo, standingsService, publisher, cfg.GameLockLead, logger)
	guessService := services.NewGuessService(guessRepo, gameRepo, userRepo, cfg.GameLockLead)
	tournamentService := services.NewTournamentService(tx, tournamentRepo, standingsService, store, publisher, logger)
	chatService := services.NewChatService(chatRepo, userRepo, hub, chatLimiter, services.ChatHistoryLimits{
		Default: cfg.ChatHistoryLimit,
		Max:     cfg.ChatHistoryMax,
	})

	scheduler, err := services.NewScheduler(gameService, chatLimiter, logger)
	if err != nil {
		return err
	}

	tokens := middleware.NewTokenManager(cfg.JWTSecretKey, cfg.JWTTTL)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, tokens),
		User:        handlers.NewUserHandler(userService),
		Tournament:  handlers.NewTournamentHandler(tournamentService, gameService),
		Game:        handlers.NewGameHandler(gameService, guessService),
		Leaderboard: handlers.NewLeaderboardHandler(standingsService),
		Chat:        handlers.NewChatHandler(chatService, hub, tokens, cfg.CORSOrigins, logger),
		AdminUser:   handlers.NewAdminUserHandler(adminUserService),
		Health:      handlers.NewHealthHandler(dbConn),
	}, api.Options{
		Tokens:         tokens,
		Users:          userService,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: requestTimeout,
		Logger:         logger,
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			return server.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("application exited")
	return nil
}
