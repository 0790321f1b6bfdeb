package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comictalk/infrastructure/cache"
	"comictalk/infrastructure/db"
	"comictalk/infrastructure/mail"
	"comictalk/infrastructure/ws"
	"comictalk/internal/config"
	httpHandler "comictalk/internal/delivery/http"
	"comictalk/internal/delivery/websocket"
	"comictalk/internal/metrics"
	"comictalk/internal/repository"
	"comictalk/internal/usecase"
	"comictalk/pkg/jwt"
	"comictalk/pkg/logger"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	for _, warning := range cfg.Warnings {
		log.Warn().Msg(warning)
	}
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

type stores struct {
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	ping        httpHandler.HealthCheck
	close       func()
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.UsingDefaultSecret() {
		log.Warn().Msg("using default JWT secret; set JWT_SECRET for anything but local development")
	}
	jwtManager := jwt.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	var mailer mail.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		mailer = mail.NewLogMailer(log)
	}

	memCache := cache.NewMemCache(time.Minute)
	defer memCache.Close()

	var limiter cache.Limiter
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		limiter = cache.NewRedisLimiter(redisClient, cfg.HTTPRateLimit, cfg.HTTPRateWindow)
		log.Info().Msg("connected to Redis")
	} else {
		limiter = cache.NewMemLimiter(memCache, cfg.HTTPRateLimit, cfg.HTTPRateWindow)
	}

	// Initialize use cases
	userUc := usecase.NewUserUseCase(st.userRepo, memCache, log)
	messageUc := usecase.NewMessageUseCase(st.messageRepo, userUc, log)
	authUc := usecase.NewAuthUsecase(st.userRepo, jwtManager, mailer, log)

	hub := ws.NewHub(log)
	hub.SetOnDrop(func(int64) {
		metrics.DroppedDeliveries.Inc()
	})
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	websocketH := websocket.NewWebsocketHandler(hub, authUc, userUc, messageUc, websocket.HandlerConfig{
		AllowedOrigins: cfg.Websocket.AllowedOrigins,
		Client: ws.ClientConfig{
			MaxMessageSize:    cfg.Websocket.MaxMessageSize,
			RateLimitBurst:    cfg.Websocket.RateLimitBurst,
			RateLimitInterval: cfg.Websocket.RateLimitInterval,
		},
	}, log)
	httpH := httpHandler.NewHttpHandler(messageUc, userUc, hub, st.ping, log)
	authH := httpHandler.NewAuthHandler(authUc, userUc)
	authMiddleware := httpHandler.NewAuthMiddleware(authUc, userUc, log)

	router := httpHandler.NewRouter(log, cfg.Websocket.AllowedOrigins)
	httpHandler.MapHttpRoutes(router, httpH, websocketH, authH, authMiddleware, limiter, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("db_driver", cfg.DBDriver).
			Msg("starting comictalk server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	select {
	case <-hubDone:
	case <-shutdownCtx.Done():
	}

	log.Info().Msg("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.DBDriver {
	case "mongo":
		mongoDb, err := db.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := mongoDb.EnsureIndexes(ctx); err != nil {
			_ = mongoDb.Close(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

		return &stores{
			userRepo:    repository.NewUserRepository(*mongoDb.DB),
			messageRepo: repository.NewMessageRepository(*mongoDb.DB),
			ping:        mongoDb.Ping,
			close: func() {
				if err := mongoDb.Close(context.Background()); err != nil {
					log.Warn().Err(err).Msg("close MongoDB")
				}
			},
		}, nil

	default:
		sqlStore, err := db.NewSQLStore(ctx, cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", cfg.DBDriver).Msg("connected to SQL database")

		return &stores{
			userRepo:    repository.NewGormUserRepository(sqlStore.DB),
			messageRepo: repository.NewGormMessageRepository(sqlStore.DB),
			ping:        sqlStore.Ping,
			close: func() {
				if err := sqlStore.Close(); err != nil {
					log.Warn().Err(err).Msg("close SQL database")
				}
			},
		}, nil
	}
}
