package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"writingway/internal/ai"
	"writingway/internal/config"
	"writingway/internal/database"
	"writingway/internal/handler"
	"writingway/internal/interfaces"
	"writingway/internal/messaging"
	"writingway/internal/realtime"
	"writingway/internal/service"
	"writingway/internal/suggestions"
	"writingway/pkg/logger"
	"writingway/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "writingway",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	zap.ReplaceGlobals(appLogger)

	appLogger.Info("Starting WritingWay server...",
		zap.String("env", cfg.Env),
		zap.String("port", cfg.ServerPort),
	)

	ctx := context.Background()

	dbPool, err := setupPostgres(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()

	if cfg.RunMigrations {
		if err := database.ApplyMigrations(ctx, dbPool, appLogger); err != nil {
			appLogger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := setupRedis(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	publisher, rabbitConn := setupPublisher(ctx, cfg, appLogger)
	if rabbitConn != nil {
		defer rabbitConn.Close()
	}
	defer publisher.Close()

	// --- Репозитории ---
	userRepo := database.NewPgUserRepository(dbPool, appLogger)
	projectRepo := database.NewPgProjectRepository(dbPool, appLogger)
	documentRepo := database.NewPgDocumentRepository(dbPool, appLogger)
	compendiumRepo := database.NewPgCompendiumRepository(dbPool, appLogger)
	settingsRepo := database.NewPgSettingsRepository(dbPool, appLogger)
	conversationRepo := database.NewPgConversationRepository(dbPool, appLogger)
	tokenRepo := database.NewRedisTokenRepository(redisClient, appLogger)
	suggestionHistory := database.NewRedisSuggestionHistory(redisClient, cfg.Realtime.HistoryTTL, appLogger)

	// --- AI ---
	router := setupAIRouter(cfg, appLogger)
	engine := suggestions.NewEngine(router, suggestionHistory, suggestions.Config{
		Timeout:     cfg.Realtime.SuggestionTimeout,
		MaxTokens:   cfg.Realtime.SuggestionMaxTokens,
		Temperature: cfg.AI.Temperature,
	}, appLogger)

	// --- Сервисы ---
	authService := service.NewAuthService(userRepo, tokenRepo, settingsRepo, service.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		PasswordPepper:  cfg.PasswordPepper,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}, appLogger)
	projectService := service.NewProjectService(projectRepo, publisher, appLogger)
	documentService := service.NewDocumentService(documentRepo, projectRepo, compendiumRepo, publisher, appLogger)
	compendiumService := service.NewCompendiumService(compendiumRepo, projectRepo, appLogger)
	settingsService := service.NewSettingsService(settingsRepo, appLogger)
	assistantService := service.NewAssistantService(router, userRepo, projectRepo, documentRepo, compendiumRepo, conversationRepo,
		service.AssistantConfig{
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
		}, appLogger)
	guestService := service.NewGuestService(assistantService, appLogger)
	exportService := service.NewExportService(projectRepo, documentRepo, compendiumRepo, appLogger)

	wsServer := realtime.NewServer(authService, documentService, engine, realtime.Config{
		AutosaveDebounce:   cfg.Realtime.AutosaveDebounce,
		SuggestionThrottle: cfg.Realtime.SuggestionThrottle,
		AllowedOrigins:     cfg.GetAllowedOrigins(),
	}, appLogger)

	handler.SetupValidator()
	h := handler.NewHandler(handler.Deps{
		Auth:       authService,
		Projects:   projectService,
		Documents:  documentService,
		Compendium: compendiumService,
		Settings:   settingsService,
		Assistant:  assistantService,
		Guest:      guestService,
		Export:     exportService,
		Suggester:  engine,
		AIStatus:   router,
		WebSocket:  wsServer.ServeWS,
		Logger:     appLogger,
	})

	// --- Rate limiting ---
	limiters := handler.Limiters{
		Auth:     handler.NewRedisRateLimiter(redisClient, handler.RateGroupAuth, cfg.AuthRateLimit),
		Guest:    handler.NewRedisRateLimiter(redisClient, handler.RateGroupGuest, cfg.GuestRateLimit),
		Realtime: handler.NewRedisRateLimiter(redisClient, handler.RateGroupRealtime, cfg.RealtimeRateLimit),
	}

	// --- Gin ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	engineHTTP := gin.New()
	engineHTTP.RedirectTrailingSlash = true
	engineHTTP.Use(middleware.GinZapLogger(appLogger))
	engineHTTP.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	engineHTTP.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	engineHTTP.GET("/health", healthHandler)
	engineHTTP.HEAD("/health", healthHandler)

	h.RegisterRoutes(engineHTTP, limiters)
	p.Use(engineHTTP)

	// ответ AI и SSE-стрим держат соединение дольше обычного запроса
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      engineHTTP,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	// http.Server не закрывает соединения после апгрейда до websocket;
	// сессиям нужно время сохранить несохранённые правки
	wsCtx, wsCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer wsCancel()
	if err := wsServer.Shutdown(wsCtx); err != nil {
		appLogger.Warn("Realtime sessions did not finish before shutdown timeout", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

func setupPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	retries := cfg.DBConnRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for i := 1; i <= retries; i++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				logger.Info("Connected to PostgreSQL", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		logger.Warn("PostgreSQL is not ready, retrying",
			zap.Int("attempt", i),
			zap.Int("max_attempts", retries),
			zap.Error(err),
		)
		time.Sleep(cfg.DBRetryDelay)
	}
	return nil, fmt.Errorf("postgres unavailable after %d attempts: %w", retries, lastErr)
}

func setupRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	retries := cfg.DBConnRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for i := 1; i <= retries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
			return client, nil
		}
		logger.Warn("Redis is not ready, retrying",
			zap.Int("attempt", i),
			zap.Int("max_attempts", retries),
			zap.Error(lastErr),
		)
		time.Sleep(cfg.DBRetryDelay)
	}
	_ = client.Close()
	return nil, fmt.Errorf("redis unavailable after %d attempts: %w", retries, lastErr)
}

// setupPublisher подключает RabbitMQ, если он настроен. Без брокера события
// отбрасываются, приложение продолжает работать.
func setupPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.EventPublisher, *amqp.Connection) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL is empty, domain events are disabled")
		return messaging.NewNoopPublisher(logger), nil
	}

	conn, err := messaging.Connect(ctx, cfg.RabbitMQURL, 5, 3*time.Second, logger)
	if err != nil {
		logger.Error("RabbitMQ unavailable, domain events are disabled", zap.Error(err))
		return messaging.NewNoopPublisher(logger), nil
	}
	go func() {
		if closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1)); closeErr != nil {
			logger.Error("RabbitMQ connection closed", zap.Error(closeErr))
		}
	}()

	publisher, err := messaging.NewRabbitEventPublisher(conn, cfg.EventsQueue, logger)
	if err != nil {
		logger.Error("Failed to create event publisher, domain events are disabled", zap.Error(err))
		_ = conn.Close()
		return messaging.NewNoopPublisher(logger), nil
	}
	logger.Info("Domain events are published to RabbitMQ", zap.String("queue", cfg.EventsQueue))
	return publisher, conn
}

func setupAIRouter(cfg *config.Config, logger *zap.Logger) *ai.Router {
	var openaiProvider ai.Provider
	if cfg.AI.OpenAIAPIKey != "" {
		openaiProvider = ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:  cfg.AI.OpenAIAPIKey,
			BaseURL: cfg.AI.OpenAIBaseURL,
			Model:   cfg.AI.OpenAIModel,
			Timeout: cfg.AI.Timeout,
		}, logger)
	}

	var geminiProvider *ai.GeminiProvider
	if len(cfg.AI.GeminiAPIKeys) > 0 {
		geminiProvider = ai.NewGeminiProvider(ai.GeminiConfig{
			APIKeys:     cfg.AI.GeminiAPIKeys,
			BaseURL:     cfg.AI.GeminiBaseURL,
			Model:       cfg.AI.GeminiModel,
			Timeout:     cfg.AI.Timeout,
			Cooldown:    cfg.AI.QuotaCooldown,
			MaxAttempts: cfg.AI.MaxKeyAttempts,
		}, logger)
	}

	var ollamaProvider ai.Provider
	if cfg.AI.OllamaURL != "" {
		p, err := ai.NewOllamaProvider(ai.OllamaConfig{
			BaseURL: cfg.AI.OllamaURL,
			Model:   cfg.AI.OllamaModel,
			Timeout: cfg.AI.Timeout,
		}, logger)
		if err != nil {
			logger.Error("Failed to create Ollama provider, skipping", zap.Error(err))
		} else {
			ollamaProvider = p
		}
	}

	router := ai.NewRouter(openaiProvider, geminiProvider, ollamaProvider, ai.RouterConfig{
		MaxRetries:    cfg.AI.MaxRetries,
		RetryDelay:    cfg.AI.RetryDelay,
		LongTextChars: cfg.AI.LongTextChars,
	}, logger)
	if !router.HasRealProviders() {
		logger.Warn("No AI providers configured, responses come from the local mock generator")
	}
	return router
}
