package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"kalshinews/internal/cache"
	"kalshinews/internal/client/kalshi"
	"kalshinews/internal/config"
	cronrunner "kalshinews/internal/cron"
	"kalshinews/internal/db"
	"kalshinews/internal/embed"
	"kalshinews/internal/handler"
	"kalshinews/internal/logger"
	"kalshinews/internal/news"
	gormrepository "kalshinews/internal/repository/gorm"
	"kalshinews/internal/service"

	_ "kalshinews/docs"
)

func main() {
	cfgPath := os.Getenv("KN_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("KN_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	kalshiHTTP := &http.Client{Timeout: cfg.Kalshi.Timeout}
	kalshiClient := kalshi.NewClient(kalshiHTTP, cfg.Kalshi.BaseURL, cfg.Kalshi.APIKey, logger)

	var newsSource service.NewsSource
	if cfg.News.Enabled {
		newsHTTP := &http.Client{Timeout: cfg.News.Timeout}
		newsSource = news.NewFetcher(newsFeeds(cfg.News), newsHTTP, logger)
	}

	var embedder embed.Embedder
	if cfg.Embed.Enabled {
		embedder, err = embed.NewOpenAIEmbedder(embed.Config{
			BaseURL: cfg.Embed.BaseURL,
			Model:   cfg.Embed.Model,
			Token:   cfg.Embed.Token,
		}, logger)
		if err != nil {
			logger.Warn("embedder init failed, matching falls back to keywords", zap.Error(err))
			embedder = nil
		}
	}

	store := gormrepository.New(dbConn.Gorm)
	ingestService := &service.IngestService{
		Store:      store,
		Source:     kalshiClient,
		News:       newsSource,
		Embedder:   embedder,
		Logger:     logger,
		MaxMarkets: cfg.Ingest.MaxMarkets,
		MaxEvents:  cfg.Ingest.MaxEvents,
		NeighborK:  cfg.Ingest.NeighborK,
		Retention:  cfg.Retention.UnlinkedArticles,
	}
	queryService := &service.QueryService{
		Store:  store,
		Cache:  cache.New(cfg.Cache.TTL),
		Logger: logger,
		TTL:    cfg.Cache.TTL,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	marketHandler := &handler.MarketHandler{Query: queryService, Logger: logger}
	marketHandler.Register(engine)
	ingestHandler := &handler.IngestHandler{Ingest: ingestService, Query: queryService, Logger: logger}
	ingestHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runIngest := func(ctx context.Context) {
		result, err := ingestService.Run(ctx)
		if err != nil {
			logger.Warn("ingestion cycle failed", zap.Error(err))
			return
		}
		queryService.Refresh()
		logger.Info("ingestion cycle ok",
			zap.Int("events", result.Events),
			zap.Int("markets", result.Markets),
			zap.Int("articles", result.Articles),
			zap.Int("links", result.Links),
		)
	}

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		if _, err := cronRunner.Add(cfg.Cron.Ingest, runIngest); err != nil {
			logger.Warn("cron register ingest failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	// One pass before serving so the first request sees fresh data.
	if cfg.Ingest.RunOnBoot {
		go runIngest(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// newsFeeds parses "Source|URL" overrides, falling back to the built-in
// catalog when none are configured.
func newsFeeds(cfg config.NewsConfig) []news.Feed {
	if len(cfg.Feeds) == 0 {
		return news.DefaultFeeds()
	}
	feeds := make([]news.Feed, 0, len(cfg.Feeds))
	for _, raw := range cfg.Feeds {
		parts := strings.SplitN(raw, "|", 2)
		if len(parts) != 2 {
			continue
		}
		source := strings.TrimSpace(parts[0])
		url := strings.TrimSpace(parts[1])
		if source == "" || url == "" {
			continue
		}
		feeds = append(feeds, news.Feed{Source: source, URL: url})
	}
	if len(feeds) == 0 {
		return news.DefaultFeeds()
	}
	return feeds
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
