package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"seekmark/internal/channel"
	"seekmark/internal/config"
	"seekmark/internal/domain"
	"seekmark/internal/engine"
	"seekmark/internal/httpserver"
	"seekmark/internal/httpserver/deps"
	"seekmark/internal/logger"
	"seekmark/internal/redis"
	"seekmark/internal/relay"
	"seekmark/internal/sources/sitefile"
	redisstore "seekmark/internal/store/redis"
	"seekmark/internal/surface/page"
	"seekmark/internal/version"
)

// navEventBuffer absorbs bursts of navigation reports from browser clients.
const navEventBuffer = 64

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	relay       *relay.Relay
	router      *channel.Router
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Tracked sites: the built-in YouTube pattern unless a sites file overrides it.
	sites := []domain.Site{domain.DefaultSite()}
	if cfg.SitesFile != "" {
		loaded, err := sitefile.NewLoader(cfg.SitesFile).Load()
		if err != nil {
			loggerClient.Errorf("Failed to load sites file: %v", err)
			os.Exit(1)
		}
		sites = loaded
		loggerClient.Info("tracked sites loaded",
			logger.String("file", cfg.SitesFile),
			logger.Int("count", len(sites)))
	}

	records := redisstore.NewStore(redisClient, loggerClient)
	eng := engine.New(records, loggerClient)

	busRouter := channel.NewRouter()
	navEvents := make(chan relay.NavEvent, navEventBuffer)
	rly := relay.New(sites, busRouter, navEvents, loggerClient)

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		TimeNow:   time.Now,
		Sites:     sites,
		Records:   records,
		Engine:    eng,
		Router:    busRouter,
		NavEvents: navEvents,
		PageConfig: page.Config{
			ControlRetryAttempts: cfg.ControlRetryAttempts,
			ControlRetryDelay:    cfg.ControlRetryDelay,
			PollPeriod:           cfg.PollPeriod,
			FlashDuration:        cfg.FlashDuration,
		},
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		relay:       rly,
		router:      busRouter,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Seekmark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Seekmark %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.relay.Start(ctx)
	a.logger.Info("navigation relay started")

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.relay.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Seekmark stopped cleanly")
	return nil
}
