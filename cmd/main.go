package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "home_energy_dashboard/docs"
	"home_energy_dashboard/internal/cache"
	"home_energy_dashboard/internal/config"
	"home_energy_dashboard/internal/dashboard"
	"home_energy_dashboard/internal/handlers"
	"home_energy_dashboard/internal/logger"
	"home_energy_dashboard/internal/mqtt"
	"home_energy_dashboard/internal/repository"
	repodb "home_energy_dashboard/internal/repository/db"
	"home_energy_dashboard/internal/server"
	"home_energy_dashboard/internal/service"
	"home_energy_dashboard/internal/upstream"

	"github.com/spf13/viper"
)

const (
	mountRetry      = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title                       Home Energy Dashboard API
// @version                     1.0
// @description                 Dashboard backend for the home energy system: live devices, widgets, chart, layout and settings.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config.yml + env
	cfg, err := config.Load(viper.New())
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open DB
	db, err := repodb.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer closeDB(db, log)

	repos := repository.NewRepository(db)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	if err != nil {
		log.Fatalw("invalid upstream config", "err", err)
	}
	if cfg.Upstream.Username != "" {
		if err := client.Login(ctx, cfg.Upstream.Username, cfg.Upstream.Password); err != nil {
			// the dashboard mount retries; requests fail with 401 until the backend accepts us
			log.Errorw("upstream login failed", "err", err, "base_url", cfg.Upstream.BaseURL)
		}
	}

	deps := dashboard.Deps{
		Backend:  client,
		Registry: dashboard.NewRegistry(client, repos.LayoutRepo, cfg.Dashboard.DashboardID, log),
		Sources:  eventSources(client, cfg, log),
		Recorder: repos.EventRepo,
		Log:      log,
	}
	if stateCache := openCache(ctx, cfg, log); stateCache != nil {
		defer func() { _ = stateCache.Close() }()
		deps.Cache = stateCache
	}

	ctrl := dashboard.NewController(deps, dashboard.Options{
		DashboardID:       cfg.Dashboard.DashboardID,
		PollInterval:      cfg.Dashboard.PollInterval,
		TelemetryInterval: cfg.Dashboard.TelemetryInterval,
		ChartSlots:        cfg.Chart.Slots,
		Location:          time.Local,
	})

	// wire dependencies
	services := service.NewService(service.Deps{
		Repos:      repos,
		Backend:    client,
		Controller: ctrl,
		Auth:       service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Log:        log,
	})
	apiHandler := handlers.NewHandler(services, log)

	go services.Run(ctx, mountRetry)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, ctrl.Hub(), log)
}

// eventSources returns the push feeds merged into the device store. The backend
// websocket is always on; MQTT joins when a broker is configured.
func eventSources(client *upstream.Client, cfg config.Config, log *logger.Logger) []dashboard.EventSource {
	sources := []dashboard.EventSource{upstream.NewEventStream(client, cfg.Upstream.EventsPath, log)}
	if cfg.MQTT.Broker != "" {
		sources = append(sources, mqtt.NewSubscriber(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic, log))
		log.Infow("mqtt event source enabled", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
	}
	return sources
}

// openCache connects the redis state cache. Failure disables it; the dashboard runs without.
func openCache(ctx context.Context, cfg config.Config, log *logger.Logger) *cache.RedisStateCache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	c, err := cache.NewRedisStateCache(ctx, cfg.Redis.Addr, cfg.Redis.TTL)
	if err != nil {
		log.Errorw("redis state cache disabled", "err", err, "addr", cfg.Redis.Addr)
		return nil
	}
	log.Infow("redis state cache enabled", "addr", cfg.Redis.Addr)
	return c
}

func closeDB(db *sql.DB, log *logger.Logger) {
	if err := db.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, hub *dashboard.Hub, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop poller, sources and the mount loop
	cancel()
	// release websocket clients so Shutdown does not wait on them
	hub.Close()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
