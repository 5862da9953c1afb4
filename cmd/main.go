package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boilermon/internal/alerts"
	"boilermon/internal/cache"
	"boilermon/internal/handlers"
	"boilermon/internal/logger"
	"boilermon/internal/mqtt"
	"boilermon/internal/repository"
	"boilermon/internal/server"
	"boilermon/internal/service"
	"boilermon/internal/timeseries"
	"boilermon/internal/ws"

	"github.com/spf13/viper"
)

func main() {
	// load config.yml first so the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(viper.GetString("log.level"))

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// single process-wide cache client, shared by every service
	store := openCache(log)
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Errorw("failed to close cache store", "err", cerr)
		}
	}()

	// durable time-series store
	ts := openTimeseries(log)
	defer ts.Close()

	// wire dependencies
	repos := repository.NewRepository(db)
	queue := alerts.NewQueue(store)
	services := service.NewService(repos, store, ts, queue, log)

	hub := ws.NewHub(log)
	apiHandler := handlers.NewHandler(services, hub, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// websocket fan-out plus the alert consumer feeding it
	go hub.Run(ctx)
	consumer := alerts.NewConsumer(queue, hub, log)
	go consumer.Run(ctx)

	// optional MQTT telemetry path
	ingestor := startMQTT(services, log)
	if ingestor != nil {
		defer ingestor.Stop()
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "boilermon.db")
		dbPath = "boilermon.db"
	}
	return repository.InitDB(dbPath)
}

// openCache selects the cache backend. Redis is the production choice;
// the in-memory store keeps local development free of external services.
func openCache(log *logger.Logger) cache.Store {
	backend := viper.GetString("cache.backend")
	if backend != "redis" {
		log.Infow("using in-memory cache store", "backend", backend)
		return cache.NewMemory()
	}

	addr := viper.GetString("cache.redis.addr")
	if addr == "" {
		addr = "localhost:6379"
	}
	r := cache.NewRedis(addr, viper.GetInt("cache.redis.db"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		log.Fatalw("redis unreachable", "addr", addr, "err", err)
	}
	log.Infow("connected to redis", "addr", addr)
	return r
}

// openTimeseries builds the InfluxDB store, or a no-op store when no URL
// is configured. Readings then live only in the cache.
func openTimeseries(log *logger.Logger) timeseries.Store {
	url := viper.GetString("influx.url")
	if url == "" {
		log.Infow("influx.url not set; durable time-series storage disabled")
		return timeseries.Noop{}
	}
	return timeseries.NewInflux(timeseries.Config{
		URL:    url,
		Token:  viper.GetString("influx.token"),
		Org:    viper.GetString("influx.org"),
		Bucket: viper.GetString("influx.bucket"),
	})
}

// startMQTT connects the telemetry subscriber when enabled in config.
func startMQTT(services *service.Service, log *logger.Logger) *mqtt.Ingestor {
	if !viper.GetBool("mqtt.enabled") {
		return nil
	}
	ingestor := mqtt.NewIngestor(mqtt.Config{
		BrokerURL: viper.GetString("mqtt.broker_url"),
		ClientID:  viper.GetString("mqtt.client_id"),
		Topic:     viper.GetString("mqtt.topic"),
		Username:  viper.GetString("mqtt.username"),
		Password:  viper.GetString("mqtt.password"),
	}, services.Validator, services.Ingestor, log)
	if err := ingestor.Start(); err != nil {
		log.Fatalw("mqtt connect failed", "err", err)
	}
	return ingestor
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
