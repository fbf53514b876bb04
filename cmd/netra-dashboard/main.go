package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MitaksharaYadav/NetraAI/internal/config"
	"github.com/MitaksharaYadav/NetraAI/internal/database"
	"github.com/MitaksharaYadav/NetraAI/internal/events"
	httpapi "github.com/MitaksharaYadav/NetraAI/internal/http"
	"github.com/MitaksharaYadav/NetraAI/internal/i18n"
	"github.com/MitaksharaYadav/NetraAI/internal/logger"
	"github.com/MitaksharaYadav/NetraAI/internal/repository"
	"github.com/MitaksharaYadav/NetraAI/internal/service"
	"github.com/MitaksharaYadav/NetraAI/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// scanEventStreamMaxLen approximate cap of the Redis event stream.
const scanEventStreamMaxLen = 10000

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "netra-dashboard")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		log.Fatal("Failed to load locale catalogs", zap.Error(err))
	}
	renderer, err := httpapi.NewRenderer(log)
	if err != nil {
		log.Fatal("Failed to parse page templates", zap.Error(err))
	}

	health := httpapi.HealthInfo{Reports: "memory", State: "memory", Events: "none"}

	// Reports: PostgreSQL when reachable, else the built-in sample set.
	var db *sql.DB
	var reportsRepo repository.ScanRecordsRepository = repository.NewMemoryScanRecordsRepo()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			reportsRepo = repository.NewPostgresScanRecordsRepo(db)
			health.Reports = "postgres"
			log.Info("DB enabled for netra-dashboard")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}

	// Scan state, locks and the event stream: Redis when reachable.
	var redisClient *redis.Client
	var kv store.KV = store.NewMemoryKV()
	var publishers events.MultiPublisher
	var history events.History
	var eventSinks []string
	if cfg.RedisEnabled {
		c := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := c.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			redisClient = c
			kv = store.NewRedisKV(c)
			stream := events.NewRedisStreamPublisher(c, cfg.Scan.EventStream, scanEventStreamMaxLen)
			publishers = append(publishers, stream)
			history = stream
			eventSinks = append(eventSinks, "redis")
			health.State = "redis"
			log.Info("Redis enabled for netra-dashboard", zap.String("addr", cfg.Redis.Addr))
		} else {
			_ = c.Close()
			log.Warn("Redis enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}

	if cfg.MQTT.Enabled {
		if p, err := events.NewMQTTPublisher(&cfg.MQTT); err == nil {
			publishers = append(publishers, p)
			eventSinks = append(eventSinks, "mqtt")
			log.Info("MQTT event publishing enabled", zap.String("broker", cfg.MQTT.Broker), zap.String("topic", cfg.MQTT.Topic))
		} else {
			log.Warn("MQTT enabled but connection failed, scan events will not be published to MQTT", zap.Error(err))
		}
	}
	if len(eventSinks) > 0 {
		health.Events = strings.Join(eventSinks, ",")
	}

	inference := service.NewHTTPInferenceClient(cfg.Inference.BaseURL, cfg.Inference.Timeout, log)
	scans := service.NewScanService(kv, inference, publishers, log, service.ScanServiceOptions{
		StateTTL: cfg.Scan.StateTTL,
		LockTTL:  cfg.Inference.Timeout + 30*time.Second,
	})
	reports := service.NewReportService(reportsRepo, log)

	router := httpapi.NewRouter(log)
	router.RegisterPageRoutes(httpapi.NewPageHandler(renderer, bundle, scans, reports, cfg.HTTP.MaxUploadBytes, log))
	router.RegisterAPIRoutes(httpapi.NewAPIHandler(bundle, scans, reports, history, cfg.HTTP.MaxUploadBytes, log))
	router.RegisterHealthRoutes(health)

	srv := service.NewServer(cfg.HTTP.Addr, router, cfg.Inference.Timeout+30*time.Second, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Inference.Timeout+5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if err := scans.Wait(shutdownCtx); err != nil {
		log.Warn("Shutdown before in-flight scans finished", zap.Error(err))
	}
	_ = publishers.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
