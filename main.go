package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Auyante/refineryiq-system/alerts"
	"github.com/Auyante/refineryiq-system/analytics"
	"github.com/Auyante/refineryiq-system/cache"
	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/handlers"
	"github.com/Auyante/refineryiq-system/ingest"
	"github.com/Auyante/refineryiq-system/logging"
	"github.com/Auyante/refineryiq-system/store"
	"github.com/Auyante/refineryiq-system/telemetry"
	"github.com/Auyante/refineryiq-system/websocket"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logging.Init("error").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	lg := logging.Init(cfg.Logging.Level)

	windowStore := telemetry.NewStore(time.Duration(cfg.Analytics.RetentionMinutes) * time.Minute)
	alertMgr := alerts.NewManager()

	var sinks []analytics.Sink
	var audit handlers.AlertAcknowledger

	// Redis is the primary publish sink; the service still runs without it,
	// results stay readable from the in-process snapshot.
	redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
	if err != nil {
		lg.Warn("redis unavailable, snapshot caching disabled", "addr", cfg.Redis.Addr, "error", err)
	} else {
		defer redisClient.Close()
		sinks = append(sinks, redisClient)
		lg.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	if cfg.Database.Driver != "" && cfg.Database.Driver != "none" {
		auditStore, err := store.Open(cfg.Database)
		if err != nil {
			lg.Warn("audit store unavailable, persistence disabled", "driver", cfg.Database.Driver, "error", err)
		} else {
			defer auditStore.Close()
			sinks = append(sinks, auditStore)
			audit = auditStore
			lg.Info("audit store ready", "driver", cfg.Database.Driver)
		}
	}

	hub := websocket.NewHub(lg)
	go hub.Run()
	sinks = append(sinks, hub)

	engine := analytics.NewEngine(cfg, lg, windowStore, alertMgr, sinks...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go engine.Run(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := ingest.NewConsumer(cfg.Kafka, windowStore, lg)
		defer consumer.Close()
		go consumer.Run(ctx)
	} else {
		lg.Info("no kafka brokers configured, HTTP ingest only")
	}

	handler := handlers.NewAnalyticsHandler(engine, windowStore, alertMgr, audit, lg)

	r := mux.NewRouter()
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	r.HandleFunc("/api/data/ingest", handler.HandleIngest).Methods("POST")
	r.HandleFunc("/api/stats/advanced", handler.HandleAdvancedStats).Methods("GET")
	r.HandleFunc("/api/energy/analysis", handler.HandleEnergyAnalysis).Methods("GET")
	r.HandleFunc("/api/maintenance/predictions", handler.HandleMaintenancePredictions).Methods("GET")
	r.HandleFunc("/api/dashboard/history", handler.HandleDashboardHistory).Methods("GET")
	r.HandleFunc("/api/alerts", handler.HandleAlerts).Methods("GET")
	r.HandleFunc("/api/alerts/{id}/acknowledge", handler.HandleAcknowledgeAlert).Methods("POST")
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(hub, w, req)
	})
	r.Path("/metrics").Handler(promhttp.Handler())

	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		lg.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	lg.Info("server exited")
}
