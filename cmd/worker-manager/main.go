// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lead-qualifier-workers/internal/classifier"
	"lead-qualifier-workers/internal/common/camunda"
	"lead-qualifier-workers/internal/common/config"
	"lead-qualifier-workers/internal/common/crm"
	"lead-qualifier-workers/internal/common/database"
	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/common/observability"
	"lead-qualifier-workers/internal/scoring"

	nhl "lead-qualifier-workers/internal/workers/lead/notify-hot-lead"
	plr "lead-qualifier-workers/internal/workers/lead/persist-lead-record"
	ql "lead-qualifier-workers/internal/workers/lead/qualify-lead"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	if cfg.Observability.Jaeger.Enabled {
		tracing, err := observability.NewTracing("worker-manager", cfg.Observability.Jaeger.Endpoint)
		if err != nil {
			zapLog.Warn("tracing init failed, continuing without traces", zap.Error(err))
		} else {
			defer tracing.Shutdown()
		}
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Intent Classifier ---
	var intentClassifier classifier.IntentClassifier = classifier.NewHTTPClassifier(
		&classifier.HTTPConfig{
			BaseURL:    cfg.Classifier.BaseURL,
			APIKey:     cfg.Classifier.APIKey,
			Model:      cfg.Classifier.Model,
			Timeout:    config.GetDuration(cfg.Classifier.Timeout),
			MaxRetries: cfg.Classifier.MaxRetries,
		},
		log,
	)
	if cfg.Classifier.Cache.Enabled {
		intentClassifier = classifier.NewCachedClassifier(
			intentClassifier,
			redis.Client,
			config.GetDuration(cfg.Classifier.Cache.TTL),
			log,
		)
		zapLog.Info("Classifier cache enabled",
			zap.Int("ttl_ms", cfg.Classifier.Cache.TTL),
		)
	}

	// --- Init CRM Client ---
	var crmClient plr.LeadPusher
	if cfg.Integrations.CRM.Enabled {
		crmClient = crm.NewClient(cfg.Integrations.CRM.BaseURL, cfg.Integrations.CRM.APIToken)
		zapLog.Info("CRM client initialized")
	}

	// --- Init Scoring Engine ---
	engine := scoring.NewEngine(cfg.Scoring, intentClassifier, log)

	zapLog.Info("All external service clients initialized")

	// --- Register Lead Workers ---

	qlCfg := config.GetWorkerConfig(cfg, ql.TaskType)
	if qlCfg.Enabled {
		handler := ql.NewHandler(
			&ql.Config{
				Timeout: config.GetDuration(qlCfg.Timeout),
			},
			engine, log,
		)
		camunda.StartWorker(zeebeClient, ql.TaskType, qlCfg, handler.Handle, zapLog)
	}

	plrCfg := config.GetWorkerConfig(cfg, plr.TaskType)
	if plrCfg.Enabled {
		handler := plr.NewHandler(
			&plr.Config{
				Timeout:   config.GetDuration(plrCfg.Timeout),
				LeadIndex: cfg.Database.Elasticsearch.LeadIndex,
			},
			pg.DB, esClient.Client, crmClient, log,
		)
		camunda.StartWorker(zeebeClient, plr.TaskType, plrCfg, handler.Handle, zapLog)
	}

	nhlCfg := config.GetWorkerConfig(cfg, nhl.TaskType)
	if nhlCfg.Enabled {
		handler, err := nhl.NewHandler(
			&nhl.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				AgentEmail:   cfg.Notifications.Email.AgentEmail,
				AgentPhone:   cfg.Notifications.SMS.AgentPhone,
				MinSMSScore:  cfg.Notifications.SMS.MinScore,
				AWSRegion:    cfg.Notifications.AWS.Region,
				Timeout:      config.GetDuration(nhlCfg.Timeout),
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create notify-hot-lead handler", zap.Error(err))
		}
		camunda.StartWorker(zeebeClient, nhl.TaskType, nhlCfg, handler.Handle, zapLog)
	}

	zapLog.Info("All lead workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
