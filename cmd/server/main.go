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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/maynagashev/lookbook/internal/handlers"
	"github.com/maynagashev/lookbook/internal/metrics"
	appmiddleware "github.com/maynagashev/lookbook/internal/middleware"
	"github.com/maynagashev/lookbook/internal/repository"
	"github.com/maynagashev/lookbook/internal/services"
	"github.com/maynagashev/lookbook/internal/storage"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	corsMaxAge             = 300
	metricsNamespace       = "lookbook"
)

// Подменяются в тестах.
var (
	newPostgresDB = repository.NewPostgresDB
	newLister     = storage.New
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db            *sqlx.DB // nil, если записи хранятся в DynamoDB
	lister        storage.ObjectLister
	records       repository.RecordRepository
	recorder      *metrics.PrometheusRecorder
	registry      *prometheus.Registry
	uploadHandler *handlers.UploadHandler
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		slog.Error("Ошибка выполнения сервера", "error", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	cfg, err := parseFlags()
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	logger.Info("Запуск сервера Lookbook...",
		"storage", cfg.StorageDriver,
		"bucket", cfg.BucketName,
		"record_store", cfg.RecordDriver,
		"table", cfg.TableName,
		"resolve_fallback", cfg.ResolveFallback,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализация зависимостей
	deps, err := setupDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	// Отложенное закрытие соединения с БД
	defer func() {
		if deps.db != nil {
			if closeErr := deps.db.Close(); closeErr != nil {
				logger.Error("Ошибка закрытия соединения с БД", "error", closeErr)
			}
		}
	}()

	r := setupRouter(deps, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	return serve(ctx, server, cfg, logger)
}

// serve запускает сервер и корректно останавливает его по отмене ctx.
func serve(ctx context.Context, server *http.Server, cfg *config, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if cfg.TLSEnabled() {
			logger.Info("Запуск HTTPS-сервера", "addr", server.Addr, "cert", cfg.CertFile, "key", cfg.KeyFile)
			err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			logger.Info("Запуск HTTP-сервера", "addr", server.Addr)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ошибка остановки сервера: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Сервер остановлен")
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
// Клиенты создаются один раз и разделяются между запросами.
func setupDependencies(ctx context.Context, cfg *config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{registry: prometheus.NewRegistry()}
	var err error

	// 1. Метрики
	deps.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.recorder, err = metrics.NewPrometheusRecorder(metricsNamespace, deps.registry)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации метрик: %w", err)
	}

	// 2. Объектное хранилище
	deps.lister, err = newLister(ctx, storage.Config{
		Driver:       cfg.StorageDriver,
		Endpoint:     cfg.StorageEndpoint,
		BucketName:   cfg.BucketName,
		UseSSL:       cfg.UseSSL,
		UsePathStyle: cfg.UsePathStyle,
		AWS:          awsConfig(cfg),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации объектного хранилища: %w", err)
	}

	// 3. Хранилище записей
	switch cfg.RecordDriver {
	case repository.DriverPostgres:
		deps.db, err = newPostgresDB(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
		}
		if err = repository.EnsureRecordsTable(ctx, deps.db, cfg.TableName); err != nil {
			_ = deps.db.Close()
			return nil, fmt.Errorf("ошибка создания таблицы записей: %w", err)
		}
		deps.records = repository.NewPostgresRecordRepository(deps.db, cfg.TableName, logger)
	case repository.DriverDynamoDB:
		awsCfg, loadErr := storage.LoadAWSConfig(ctx, awsConfig(cfg))
		if loadErr != nil {
			return nil, fmt.Errorf("ошибка конфигурации AWS: %w", loadErr)
		}
		client := repository.NewDynamoClient(awsCfg, cfg.DynamoEndpoint)
		deps.records = repository.NewDynamoRecordRepository(client, cfg.TableName, logger)
	default:
		return nil, fmt.Errorf("неизвестное хранилище записей %q", cfg.RecordDriver)
	}

	// 4. Сервисы и обработчики
	setupHandlers(deps, cfg, logger)

	return deps, nil
}

// setupHandlers собирает конвейер поверх готовых хранилищ.
func setupHandlers(deps *dependencies, cfg *config, logger *slog.Logger) {
	resolver := services.NewKeyResolver(deps.lister, deps.recorder, logger)
	writer := services.NewRecordWriter(deps.records, deps.recorder, logger)
	ingestService := services.NewIngestService(
		resolver,
		writer,
		deps.records,
		services.IngestOptions{ResolveFallback: cfg.ResolveFallback},
		deps.recorder,
		logger,
	)
	deps.uploadHandler = handlers.NewUploadHandler(ingestService, logger)
}

func awsConfig(cfg *config) storage.AWSConfig {
	return storage.AWSConfig{
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
	}
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger(logger))
	r.Use(appmiddleware.Metrics(deps.recorder))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         corsMaxAge,
	}))

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})
	r.Post("/upload", deps.uploadHandler.Upload)
	r.Get("/records/{requestID}", deps.uploadHandler.GetRecord)
	r.Handle("/metrics", promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))

	return r
}
