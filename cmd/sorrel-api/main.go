package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/sorrel/config"
	"github.com/Ramsey-B/sorrel/internal/repositories/runmetadata"
	"github.com/Ramsey-B/sorrel/pkg/database"
	"github.com/Ramsey-B/sorrel/pkg/downloader"
	"github.com/Ramsey-B/sorrel/pkg/entrez"
	"github.com/Ramsey-B/sorrel/pkg/events"
	"github.com/Ramsey-B/sorrel/pkg/graph"
	"github.com/Ramsey-B/sorrel/pkg/httpclient"
	"github.com/Ramsey-B/sorrel/pkg/kafka"
	"github.com/Ramsey-B/sorrel/pkg/logging"
	"github.com/Ramsey-B/sorrel/pkg/middleware"
	"github.com/Ramsey-B/sorrel/pkg/processor"
	"github.com/Ramsey-B/sorrel/pkg/redis"
	"github.com/Ramsey-B/sorrel/pkg/routes/health"
	"github.com/Ramsey-B/sorrel/pkg/routes/metadata"
	"github.com/Ramsey-B/sorrel/pkg/routes/retrieval"
	"github.com/Ramsey-B/sorrel/pkg/routes/sequences"
	"github.com/Ramsey-B/sorrel/pkg/routes/validation"
	"github.com/Ramsey-B/sorrel/pkg/sratools"
	"github.com/Ramsey-B/sorrel/pkg/startup"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, flush, err := logging.NewLogger(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		db          database.DB
		sqlDB       *sqlx.DB
		redisClient *redis.Client
		producer    *kafka.Producer
		graphClient *graph.Client
		server      *echo.Echo
		checker     *health.Checker
	)

	manager := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	manager.AddDependency(&startup.Func{
		Name: "database",
		StartFn: func(ctx context.Context) error {
			var err error
			db, sqlDB, err = database.Connect(database.Config{
				Driver:          cfg.DatabaseDriver,
				Host:            cfg.DatabaseHost,
				Port:            cfg.DatabasePort,
				Username:        cfg.DatabaseUserName,
				Password:        cfg.DatabasePassword,
				Name:            cfg.DatabaseName,
				SSLMode:         cfg.DatabaseSSLMode,
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}

			driver, err := migratepg.WithInstance(sqlDB.DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
			})
			return migrations.Migrate(cfg.DatabaseName, driver)
		},
		StopFn: func(ctx context.Context) error {
			if db != nil {
				return db.Close()
			}
			return nil
		},
	})

	manager.AddDependency(&startup.Func{
		Name: "redis",
		StartFn: func(ctx context.Context) error {
			var err error
			redisClient, err = redis.NewClient(redis.Config{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			}, logger)
			return err
		},
		StopFn: func(ctx context.Context) error {
			if redisClient != nil {
				return redisClient.Close()
			}
			return nil
		},
	})

	if cfg.KafkaEnabled {
		manager.AddDependency(&startup.Func{
			Name: "kafka",
			StartFn: func(ctx context.Context) error {
				producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				return nil
			},
			StopFn: func(ctx context.Context) error {
				if producer != nil {
					return producer.Close()
				}
				return nil
			},
		})
	}

	if cfg.GraphEnabled {
		manager.AddDependency(&startup.Func{
			Name: "graph",
			StartFn: func(ctx context.Context) error {
				var err error
				graphClient, err = graph.NewClient(graph.Config{
					Host:     cfg.GraphDBHost,
					Port:     cfg.GraphDBPort,
					Username: cfg.GraphDBUser,
					Password: cfg.GraphDBPassword,
				}, logger)
				if err != nil {
					return err
				}
				return graphClient.VerifyConnectivity(ctx)
			},
			StopFn: func(ctx context.Context) error {
				if graphClient != nil {
					return graphClient.Close(ctx)
				}
				return nil
			},
		})
	}

	manager.AddDependency(&startup.Func{
		Name:  "server",
		Needs: serverNeeds(cfg),
		StartFn: func(ctx context.Context) error {
			proc := buildProcessor(cfg, logger, db, redisClient, producer, graphClient)

			server = echo.New()
			server.HideBanner = true
			server.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
			server.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
			server.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
			server.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
			server.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

			server.Use(otelecho.Middleware(cfg.AppName))
			server.Use(middleware.Context())
			server.Use(middleware.Logger(logger))
			server.Use(echomw.CORSWithConfig(echomw.CORSConfig{
				AllowOrigins: cfg.AllowOrigins,
				AllowMethods: cfg.AllowMethods,
			}))
			server.HTTPErrorHandler = middleware.Error(logger)

			checker = health.NewChecker(db, redisClient, cfg.AppName)
			checker.RegisterRoutes(server)
			server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

			api := server.Group("/api/v1")
			metadata.NewHandler(proc).RegisterRoutes(api)
			retrieval.NewHandler(proc).RegisterRoutes(api)
			sequences.NewHandler(proc).RegisterRoutes(api)
			validation.NewHandler(proc).RegisterRoutes(api)

			go func() {
				if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
				}
			}()
			return nil
		},
		StopFn: func(ctx context.Context) error {
			if server != nil {
				return server.Shutdown(ctx)
			}
			return nil
		},
	})

	if err := manager.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}
	checker.SetReady(true)
	logger.WithField("port", cfg.Port).Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := manager.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown did not complete cleanly")
	}
}

func serverNeeds(cfg config.Config) []string {
	needs := []string{"database", "redis"}
	if cfg.KafkaEnabled {
		needs = append(needs, "kafka")
	}
	if cfg.GraphEnabled {
		needs = append(needs, "graph")
	}
	return needs
}

func buildProcessor(
	cfg config.Config,
	logger ectologger.Logger,
	db database.DB,
	redisClient *redis.Client,
	producer *kafka.Producer,
	graphClient *graph.Client,
) *processor.Processor {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.EntrezTimeout
	httpClient := httpclient.NewClient(httpCfg, logger)

	limiter := redis.NewRateLimiter(redisClient, cfg.EntrezRateKeyPrefix)
	archive := entrez.NewClient(entrez.Config{
		BaseURL:         cfg.EntrezBaseURL,
		Email:           cfg.EntrezEmail,
		APIKey:          cfg.EntrezAPIKey,
		RatePerSecond:   int64(cfg.EntrezRatePerSecond),
		Workers:         cfg.EntrezWorkers,
		SearchBatchSize: cfg.EntrezSearchBatch,
		FetchBatchSize:  cfg.EntrezFetchBatch,
	}, httpClient, limiter, logger)

	runner := sratools.NewExecRunner(sratools.Config{
		PrefetchPath: cfg.SraToolsPrefetchPath,
		FasterqPath:  cfg.SraToolsFasterqPath,
		KeyFile:      cfg.SraToolsKeyFile,
		OutputDir:    cfg.DownloadOutputDir,
		TempDir:      cfg.DownloadTempDir,
		Threads:      cfg.DownloadThreads,
	}, logger)
	orchestrator := downloader.NewOrchestrator(downloader.Config{
		Retries:     cfg.DownloadRetries,
		BackoffBase: cfg.DownloadBackoffBase,
	}, runner, logger)
	organizer := downloader.NewOrganizer(cfg.DownloadOutputDir, logger)

	var projector processor.LineageProjector
	if graphClient != nil {
		projector = graph.NewProjector(graphClient, logger)
	}
	var publisher events.Publisher
	if producer != nil {
		publisher = producer
	}

	return processor.NewProcessor(
		processor.Config{MetadataRetries: cfg.MetadataFetchRetries},
		logger,
		archive,
		entrez.NewValidator(archive, logger),
		runmetadata.NewRepository(db, logger),
		orchestrator,
		organizer,
		projector,
		events.NewEmitter(publisher, logger),
	)
}
