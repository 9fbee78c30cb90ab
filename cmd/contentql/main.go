package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"

	config "github.com/davicafu/contentql/internal/config"
	"github.com/davicafu/contentql/internal/content/application"
	"github.com/davicafu/contentql/internal/content/domain"
	contentEvents "github.com/davicafu/contentql/internal/content/infra/inbound/events"
	contentGraphql "github.com/davicafu/contentql/internal/content/infra/inbound/graphql"
	contentHttp "github.com/davicafu/contentql/internal/content/infra/inbound/http"
	"github.com/davicafu/contentql/internal/content/infra/outbound/analytics/clickhouse"
	contentCache "github.com/davicafu/contentql/internal/content/infra/outbound/cache"
	mongoRepo "github.com/davicafu/contentql/internal/content/infra/outbound/db/mongodb"
	pgRepo "github.com/davicafu/contentql/internal/content/infra/outbound/db/postgre"
	sqliteRepo "github.com/davicafu/contentql/internal/content/infra/outbound/db/sqlite"
	"github.com/davicafu/contentql/internal/metrics"
	infraEvents "github.com/davicafu/contentql/internal/shared/infra/events"
	sharedBus "github.com/davicafu/contentql/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/contentql/internal/shared/infra/platform/cache"
	"github.com/davicafu/contentql/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.LogLevel) // inicializa zap
	log := logger.Logger()
	defer log.Sync() // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("contentql stopped with error", zap.Error(err))
	}
	log.Info("contentql stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	// ---------------- Métricas ----------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ---------------- DB ----------------
	source, closeSource, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	// ---------------- Cache ----------------
	var cached *contentCache.CachedSource
	if cfg.CacheEnabled {
		var cacheInstance sharedCache.Cache
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
			mem := contentCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
			defer mem.Stop()
			cacheInstance = mem
		} else {
			cacheInstance = contentCache.NewRedisCache(rdb, cfg.CacheTTL)
			log.Info("✅ Redis conectado, cache habilitado")
		}
		cached = contentCache.NewCachedSource(source, cacheInstance, int(cfg.CacheTTL.Seconds()), m, log)
		source = cached
	}

	// ---------------- Stats ----------------
	var stats domain.StatsSink = application.NewLogStatsSink(log)
	var statsReader domain.StatsReader
	if cfg.ClickHouseAddr != "" {
		repo, err := clickhouse.NewStatsRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, estadísticas solo en log", zap.Error(err))
		} else {
			defer repo.Close()
			if err := repo.InitSchema(); err != nil {
				return fmt.Errorf("init clickhouse schema: %w", err)
			}
			sink := application.NewBatchStatsSink(repo, cfg.StatsFlushPeriod, cfg.StatsBatchSize, log)
			g.Go(func() error {
				sink.Start(ctx)
				return nil
			})
			stats, statsReader = sink, repo
		}
	}

	// ---------------- Events ----------------
	var invalidator contentEvents.Invalidator = noopInvalidator{}
	if cached != nil {
		invalidator = cached
	}
	consumer := contentEvents.NewContentConsumer(invalidator, log)

	var bus sharedBus.EventBus
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")
		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    cfg.KafkaTopicContent,
			Balancer: &kafka.Hash{},
		}
		publisher := infraEvents.NewKafkaPublisher(writer, log)
		defer publisher.Close()
		bus = publisher

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopicContent,
			GroupID:  "contentql-cache-invalidation",
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		adapter := infraEvents.NewConsumerAdapter(reader, consumer, log)
		g.Go(func() error { return adapter.Run(ctx) })
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")
		memBus := infraEvents.NewInMemoryEventBus(domain.ContentTopic)
		events := memBus.Subscribe(64)
		bus = memBus
		g.Go(func() error { return consumer.RunChan(ctx, events) })
	}

	// ---------------- Servicio ----------------
	opts := application.ResolverOptions{
		DefaultAmount: cfg.DefaultQueryAmount,
		MaxAmount:     cfg.MaxQueryAmount,
		EmptyIsError:  cfg.EmptyConnectionIsError,
	}
	resolver := application.NewConnectionResolver(source, application.NewArgsTranslator(log), opts, stats, m, log)
	schema, err := contentGraphql.NewSchema(resolver, source, m, log)
	if err != nil {
		return err
	}

	// ---------------- HTTP ----------------
	handler := contentHttp.NewContentHandler(schema, application.NewChangeNotifier(bus, log), statsReader, log)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           contentHttp.NewRouter(handler, reg, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openSource abre el almacén de contenido según DB_DRIVER y crea el esquema si aplica.
func openSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.DataSource, func(), error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping sqlite: %w", err)
		}
		if err := sqliteRepo.InitSQLite(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init sqlite: %w", err)
		}
		log.Info("Content store: SQLite", zap.String("path", cfg.SQLitePath))
		return sqliteRepo.NewContentRepoSQLite(db), func() { db.Close() }, nil

	case "postgres":
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := pgRepo.InitPostgres(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init postgres: %w", err)
		}
		log.Info("Content store: PostgreSQL")
		return pgRepo.NewContentRepoPostgres(db), func() { db.Close() }, nil

	case "mongodb":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		disconnect := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}
		repo, err := mongoRepo.NewContentRepoMongoDB(ctx, client, cfg.MongoDB)
		if err != nil {
			disconnect()
			return nil, nil, err
		}
		log.Info("Content store: MongoDB", zap.String("db", cfg.MongoDB))
		return repo, disconnect, nil
	}
	return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// noopInvalidator se usa con la caché desactivada: no hay nada que invalidar.
type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, domain.EntityType, int64) error { return nil }
