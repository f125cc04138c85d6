package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nerrad567/vidhub-core/internal/activity"
	"github.com/nerrad567/vidhub-core/internal/api"
	"github.com/nerrad567/vidhub-core/internal/audit"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/comment"
	"github.com/nerrad567/vidhub-core/internal/dashboard"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/config"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/metrics"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vidhub-core/internal/media"
	"github.com/nerrad567/vidhub-core/internal/playlist"
	"github.com/nerrad567/vidhub-core/internal/relation"
	"github.com/nerrad567/vidhub-core/internal/tweet"
	"github.com/nerrad567/vidhub-core/internal/video"
	"github.com/nerrad567/vidhub-core/migrations"
)

const redisPingTimeout = 5 * time.Second

// run is the main application logic, separated from main() for testability.
// It loads the configuration, connects every backend, serves the API and
// blocks until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Path to the YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting vidhub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete", "applied", applied)

	sessions, closeSessions, err := openSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()
	log.Info("session store ready", "backend", cfg.Session.Backend)

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  cfg.Security.JWT.AccessSecret,
		RefreshSecret: cfg.Security.JWT.RefreshSecret,
		Issuer:        cfg.Security.JWT.Issuer,
		AccessTTL:     cfg.Security.JWT.AccessTTL(),
		RefreshTTL:    cfg.Security.JWT.RefreshTTL(),
	})
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	authSvc, err := auth.NewService(auth.Deps{
		Accounts: auth.NewSQLiteAccountRepository(db.DB),
		Sessions: sessions,
		Hasher: auth.NewPasswordHasher(auth.PasswordParams{
			Time:      cfg.Security.Password.Time,
			MemoryKiB: cfg.Security.Password.MemoryKiB,
			Threads:   cfg.Security.Password.Threads,
		}),
		Tokens: tokens,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}

	// Connect to MQTT broker (optional)
	var sinks activity.Fanout
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		sinks = append(sinks, activity.NewMQTTSink(mqttClient, log))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sinks = append(sinks, activity.NewInfluxSink(influxClient))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	var events activity.Sink = activity.Nop{}
	if len(sinks) > 0 {
		events = sinks
	}

	// Object storage (optional). The interface stays nil when disabled so
	// presign reports a validation error instead of dereferencing nil.
	var mediaStore video.MediaStore
	if cfg.Storage.Enabled {
		store, storeErr := media.New(ctx, cfg.Storage)
		if storeErr != nil {
			return fmt.Errorf("creating media store: %w", storeErr)
		}
		mediaStore = store
		log.Info("media storage configured", "bucket", cfg.Storage.Bucket, "endpoint", cfg.Storage.Endpoint)
	} else {
		log.Info("media storage disabled")
	}

	m := metrics.New()
	opts := relation.Options{Events: events, Metrics: m}

	srv, err := api.New(api.Deps{
		Config: cfg.API,
		Logger: log,
		Auth:   authSvc,
		Videos: video.NewService(video.Deps{
			Repo:   video.NewSQLiteRepository(db.DB),
			Media:  mediaStore,
			Events: events,
			Logger: log,
		}),
		Tweets:        tweet.NewService(tweet.NewSQLiteRepository(db.DB), events),
		Comments:      comment.NewService(comment.NewSQLiteRepository(db.DB), events),
		Playlists:     playlist.NewService(playlist.NewSQLiteRepository(db.DB)),
		Likes:         relation.NewLikeService(db.DB, opts),
		Subscriptions: relation.NewSubscriptionService(db.DB, opts),
		Dashboard:     dashboard.NewService(db.DB),
		Audit:         audit.NewSQLiteRepository(db.DB),
		Metrics:       m,
		DB:            db,
		MQTT:          mqttClient,
		Influx:        influxClient,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal",
		"addr", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, session store, database.

	log.Info("vidhub stopped")
	return nil
}

// openDatabase opens the SQLite database described by cfg.
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// openSessionStore returns the configured refresh-token store and a func
// that releases it.
func openSessionStore(ctx context.Context, cfg *config.Config, db *database.DB) (auth.SessionStore, func(), error) {
	if cfg.Session.Backend != "redis" {
		return auth.NewSQLiteSessionStore(db.DB), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis %s: %w", cfg.Redis.Addr, err)
	}

	release := func() { _ = client.Close() }
	return auth.NewRedisSessionStore(client, cfg.Security.JWT.RefreshTTL()), release, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db == nil {
		return errors.New("database: not open")
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
