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

	"github.com/AnshRaj112/vidtube-backend/internal/config"
	"github.com/AnshRaj112/vidtube-backend/internal/database"
	"github.com/AnshRaj112/vidtube-backend/internal/handlers"
	"github.com/AnshRaj112/vidtube-backend/internal/logging"
	"github.com/AnshRaj112/vidtube-backend/internal/repository"
	"github.com/AnshRaj112/vidtube-backend/internal/routes"
	"github.com/AnshRaj112/vidtube-backend/internal/services"
	"github.com/AnshRaj112/vidtube-backend/pkg/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logging.New(cfg.Environment)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	blobs, err := openBlobStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	issuer, err := services.NewTokenIssuer(services.TokenConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	hasher := utils.NewArgon2Hasher(utils.DefaultArgon2Params)
	sessions := services.NewSessionManager(store, hasher, issuer, cfg.StoreTimeout, log)
	media := services.NewMediaService(blobs, cfg.MediaFolder, cfg.MediaTimeout, log)
	users := services.NewUserService(store, hasher, media, sessions, cache, cfg.StoreTimeout, log)

	router := routes.NewRouter(routes.Deps{
		Config: cfg,
		Log:    log,
		Users:  handlers.NewUserHandler(cfg, sessions, users, log),
		Auth:   sessions,
		Store:  store,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("vidtube backend running",
			slog.String("addr", srv.Addr),
			slog.String("store", cfg.StoreDriver),
			slog.String("media", cfg.MediaDriver),
			slog.Bool("production", cfg.IsProduction()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.UserStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		store := repository.NewMongoUserStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = database.DisconnectMongo(client)
			return nil, nil, fmt.Errorf("ensure mongodb indexes: %w", err)
		}
		return store, func() { _ = database.DisconnectMongo(client) }, nil

	case config.StorePostgres:
		db, err := database.ConnectPostgres(ctx, cfg.PostgresURI, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return repository.NewPostgresUserStore(db), func() { _ = database.DisconnectPostgres(db) }, nil

	case config.StoreMemory:
		log.Warn("using in-memory user store; data is lost on restart")
		return repository.NewMemoryUserStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// openCache connects Redis when REDIS_URI is set. Failure only disables the
// profile cache.
func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (*services.ProfileCache, func()) {
	if cfg.RedisURI == "" {
		log.Info("REDIS_URI not set; profile cache disabled")
		return nil, func() {}
	}

	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI, log)
	if err != nil {
		log.Warn("redis unavailable; profile cache disabled", slog.String("error", err.Error()))
		return nil, func() {}
	}
	return services.NewProfileCache(rdb, services.DefaultProfileTTL, log), func() { _ = database.DisconnectRedis(rdb) }
}

func openBlobStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (services.BlobStore, error) {
	switch cfg.MediaDriver {
	case config.MediaCloudinary:
		if !cfg.CloudinaryConfigured() {
			return nil, errors.New("cloudinary credentials are not set")
		}
		store, err := services.NewCloudinaryStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return nil, fmt.Errorf("cloudinary: %w", err)
		}
		log.Info("cloudinary media store initialized")
		return store, nil

	case config.MediaS3:
		store, err := services.NewS3Store(ctx, services.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		log.Info("s3 media store initialized", slog.String("bucket", cfg.S3Bucket))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown MEDIA_DRIVER %q", cfg.MediaDriver)
	}
}
