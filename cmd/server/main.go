package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"synchron/internal/audit"
	"synchron/internal/config"
	apphttp "synchron/internal/http"
	"synchron/internal/registry"
	"synchron/internal/snapshot"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.AdminToken) == "" && strings.TrimSpace(cfg.Auth.AdminTokenHash) == "" {
		logger.Fatalf("admin token (or token hash) is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup snapshot store: %v", err)
	}
	defer closeStore()

	auditLog := audit.NewLog(audit.DefaultCapacity)
	reg := registry.New(ctx, store, auditLog, logger)
	auditLog.Append(audit.ActionStartup, audit.ActorSystem,
		fmt.Sprintf("server started (%d users loaded)", reg.Count()))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(reg, auditLog, apphttp.AuthConfig{
		AdminToken:     cfg.Auth.AdminToken,
		AdminTokenHash: cfg.Auth.AdminTokenHash,
		JWTSecret:      cfg.Auth.JWTSecret,
		TokenTTL:       time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
	}, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	reg.Close()

	logger.Info("bye")
}

func buildStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (snapshot.Store, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(cfg.Snapshot.Backend)) {
	case "", "none":
		logger.Warn("no snapshot backend configured; users will not survive restarts")
		return snapshot.NullStore{}, noop, nil

	case "file":
		logger.Infof("using snapshot file %s", cfg.Snapshot.Path)
		return snapshot.NewFileStore(cfg.Snapshot.Path), noop, nil

	case "sqlite":
		store, err := snapshot.OpenSQLiteStore(ctx, cfg.Snapshot.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using sqlite snapshot db %s", cfg.Snapshot.Database)
		return store, func() { store.Close() }, nil

	case "s3":
		if cfg.Snapshot.Bucket == "" {
			return nil, nil, fmt.Errorf("snapshot bucket is required")
		}

		loadOpts := []func(*awscfg.LoadOptions) error{
			awscfg.WithRegion(cfg.Snapshot.Region),
		}
		if cfg.AWS.Profile != "" {
			loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
		}

		awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Snapshot.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Snapshot.Endpoint)
				o.UsePathStyle = true
			}
		})
		store, err := snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Key)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using s3 snapshot bucket %s (region %s)", cfg.Snapshot.Bucket, cfg.Snapshot.Region)
		return store, noop, nil

	case "redis":
		store, err := snapshot.NewRedisStore(ctx, cfg.Snapshot.RedisURL, cfg.Snapshot.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis snapshot store")
		return store, func() { store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}
