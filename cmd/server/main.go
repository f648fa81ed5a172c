package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Arayanmemon/devTube/internal/assets"
	"github.com/Arayanmemon/devTube/internal/config"
	"github.com/Arayanmemon/devTube/internal/db"
	"github.com/Arayanmemon/devTube/internal/es"
	"github.com/Arayanmemon/devTube/internal/hash"
	"github.com/Arayanmemon/devTube/internal/httpserver"
	"github.com/Arayanmemon/devTube/internal/jwthelp"
	"github.com/Arayanmemon/devTube/internal/logging"
	"github.com/Arayanmemon/devTube/internal/metrics"
	"github.com/Arayanmemon/devTube/internal/middleware/csrf"
	"github.com/Arayanmemon/devTube/internal/middleware/loggingmw"
	"github.com/Arayanmemon/devTube/internal/mykafka"
	"github.com/Arayanmemon/devTube/internal/repo"
	"github.com/Arayanmemon/devTube/internal/service"
	"github.com/Arayanmemon/devTube/internal/tokens"
)

type eventProducer interface {
	service.EventPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_init_failed", "error", err)
		os.Exit(1)
	}

	s3Client, err := assets.NewS3Client(ctx, assets.Config(cfg.S3))
	if err != nil {
		logger.Error("s3_init_failed", "error", err)
		os.Exit(1)
	}

	var prod eventProducer = mykafka.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := mykafka.NewProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Error("kafka_init_failed", "error", err)
			os.Exit(1)
		}
		prod = p
	}

	m := metrics.New()
	svc := &service.AuthService{
		Repo: &repo.GormRepo{DB: gdb, Hasher: hash.New(cfg.BcryptCost)},
		Tokens: tokens.NewIssuer(tokens.Config{
			AccessSecret:  cfg.AccessTokenSecret,
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshSecret: cfg.RefreshTokenSecret,
			RefreshTTL:    cfg.RefreshTokenTTL,
		}),
		Assets:                 assets.NewS3Store(s3Client, assets.Config(cfg.S3)),
		Events:                 prod,
		Metrics:                m,
		RevokeOnPasswordChange: cfg.RevokeOnPasswordChange,
	}

	if cfg.ES.URL != "" {
		esClient, err := es.NewClient(ctx, es.Config{URL: cfg.ES.URL, User: cfg.ES.User, Password: cfg.ES.Password})
		if err != nil {
			// search falls back to the database
			logger.Warn("es_unavailable", "error", err)
		} else {
			svc.Channel = es.NewChannelIndex(esClient, cfg.ES.Index)
		}
	}

	cookies := jwthelp.Cookies{Secure: cfg.CookieSecure}
	deps := httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: svc, Cookies: cookies, UploadDir: cfg.UploadDir},
		AccountHandler: &httpserver.AccountHTTP{Svc: svc, UploadDir: cfg.UploadDir},
		Verifier:       svc,
		Cookies:        cookies,
		Metrics:        m.Handler(),
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if cfg.CSRFEnabled {
		cc := csrf.DefaultConfig()
		cc.Secure = cfg.CookieSecure
		cc.SkipPaths = httpserver.CSRFSkipPaths()
		deps.CSRF = &cc
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), loggingmw.RequestLogger(logger))
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_listening", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := prod.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
