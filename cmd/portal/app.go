// cmd/portal/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	fileencoder "applicant-portal/internal/application/file-encoder"
	submissiongateway "applicant-portal/internal/application/submission-gateway"
	"applicant-portal/internal/common/auth"
	"applicant-portal/internal/common/config"
	"applicant-portal/internal/common/database"
	perrors "applicant-portal/internal/common/errors"
	portalhttp "applicant-portal/internal/common/http"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/observability"
)

// app holds everything a command needs, wired once per process.
type app struct {
	cfg     *config.Config
	zapLog  *zap.Logger
	log     logger.Logger
	out     io.Writer
	errOut  io.Writer
	redis   *database.RedisClient
	session *auth.Session
	auth    *auth.Client
	gateway *submissiongateway.Gateway
	encoder *fileencoder.Encoder
	obs     *observability.Observability
	errs    *perrors.ErrorHandler
	metrics *http.Server
}

func newApp(cfg *config.Config) (*app, error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})

	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    log,
		out:    os.Stdout,
		errOut: os.Stderr,
		errs:   perrors.NewErrorHandler(log),
	}

	store, err := a.tokenStore()
	if err != nil {
		return nil, err
	}

	// the one place that reacts to a rejected token
	a.session = auth.NewSession(store, func() {
		fmt.Fprintln(a.errOut, "Your session has expired. Run `portal login` to sign in again.")
	}, log)

	api := portalhttp.NewClient(cfg.API.BaseURL, config.GetDuration(cfg.API.Timeout), a.session, log)
	a.auth = auth.NewClient(api, a.session, log)
	a.gateway = submissiongateway.NewGateway(api, log)
	a.encoder = fileencoder.NewEncoder(fileencoder.LoadConfig(), log)

	if cfg.Metrics.Enabled {
		a.obs = observability.New(cfg.App.Name, log)
		a.startMetrics()
	}
	return a, nil
}

func (a *app) tokenStore() (auth.TokenStore, error) {
	switch a.cfg.Auth.TokenStore {
	case config.TokenStoreRedis:
		rdb, err := database.Connect(context.Background(), a.cfg.Auth.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		ttl := time.Duration(a.cfg.Auth.Redis.TTL) * time.Second
		return auth.NewRedisTokenStore(a.redis, a.cfg.Auth.Redis.Key, ttl), nil
	case config.TokenStoreMemory:
		return auth.NewMemoryTokenStore(os.Getenv("PORTAL_TOKEN")), nil
	default:
		return auth.NewFileTokenStore(a.cfg.Auth.TokenFile), nil
	}
}

func (a *app) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metrics = &http.Server{
		Addr:              a.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics server stopped", map[string]interface{}{"error": err})
		}
	}()
	a.log.Debug("metrics server listening", map[string]interface{}{"address": a.cfg.Metrics.Address})
}

func (a *app) close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.metrics.Shutdown(ctx)
	}
	a.obs.Shutdown()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("failed to close redis", map[string]interface{}{"error": err})
		}
	}
	_ = a.zapLog.Sync()
}
