package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gatehouse-io/gatehouse/pkg/api"
	"github.com/gatehouse-io/gatehouse/pkg/config"
	"github.com/gatehouse-io/gatehouse/pkg/configstore"
	"github.com/gatehouse-io/gatehouse/pkg/ims"
	"github.com/gatehouse-io/gatehouse/pkg/observability"
	"github.com/gatehouse-io/gatehouse/pkg/session"
	"github.com/gatehouse-io/gatehouse/pkg/users"
)

var version = "dev"

func main() {
	startup := logrus.New()
	startup.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		startup.WithError(err).Fatal("failed to load configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		startup.WithError(err).Fatal("failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		observability.ShutdownOTel(shutdownCtx, otelProviders, logger)
	}()

	// Relational store backing config entries and admin users
	db, err := sql.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		startup.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		startup.WithError(err).Fatal("database is unreachable")
	}

	sqlStore := configstore.NewSQLStore(db)
	if err := sqlStore.EnsureSchema(ctx); err != nil {
		startup.WithError(err).Fatal("failed to ensure config schema")
	}
	cachedStore, err := configstore.NewCachedStore(sqlStore, cfg.Store.ConfigCacheSize)
	if err != nil {
		startup.WithError(err).Fatal("failed to create config cache")
	}

	encryptor, err := configstore.NewAESEncryptor([]byte(cfg.IMS.EncryptionKey))
	if err != nil {
		startup.WithError(err).Fatal("failed to create encryptor")
	}

	userStore := users.NewStore(db, cfg.Store.Driver)
	if err := userStore.EnsureSchema(ctx); err != nil {
		startup.WithError(err).Fatal("failed to ensure users schema")
	}

	// Session storage
	var sessions session.Store
	var memorySessions *session.MemoryStore
	var redisSessions *session.RedisStore
	switch cfg.Session.Backend {
	case "redis":
		redisSessions, err = session.NewRedisStore(cfg.Session.Redis)
		if err != nil {
			startup.WithError(err).Fatal("failed to connect to redis")
		}
		sessions = redisSessions
	default:
		memorySessions = session.NewMemoryStore()
		sessions = memorySessions
	}

	// Identity provider integration
	imsConfig := ims.NewConfig(cachedStore, encryptor, cfg.CallbackURL(), cfg.IMS.Defaults)
	connection := ims.NewConnection(imsConfig, cfg.IMS.HTTPTimeout, logger)
	exchanger := ims.NewTokenExchanger(imsConfig, cfg.IMS.HTTPTimeout)
	orgs := ims.NewOrganizationService(imsConfig)
	provisioner := users.NewProvisioner(userStore, &users.LogNotifier{Logger: logger}, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
		connection.SetMetrics(metrics)
		cachedStore.SetCounters(metrics.CacheHitsTotal, metrics.CacheMissesTotal)
	}

	server := api.NewServer(
		imsConfig,
		connection,
		exchanger,
		orgs,
		sessions,
		provisioner,
		api.SessionSettings{
			CookieName:   cfg.Session.CookieName,
			CookieDomain: cfg.Session.CookieDomain,
			CookieSecure: cfg.Session.CookieSecure,
			Lifetime:     cfg.Session.Lifetime,
		},
		logger,
		metrics,
	)

	// Background maintenance
	scheduler := cron.New()
	if memorySessions != nil {
		interval := "@every " + cfg.Session.SweepInterval.String()
		if _, err := scheduler.AddFunc(interval, func() {
			removed := memorySessions.Sweep(time.Now())
			if removed > 0 {
				logger.WithField("removed", removed).Debug("swept expired sessions")
				if metrics != nil {
					metrics.SessionsExpired.Add(float64(removed))
				}
			}
			if metrics != nil {
				metrics.SessionsActive.Set(float64(memorySessions.Len()))
			}
		}); err != nil {
			startup.WithError(err).Fatal("failed to schedule session sweep")
		}
	}
	if _, err := scheduler.AddFunc("@every "+cfg.Store.ConfigCachePurgeInterval.String(), func() {
		cachedStore.Purge()
		logger.Debug("purged config cache")
	}); err != nil {
		startup.WithError(err).Fatal("failed to schedule config cache purge")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Health and metrics server on a separate port
	healthMux := http.NewServeMux()
	if redisSessions != nil {
		observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisSessions.Client(), version))
	} else {
		observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, nil, version))
	}
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}

	mainServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		startup.WithField("addr", mainServer.Addr).Info("starting gatehouse server")
		if err := mainServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		startup.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := mainServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("main server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("health server shutdown failed")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		startup.WithError(err).Fatal("server exited with error")
	}
	startup.Info("shutdown complete")
}
