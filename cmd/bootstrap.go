package cmd

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dibs/app/metrics"
	"github.com/vibast-solutions/ms-go-dibs/app/provider"
	"github.com/vibast-solutions/ms-go-dibs/app/repository"
	"github.com/vibast-solutions/ms-go-dibs/app/service"
	"github.com/vibast-solutions/ms-go-dibs/config"
)

type appRuntime struct {
	cfg      *config.Config
	service  *service.PaymentService
	orders   *repository.OrderRepository
	journal  *repository.PaymentCallbackRepository
	registry *provider.Registry
	cleanup  func()
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

func newRegistry(cfg *config.Config) *provider.Registry {
	d2 := provider.NewD2Provider(provider.D2Settings{
		MerchantID:  cfg.D2.MerchantID,
		MD5Key1:     cfg.D2.MD5Key1,
		MD5Key2:     cfg.D2.MD5Key2,
		APIUsername: cfg.D2.APIUsername,
		APIPassword: cfg.D2.APIPassword,
		Lang:        cfg.D2.Lang,
		PayTypes:    cfg.D2.PayTypes,
		CalcFee:     cfg.D2.CalcFee,
		Capture:     cfg.D2.Capture,
		TestMode:    cfg.D2.TestMode,
		BaseURL:     cfg.D2.BaseURL,
		HTTPTimeout: cfg.D2.HTTPTimeout,
	})
	easyProvider := provider.NewEasyProvider(provider.EasySettings{
		TestMode:       cfg.Easy.TestMode,
		TestSecretKey:  cfg.Easy.TestSecretKey,
		LiveSecretKey:  cfg.Easy.LiveSecretKey,
		TermsURL:       cfg.Easy.TermsURL,
		Language:       cfg.Easy.Language,
		PaymentMethods: cfg.Easy.PaymentMethods,
		AutoCapture:    cfg.Easy.AutoCapture,
		BaseURL:        cfg.Easy.BaseURL,
		HTTPTimeout:    cfg.Easy.HTTPTimeout,
	})
	return provider.NewRegistry(d2, easyProvider)
}

func mustOpenJournal(cfg *config.Config) (*repository.PaymentCallbackRepository, func()) {
	if cfg.MySQL.DSN == "" {
		logrus.Info("MYSQL_DSN not set, callback journal disabled")
		return nil, func() {}
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}
	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to prepare callback journal schema")
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}
	return repository.NewPaymentCallbackRepository(db), cleanup
}

func mustCreateRuntime() *appRuntime {
	cfg := mustLoadConfig()

	orders, err := repository.LoadOrdersFile(cfg.App.OrdersFile)
	if err != nil {
		logrus.WithError(err).WithField("file", cfg.App.OrdersFile).Fatal("Failed to load orders")
	}

	journal, cleanup := mustOpenJournal(cfg)
	registry := newRegistry(cfg)
	collectors := metrics.New(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)

	var svc *service.PaymentService
	if journal != nil {
		svc = service.NewPaymentService(registry, cfg.App.DefaultProvider, journal, collectors)
	} else {
		svc = service.NewPaymentService(registry, cfg.App.DefaultProvider, nil, collectors)
	}

	return &appRuntime{
		cfg:      cfg,
		service:  svc,
		orders:   orders,
		journal:  journal,
		registry: registry,
		cleanup:  cleanup,
	}
}
