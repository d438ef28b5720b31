package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_DEFAULT_PROVIDER", "MYSQL_DSN", "HTTP_PORT", "DIBS_EASY_TEST_MODE", "JOBS_RECONCILE_INTERVAL", "DIBS_D2_HTTP_TIMEOUT"} {
		unsetEnv(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.App.DefaultProvider != ProviderEasy {
		t.Fatalf("expected default provider %s, got %q", ProviderEasy, cfg.App.DefaultProvider)
	}
	if cfg.MySQL.DSN != "" {
		t.Fatalf("expected journal disabled by default, got %q", cfg.MySQL.DSN)
	}
	if cfg.HTTP.Port != "8080" || cfg.GRPC.Port != "9090" {
		t.Fatalf("unexpected ports %q / %q", cfg.HTTP.Port, cfg.GRPC.Port)
	}
	if !cfg.Easy.TestMode || cfg.Jobs.ReconcileInterval != 2*time.Minute || cfg.D2.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, "APP_DEFAULT_PROVIDER", " DIBS-D2 ")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/dibs?parseTime=true")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME", "40m")
	setEnv(t, "DIBS_D2_MERCHANT_ID", "90000")
	setEnv(t, "DIBS_D2_PAY_TYPES", "VISA,MC")
	setEnv(t, "DIBS_D2_CAPTURE", "true")
	setEnv(t, "DIBS_EASY_PAYMENT_METHODS", "easyinvoice")
	setEnv(t, "DIBS_EASY_HTTP_TIMEOUT", "3s")
	setEnv(t, "METRICS_NAMESPACE", "shop")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.App.DefaultProvider != ProviderD2 {
		t.Fatalf("expected normalized provider, got %q", cfg.App.DefaultProvider)
	}
	if cfg.HTTP.Port != "8181" || cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected overrides %+v / %+v", cfg.HTTP, cfg.MySQL)
	}
	if cfg.D2.MerchantID != "90000" || len(cfg.D2.PayTypes) != 2 || cfg.D2.PayTypes[1] != "MC" || !cfg.D2.Capture {
		t.Fatalf("unexpected d2 config %+v", cfg.D2)
	}
	if len(cfg.Easy.PaymentMethods) != 1 || cfg.Easy.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected easy config %+v", cfg.Easy)
	}
	if cfg.Metrics.Namespace != "shop" {
		t.Fatalf("unexpected metrics namespace %q", cfg.Metrics.Namespace)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setEnv(t, "APP_DEFAULT_PROVIDER", "paypal")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	setEnv(t, "DIBS_EASY_HTTP_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
