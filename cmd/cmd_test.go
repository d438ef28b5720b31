package cmd

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dibs/config"
)

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"transact=777", "amount=12000", "currency=208"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 3 || fields[0].Key != "transact" || fields[2].Value != "208" {
		t.Fatalf("unexpected fields %+v", fields)
	}

	if _, err := parseFields([]string{"novalue"}); err == nil {
		t.Fatal("expected error for missing '='")
	}
	if _, err := parseFields([]string{"=x"}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestConfigureLogging(t *testing.T) {
	prevLevel := logrus.GetLevel()
	prevFormatter := logrus.StandardLogger().Formatter
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(prevFormatter)
	})

	cfg := &config.Config{Log: config.LogConfig{Level: "debug", Format: "text"}}
	if err := configureLogging(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter")
	}

	cfg.Log.Format = "xml"
	if err := configureLogging(cfg); err == nil {
		t.Fatal("expected error for unknown format")
	}
	cfg.Log.Level = "loud"
	if err := configureLogging(cfg); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
