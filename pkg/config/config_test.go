package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("KIS_APP_KEY", "test-key")
	os.Setenv("KIS_APP_SECRET", "test-secret")
	defer func() {
		os.Unsetenv("KIS_APP_KEY")
		os.Unsetenv("KIS_APP_SECRET")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Port != "8090" {
		t.Errorf("Expected Port to be 8090, got %s", cfg.Port)
	}

	if cfg.Database.MaxConns != 10 {
		t.Errorf("Expected DB MaxConns to be 10, got %d", cfg.Database.MaxConns)
	}

	if cfg.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("KIS_APP_KEY", "test-key")
	os.Setenv("KIS_APP_SECRET", "test-secret")
	os.Setenv("KIS_ACCOUNT_NO", "1234567801")
	os.Setenv("KIS_IS_VIRTUAL", "true")
	os.Setenv("ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("COLLECT_SYMBOLS", "005930, 000660,035420")

	defer func() {
		os.Unsetenv("KIS_APP_KEY")
		os.Unsetenv("KIS_APP_SECRET")
		os.Unsetenv("KIS_ACCOUNT_NO")
		os.Unsetenv("KIS_IS_VIRTUAL")
		os.Unsetenv("ENV")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("COLLECT_SYMBOLS")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if !cfg.KIS.IsVirtual {
		t.Error("Expected IsVirtual to be true")
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}

	if len(cfg.Collector.Symbols) != 3 {
		t.Fatalf("Expected 3 collect symbols, got %d", len(cfg.Collector.Symbols))
	}

	if cfg.Collector.Symbols[1] != "000660" {
		t.Errorf("Expected second symbol 000660, got %s", cfg.Collector.Symbols[1])
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	os.Unsetenv("KIS_APP_KEY")
	os.Unsetenv("KIS_APP_SECRET")

	if _, err := Load(); err == nil {
		t.Error("Expected Load() to fail without KIS credentials")
	}
}

func TestLoadInvalidAccountNo(t *testing.T) {
	os.Setenv("KIS_APP_KEY", "test-key")
	os.Setenv("KIS_APP_SECRET", "test-secret")
	os.Setenv("KIS_ACCOUNT_NO", "12345")
	defer func() {
		os.Unsetenv("KIS_APP_KEY")
		os.Unsetenv("KIS_APP_SECRET")
		os.Unsetenv("KIS_ACCOUNT_NO")
	}()

	if _, err := Load(); err == nil {
		t.Error("Expected Load() to fail with short account number")
	}
}

func TestKISConfigAccountSplit(t *testing.T) {
	kis := KISConfig{AccountNo: "1234567801"}

	if !kis.HasAccount() {
		t.Fatal("Expected HasAccount() to be true")
	}

	if kis.CANO() != "12345678" {
		t.Errorf("Expected CANO 12345678, got %s", kis.CANO())
	}

	if kis.ProductCode() != "01" {
		t.Errorf("Expected product code 01, got %s", kis.ProductCode())
	}
}
