package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.APIBaseURL == "" || cfg.SocketURL == "" {
		t.Fatalf("expected default URLs, got %+v", cfg)
	}
	if cfg.LowStockThreshold >= cfg.MediumStockThreshold {
		t.Fatalf("thresholds must satisfy low < medium: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://10.0.0.2:3001/api")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("MEDIUM_STOCK_THRESHOLD", "9")

	cfg := Load()
	if cfg.APIBaseURL != "http://10.0.0.2:3001/api" {
		t.Fatalf("expected override, got %s", cfg.APIBaseURL)
	}
	if cfg.LowStockThreshold != 3 || cfg.MediumStockThreshold != 9 {
		t.Fatalf("expected thresholds 3/9, got %d/%d", cfg.LowStockThreshold, cfg.MediumStockThreshold)
	}
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "10")
	t.Setenv("MEDIUM_STOCK_THRESHOLD", "4")

	cfg := Load()
	if cfg.MediumStockThreshold <= cfg.LowStockThreshold {
		t.Fatalf("medium threshold must be forced above low, got %d/%d", cfg.LowStockThreshold, cfg.MediumStockThreshold)
	}
}
