package config

import "testing"

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SimilarityThreshold != 0.7 {
		t.Fatalf("unexpected SimilarityThreshold: %v", cfg.SimilarityThreshold)
	}
	if cfg.MinProposeConfidence != 30 {
		t.Fatalf("unexpected MinProposeConfidence: %d", cfg.MinProposeConfidence)
	}
	if cfg.AutoConfirmConfidence != 90 {
		t.Fatalf("unexpected AutoConfirmConfidence: %d", cfg.AutoConfirmConfidence)
	}
	if cfg.ServiceName != "goldenstat-identity" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
}

func TestLoad_ThresholdValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"threshold above one", "RESOLVER_SIMILARITY_THRESHOLD", "1.5"},
		{"threshold zero", "RESOLVER_SIMILARITY_THRESHOLD", "0"},
		{"propose confidence out of range", "RESOLVER_MIN_PROPOSE_CONFIDENCE", "150"},
		{"auto confirm below propose", "RESOLVER_AUTO_CONFIRM_CONFIDENCE", "10"},
		{"scan workers zero", "RESOLVER_SCAN_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_PyroscopeRequiresAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}
