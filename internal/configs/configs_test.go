package configs

import (
	"reflect"
	"testing"
)

var configEnv = []string{
	"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "JWT_SECRET", "DATABASE_URL", "REDIS_URL",
	"HISTORY_WORKERS", "HISTORY_QUEUE_SIZE", "CHAT_RATE", "CHAT_BURST",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.IsDevelopment() || cfg.Port != 8080 {
		t.Errorf("env/port = %s/%d", cfg.Environment, cfg.Port)
	}
	if cfg.JWTSecret == "" {
		t.Error("development should fall back to a default secret")
	}
	if cfg.HistoryWorkers != 4 || cfg.HistoryQueueSize != 1024 || cfg.ChatRate != 2 || cfg.ChatBurst != 5 {
		t.Errorf("chat settings = %+v", cfg)
	}
	if cfg.DatabaseDSN != "" || cfg.RedisURL != "" {
		t.Errorf("storage should default to disabled, got %q %q", cfg.DatabaseDSN, cfg.RedisURL)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("HISTORY_WORKERS", "8")
	t.Setenv("CHAT_RATE", "0.5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.IsDevelopment() || cfg.Port != 9090 || cfg.JWTSecret != "s3cret" {
		t.Errorf("cfg = %+v", cfg)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.RedisURL != "redis://cache:6379/0" || cfg.HistoryWorkers != 8 || cfg.ChatRate != 0.5 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret in production", map[string]string{"ENVIRONMENT": "production"}},
		{"bad port", map[string]string{"PORT": "http"}},
		{"privileged port", map[string]string{"PORT": "80"}},
		{"zero workers", map[string]string{"HISTORY_WORKERS": "0"}},
		{"bad queue size", map[string]string{"HISTORY_QUEUE_SIZE": "lots"}},
		{"negative rate", map[string]string{"CHAT_RATE": "-1"}},
		{"zero burst", map[string]string{"CHAT_BURST": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
