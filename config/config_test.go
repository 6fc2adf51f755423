package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("REWARD_JWT_SECRET", "s3cret")
	t.Setenv("REWARD_DB_DRIVER", "SQLite")
	t.Setenv("REWARD_SQLITE_PATH", ":memory:")
	t.Setenv("REWARD_MIN_REDEMPTION_POINTS", "20")
	t.Setenv("REWARD_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DBDriver != DriverSQLite {
		t.Errorf("driver = %q, want %q", c.DBDriver, DriverSQLite)
	}
	if c.Port != 5000 {
		t.Errorf("port = %d, want 5000", c.Port)
	}
	if c.MinRedemptionPoints != 20 {
		t.Errorf("min redemption points = %d, want 20", c.MinRedemptionPoints)
	}
	if c.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v, want 24h", c.TokenTTL)
	}
	if len(c.AllowedOrigins) != 2 {
		t.Errorf("allowed origins = %v, want 2 entries", c.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{DBDriver: "postgres", JWTSecret: "x", TokenTTL: time.Hour}, false},
		{"missing secret", Config{DBDriver: "postgres", TokenTTL: time.Hour}, true},
		{"bad driver", Config{DBDriver: "mongo", JWTSecret: "x", TokenTTL: time.Hour}, true},
		{"negative minimum", Config{DBDriver: "sqlite", JWTSecret: "x", TokenTTL: time.Hour, MinRedemptionPoints: -1}, true},
		{"zero ttl", Config{DBDriver: "sqlite", JWTSecret: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
