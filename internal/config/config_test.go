package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/wishbot/core/config"
	coredatabase "github.com/m3rciful/wishbot/core/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadFullFile(t *testing.T) {
	p := writeConfig(t, `
telegram:
  token: t0k
logging:
  level: debug
database:
  driver: sqlite
  path: data/wish.db
redis:
  addr: " localhost:6379 "
  session_ttl: 2h
export:
  dir: /var/lib/wishbot
metrics:
  listen: ":9100"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "t0k" || cfg.Telegram.RunMode != coreconfig.RunModeLongpoll {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("inline core section lost: %+v", cfg.Logging)
	}
	if cfg.Database.Driver != coredatabase.DriverSQLite || cfg.Database.Path != "data/wish.db" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.SessionTTL != 2*time.Hour {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.Export.Dir != "/var/lib/wishbot" || cfg.Metrics.Listen != ":9100" {
		t.Fatalf("export/metrics = %+v %+v", cfg.Export, cfg.Metrics)
	}
	if cfg.CoreConfig().Telegram.Token != "t0k" {
		t.Fatal("CoreConfig does not expose the embedded section")
	}
}

func TestLoadFromEnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("EXPORT_DIR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Database.Path != "wishbot.db" {
		t.Fatalf("sqlite default path = %q", cfg.Database.Path)
	}
	if cfg.Redis.Addr != "" || cfg.Redis.SessionTTL != 30*time.Minute {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.Export.Dir != "snapshots" {
		t.Fatalf("export dir = %q", cfg.Export.Dir)
	}
}

func TestNormalizeRejects(t *testing.T) {
	base := func() Config {
		return Config{
			Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
			Database: coredatabase.Config{Driver: coredatabase.DriverSQLite},
		}
	}
	cases := map[string]func(*Config){
		"no token":      func(c *Config) { c.Telegram.Token = "" },
		"bad driver":    func(c *Config) { c.Database.Driver = "mysql" },
		"postgres bare": func(c *Config) { c.Database.Driver = coredatabase.DriverPostgres },
		"negative db":   func(c *Config) { c.Redis.DB = -1 },
		"negative ttl":  func(c *Config) { c.Redis.SessionTTL = -time.Second },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(&cfg)
		if err := cfg.Normalize(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	cfg := base()
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("base config rejected: %v", err)
	}
	if cfg.Redis.SessionTTL != 24*time.Hour {
		t.Fatalf("default ttl = %v", cfg.Redis.SessionTTL)
	}
}
