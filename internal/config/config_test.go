package config

import (
    "strings"
    "testing"
    "time"
)

func TestLoad_MemoryStoreSkipsDatabase(t *testing.T) {
    t.Setenv("STORE", "Memory")
    t.Setenv("APP_PORT", "9090")
    t.Setenv("SHUTDOWN_TIMEOUT", "3s")
    t.Setenv("DB_USER", "")

    cfg := Load()
    if cfg.Store != StoreMemory {
        t.Fatalf("Store = %q, want %q", cfg.Store, StoreMemory)
    }
    if cfg.Addr() != ":9090" {
        t.Errorf("Addr() = %q", cfg.Addr())
    }
    if cfg.ShutdownTimeout != 3*time.Second {
        t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
    }
    if cfg.AuthEnabled() {
        t.Errorf("AuthEnabled() = true without JWT_SECRET")
    }
}

func TestLoad_MySQL(t *testing.T) {
    t.Setenv("STORE", "mysql")
    t.Setenv("DB_USER", "films")
    t.Setenv("DB_PASS", "secret")
    t.Setenv("DB_HOST", "db")
    t.Setenv("DB_PORT", "")
    t.Setenv("DB_NAME", "catalog")

    dsn := Load().DSN()
    if !strings.HasPrefix(dsn, "films:secret@tcp(db:3306)/catalog?") {
        t.Errorf("DSN = %q", dsn)
    }
    if !strings.Contains(dsn, "parseTime=true") {
        t.Errorf("DSN %q lacks parseTime", dsn)
    }
}

func TestLoadRateLimitConfig_Shorthands(t *testing.T) {
    t.Setenv("RATE_LIMIT_BURST", "7")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    if cfg.Capacity != 7 || cfg.RefillTokens != 1 || cfg.RefillInterval != 2*time.Second {
        t.Errorf("cfg = %+v", cfg)
    }
    if cfg.TTL != 10*time.Second {
        t.Errorf("TTL = %v, want raised to 5 intervals", cfg.TTL)
    }
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head ,")
    t.Setenv("CACHE_ENABLED", "false")

    cfg := LoadCacheConfig()
    if cfg.Enabled {
        t.Error("Enabled = true")
    }
    if len(cfg.Methods) != 2 || !cfg.Methods["GET"] || !cfg.Methods["HEAD"] {
        t.Errorf("Methods = %v", cfg.Methods)
    }
    if cfg.Prefix != "films:cache" {
        t.Errorf("Prefix = %q", cfg.Prefix)
    }
}

func TestLoadEventsConfig_Defaults(t *testing.T) {
    t.Setenv("EVENTS_URL", "")
    t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")

    cfg := LoadEventsConfig()
    if cfg.Enabled {
        t.Error("events enabled by default")
    }
    if cfg.URL != "amqp://u:p@mq:5672/" || cfg.Queue != "film.events" || cfg.LogDir != "logs" {
        t.Errorf("cfg = %+v", cfg)
    }
}
