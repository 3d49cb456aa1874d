package config // package config loads application configuration from environment variables

import (
    "log" // log is used to report configuration errors and halt execution
    "os"  // os provides access to environment variables
    "strings"
    "time"

    "github.com/joho/godotenv" // optional .env file for local development
)

// Store backends accepted in STORE.
const (
    StoreMySQL  = "mysql"
    StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database settings are only required when the
// MySQL store is selected.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    Store           string        // "mysql" or "memory"
    DBUser          string        // database username
    DBPass          string        // database password (optional)
    DBHost          string        // database host address
    DBPort          string        // database port number
    DBName          string        // database name
    JWTSecret       string        // when set, write routes require an EDITOR/ADMIN token
    LogLevel        string        // debug, info, warn, error
    LogFormat       string        // json or console
    ShutdownTimeout time.Duration // grace period for in-flight requests
}

// LoadDotEnv reads a .env file from the working directory if one exists.
// Variables already present in the environment win.
func LoadDotEnv() {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("ignoring .env: %v", err)
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:             envStr("APP_ENV", "dev"),
        Port:            envStr("APP_PORT", "8000"),
        Store:           strings.ToLower(envStr("STORE", StoreMySQL)),
        JWTSecret:       os.Getenv("JWT_SECRET"),
        LogLevel:        envStr("LOG_LEVEL", "info"),
        LogFormat:       envStr("LOG_FORMAT", "json"),
        ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
    }
    switch cfg.Store {
    case StoreMemory:
    case StoreMySQL:
        cfg.loadDB()
    default:
        log.Fatalf("invalid STORE %q (want %s or %s)", cfg.Store, StoreMySQL, StoreMemory)
    }
    return cfg
}

// LoadDB reads only the database settings; used by the migrate command.
func LoadDB() Config {
    var cfg Config
    cfg.Store = StoreMySQL
    cfg.loadDB()
    return cfg
}

func (c *Config) loadDB() {
    c.DBUser = must("DB_USER")           // database user
    c.DBPass = os.Getenv("DB_PASS")      // database password (empty allowed)
    c.DBHost = must("DB_HOST")           // database host
    c.DBPort = envStr("DB_PORT", "3306") // database port
    c.DBName = must("DB_NAME")           // database name
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// DSN builds the go-sql-driver/mysql data source name.  parseTime makes DATE
// columns scan into time.Time and loc=UTC keeps them consistent.
func (c Config) DSN() string {
    auth := c.DBUser
    if c.DBPass != "" {
        auth += ":" + c.DBPass
    }
    return auth + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
        "?charset=utf8mb4&parseTime=true&loc=UTC"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// AuthEnabled reports whether write routes require a bearer token.
func (c Config) AuthEnabled() bool { return c.JWTSecret != "" }
