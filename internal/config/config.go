package config // package config loads application configuration from environment variables

import (
    "fmt"     // fmt formats the aggregated configuration error
    "os"      // os provides access to environment variables
    "sort"    // sort keeps the list of missing keys stable
    "strings" // strings joins missing key names
    "time"    // time parses the ESP request timeout

    "github.com/joho/godotenv" // godotenv loads KEY=VALUE pairs from a .env file
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for TTLs and costs.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    DBUser          string        // database username
    DBPass          string        // database password (optional)
    DBHost          string        // database host address
    DBPort          string        // database port number
    DBName          string        // database name
    SessionSecret   string        // secret used to sign session tokens
    SessionTTLHours int           // session lifetime in hours
    BcryptCost      int           // bcrypt cost for password hashing
    ESPTimeout      time.Duration // timeout for the outbound ESP request, 0 disables it
    LogLevel        string        // debug | info | warn | error
    LogFormat       string        // json | console
}

// LoadEnvFile merges the variables of a .env file into the process
// environment.  Variables that are already set win.  A missing file is not
// an error because production deployments inject the environment directly.
func LoadEnvFile(path string) error {
    if path == "" {
        return nil
    }
    if _, err := os.Stat(path); os.IsNotExist(err) {
        return nil
    }
    return godotenv.Load(path)
}

// Load reads configuration values from environment variables and returns a
// Config.  All missing required variables are reported in a single error so
// an operator can fix them in one pass.
func Load() (Config, error) {
    var missing []string
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || v == "" {
            missing = append(missing, key)
        }
        return v
    }

    cfg := Config{
        Env:             getenv("APP_ENV", "dev"),
        Port:            must("APP_PORT"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"), // empty allowed
        DBHost:          must("DB_HOST"),
        DBPort:          must("DB_PORT"),
        DBName:          must("DB_NAME"),
        SessionSecret:   must("SESSION_SECRET"),
        SessionTTLHours: envInt("SESSION_TTL_HOURS", 24),
        BcryptCost:      envInt("BCRYPT_COST", 12),
        ESPTimeout:      envDur("ESP_TIMEOUT", 10*time.Second),
        LogLevel:        getenv("LOG_LEVEL", "info"),
        LogFormat:       getenv("LOG_FORMAT", "json"),
    }
    if len(missing) > 0 {
        sort.Strings(missing)
        return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
    }
    if cfg.SessionTTLHours < 1 {
        return Config{}, fmt.Errorf("invalid SESSION_TTL_HOURS: %d", cfg.SessionTTLHours)
    }
    if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
        return Config{}, fmt.Errorf("invalid BCRYPT_COST: %d", cfg.BcryptCost)
    }
    return cfg, nil
}

