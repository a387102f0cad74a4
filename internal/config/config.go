package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Strings for identifiers and secrets, ints
// for durations.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port the control plane listens on
	JWTSecret    string // secret used to sign control-plane JWTs
	AccessTTLMin int    // control-plane access token time-to-live in minutes
	OperatorUser string // control-plane login name
	OperatorHash string // bcrypt hash of the control-plane password
	OperatorCode string // train classification code to keep ("17" = SRT)
	DBUser       string // database username (history persistence, optional)
	DBPass       string // database password (optional)
	DBHost       string // database host; empty disables history persistence
	DBPort       string // database port number
	DBName       string // database name
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// The database block is optional: when DB_HOST is unset the daemon runs
// without reservation history.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		OperatorUser: must("OPERATOR_USER"),
		OperatorHash: must("OPERATOR_PASS_HASH"),
		OperatorCode: getenv("SRT_OPERATOR_CODE", "17"),
		DBUser:       os.Getenv("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       os.Getenv("DB_HOST"),
		DBPort:       os.Getenv("DB_PORT"),
		DBName:       os.Getenv("DB_NAME"),
	}
}

// HistoryEnabled reports whether the optional MySQL-backed reservation
// history is configured.
func (c Config) HistoryEnabled() bool { return c.DBHost != "" }

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
