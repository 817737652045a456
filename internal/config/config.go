package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string // empty disables the health server

	// Storage
	Env         string // "dev" | "prod"
	Store       string // "memory" | "sqlite" | "postgres"
	DBPath      string // e.g. "./data/vaultpark.db"
	DatabaseDSN string // postgres only

	// Driver claims; empty RedisAddr means claims are process-local.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ClaimTTL      time.Duration

	KnownGates []string

	// Pricing
	HourlyRate  float64
	DailyCap    *float64 // nil = uncapped
	PricingFile string   // overrides HourlyRate/DailyCap when set
	Timezone    string

	// QR codes
	QRValidity time.Duration
	QRSecret   string // non-empty switches to keyed hashing

	// Scanner behaviour
	DebounceWindow   time.Duration
	ErrorResetDelay  time.Duration
	NormalizeVehicle bool

	// Scanner pool retention
	ScannerIdleTTLMinutes int // 0 = keep forever
	ReapIntervalMinutes   int // how often the reaper runs (default 5)

	LogLevel string
}

// Load reads an optional dotenv file before resolving the environment.
// Variables already set in the process environment win.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	cfg := FromEnv()
	return cfg, cfg.Validate()
}

func FromEnv() Config {
	env := strings.ToLower(getenvDefault("VAULTPARK_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	var dailyCap *float64
	if v := getenvFloat("VAULTPARK_DAILY_CAP", 0); v > 0 {
		dailyCap = &v
	}

	return Config{
		HTTPAddr: getenvDefault("VAULTPARK_HTTP_ADDR", ":8080"),
		GRPCAddr: os.Getenv("VAULTPARK_GRPC_ADDR"),

		Env:         env,
		Store:       strings.ToLower(getenvDefault("VAULTPARK_STORE", "sqlite")),
		DBPath:      getenvDefault("VAULTPARK_DB_PATH", "./data/vaultpark.db"),
		DatabaseDSN: os.Getenv("VAULTPARK_DATABASE_DSN"),

		RedisAddr:     strings.TrimSpace(os.Getenv("VAULTPARK_REDIS_ADDR")),
		RedisPassword: os.Getenv("VAULTPARK_REDIS_PASSWORD"),
		RedisDB:       getenvInt("VAULTPARK_REDIS_DB", 0),
		ClaimTTL:      getenvDuration("VAULTPARK_CLAIM_TTL", 10*time.Second),

		KnownGates: splitCSV(os.Getenv("VAULTPARK_KNOWN_GATES")),

		HourlyRate:  getenvFloat("VAULTPARK_HOURLY_RATE", 50),
		DailyCap:    dailyCap,
		PricingFile: strings.TrimSpace(os.Getenv("VAULTPARK_PRICING_FILE")),
		Timezone:    getenvDefault("VAULTPARK_TIMEZONE", "UTC"),

		QRValidity: getenvDuration("VAULTPARK_QR_VALIDITY", 2*time.Minute),
		QRSecret:   os.Getenv("VAULTPARK_QR_SECRET"),

		DebounceWindow:   getenvDuration("VAULTPARK_DEBOUNCE_WINDOW", 3*time.Second),
		ErrorResetDelay:  getenvDuration("VAULTPARK_ERROR_RESET_DELAY", 2*time.Second),
		NormalizeVehicle: getenvBool("VAULTPARK_NORMALIZE_VEHICLE", false),

		ScannerIdleTTLMinutes: getenvInt("VAULTPARK_SCANNER_IDLE_TTL_MINUTES", 60),
		ReapIntervalMinutes:   getenvInt("VAULTPARK_REAP_INTERVAL_MINUTES", 5),

		LogLevel: getenvDefault("VAULTPARK_LOG_LEVEL", "info"),
	}
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Store {
	case "memory", "sqlite":
	case "postgres":
		if c.DatabaseDSN == "" {
			return errors.New("VAULTPARK_DATABASE_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.HourlyRate < 0 {
		return errors.New("hourly rate must not be negative")
	}
	return nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
