// config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Rules are the game balance constants.
type Rules struct {
	StartBudget       int64  `yaml:"start_budget" json:"startBudget"`
	StartFuelRange    int64  `yaml:"start_fuel_range" json:"startFuel"`
	FuelRate          int64  `yaml:"fuel_rate" json:"fuelRate"`
	RequiredChemicals int    `yaml:"required_chemicals" json:"requiredChemicals"`
	ChemicalEvents    int    `yaml:"chemical_events" json:"-"`
	OtherEvents       int    `yaml:"other_events" json:"-"`
	TotalAirports     int    `yaml:"total_airports" json:"-"`
	DefaultPlayer     string `yaml:"default_player" json:"-"`
	DefaultStart      string `yaml:"default_start" json:"-"`
}

var DefaultRules = Rules{
	StartBudget:       5000,
	StartFuelRange:    3000,
	FuelRate:          2,
	RequiredChemicals: 5,
	ChemicalEvents:    5,
	OtherEvents:       10,
	TotalAirports:     20,
	DefaultPlayer:     "Researcher",
	DefaultStart:      "LSZH",
}

func (r Rules) Validate() error {
	switch {
	case r.StartBudget < 0:
		return errors.New("start_budget must not be negative")
	case r.StartFuelRange < 0:
		return errors.New("start_fuel_range must not be negative")
	case r.FuelRate <= 0:
		return errors.New("fuel_rate must be positive")
	case r.RequiredChemicals < 0:
		return errors.New("required_chemicals must not be negative")
	case r.ChemicalEvents < 0 || r.OtherEvents < 0 || r.TotalAirports < 0:
		return errors.New("event and airport counts must not be negative")
	case r.ChemicalEvents > r.TotalAirports:
		return fmt.Errorf("chemical_events (%d) exceeds total_airports (%d)", r.ChemicalEvents, r.TotalAirports)
	}
	return nil
}

// R2 holds object storage credentials for game archives.
type R2 struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

func (r R2) Enabled() bool {
	return r.Bucket != "" && r.AccountID != ""
}

type Config struct {
	DatabaseURL     string
	Store           string // "postgres" or "memory"
	Port            string
	AllowedOrigins  string
	APIToken        string
	StaticDir       string
	ArchiveInterval time.Duration
	R2              R2
	Rules           Rules
}

// Load reads .env (if present), the environment and the optional RULES_FILE.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Store:           strings.ToLower(envOr("STORE", "postgres")),
		Port:            envOr("PORT", "5000"),
		AllowedOrigins:  envOr("ALLOWED_ORIGINS", "*"),
		APIToken:        os.Getenv("API_TOKEN"),
		StaticDir:       envOr("STATIC_DIR", "./public"),
		ArchiveInterval: envDuration("ARCHIVE_INTERVAL", 10*time.Minute),
		R2: R2{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
		},
	}

	rules := DefaultRules
	if path := os.Getenv("RULES_FILE"); path != "" {
		if err := LoadRulesFile(path, &rules); err != nil {
			return nil, err
		}
	}
	applyRulesEnv(&rules)
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game rules: %w", err)
	}
	cfg.Rules = rules

	if cfg.Store != "postgres" && cfg.Store != "memory" {
		return nil, fmt.Errorf("unknown STORE %q (use postgres or memory)", cfg.Store)
	}
	if cfg.Store == "postgres" && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}
	return cfg, nil
}

// LoadRulesFile overlays the YAML file at path onto rules.
func LoadRulesFile(path string, rules *Rules) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return nil
}

func applyRulesEnv(r *Rules) {
	r.StartBudget = envInt64("START_BUDGET", r.StartBudget)
	r.StartFuelRange = envInt64("START_FUEL_RANGE", r.StartFuelRange)
	r.FuelRate = envInt64("FUEL_RATE", r.FuelRate)
	r.RequiredChemicals = int(envInt64("REQUIRED_CHEMICALS", int64(r.RequiredChemicals)))
	r.ChemicalEvents = int(envInt64("CHEMICAL_EVENTS", int64(r.ChemicalEvents)))
	r.OtherEvents = int(envInt64("OTHER_EVENTS", int64(r.OtherEvents)))
	r.TotalAirports = int(envInt64("TOTAL_AIRPORTS", int64(r.TotalAirports)))
	r.DefaultPlayer = envOr("DEFAULT_PLAYER", r.DefaultPlayer)
	r.DefaultStart = envOr("DEFAULT_START", r.DefaultStart)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("⚠️  [CONFIG] %s=%q is not an integer, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if raw == "0" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("⚠️  [CONFIG] %s=%q is not a valid duration, using %s", key, raw, fallback)
		return fallback
	}
	return d
}
