package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App holds the runtime configuration loaded from environment variables and
// the locations file.
type App struct {
	Env              string
	HTTPPort         string
	RedisAddr        string
	QueueBackend     string
	JWTIssuer        string
	JWTSigningKey    string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	RateLimitPerMin  int
	CurrentMonthOnly bool
	Locations        map[string]Location
}

// Location is one configured source/sink set. One backend serves all five
// stores of a run; an events CSV directory, when set, replaces the backend's
// event table as the event source.
type Location struct {
	Backend        string `yaml:"backend"` // postgres | sqlite
	DatabaseURL    string `yaml:"database_url"`
	DBPath         string `yaml:"db_path"`
	EventsCSVDir   string `yaml:"events_csv_dir"`
	DetailPauseSec *int   `yaml:"detail_pause_sec"`
}

type fileConfig struct {
	CurrentMonthOnly bool                `yaml:"current_month_only"`
	Locations        map[string]Location `yaml:"locations"`
}

// Store backend names accepted in the locations file.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

const defaultDetailPause = time.Second

// Load returns application config populated from the locations file named by
// CONFIG_PATH (default config/locations.yaml) plus environment overrides.
func Load() (App, error) {
	app := App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		QueueBackend:    getEnv("QUEUE_BACKEND", "redis"),
		JWTIssuer:       getEnv("JWT_ISSUER", "attendance-report"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:       durationEnv("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:      durationEnv("REFRESH_TTL", 24*time.Hour),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}

	path := getEnv("CONFIG_PATH", "config/locations.yaml")
	fileCfg, err := loadFile(path)
	if err != nil {
		return app, fmt.Errorf("load locations config %s: %w", path, err)
	}
	app.CurrentMonthOnly = fileCfg.CurrentMonthOnly
	if v := os.Getenv("CURRENT_MONTH_ONLY"); v != "" {
		app.CurrentMonthOnly = boolEnv("CURRENT_MONTH_ONLY", app.CurrentMonthOnly)
	}
	app.Locations = fileCfg.Locations
	return app, nil
}

// Location resolves the named source/sink set. An unknown name is an error;
// callers must treat it as fatal before touching any store.
func (a App) Location(name string) (Location, error) {
	loc, ok := a.Locations[name]
	if !ok {
		return Location{}, fmt.Errorf("location %q not configured (have %v)", name, a.LocationNames())
	}
	if env := os.Getenv("DATABASE_URL"); env != "" && loc.Backend == BackendPostgres {
		loc.DatabaseURL = env
	}
	if err := loc.validate(); err != nil {
		return Location{}, fmt.Errorf("location %q: %w", name, err)
	}
	return loc, nil
}

// LocationNames lists configured locations for error messages.
func (a App) LocationNames() []string {
	names := make([]string, 0, len(a.Locations))
	for name := range a.Locations {
		names = append(names, name)
	}
	return names
}

// DetailPause returns the pacing between per-date detail writes.
func (l Location) DetailPause() time.Duration {
	if l.DetailPauseSec == nil {
		return defaultDetailPause
	}
	if *l.DetailPauseSec < 0 {
		return 0
	}
	return time.Duration(*l.DetailPauseSec) * time.Second
}

func (l Location) validate() error {
	switch l.Backend {
	case BackendPostgres:
		if l.DatabaseURL == "" {
			return fmt.Errorf("postgres backend needs database_url")
		}
	case BackendSQLite:
		if l.DBPath == "" {
			return fmt.Errorf("sqlite backend needs db_path")
		}
	default:
		return fmt.Errorf("unknown backend %q", l.Backend)
	}
	return nil
}

func loadFile(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Locations) == 0 {
		return cfg, fmt.Errorf("no locations defined")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
