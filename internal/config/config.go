package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration derived from the config file and
// environment variables. Environment wins over file, file wins over defaults.
type Config struct {
	SourceURL     string
	ListenAddr    string
	DBPath        string
	PlayerCommand string

	PollInterval  time.Duration
	Debounce      time.Duration
	LocateRetry   time.Duration
	Window        time.Duration
	Upcoming      time.Duration
	ChimeBucket   time.Duration
	ReminderEvery time.Duration

	StrictConfig bool
}

type fileConfig struct {
	SourceURL     string `yaml:"source_url"`
	ListenAddr    string `yaml:"listen_addr"`
	DBPath        string `yaml:"db_path"`
	PlayerCommand string `yaml:"player_command"`
	PollInterval  string `yaml:"poll_interval"`
	Debounce      string `yaml:"debounce"`
	LocateRetry   string `yaml:"locate_retry"`
	Window        string `yaml:"window"`
	Upcoming      string `yaml:"upcoming"`
	ChimeBucket   string `yaml:"chime_bucket"`
	ReminderEvery string `yaml:"reminder_every"`
}

const (
	defaultListenAddr    = ":8080"
	defaultDBPath        = "runtime/dispatchwatch.db"
	defaultPollInterval  = 4 * time.Second
	defaultDebounce      = 300 * time.Millisecond
	defaultLocateRetry   = 2 * time.Second
	defaultWindow        = 24 * time.Hour
	defaultUpcoming      = 5 * time.Minute
	defaultChimeBucket   = 5 * time.Minute
	defaultReminderEvery = 30 * time.Second

	minPollInterval = 500 * time.Millisecond
	maxPollInterval = 5 * time.Minute
	minDebounce     = 50 * time.Millisecond
	maxDebounce     = 10 * time.Second
)

// Load reads configuration from the optional config file and environment
// variables, applying defaults and clamps. A .env file in the working
// directory is loaded first without overriding existing variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load failed: %v (continuing)", err)
	}

	cfg := Config{
		PollInterval:  defaultPollInterval,
		Debounce:      defaultDebounce,
		LocateRetry:   defaultLocateRetry,
		Window:        defaultWindow,
		Upcoming:      defaultUpcoming,
		ChimeBucket:   defaultChimeBucket,
		ReminderEvery: defaultReminderEvery,
		StrictConfig:  parseBoolEnv("STRICT_CONFIG"),
	}

	configPath := getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil && !os.IsNotExist(fileErr) {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Printf("config load failed (%s): %v (using defaults)", configPath, fileErr)
	}

	cfg.SourceURL = firstNonEmpty(os.Getenv("SOURCE_URL"), fileCfg.SourceURL)
	cfg.ListenAddr = firstNonEmpty(os.Getenv("LISTEN_ADDR"), fileCfg.ListenAddr, defaultListenAddr)
	if !strings.Contains(cfg.ListenAddr, ":") {
		cfg.ListenAddr = ":" + cfg.ListenAddr
	}
	cfg.DBPath = firstNonEmpty(os.Getenv("DB_PATH"), fileCfg.DBPath, defaultDBPath)
	cfg.PlayerCommand = firstNonEmpty(os.Getenv("PLAYER_CMD"), fileCfg.PlayerCommand)

	durations := []struct {
		name     string
		env      string
		file     string
		dst      *time.Duration
		min, max time.Duration
	}{
		{"poll_interval", "POLL_INTERVAL", fileCfg.PollInterval, &cfg.PollInterval, minPollInterval, maxPollInterval},
		{"debounce", "DEBOUNCE", fileCfg.Debounce, &cfg.Debounce, minDebounce, maxDebounce},
		{"locate_retry", "LOCATE_RETRY", fileCfg.LocateRetry, &cfg.LocateRetry, 100 * time.Millisecond, time.Minute},
		{"window", "WINDOW", fileCfg.Window, &cfg.Window, time.Hour, 7 * 24 * time.Hour},
		{"upcoming", "UPCOMING", fileCfg.Upcoming, &cfg.Upcoming, time.Minute, time.Hour},
		{"chime_bucket", "CHIME_BUCKET", fileCfg.ChimeBucket, &cfg.ChimeBucket, time.Minute, time.Hour},
		{"reminder_every", "REMINDER_EVERY", fileCfg.ReminderEvery, &cfg.ReminderEvery, 5 * time.Second, 10 * time.Minute},
	}
	for _, d := range durations {
		raw := firstNonEmpty(os.Getenv(d.env), d.file)
		if raw == "" {
			continue
		}
		val, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			if cfg.StrictConfig {
				return cfg, fmt.Errorf("invalid %s=%q: %w", d.env, raw, err)
			}
			log.Printf("invalid %s=%q, keeping %s", d.env, raw, *d.dst)
			continue
		}
		if val < d.min {
			log.Printf("%s raised to minimum %s (was %s)", d.name, d.min, val)
			val = d.min
		}
		if val > d.max {
			log.Printf("%s capped at %s (was %s)", d.name, d.max, val)
			val = d.max
		}
		*d.dst = val
	}

	if err := validate(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Printf("config validation failed: %v (continuing)", err)
	}
	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return errors.New("SOURCE_URL is required")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return errors.New("LISTEN_ADDR is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("DB_PATH is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
