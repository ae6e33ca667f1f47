package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines tracker configuration.
type Config struct {
	Projects  ProjectsConfig  `yaml:"projects"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Audit     AuditConfig     `yaml:"audit"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Scan      ScanConfig      `yaml:"scan"`
	Cron      CronConfig      `yaml:"cron"`
}

type ProjectsConfig struct {
	Root          string `yaml:"root"`
	ResourcesFile string `yaml:"resources_file"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path is an optional log file. Empty means stderr.
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how the MCP server is exposed: "stdio" or "http".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuditConfig struct {
	// Bin is the audit binary name or absolute path.
	Bin           string        `yaml:"bin"`
	Workers       int           `yaml:"workers"`
	HealthTimeout time.Duration `yaml:"health_timeout"`
	TasksTimeout  time.Duration `yaml:"tasks_timeout"`
	CheckTimeout  time.Duration `yaml:"check_timeout"`
	FixTimeout    time.Duration `yaml:"fix_timeout"`
}

type AlertsConfig struct {
	StalledDays int `yaml:"stalled_days"`
}

type ScanConfig struct {
	GitTimeout    time.Duration `yaml:"git_timeout"`
	RefreshHealth bool          `yaml:"refresh_health"`
}

type CronConfig struct {
	CrontabTimeout time.Duration `yaml:"crontab_timeout"`
	Grace          time.Duration `yaml:"grace"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Projects: ProjectsConfig{
			Root:          filepath.Join(home, "projects"),
			ResourcesFile: filepath.Join(home, "projects", "EXTERNAL_RESOURCES.md"),
		},
		DB: DBConfig{
			Path: filepath.Join(home, ".projtrack", "projtrack.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Audit: AuditConfig{
			Bin:           "audit",
			Workers:       8,
			HealthTimeout: 60 * time.Second,
			TasksTimeout:  30 * time.Second,
			CheckTimeout:  10 * time.Second,
			FixTimeout:    10 * time.Second,
		},
		Alerts: AlertsConfig{
			StalledDays: 60,
		},
		Scan: ScanConfig{
			GitTimeout: 5 * time.Second,
		},
		Cron: CronConfig{
			CrontabTimeout: 5 * time.Second,
			Grace:          time.Hour,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("PT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if c.Projects.Root == "" {
		return fmt.Errorf("projects root is required")
	}
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q: must be stdio or http", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Audit.Workers <= 0 {
		return fmt.Errorf("audit workers must be positive, got %d", c.Audit.Workers)
	}
	if c.Alerts.StalledDays <= 0 {
		return fmt.Errorf("stalled days must be positive, got %d", c.Alerts.StalledDays)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"PT_PROJECTS_DIR":   &cfg.Projects.Root,
		"PT_RESOURCES_FILE": &cfg.Projects.ResourcesFile,
		"PT_DB_PATH":        &cfg.DB.Path,
		"PT_AUDIT_BIN":      &cfg.Audit.Bin,
		"PT_LOG_LEVEL":      &cfg.Log.Level,
		"PT_LOG_PATH":       &cfg.Log.Path,
		"PT_SERVER_HOST":    &cfg.Server.Host,
		"PT_TRANSPORT_MODE": &cfg.Transport.Mode,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PT_SERVER_PORT":    &cfg.Server.Port,
		"PT_STALLED_DAYS":   &cfg.Alerts.StalledDays,
		"PT_HEALTH_WORKERS": &cfg.Audit.Workers,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	if v := os.Getenv("PT_REFRESH_HEALTH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PT_REFRESH_HEALTH: %w", err)
		}
		cfg.Scan.RefreshHealth = b
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
