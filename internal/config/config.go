package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/timeutil"
	"gopkg.in/yaml.v3"
)

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type Config struct {
	SourceKind  string
	SourceDSN   string
	HistoryKind string
	HistoryDSN  string
	Tables      []string
	Interval    time.Duration
	Schedule    string
	RunTimeout  time.Duration
	ExportKind  string
	ExportDir   string
	S3          S3Config
	LogLevel    string
	MetricsAddr string
}

type storeFile struct {
	Kind string `yaml:"kind"`
	DSN  string `yaml:"dsn"`
}

type exportFile struct {
	Kind string   `yaml:"kind"`
	Dir  string   `yaml:"dir"`
	S3   S3Config `yaml:"s3"`
}

// fileConfig mirrors the YAML layout; durations stay strings so "1d" works.
type fileConfig struct {
	Source      storeFile  `yaml:"source"`
	History     storeFile  `yaml:"history"`
	Tables      []string   `yaml:"tables"`
	Interval    string     `yaml:"interval"`
	Schedule    string     `yaml:"schedule"`
	RunTimeout  string     `yaml:"run_timeout"`
	Export      exportFile `yaml:"export"`
	LogLevel    string     `yaml:"log_level"`
	MetricsAddr string     `yaml:"metrics_addr"`
}

const (
	DefaultTable     = "sample_logs"
	DefaultInterval  = "5m"
	DefaultExportDir = "logs"
)

// Load resolves configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins). A .env file in
// the working directory is read first without overriding variables already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	fc := fileConfig{}
	fc.Source.Kind = domain.KindPostgres
	fc.Tables = []string{DefaultTable}
	fc.Interval = DefaultInterval
	fc.Export.Kind = domain.ExportKindFile
	fc.Export.Dir = DefaultExportDir
	fc.LogLevel = "info"

	if path == "" {
		path = os.Getenv("SANITIZER_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		SourceKind:  getEnv("SANITIZER_SOURCE_KIND", fc.Source.Kind),
		SourceDSN:   getEnv("SANITIZER_SOURCE_DSN", fc.Source.DSN),
		HistoryKind: getEnv("SANITIZER_HISTORY_KIND", fc.History.Kind),
		HistoryDSN:  getEnv("SANITIZER_HISTORY_DSN", fc.History.DSN),
		Tables:      fc.Tables,
		Schedule:    getEnv("SANITIZER_SCHEDULE", fc.Schedule),
		ExportKind:  getEnv("SANITIZER_EXPORT_KIND", fc.Export.Kind),
		ExportDir:   getEnv("SANITIZER_EXPORT_DIR", fc.Export.Dir),
		LogLevel:    getEnv("SANITIZER_LOG_LEVEL", fc.LogLevel),
		MetricsAddr: getEnv("SANITIZER_METRICS_ADDR", fc.MetricsAddr),
		S3: S3Config{
			Endpoint:  getEnv("SANITIZER_S3_ENDPOINT", fc.Export.S3.Endpoint),
			AccessKey: getEnv("SANITIZER_S3_ACCESS_KEY", fc.Export.S3.AccessKey),
			SecretKey: getEnv("SANITIZER_S3_SECRET_KEY", fc.Export.S3.SecretKey),
			Bucket:    getEnv("SANITIZER_S3_BUCKET", fc.Export.S3.Bucket),
			Prefix:    getEnv("SANITIZER_S3_PREFIX", fc.Export.S3.Prefix),
			Region:    getEnv("SANITIZER_S3_REGION", fc.Export.S3.Region),
			UseSSL:    fc.Export.S3.UseSSL,
		},
	}

	if v := os.Getenv("SANITIZER_TABLES"); v != "" {
		cfg.Tables = splitList(v)
	}
	if v := os.Getenv("SANITIZER_S3_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("SANITIZER_S3_USE_SSL: %w", err)
		}
		cfg.S3.UseSSL = b
	}

	// history defaults to the same store as the source
	if cfg.HistoryKind == "" {
		cfg.HistoryKind = cfg.SourceKind
	}
	if cfg.HistoryDSN == "" {
		cfg.HistoryDSN = cfg.SourceDSN
	}

	interval, err := timeutil.ParseDuration(getEnv("SANITIZER_INTERVAL", fc.Interval))
	if err != nil {
		return nil, fmt.Errorf("interval: %w", err)
	}
	cfg.Interval = interval

	if raw := getEnv("SANITIZER_RUN_TIMEOUT", fc.RunTimeout); raw != "" {
		d, err := timeutil.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("run timeout: %w", err)
		}
		cfg.RunTimeout = d
	}

	return cfg, nil
}

// OverrideInterval switches the cadence to a fixed interval. A configured
// cron schedule is cleared so the override is the one that runs.
func (c *Config) OverrideInterval(raw string) error {
	d, err := timeutil.ParseInterval(raw)
	if err != nil {
		return domain.Errorf(domain.InvalidArgument, "config", "interval: %w", err)
	}
	c.Interval = d
	c.Schedule = ""
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadDotEnv sets KEY=VALUE pairs from path for keys not already present.
// A missing file is not an error.
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		if _, exists := os.LookupEnv(k); exists {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return sc.Err()
}
