package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Frontend FrontendConfig `yaml:"frontend"`
	Database DatabaseConfig `yaml:"database"`
	Probe    ProbeConfig    `yaml:"probe"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	API      APIConfig      `yaml:"api"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Probes   []CustomProbe  `yaml:"probes"` // extra probes appended to their category
}

type BackendConfig struct {
	URL        string   `yaml:"url"`
	Path       string   `yaml:"path"`   // project checkout, for pom.xml
	Routes     []string `yaml:"routes"` // guarded API routes; 200/401/403 accepted
	LoginPath  string   `yaml:"login_path"`
	CORSOrigin string   `yaml:"cors_origin"` // defaults to the frontend URL
}

type FrontendConfig struct {
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	Driver          string   `yaml:"driver"` // mysql | postgres | none
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	Name            string   `yaml:"name"`
	User            string   `yaml:"user"`
	Password        string   `yaml:"password"`
	URL             string   `yaml:"url"` // postgres DSN; built from the fields above when empty
	EssentialTables []string `yaml:"essential_tables"`
	RedisAddr       string   `yaml:"redis_addr"`
	SQLitePath      string   `yaml:"sqlite_path"`
}

type ProbeConfig struct {
	TimeoutMS   int `yaml:"timeout_ms"`
	Concurrency int `yaml:"concurrency"`
}

type ReportConfig struct {
	Title           string `yaml:"title"`
	JSON            string `yaml:"json"`
	Markdown        string `yaml:"markdown"`
	PDF             string `yaml:"pdf"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // empty logs to stderr
}

type TracingConfig struct {
	Exporter string `yaml:"exporter"` // none | stdout | stderr
}

type APIConfig struct {
	Addr           string   `yaml:"addr"`
	PublicKeys     []string `yaml:"public_keys"`
	AdminKeys      []string `yaml:"admin_keys"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RunIntervalMS  int      `yaml:"run_interval_ms"` // 0 disables the scheduler
	PublicRPM      int      `yaml:"public_rpm"`
	PublicBurst    int      `yaml:"public_burst"`
	AdminRPM       int      `yaml:"admin_rpm"`
	AdminBurst     int      `yaml:"admin_burst"`
	StoreDSN       string   `yaml:"store_dsn"` // postgres for the latest snapshot and alert state; empty keeps them in memory
}

type AlertsConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
	CooldownMS      int    `yaml:"cooldown_ms"`
	OnRecovery      bool   `yaml:"on_recovery"`
}

// CustomProbe declares an extra probe. Target is a URL for http, a path for
// file and host:port for tcp. Command probes take an argv list in Command and
// ignore Target.
type CustomProbe struct {
	Category  string   `yaml:"category"`
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`
	Target    string   `yaml:"target"`
	Command   []string `yaml:"command"`
	Optional  bool     `yaml:"optional"`
	Accept    []int    `yaml:"accept"`
	Contains  []string `yaml:"contains"`
	TimeoutMS int      `yaml:"timeout_ms"`
}

var probeKinds = map[string]bool{"http": true, "command": true, "file": true, "tcp": true}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			URL:       "http://localhost:8080",
			Path:      "backend",
			Routes:    []string{"/api/health", "/auth/health", "/api/categories", "/api/vendors", "/api/admin/analytics"},
			LoginPath: "/auth/login",
		},
		Frontend: FrontendConfig{
			URL:  "http://localhost:3000",
			Path: "frontend",
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			Host:            "localhost",
			Name:            "app_db",
			User:            "root",
			EssentialTables: []string{"user", "vendors", "buyer_category", "admins"},
		},
		Probe: ProbeConfig{TimeoutMS: 10_000, Concurrency: 4},
		Report: ReportConfig{
			JSON:     "SYSTEM_STATUS_REPORT.json",
			Markdown: "INTEGRATION_TEST_REPORT.md",
		},
		Logging: LoggingConfig{Level: "info"},
		Tracing: TracingConfig{Exporter: "none"},
		API: APIConfig{
			Addr:        "127.0.0.1:8090",
			PublicRPM:   120,
			PublicBurst: 20,
			AdminRPM:    30,
			AdminBurst:  5,
		},
		Alerts: AlertsConfig{CooldownMS: 15 * 60 * 1000, OnRecovery: true},
	}
}

// Load reads an optional YAML file over Default, then applies environment
// overrides and defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields from well-known environment variables.
func (c *Config) ApplyEnv() {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				*dst = n
			}
		}
	}
	list := func(key string, dst *[]string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitCSV(v)
		}
	}

	str("BACKEND_URL", &c.Backend.URL)
	str("BACKEND_PATH", &c.Backend.Path)
	str("FRONTEND_URL", &c.Frontend.URL)
	str("FRONTEND_PATH", &c.Frontend.Path)
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_HOST", &c.Database.Host)
	num("DB_PORT", &c.Database.Port)
	str("DB_NAME", &c.Database.Name)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DATABASE_URL", &c.Database.URL)
	str("REDIS_ADDR", &c.Database.RedisAddr)
	str("SQLITE_PATH", &c.Database.SQLitePath)
	num("PROBE_TIMEOUT_MS", &c.Probe.TimeoutMS)
	num("PROBE_CONCURRENCY", &c.Probe.Concurrency)
	str("REPORT_JSON", &c.Report.JSON)
	str("REPORT_MARKDOWN", &c.Report.Markdown)
	str("REPORT_PDF", &c.Report.PDF)
	str("METRICS_TEXTFILE", &c.Report.MetricsTextfile)
	str("LOG_DIR", &c.Logging.Dir)
	str("LOG_LEVEL", &c.Logging.Level)
	str("TRACE_EXPORTER", &c.Tracing.Exporter)
	str("API_ADDR", &c.API.Addr)
	list("PUBLIC_API_KEYS", &c.API.PublicKeys)
	list("ADMIN_API_KEYS", &c.API.AdminKeys)
	list("ALLOWED_ORIGINS", &c.API.AllowedOrigins)
	num("RUN_INTERVAL_MS", &c.API.RunIntervalMS)
	num("PUBLIC_RPM", &c.API.PublicRPM)
	num("PUBLIC_BURST", &c.API.PublicBurst)
	num("ADMIN_RPM", &c.API.AdminRPM)
	num("ADMIN_BURST", &c.API.AdminBurst)
	str("STORE_DATABASE_URL", &c.API.StoreDSN)
	str("SLACK_WEBHOOK_URL", &c.Alerts.SlackWebhookURL)
	num("ALERT_COOLDOWN_MS", &c.Alerts.CooldownMS)
	if v := os.Getenv("ALERT_ON_RECOVERY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Alerts.OnRecovery = b
		}
	}
}

// ApplyDefaults fills zero values that have a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Probe.TimeoutMS <= 0 {
		c.Probe.TimeoutMS = 10_000
	}
	if c.Probe.Concurrency < 1 {
		c.Probe.Concurrency = 4
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
	if c.Backend.CORSOrigin == "" {
		c.Backend.CORSOrigin = c.Frontend.URL
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Driver == "" {
		c.Database.Driver = "none"
	}
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if len(c.API.AllowedOrigins) == 0 && c.Frontend.URL != "" {
		c.API.AllowedOrigins = []string{c.Frontend.URL}
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if err := checkURL(c.Backend.URL); err != nil {
		add("backend.url: %w", err)
	}
	if err := checkURL(c.Frontend.URL); err != nil {
		add("frontend.url: %w", err)
	}
	switch c.Database.Driver {
	case "none":
	case "mysql", "postgres":
		if c.Database.Driver == "postgres" {
			if _, err := url.Parse(c.Database.DSN()); err != nil {
				add("database.url: %w", err)
			}
		}
		if c.Database.URL == "" {
			if c.Database.Host == "" {
				add("database.host is required for driver %s", c.Database.Driver)
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				add("database.port must be between 1 and 65535, got %d", c.Database.Port)
			}
		}
	default:
		add("database.driver must be mysql, postgres or none, got %q", c.Database.Driver)
	}
	if c.Database.RedisAddr != "" && !strings.Contains(c.Database.RedisAddr, "://") {
		if _, _, err := net.SplitHostPort(c.Database.RedisAddr); err != nil {
			add("database.redis_addr: %w", err)
		}
	}
	switch c.Tracing.Exporter {
	case "none", "stdout", "stderr":
	default:
		add("tracing.exporter must be none, stdout or stderr, got %q", c.Tracing.Exporter)
	}
	if c.API.StoreDSN != "" {
		if u, err := url.Parse(c.API.StoreDSN); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			add("api.store_dsn must be a postgres:// URL")
		}
	}
	if c.Alerts.SlackWebhookURL != "" {
		if err := checkURL(c.Alerts.SlackWebhookURL); err != nil {
			add("alerts.slack_webhook_url: %w", err)
		}
	}
	for i, p := range c.Probes {
		if p.Category == "" || p.Name == "" {
			add("probes[%d]: category and name are required", i)
		}
		switch {
		case !probeKinds[p.Kind]:
			add("probes[%d]: kind must be http, command, file or tcp, got %q", i, p.Kind)
		case p.Kind == "command":
			if len(p.Command) == 0 || p.Command[0] == "" {
				add("probes[%d]: command probes need a non-empty command list", i)
			}
		case p.Target == "":
			add("probes[%d]: target is required for kind %s", i, p.Kind)
		}
		if p.Kind == "http" {
			if err := checkURL(p.Target); err != nil {
				add("probes[%d].target: %w", i, err)
			}
		}
	}
	return errs
}

func (c ProbeConfig) Timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

func (c APIConfig) RunInterval() time.Duration {
	return time.Duration(c.RunIntervalMS) * time.Millisecond
}

func (c AlertsConfig) Cooldown() time.Duration { return time.Duration(c.CooldownMS) * time.Millisecond }

func (p CustomProbe) Timeout() time.Duration { return time.Duration(p.TimeoutMS) * time.Millisecond }

// DSN returns URL, or a postgres URL assembled from the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	return u.String()
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default}.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		name, def, hasDefault := strings.Cut(string(match[2:len(match)-1]), ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}
