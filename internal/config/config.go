package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Downloads DownloadsConfig `yaml:"downloads"`
	URLs      URLConfig       `yaml:"urls"`
	NATS      NATSConfig      `yaml:"nats"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	APIKey       string        `yaml:"api_key"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	// Downloads stream for a long time; zero keeps the write deadline off.
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type EngineConfig struct {
	Binary          string        `yaml:"binary"`
	CookiesFile     string        `yaml:"cookies_file"`
	ExtraArgs       []string      `yaml:"extra_args"`
	MetadataTimeout time.Duration `yaml:"metadata_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

type WorkspaceConfig struct {
	Root          string        `yaml:"root"`
	Prefix        string        `yaml:"prefix"`
	MaxAge        time.Duration `yaml:"max_age"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type DownloadsConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type URLConfig struct {
	// Strict rejects URLs with anything but a query, fragment or path after the id.
	Strict bool `yaml:"strict"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// .env never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Engine.Binary == "" {
		cfg.Engine.Binary = "yt-dlp"
	}
	if cfg.Engine.MetadataTimeout == 0 {
		cfg.Engine.MetadataTimeout = 60 * time.Second
	}
	if cfg.Engine.DownloadTimeout == 0 {
		cfg.Engine.DownloadTimeout = 30 * time.Minute
	}
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = filepath.Join(os.TempDir(), "tubefetch")
	}
	if abs, err := filepath.Abs(cfg.Workspace.Root); err == nil {
		cfg.Workspace.Root = abs
	}
	if cfg.Workspace.Prefix == "" {
		cfg.Workspace.Prefix = "tubefetch-"
	}
	if cfg.Workspace.MaxAge == 0 {
		cfg.Workspace.MaxAge = 2 * time.Hour
	}
	if cfg.Workspace.SweepInterval == 0 {
		cfg.Workspace.SweepInterval = 10 * time.Minute
	}
	if cfg.Downloads.MaxConcurrent == 0 {
		cfg.Downloads.MaxConcurrent = 4
	}
	if cfg.RateLimit.Burst == 0 && cfg.RateLimit.RPS > 0 {
		cfg.RateLimit.Burst = int(cfg.RateLimit.RPS) + 1
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Engine.MetadataTimeout < 0 || c.Engine.DownloadTimeout < 0 {
		errs = append(errs, errors.New("engine timeouts must not be negative"))
	}
	if c.Downloads.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("downloads.max_concurrent must be at least 1, got %d", c.Downloads.MaxConcurrent))
	}
	if strings.ContainsAny(c.Workspace.Prefix, `/\`) {
		errs = append(errs, fmt.Errorf("workspace.prefix %q must not contain path separators", c.Workspace.Prefix))
	}
	if c.Workspace.SweepInterval < 0 || c.Workspace.MaxAge < 0 {
		errs = append(errs, errors.New("workspace durations must not be negative"))
	}
	// The sweeper judges age by directory mtime, which a running download
	// does not refresh.
	if c.Workspace.MaxAge <= c.Engine.DownloadTimeout {
		errs = append(errs, fmt.Errorf("workspace.max_age %s must exceed engine.download_timeout %s",
			c.Workspace.MaxAge, c.Engine.DownloadTimeout))
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit values must not be negative"))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or text", c.Logging.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TF_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TF_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("TF_YTDLP_BINARY"); v != "" {
		cfg.Engine.Binary = v
	}
	if v := os.Getenv("TF_COOKIES_FILE"); v != "" {
		cfg.Engine.CookiesFile = v
	}
	if v := os.Getenv("TF_WORKSPACE_ROOT"); v != "" {
		cfg.Workspace.Root = v
	}
	if v := os.Getenv("TF_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Downloads.MaxConcurrent = n
		}
	}
	if v := os.Getenv("TF_STRICT_URLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.URLs.Strict = b
		}
	}
	if v := os.Getenv("TF_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("TF_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("TF_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TF_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
