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

	"github.com/mikelcalvo/erp-admin/internal/logger"
)

// FileName is the config file looked up next to the working directory or binary.
const FileName = ".erp-config"

// ErrNotFound is returned when no config file exists in any search location.
var ErrNotFound = errors.New("config file not found. Copy .erp-config.example to .erp-config")

var errMissingURL = errors.New("missing required config: ERP_API_URL")

// Config holds the console configuration
type Config struct {
	APIURL    string        // backend origin, "/api/" is appended by the client
	APIToken  string        // static bearer token
	TokenFile string        // token file, re-read when the cached token expires
	TokenTTL  time.Duration // cache lifetime for TokenFile
	Brand     string        // title shown in the console
	PageSize  int

	LogLevel  string
	LogFormat string
	LogOutput string

	Path string // file the values were read from, empty when env only
}

// Load reads the .erp-config file from the usual locations and applies
// environment overrides on top. A missing file is fine as long as the
// environment carries the required keys.
func Load() (*Config, error) {
	// .env is optional and only feeds the process environment
	_ = godotenv.Load()

	path := findConfig()
	if path == "" {
		cfg, err := build(nil, "")
		if errors.Is(err, errMissingURL) {
			return nil, fmt.Errorf("%w (%v)", ErrNotFound, err)
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a specific config file and applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	return build(values, path)
}

func findConfig() string {
	configPaths := []string{
		FileName,
		filepath.Join("..", FileName),
		filepath.Join(filepath.Dir(os.Args[0]), FileName),
		filepath.Join(filepath.Dir(os.Args[0]), "..", FileName),
	}
	for _, p := range configPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func build(values map[string]string, path string) (*Config, error) {
	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v := strings.TrimSpace(values[key]); v != "" {
			return v
		}
		return def
	}

	defaults := logger.DefaultConfig()
	cfg := &Config{
		APIURL:    strings.TrimRight(get("ERP_API_URL", ""), "/"),
		APIToken:  get("ERP_API_TOKEN", ""),
		TokenFile: get("ERP_TOKEN_FILE", ""),
		Brand:     get("ERP_BRAND", "ERP Admin"),
		LogLevel:  get("LOG_LEVEL", defaults.Level),
		LogFormat: get("LOG_FORMAT", defaults.Format),
		LogOutput: get("LOG_OUTPUT", defaults.Output),
		Path:      path,
	}

	ttl, err := time.ParseDuration(get("ERP_TOKEN_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ERP_TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	pageSize, err := strconv.Atoi(get("ERP_PAGE_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid ERP_PAGE_SIZE: %w", err)
	}
	cfg.PageSize = pageSize

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return errMissingURL
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("ERP_API_URL must start with http:// or https://")
	}
	if c.APIToken == "" && c.TokenFile == "" {
		return fmt.Errorf("missing credentials: set ERP_API_TOKEN or ERP_TOKEN_FILE")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("ERP_TOKEN_TTL must be positive")
	}
	switch c.PageSize {
	case 10, 20, 50, 100:
	default:
		return fmt.Errorf("ERP_PAGE_SIZE must be one of 10, 20, 50, 100")
	}
	return nil
}

// LoggerConfig returns the logger settings from the main config
func (c *Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: time.RFC3339,
		Output:     c.LogOutput,
	}
}

// BaseURL is the API root every resource path is resolved against.
func (c *Config) BaseURL() string {
	return c.APIURL + "/api/"
}
