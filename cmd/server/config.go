package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	textnormalization "github.com/baditaflorin/go_text_normalization"
)

// Config is the root service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Cache      CacheConfig      `yaml:"cache"`
	CORS       CORSConfig       `yaml:"cors"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"             env:"TN_SERVER_HOST"             env-default:"0.0.0.0"`
	Port           int           `yaml:"port"             env:"TN_SERVER_PORT"             env-default:"8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout"     env:"TN_SERVER_READ_TIMEOUT"     env-default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout"    env:"TN_SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	RequestTimeout time.Duration `yaml:"request_timeout"  env:"TN_SERVER_REQUEST_TIMEOUT"  env-default:"30s"`
	MaxRequestSize int           `yaml:"max_request_size" env:"TN_SERVER_MAX_REQUEST_SIZE" env-default:"10485760"`
	MaxBatch       int           `yaml:"max_batch"        env:"TN_SERVER_MAX_BATCH"        env-default:"1000"`
	Concurrency    int           `yaml:"concurrency"      env:"TN_SERVER_CONCURRENCY"      env-default:"0"`
}

// NormalizerConfig selects the grammars loaded at startup.
type NormalizerConfig struct {
	Languages  string `yaml:"languages"   env:"TN_LANGUAGES"   env-default:"hi,en"`
	GrammarDir string `yaml:"grammar_dir" env:"TN_GRAMMAR_DIR"`
	NFC        bool   `yaml:"nfc"         env:"TN_NFC"         env-default:"false"`
	Workers    int    `yaml:"workers"     env:"TN_WORKERS"     env-default:"0"`
	WarmUp     bool   `yaml:"warm_up"     env:"TN_WARM_UP"     env-default:"true"`
}

// CacheConfig holds result cache settings. Redis is used in addition to the
// in-process LRU when RedisAddr is set.
type CacheConfig struct {
	Size          int           `yaml:"size"           env:"TN_CACHE_SIZE"     env-default:"10000"`
	RedisAddr     string        `yaml:"redis_addr"     env:"TN_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"TN_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"       env:"TN_REDIS_DB"       env-default:"0"`
	TTL           time.Duration `yaml:"ttl"            env:"TN_CACHE_TTL"      env-default:"24h"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"TN_CORS_ALLOWED_ORIGINS" env-default:"*"`
	AllowedMethods string `yaml:"allowed_methods" env:"TN_CORS_ALLOWED_METHODS" env-default:"GET,POST,OPTIONS"`
	AllowedHeaders string `yaml:"allowed_headers" env:"TN_CORS_ALLOWED_HEADERS" env-default:"Content-Type,X-Request-ID"`
	MaxAge         int    `yaml:"max_age"         env:"TN_CORS_MAX_AGE"         env-default:"86400"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	File string `yaml:"file" env:"TN_LOG_FILE"`
	JSON bool   `yaml:"json" env:"TN_LOG_JSON" env-default:"true"`
}

// LoadConfig reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. An empty path loads ENV and defaults only.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.MaxBatch <= 0 {
		return fmt.Errorf("server.max_batch must be > 0 (got %d)", c.Server.MaxBatch)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0 (got %s)", c.Server.RequestTimeout)
	}
	if c.Normalizer.Workers < 0 {
		return fmt.Errorf("normalizer.workers must be >= 0 (got %d)", c.Normalizer.Workers)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must be >= 0 (got %d)", c.Cache.Size)
	}
	langs := c.Normalizer.LanguageList()
	if len(langs) == 0 {
		return fmt.Errorf("normalizer.languages must name at least one language")
	}
	for _, lang := range langs {
		if !supported(lang) {
			return fmt.Errorf("normalizer.languages: %w: %q", textnormalization.ErrUnsupportedLanguage, lang)
		}
	}
	return nil
}

// LanguageList splits the comma-separated language list.
func (c NormalizerConfig) LanguageList() []string {
	return splitList(strings.ToLower(c.Languages))
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func supported(lang string) bool {
	for _, l := range textnormalization.Languages() {
		if string(l) == lang {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
