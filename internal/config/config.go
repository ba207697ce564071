// config - источник загрузки конфигурации клиента витрины (CLI и локальный прокси).
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Виды хранилища пары токенов.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreNone   = "none"
)

var (
	// ErrInvalidBaseURL — api.base_url пустой или не абсолютный URL.
	ErrInvalidBaseURL = errors.New("invalid api base url")
	// ErrUnknownStoreKind — store.kind вне допустимого набора.
	ErrUnknownStoreKind = errors.New("unknown store kind")
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig — параметры обращения к backend API витрины.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"        env:"API_BASE_URL"        env-default:"http://localhost:3000/api"`
	UserAgent      string        `yaml:"user_agent"      env:"API_USER_AGENT"      env-default:"storefront-go"`
	Timeout        time.Duration `yaml:"timeout"         env:"API_TIMEOUT"         env-default:"15s"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" env:"API_REFRESH_TIMEOUT" env-default:"10s"`
}

// StoreConfig — где живёт пара access/refresh.
// FilePath пустой — используется путь по умолчанию (см. DefaultCredentialsPath).
type StoreConfig struct {
	Kind     string `yaml:"kind"      env:"STORE_KIND"      env-default:"file"`
	FilePath string `yaml:"file_path" env:"STORE_FILE_PATH"`
	RedisURL string `yaml:"redis_url" env:"STORE_REDIS_URL" env-default:"redis://localhost:6379/0"`
	RedisKey string `yaml:"redis_key" env:"STORE_REDIS_KEY" env-default:"storefront:credentials"`
}

// ProxyConfig — локальный аутентифицирующий прокси.
type ProxyConfig struct {
	Host     string        `yaml:"host"      env:"PROXY_HOST"      env-default:"127.0.0.1"`
	Port     string        `yaml:"port"      env:"PROXY_PORT"      env-default:"8089"`
	Timeout  time.Duration `yaml:"timeout"   env:"PROXY_TIMEOUT"   env-default:"30s"`
	BasePath string        `yaml:"base_path" env:"PROXY_BASE_PATH" env-default:"/api"`
	MaxBody  int64         `yaml:"max_body"  env:"PROXY_MAX_BODY"  env-default:"10485760"`
}

func (p ProxyConfig) Addr() string { return net.JoinHostPort(p.Host, p.Port) }

// MetricsConfig — отдельный HTTP для Prometheus (только в режиме прокси).
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"8090"`
}

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// Validate проверяет то, что cleanenv проверить не может.
func (c *Config) Validate() error {
	const op = "config.Validate"

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidBaseURL, c.API.BaseURL)
	}

	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis, StoreNone:
	default:
		return fmt.Errorf("%s: %w: %q", op, ErrUnknownStoreKind, c.Store.Kind)
	}

	return nil
}

// DefaultCredentialsPath — файл сессии CLI по умолчанию:
// <UserConfigDir>/storefront/credentials.json.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config.DefaultCredentialsPath: %w", err)
	}

	return filepath.Join(dir, "storefront", "credentials.json"), nil
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		out *Config
		err error
	)

	switch {
	// 1) --config
	case path != "":
		out, err = tryRead(path)
	// 2) CONFIG_PATH
	case os.Getenv("CONFIG_PATH") != "":
		out, err = tryRead(os.Getenv("CONFIG_PATH"))
	// 3) ./local.yaml
	case fileExists("local.yaml"):
		out, err = tryRead("local.yaml")
	// 4) только ENV
	default:
		if err = cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		out = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	return out, nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
