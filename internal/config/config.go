package config

import (
	"flag"
	"log"
	"os"
	"time"

	"questionnaire/internal/retry"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env            string       `yaml:"env" env:"ENV" env-default:"local"`
	DatabaseUrl    string       `yaml:"database_url" env:"DATABASE_URL"`
	Storage        string       `yaml:"storage" env:"STORAGE" env-default:"postgres"`
	MigrateOnStart bool         `yaml:"migrate_on_start" env:"MIGRATE_ON_START"`
	Server         ServerConfig `yaml:"rest"`
	JWT            JWTSecret    `yaml:"jwt"`
	Retry          RetryConfig  `yaml:"retry"`
	Cache          CacheConfig  `yaml:"cache"`
	Pool           PoolConfig   `yaml:"pool"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" env:"REST_PORT" env-default:"8080"`
	CorsOrigins     []string      `yaml:"cors_origins" env:"REST_CORS_ORIGINS" env-default:"http://localhost:3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

type JWTSecret struct {
	Secret string `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
}

type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS" env-default:"4"`
	InitialInterval time.Duration `yaml:"initial_interval" env-default:"50ms"`
	MaxInterval     time.Duration `yaml:"max_interval" env-default:"1s"`
	Multiplier      float64       `yaml:"multiplier" env-default:"2"`
	// RandomizationFactor jitters each wait by +/- that fraction.
	RandomizationFactor float64 `yaml:"randomization_factor" env-default:"0.5"`
}

// Policy overlays the configured values on retry.DefaultPolicy.
func (c RetryConfig) Policy() retry.Policy {
	policy := retry.DefaultPolicy()
	if c.MaxAttempts > 0 {
		policy.MaxAttempts = c.MaxAttempts
	}
	if c.InitialInterval > 0 {
		policy.InitialInterval = c.InitialInterval
	}
	if c.MaxInterval > 0 {
		policy.MaxInterval = c.MaxInterval
	}
	if c.Multiplier > 0 {
		policy.Multiplier = c.Multiplier
	}
	if c.RandomizationFactor >= 0 {
		policy.RandomizationFactor = c.RandomizationFactor
	}
	return policy
}

type CacheConfig struct {
	Size int `yaml:"size" env:"CACHE_SIZE" env-default:"256"`
}

type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" env-default:"10"`
	MinConns int32 `yaml:"min_conns" env-default:"1"`
}

func MustLoad() *Config {
	path := fetchConfigPath()

	if path == "" {
		panic("Config file not found in path")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("Config file not found in path: " + path)
	}

	var config Config
	log.Printf("Loading config from %s", path)
	if err := cleanenv.ReadConfig(path, &config); err != nil {
		panic(err)
	}
	if config.Storage == StoragePostgres && config.DatabaseUrl == "" {
		panic("database_url is required for postgres storage")
	}
	return &config
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "config path")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	if res == "" {
		res = "./config/local.yaml"
	}

	return res
}
