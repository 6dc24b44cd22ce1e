package main

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config validation errors
var (
	ErrInvalidNodeCount     = errors.New("node_count must be positive")
	ErrInvalidAvgDegree     = errors.New("avg_degree must be positive")
	ErrInvalidMaxIterations = errors.New("max_iterations must be positive")
	ErrInvalidConcurrency   = errors.New("concurrency must be >= 0")
	ErrInvalidDamping       = errors.New("damping_factor must be in (0, 1)")
	ErrInvalidTolerance     = errors.New("tolerance must be positive")
	ErrInvalidMemoryBudget  = errors.New("memory_budget must be >= 0")
	ErrInvalidMetricsAddr   = errors.New("metrics_addr cannot be empty")
	ErrInvalidLogFormat     = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel      = errors.New("log_level must be debug, info, warn, or error")
)

// Config drives one benchmark run: the synthetic graph shape, the PageRank
// options and the process-level knobs.
type Config struct {
	NodeCount int64 `envconfig:"NODE_COUNT" default:"100000"`
	AvgDegree int   `envconfig:"AVG_DEGREE" default:"16"`
	Seed      int64 `envconfig:"SEED" default:"42"`
	Weighted  bool  `envconfig:"WEIGHTED" default:"false"`

	MaxIterations int     `envconfig:"MAX_ITERATIONS" default:"20"`
	Concurrency   int     `envconfig:"CONCURRENCY" default:"0"` // 0 means GOMAXPROCS
	Asynchronous  bool    `envconfig:"ASYNCHRONOUS" default:"false"`
	DampingFactor float64 `envconfig:"DAMPING_FACTOR" default:"0.85"`
	Tolerance     float64 `envconfig:"TOLERANCE" default:"1e-7"`

	MemoryBudget int64 `envconfig:"MEMORY_BUDGET" default:"0"` // 0 means unbounded

	MetricsAddr string `envconfig:"METRICS_ADDR" default:"0.0.0.0:9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads an optional .env file and the TRELLIS_* environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load() // missing .env is fine
	var cfg Config
	if err := envconfig.Process("TRELLIS", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.NodeCount <= 0 {
		return ErrInvalidNodeCount
	}
	if cfg.AvgDegree <= 0 {
		return ErrInvalidAvgDegree
	}
	if cfg.MaxIterations <= 0 {
		return ErrInvalidMaxIterations
	}
	if cfg.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if cfg.DampingFactor <= 0 || cfg.DampingFactor >= 1 {
		return ErrInvalidDamping
	}
	if cfg.Tolerance <= 0 {
		return ErrInvalidTolerance
	}
	if cfg.MemoryBudget < 0 {
		return ErrInvalidMemoryBudget
	}
	if cfg.MetricsAddr == "" {
		return ErrInvalidMetricsAddr
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	return nil
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		NodeCount:     100000,
		AvgDegree:     16,
		Seed:          42,
		MaxIterations: 20,
		DampingFactor: 0.85,
		Tolerance:     1e-7,
		MetricsAddr:   "0.0.0.0:9090",
		LogFormat:     "json",
		LogLevel:      "info",
	}
}
