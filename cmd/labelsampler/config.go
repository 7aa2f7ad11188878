package main

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/hupe1980/labelsampler"
	"github.com/hupe1980/labelsampler/codec"
	"github.com/hupe1980/labelsampler/record"
	"github.com/hupe1980/labelsampler/recordstore/segment"
	"github.com/kelseyhightower/envconfig"
)

// Config is read from LABELSAMPLER_* environment variables.
type Config struct {
	Source    string               `envconfig:"SOURCE"`
	Backend   labelsampler.Backend `envconfig:"BACKEND" default:"segment"`
	BatchSize int                  `envconfig:"BATCH_SIZE" default:"64"`
	Policy    labelsampler.Policy  `envconfig:"POLICY" default:"siamese"`

	Seed                 int64   `envconfig:"SEED" default:"0"` // 0 means wall clock
	SameClassProbability float64 `envconfig:"SAME_CLASS_PROBABILITY" default:"0.5"`
	MaxRejections        int     `envconfig:"MAX_REJECTIONS" default:"64"`

	Compression string `envconfig:"COMPRESSION" default:"zstd"`
	Codec       string `envconfig:"CODEC" default:"go-json"`

	CacheBytes  int64 `envconfig:"CACHE_BYTES" default:"67108864"`  // 64MB
	MaxMemory   int64 `envconfig:"MAX_MEMORY" default:"1073741824"` // 1GB
	IORateLimit int64 `envconfig:"IO_RATE_LIMIT" default:"0"`       // bytes/s, 0 means unlimited

	AWSRegion     string `envconfig:"AWS_REGION"`
	DynamoDBTable string `envconfig:"DYNAMODB_TABLE" default:"labelsampler-records"`

	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"true"`

	MetricsAddr string `envconfig:"METRICS_ADDR"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// Config validation errors
var (
	ErrInvalidBatchSize    = errors.New("batch_size must be positive")
	ErrInvalidProbability  = errors.New("same_class_probability must be within [0, 1]")
	ErrInvalidRejections   = errors.New("max_rejections must be positive")
	ErrInvalidCacheBytes   = errors.New("cache_bytes must not be negative")
	ErrInvalidMaxMemory    = errors.New("max_memory must be positive")
	ErrInvalidLogFormat    = errors.New("log_format must be 'json' or 'text'")
	ErrInvalidLogLevel     = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidMinioConfig  = errors.New("minio backend requires minio_endpoint")
	ErrInvalidCompression  = errors.New("compression must be none, lz4 or zstd")
	ErrInvalidDynamoDBConf = errors.New("dynamodb backend requires dynamodb_table")
	ErrInvalidCodec        = errors.New("codec must be json or go-json")
)

// LoadConfig processes the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("LABELSAMPLER", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if p := cfg.SameClassProbability; math.IsNaN(p) || p < 0 || p > 1 {
		return ErrInvalidProbability
	}
	if cfg.MaxRejections <= 0 {
		return ErrInvalidRejections
	}
	if cfg.CacheBytes < 0 {
		return ErrInvalidCacheBytes
	}
	if cfg.MaxMemory <= 0 {
		return ErrInvalidMaxMemory
	}
	if _, err := segment.ParseCompression(cfg.Compression); err != nil {
		return ErrInvalidCompression
	}
	if _, ok := codec.ByName(cfg.Codec); !ok {
		return ErrInvalidCodec
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return ErrInvalidLogFormat
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.Backend == labelsampler.BackendMinio && cfg.MinioEndpoint == "" {
		return ErrInvalidMinioConfig
	}
	if cfg.Backend == labelsampler.BackendDynamoDB && cfg.DynamoDBTable == "" {
		return ErrInvalidDynamoDBConf
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, ErrInvalidLogLevel
}

// NewLogger builds the process logger from the configuration.
func NewLogger(cfg *Config) *labelsampler.Logger {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return labelsampler.NewLogger(slog.NewJSONHandler(os.Stderr, opts))
	}
	return labelsampler.NewLogger(slog.NewTextHandler(os.Stderr, opts))
}

// Params returns the sampler parameter block.
func (cfg *Config) Params() labelsampler.Params {
	return labelsampler.Params{
		Source:    cfg.Source,
		Backend:   cfg.Backend,
		BatchSize: cfg.BatchSize,
		Policy:    cfg.Policy,
	}
}

// Parser returns the record parser for the configured codec.
func (cfg *Config) Parser() *record.CodecParser {
	c, ok := codec.ByName(cfg.Codec)
	if !ok {
		c = codec.Default
	}
	return record.NewParser(c)
}
