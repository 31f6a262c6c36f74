package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config
	Dataset  DatasetConfig
	Pager    PagerConfig
	Session  SessionConfig
	Worker   WorkerConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Addr     string
	APIToken string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
}

type DatasetConfig struct {
	Path string
}

type PagerConfig struct {
	Interval         int
	ResponsesPerPage int
}

type SessionConfig struct {
	Store string // memory | redis
	TTL   time.Duration
}

type WorkerConfig struct {
	MetricsAddr string // empty disables the metrics listener
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// bare env names kept from the compose setup
var envAliases = map[string]string{
	"server.apiToken": "API_TOKEN",
	"database.url":    "DATABASE_URL",
	"redis.addr":      "REDIS_ADDR",
	"s3.endpoint":     "MINIO_ENDPOINT",
	"s3.bucket":       "MINIO_BUCKET",
	"s3.accessKey":    "MINIO_ACCESS_KEY",
	"s3.secretKey":    "MINIO_SECRET_KEY",
	"dataset.path":    "DATASET_PATH",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SCORING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envAliases {
		prefixed := "SCORING_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.apiToken", "")

	v.SetDefault("database.url", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "scores")
	v.SetDefault("s3.accessKey", "")
	v.SetDefault("s3.secretKey", "")
	v.SetDefault("s3.region", "us-east-1")

	v.SetDefault("dataset.path", "Language_bias_sentiment_analysis.csv")

	v.SetDefault("pager.interval", 5)
	v.SetDefault("pager.responsesPerPage", 4)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", "24h")

	v.SetDefault("worker.metricsAddr", ":9091")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
