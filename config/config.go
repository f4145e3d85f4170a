package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	RateLimit  RateLimitConfig  `mapstructure:"rateLimit"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Trending   TrendingConfig   `mapstructure:"trending"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Graph      GraphConfig      `mapstructure:"graph"`
	Views      ViewsConfig      `mapstructure:"views"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	EnableSwagger   bool          `mapstructure:"enableSwagger"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	LogLevel        string        `mapstructure:"logLevel"` // silent, error, warn, info
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	GraphCacheTTL time.Duration `mapstructure:"graphCacheTTL"`
	ViewDedupeTTL time.Duration `mapstructure:"viewDedupeTTL"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expire time.Duration `mapstructure:"expire"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout or file path
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"tracesSampleRate"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"serviceName"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sampleRatio"`
}

type StorageConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"accessKey"`
	SecretKey string        `mapstructure:"secretKey"`
	Bucket    string        `mapstructure:"bucket"`
	Region    string        `mapstructure:"region"`
	UseSSL    bool          `mapstructure:"useSSL"`
	URLExpiry time.Duration `mapstructure:"urlExpiry"`
}

// TrendingConfig 热度计算参数，公式常量均可配置
type TrendingConfig struct {
	Gravity            float64 `mapstructure:"gravity"`
	ViewWeight         float64 `mapstructure:"viewWeight"`
	FavoriteWeight     float64 `mapstructure:"favoriteWeight"`
	CommentWeight      float64 `mapstructure:"commentWeight"`
	AgeOffsetHours     float64 `mapstructure:"ageOffsetHours"`
	DefaultWindowDays  int     `mapstructure:"defaultWindowDays"`
	MaxWindowDays      int     `mapstructure:"maxWindowDays"`
	DefaultLimit       int     `mapstructure:"defaultLimit"`
	MaxLimit           int     `mapstructure:"maxLimit"`
	CandidateBatchSize int     `mapstructure:"candidateBatchSize"`
}

type ModerationConfig struct {
	ApproveTrustDelta int `mapstructure:"approveTrustDelta"`
	RejectTrustDelta  int `mapstructure:"rejectTrustDelta"`
}

type GraphConfig struct {
	DefaultDepth    int `mapstructure:"defaultDepth"`
	MaxDepth        int `mapstructure:"maxDepth"`
	DefaultMaxNodes int `mapstructure:"defaultMaxNodes"`
	MaxNodes        int `mapstructure:"maxNodes"`
}

type ViewsConfig struct {
	QueueSize int `mapstructure:"queueSize"`
	Workers   int `mapstructure:"workers"`
}

// Load 加载配置：默认值 < 配置文件 < APP_ 前缀环境变量
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("APP_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "sakugabase.db")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.connMaxLifetime", time.Hour)
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.graphCacheTTL", 10*time.Minute)
	v.SetDefault("redis.viewDedupeTTL", 10*time.Minute)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.expire", 72*time.Hour)
	v.SetDefault("jwt.issuer", "sakugabase")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.rps", 20)
	v.SetDefault("rateLimit.burst", 40)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.tracesSampleRate", 0.0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.serviceName", "sakugabase")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sampleRatio", 1.0)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accessKey", "")
	v.SetDefault("storage.secretKey", "")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.bucket", "clips")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.urlExpiry", time.Hour)

	v.SetDefault("trending.gravity", 1.8)
	v.SetDefault("trending.viewWeight", 1.0)
	v.SetDefault("trending.favoriteWeight", 2.0)
	v.SetDefault("trending.commentWeight", 1.5)
	v.SetDefault("trending.ageOffsetHours", 2.0)
	v.SetDefault("trending.defaultWindowDays", 30)
	v.SetDefault("trending.maxWindowDays", 90)
	v.SetDefault("trending.defaultLimit", 12)
	v.SetDefault("trending.maxLimit", 50)
	v.SetDefault("trending.candidateBatchSize", 500)

	v.SetDefault("moderation.approveTrustDelta", 5)
	v.SetDefault("moderation.rejectTrustDelta", -2)

	v.SetDefault("graph.defaultDepth", 2)
	v.SetDefault("graph.maxDepth", 3)
	v.SetDefault("graph.defaultMaxNodes", 50)
	v.SetDefault("graph.maxNodes", 100)

	v.SetDefault("views.queueSize", 10000)
	v.SetDefault("views.workers", 4)
}

// Validate 校验会导致运行期异常的配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret must not be empty")
	}
	if c.Trending.Gravity <= 0 {
		return fmt.Errorf("trending.gravity must be positive")
	}
	if c.Trending.AgeOffsetHours <= 0 {
		return fmt.Errorf("trending.ageOffsetHours must be positive")
	}
	if c.Graph.MaxNodes < 1 || c.Graph.MaxDepth < 1 {
		return fmt.Errorf("graph.maxNodes and graph.maxDepth must be at least 1")
	}
	return nil
}
