package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/anonto42/nano-blog/backend/pkg/firebase"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
	"github.com/anonto42/nano-blog/backend/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Firebase  firebase.Config
	Admin     AdminConfig
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Upload    UploadConfig
	Log       logger.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	Env             string
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string // postgres, mysql, sqlite
	DSN             string // takes precedence over the discrete fields below
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
	LogQueries      bool   `mapstructure:"log_queries"`
}

type CacheConfig struct {
	Driver string // redis, memory
	Prefix string
	TTL    time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type StorageConfig struct {
	Driver    string // local, s3
	PublicURL string `mapstructure:"public_url"`
	Local     storage.LocalConfig
	S3        storage.S3Config
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	LoginURL   string        `mapstructure:"login_url"`
	CookieName string        `mapstructure:"cookie_name"`
}

type AdminConfig struct {
	Token string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type UploadConfig struct {
	MaxImageBytes int64 `mapstructure:"max_image_bytes"`
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads ./config/config.yaml (if present) and the environment, after
// loading a .env file when one exists.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.L().Debug().Msg("no .env file found, reading from environment")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.Server.Env == "production" {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		cfg.Auth.JWTSecret = "supersecretjwtkey"
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "blog")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/blog.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.prefix", "index_page")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.public_url", "/media")
	v.SetDefault("storage.local.base_path", "./media")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("auth.token_ttl", "72h")
	v.SetDefault("auth.login_url", "/auth/login")
	v.SetDefault("auth.cookie_name", "session")

	v.SetDefault("ratelimit.rps", 0.5)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("upload.max_image_bytes", 5<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "blog")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.env", "ENV")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_URL")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("cache.driver", "CACHE_DRIVER")
	v.BindEnv("redis.address", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("firebase.credentials_path", "FIREBASE_CREDENTIALS_PATH")
	v.BindEnv("firebase.project_id", "FIREBASE_PROJECT_ID")
	v.BindEnv("admin.token", "X_ADMIN_TOKEN")
	v.BindEnv("log.level", "LOG_LEVEL")
}
