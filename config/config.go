package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cyberbrief/newsroom/global"
	"github.com/cyberbrief/newsroom/logger"
	"github.com/cyberbrief/newsroom/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	ErrMissingPort         = errors.New("app.port is required")
	ErrMissingDatabaseHost = errors.New("database.host is required")
	ErrMissingJWTSecret    = errors.New("jwt.secret is required")
	ErrInvalidJWTTTL       = errors.New("jwt.ttl must be positive")
	ErrInvalidLogLevel     = errors.New("log.level must be one of: debug, info, warn, error")
	ErrInvalidHTTPTimeout  = errors.New("news.timeout and images.timeout must be positive")
)

type Config struct {
	App      ServerConfig   `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	CORS     CORSConfig     `mapstructure:"cors"`
	News     NewsConfig     `mapstructure:"news"`
	Images   ImagesConfig   `mapstructure:"images"`
	Storage  StorageConfig  `mapstructure:"storage"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Log      LogConfig      `mapstructure:"log"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Name string `mapstructure:"name"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	Sslmode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// NewsConfig holds the upstream news search and threat-intel settings.
type NewsConfig struct {
	GNewsURL    string        `mapstructure:"gnews_url"`
	GNewsAPIKey string        `mapstructure:"gnews_api_key"`
	OTXURL      string        `mapstructure:"otx_url"`
	OTXAPIKey   string        `mapstructure:"otx_api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ImagesConfig holds the text-to-image inference settings.
type ImagesConfig struct {
	InferenceURL string        `mapstructure:"inference_url"`
	Model        string        `mapstructure:"model"`
	Token        string        `mapstructure:"token"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StorageConfig points at an S3-compatible bucket. An empty endpoint disables uploads.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	SenderEmail string `mapstructure:"sender_email"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AdminConfig is only read by cmd/seed to bootstrap the first admin account.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

var AppConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cyberbrief")
	v.SetDefault("app.port", ":8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "cyberbrief")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "24h")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("news.gnews_url", "https://gnews.io/api/v4/search")
	v.SetDefault("news.gnews_api_key", "")
	v.SetDefault("news.otx_url", "https://otx.alienvault.com/api/v1/pulses/subscribed")
	v.SetDefault("news.otx_api_key", "")
	v.SetDefault("news.timeout", "10s")

	v.SetDefault("images.inference_url", "https://api-inference.huggingface.co/models")
	v.SetDefault("images.model", "black-forest-labs/FLUX.1-schnell")
	v.SetDefault("images.token", "")
	v.SetDefault("images.timeout", "60s")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "article-images")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.sender_email", "")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.connect_timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

// LoadConfig reads config.yaml from path (a directory or a file), then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Credential names shared with the hosted-function deployment.
	_ = v.BindEnv("news.gnews_api_key", "NEWS_GNEWS_API_KEY", "GNEWS_API_KEY")
	_ = v.BindEnv("news.otx_api_key", "NEWS_OTX_API_KEY", "OTX_API_KEY")
	_ = v.BindEnv("images.token", "IMAGES_TOKEN", "HUGGING_FACE_ACCESS_TOKEN")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if raw := os.Getenv("FRONTEND_ORIGINS"); raw != "" {
		cfg.CORS.AllowedOrigins = splitOrigins(raw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func splitOrigins(raw string) []string {
	origins := []string{}
	for _, v := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (c *Config) Validate() error {
	if c.App.Port == "" {
		return ErrMissingPort
	}
	if c.Database.Host == "" {
		return ErrMissingDatabaseHost
	}
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	if c.JWT.TTL <= 0 {
		return ErrInvalidJWTTTL
	}
	if c.News.Timeout <= 0 || c.Images.Timeout <= 0 {
		return ErrInvalidHTTPTimeout
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// InitConfig loads ./config, builds the logger and opens Postgres and Redis.
func InitConfig() {
	cfg, err := LoadConfig("./config")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	global.Logger = zl.With(zap.String("app", cfg.App.Name))

	utils.SetJWTSecret(cfg.JWT.Secret, cfg.JWT.TTL)

	initDB()
	initRedis()
}
