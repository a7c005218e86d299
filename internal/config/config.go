package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// BaseConfig нужен всем командам, включая migrate и backfill
type BaseConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	BaseConfig

	ServerPort     string        `env:"SERVER_PORT"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Токены авторизации
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL"`

	// Пагинация и защита API
	PageSize           int      `env:"PAGE_SIZE"`
	RateLimitRPS       int      `env:"RATE_LIMIT_RPS"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Настройки для MinIO
	MinioEndpoint        string `env:"MINIO_ENDPOINT,required,notEmpty"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID,required,notEmpty"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY,required,notEmpty"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME,required,notEmpty"`
	MinioRegion          string `env:"MINIO_REGION,required,notEmpty"`
	// MinioPublicURL — базовый адрес, по которому объекты доступны клиентам
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`

	// Без RABBITMQ_URL сервер работает, выгрузка отвечает 503
	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"shopping_list_export_queue"`
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// LoadBaseConfig загружает только то, что нужно для работы с бд
func LoadBaseConfig() (*BaseConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := BaseConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}
	return nil
}

func (c *BaseConfig) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// applyDefaults вручную устанавливает значения по умолчанию для незаданных полей
func (c *Config) applyDefaults() {
	c.BaseConfig.applyDefaults()
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
	// 6 — размер страницы, который ожидает фронтенд
	if c.PageSize <= 0 {
		c.PageSize = 6
	}
	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = 20
	}
	if len(c.CORSAllowedOrigins) == 0 {
		c.CORSAllowedOrigins = []string{"*"}
	}
	if c.MinioPublicURL == "" {
		scheme := "http"
		if c.MinioUseSSL {
			scheme = "https"
		}
		c.MinioPublicURL = fmt.Sprintf("%s://%s", scheme, c.MinioEndpoint)
	}
}
