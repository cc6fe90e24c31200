// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Режимы доставки почты.
const (
	MailModeSMTP  = "smtp"
	MailModeQueue = "queue"
)

// Config общая структура для хранения настроек.
//
// Создается один раз при старте процесса и дальше только читается.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	OTP                     `yaml:"otp"`
	SMTP                    `yaml:"smtp"`
	RabbitMQ                `yaml:"rabbitmq"`
	S3                      `yaml:"s3"`
	Mail                    `yaml:"mail"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP  string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP  time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	CookieSecure bool          `yaml:"cookie_secure"`
	// MaxUploadSize ограничение на размер multipart-запроса в байтах.
	MaxUploadSize int64 `yaml:"max_upload_size" env-default:"10485760"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"1h"`
}

// JWTToken структура для работы с jwt-токеном.
//
// Срок жизни задается в днях, cookie живет столько же, сколько токен.
type JWTToken struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET" env-required:"true"`
	ExpireDays   int    `yaml:"expire_days" env:"JWT_COOKIE_EXPIRE" env-default:"5"`
}

// TokenTTL возвращает срок жизни токена.
func (j JWTToken) TokenTTL() time.Duration {
	return time.Duration(j.ExpireDays) * 24 * time.Hour
}

// OTP настройки одноразовых кодов.
type OTP struct {
	VerifyTTL time.Duration `yaml:"verify_ttl" env:"OTP_EXPIRE" env-default:"5m"`
	ResetTTL  time.Duration `yaml:"reset_ttl" env-default:"10m"`
}

// SMTP настройки почтового сервера.
type SMTP struct {
	SMTPHost string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASSWORD"`
}

// RabbitMQ настройки брокера для очереди писем.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// S3 настройки хранилища изображений.
type S3 struct {
	S3BaseEndpoint string `yaml:"base_endpoint" env:"S3_ENDPOINT"`
	S3Region       string `yaml:"region" env-default:"us-east-1"`
	S3Bucket       string `yaml:"bucket" env:"S3_BUCKET"`
	S3AccessKey    string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey    string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	// S3PublicURL базовый адрес, по которому изображения доступны клиентам.
	S3PublicURL string `yaml:"public_url" env:"S3_PUBLIC_URL"`
}

// Mail выбор способа доставки писем.
type Mail struct {
	Mode string `yaml:"mode" env:"MAIL_MODE" env-default:"smtp"`
}

// RateLimit ограничение частоты запросов к открытым эндпоинтам аутентификации.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"1"`
	Burst int     `yaml:"burst" env-default:"5"`
}

// MustLoad функция для загрузки конфига, путь к файлу берется из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if cfg.Mode != MailModeSMTP && cfg.Mode != MailModeQueue {
		log.Fatalf("unknown mail mode: %s", cfg.Mode)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  ExpireDays: %d\n"+
			"OTP:\n"+
			"  VerifyTTL: %s\n"+
			"  ResetTTL: %s\n"+
			"Mail:\n"+
			"  Mode: %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.ExpireDays,
		c.VerifyTTL,
		c.ResetTTL,
		c.Mode,
	)
}
