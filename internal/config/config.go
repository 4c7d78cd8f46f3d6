// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	HTTPServer      `yaml:"http_server"`
	Entitlement     `yaml:"entitlement"`
	Reminders       `yaml:"reminders"`
	Prices          `yaml:"prices"`
	SMTP            `yaml:"smtp"`
}

// Storage структура для настройки хранилища состояния
type Storage struct {
	Driver                  string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	StorageConnectionString string        `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING"`
	PersistTimeout          time.Duration `yaml:"persist_timeout" env-default:"5s"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
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
}

// RabbitMQ структура для настройки подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Entitlement структура с параметрами бесплатного тарифа и пробного периода
type Entitlement struct {
	FreeMedicationLimit int           `yaml:"free_medication_limit" env-default:"5"`
	TrialPeriod         time.Duration `yaml:"trial_period" env-default:"168h"`
	FreePriceCount      int           `yaml:"free_price_count" env-default:"3"`
	AllowTrialRestart   bool          `yaml:"allow_trial_restart"`
}

// Reminders структура для настройки диспетчера напоминаний
type Reminders struct {
	DispatchInterval time.Duration `yaml:"dispatch_interval" env-default:"1m"`
	Timezone         string        `yaml:"timezone" env:"TZ_NAME" env-default:"Local"`
}

// Prices структура для настройки сравнения цен
type Prices struct {
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"1h"`
}

// SMTP структура для настройки отправки писем с напоминаниями
type SMTP struct {
	SMTPHost      string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort      string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser      string `yaml:"user" env:"SMTP_USER"`
	SMTPPass      string `yaml:"pass" env:"SMTP_PASS"`
	SMTPRecipient string `yaml:"recipient" env:"SMTP_RECIPIENT"`
}

// Load читает конфиг из файла path и переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH, завершает процесс при ошибке
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Location возвращает часовой пояс, в котором считаются "сегодня" и время напоминаний.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  PersistTimeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  MaxRetries: %d\n"+
			"  RetryDelay: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"Entitlement:\n"+
			"  FreeMedicationLimit: %d\n"+
			"  TrialPeriod: %s\n"+
			"  FreePriceCount: %d\n"+
			"Reminders:\n"+
			"  DispatchInterval: %s\n"+
			"  Timezone: %s\n",
		c.Env,
		c.Driver,
		c.PersistTimeout,
		c.AddressRedis,
		c.DB,
		c.RabbitMQMaxRetries,
		c.RabbitMQRetryDelay,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.FreeMedicationLimit,
		c.TrialPeriod,
		c.FreePriceCount,
		c.DispatchInterval,
		c.Timezone,
	)
}
