package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	// ErrReadConfig ошибка чтения файла конфигурации
	ErrReadConfig = errors.New("config: failed to read config file")
	// ErrInvalidConfig ошибка валидации конфигурации
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server           ServerConfig           `toml:"server"`
	Database         DatabaseConfig         `toml:"database"`
	Logs             LogsConfig             `toml:"logs"`
	Metrics          MetricsConfig          `toml:"metrics"`
	Scheduling       SchedulingConfig       `toml:"scheduling"`
	Kafka            KafkaConfig            `toml:"kafka"`
	Notifications    NotificationsConfig    `toml:"notifications"`
	InsuranceService InsuranceServiceConfig `toml:"insurance_service"`
	RateLimit        RateLimitConfig        `toml:"rate_limit"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения к PostgreSQL
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// SchedulingConfig параметры движка записи и листа ожидания
type SchedulingConfig struct {
	Timezone                string `toml:"timezone"`
	ClaimWindowMinutes      int    `toml:"claim_window_minutes"`
	CancellationNoticeHours int    `toml:"cancellation_notice_hours"`
	ForecastDays            int    `toml:"forecast_days"`
	MaxRankedProviders      int    `toml:"max_ranked_providers"`
	DefaultRankLimit        int    `toml:"default_rank_limit"`
	AvailabilityCacheTTL    int    `toml:"availability_cache_ttl"` // секунды
	ReminderOffsetsHours    []int  `toml:"reminder_offsets_hours"`
}

// Location часовой пояс клиники
func (c SchedulingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c SchedulingConfig) ClaimWindow() time.Duration {
	return time.Duration(c.ClaimWindowMinutes) * time.Minute
}

func (c SchedulingConfig) CancellationNotice() time.Duration {
	return time.Duration(c.CancellationNoticeHours) * time.Hour
}

func (c SchedulingConfig) CacheTTL() time.Duration {
	return time.Duration(c.AvailabilityCacheTTL) * time.Second
}

// ReminderOffsets смещения напоминаний относительно начала приема
func (c SchedulingConfig) ReminderOffsets() []time.Duration {
	offsets := make([]time.Duration, 0, len(c.ReminderOffsetsHours))
	for _, h := range c.ReminderOffsetsHours {
		offsets = append(offsets, time.Duration(h)*time.Hour)
	}
	return offsets
}

type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

type NotificationsConfig struct {
	Enabled     bool   `toml:"enabled"`
	SQSQueueURL string `toml:"sqs_queue_url"`
	Region      string `toml:"region"`
	Workers     int    `toml:"workers"`
	BufferSize  int    `toml:"buffer_size"`
	MaxAttempts int    `toml:"max_attempts"`
}

type InsuranceServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// RateLimitConfig ограничение частоты запросов на пользователя (или IP для публичных маршрутов)
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	IdleTTL           int     `toml:"idle_ttl"` // секунды, после которых неактивный лимитер удаляется
}

func (c RateLimitConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTTL) * time.Second
}

// Load загружает конфигурацию из TOML файла
// Пустые значения заполняются значениями по умолчанию, затем применяются переменные окружения
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 15)
	setDefault(&c.Server.WriteTimeout, 15)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 10)

	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.MaxOpenConns, 25)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "appointment_service"
	}

	if c.Scheduling.Timezone == "" {
		c.Scheduling.Timezone = "UTC"
	}
	setDefault(&c.Scheduling.ClaimWindowMinutes, 15)
	setDefault(&c.Scheduling.CancellationNoticeHours, 24)
	setDefault(&c.Scheduling.ForecastDays, 30)
	setDefault(&c.Scheduling.MaxRankedProviders, 20)
	setDefault(&c.Scheduling.DefaultRankLimit, 10)
	setDefault(&c.Scheduling.AvailabilityCacheTTL, 300)
	if len(c.Scheduling.ReminderOffsetsHours) == 0 {
		c.Scheduling.ReminderOffsetsHours = []int{24, 2}
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "appointments.events"
	}

	setDefault(&c.Notifications.Workers, 4)
	setDefault(&c.Notifications.BufferSize, 256)
	setDefault(&c.Notifications.MaxAttempts, 3)
	if c.Notifications.Region == "" {
		c.Notifications.Region = "us-east-1"
	}

	setDefault(&c.InsuranceService.Timeout, 5)

	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 20
	}
	setDefault(&c.RateLimit.Burst, 40)
	setDefault(&c.RateLimit.IdleTTL, 600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SQS_QUEUE_URL"); v != "" {
		c.Notifications.SQSQueueURL = v
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("%w: database.host is required", ErrInvalidConfig)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("%w: database.dbname is required", ErrInvalidConfig)
	}
	if _, err := c.Scheduling.Location(); err != nil {
		return fmt.Errorf("%w: scheduling.timezone: %v", ErrInvalidConfig, err)
	}
	if c.Scheduling.ClaimWindowMinutes <= 0 {
		return fmt.Errorf("%w: scheduling.claim_window_minutes must be positive", ErrInvalidConfig)
	}
	for _, h := range c.Scheduling.ReminderOffsetsHours {
		if h <= 0 {
			return fmt.Errorf("%w: scheduling.reminder_offsets_hours must be positive", ErrInvalidConfig)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers is required when kafka is enabled", ErrInvalidConfig)
	}
	if c.Notifications.Enabled && c.Notifications.SQSQueueURL == "" {
		return fmt.Errorf("%w: notifications.sqs_queue_url is required when notifications are enabled", ErrInvalidConfig)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0) {
		return fmt.Errorf("%w: rate_limit values must be positive", ErrInvalidConfig)
	}
	if c.InsuranceService.URL == "" {
		return fmt.Errorf("%w: insurance_service.url is required", ErrInvalidConfig)
	}
	return nil
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
