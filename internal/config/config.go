package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	RabbitMQ    RabbitMQConfig    `yaml:"rabbitmq"`
	Logging     LoggingConfig     `yaml:"logging"`
	App         AppConfig         `yaml:"app"`
	Worker      WorkerConfig      `yaml:"worker"`
	Redis       RedisConfig       `yaml:"redis"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Import      ImportConfig      `yaml:"import"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string         `yaml:"host"`
	Port       int            `yaml:"port"`
	User       string         `yaml:"user"`
	Password   string         `yaml:"password"`
	VHost      string         `yaml:"vhost"`
	Exchange   ExchangeConfig `yaml:"exchange"`
	Queue      QueueConfig    `yaml:"queue"`
	RoutingKey string         `yaml:"routing_key"`

	// DeadLetterExchange collects rejected job messages. Empty disables dead-lettering.
	DeadLetterExchange string `yaml:"dead_letter_exchange"`

	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	ID              string        `yaml:"id"`
	Concurrency     int           `yaml:"concurrency"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig holds the job status store connection
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	StatusTTL time.Duration `yaml:"status_ttl"`
}

// Object store drivers
const (
	ObjectStoreS3    = "s3"
	ObjectStoreLocal = "local"
)

// ObjectStoreConfig selects where import sources are read from
type ObjectStoreConfig struct {
	Driver string           `yaml:"driver"`
	S3     S3Config         `yaml:"s3"`
	Local  LocalStoreConfig `yaml:"local"`
}

// S3Config holds S3-compatible storage settings
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// LocalStoreConfig holds filesystem storage settings
type LocalStoreConfig struct {
	BaseDir string `yaml:"base_dir"`
}

// ImportConfig tunes the import pipeline
type ImportConfig struct {
	BatchSize               int   `yaml:"batch_size"`
	ProgressInterval        int64 `yaml:"progress_interval"`
	MaxSourceBytes          int64 `yaml:"max_source_bytes"`
	DeleteSourceAfterImport bool  `yaml:"delete_source_after_import"`
}

// Defaults applied to zero-valued settings
const (
	DefaultRedisKeyPrefix   = "import-status:"
	DefaultStatusTTL        = 24 * time.Hour
	DefaultBatchSize        = 500
	DefaultProgressInterval = 1000
	DefaultMaxSourceBytes   = 200 << 20
	DefaultShutdownTimeout  = 30 * time.Second
)

// Load reads and parses the configuration file and fills in defaults
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults replaces unset values with their defaults
func (c *Config) ApplyDefaults() {
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if c.Redis.StatusTTL <= 0 {
		c.Redis.StatusTTL = DefaultStatusTTL
	}
	if c.ObjectStore.Driver == "" {
		c.ObjectStore.Driver = ObjectStoreS3
	}
	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = DefaultBatchSize
	}
	if c.Import.ProgressInterval <= 0 {
		c.Import.ProgressInterval = DefaultProgressInterval
	}
	if c.Import.MaxSourceBytes <= 0 {
		c.Import.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if c.Worker.ShutdownTimeout <= 0 {
		c.Worker.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// ValidateAPIConfig checks the settings the API service depends on
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRabbitMQ(); err != nil {
		return err
	}
	return c.validateRedis()
}

// ValidateWorkerConfig checks the settings the worker service depends on
func (c *Config) ValidateWorkerConfig() error {
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.JobTimeout < 0 {
		return fmt.Errorf("worker job_timeout must not be negative")
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRabbitMQ(); err != nil {
		return err
	}
	if err := c.validateRedis(); err != nil {
		return err
	}

	switch c.ObjectStore.Driver {
	case ObjectStoreS3:
		if c.ObjectStore.S3.Region == "" {
			return fmt.Errorf("object_store s3 region is required")
		}
	case ObjectStoreLocal:
		if c.ObjectStore.Local.BaseDir == "" {
			return fmt.Errorf("object_store local base_dir is required")
		}
	default:
		return fmt.Errorf("unknown object_store driver: %q", c.ObjectStore.Driver)
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}

func (c *Config) validateRedis() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	return nil
}
