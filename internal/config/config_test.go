package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "lists_db", cfg.Database.Database)
				assert.Equal(t, "imports_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "imports_queue", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, "imports_dlx", cfg.RabbitMQ.DeadLetterExchange)
				assert.Equal(t, 4, cfg.RabbitMQ.Consumer.PrefetchCount)
				assert.Equal(t, "list-import-worker", cfg.App.Name)

				assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
				assert.Equal(t, 12*time.Hour, cfg.Redis.StatusTTL)
				assert.Equal(t, DefaultRedisKeyPrefix, cfg.Redis.KeyPrefix)

				assert.Equal(t, ObjectStoreS3, cfg.ObjectStore.Driver)
				assert.Equal(t, "us-east-1", cfg.ObjectStore.S3.Region)
				assert.True(t, cfg.ObjectStore.S3.UsePathStyle)

				assert.Equal(t, 250, cfg.Import.BatchSize)
				assert.Equal(t, int64(DefaultProgressInterval), cfg.Import.ProgressInterval)
				assert.Equal(t, int64(1048576), cfg.Import.MaxSourceBytes)
				assert.True(t, cfg.Import.DeleteSourceAfterImport)

				assert.Equal(t, 10*time.Minute, cfg.Worker.JobTimeout)
				assert.Equal(t, DefaultShutdownTimeout, cfg.Worker.ShutdownTimeout)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultRedisKeyPrefix, cfg.Redis.KeyPrefix)
	assert.Equal(t, DefaultStatusTTL, cfg.Redis.StatusTTL)
	assert.Equal(t, ObjectStoreS3, cfg.ObjectStore.Driver)
	assert.Equal(t, DefaultBatchSize, cfg.Import.BatchSize)
	assert.Equal(t, int64(DefaultProgressInterval), cfg.Import.ProgressInterval)
	assert.Equal(t, int64(DefaultMaxSourceBytes), cfg.Import.MaxSourceBytes)
	assert.False(t, cfg.Import.DeleteSourceAfterImport)
}

func validAPIConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "lists_db",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: ExchangeConfig{Name: "imports_exchange"},
			Queue:    QueueConfig{Name: "imports_queue"},
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
	}
}

func validWorkerConfig() *Config {
	cfg := validAPIConfig()
	cfg.Worker = WorkerConfig{Concurrency: 2}
	cfg.ObjectStore = ObjectStoreConfig{
		Driver: ObjectStoreS3,
		S3:     S3Config{Region: "us-east-1"},
	}
	return cfg
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name:      "empty exchange name",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "empty queue name",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
		{
			name:      "empty redis addr",
			mutate:    func(c *Config) { c.Redis.Addr = "" },
			wantErr:   true,
			errString: "redis addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAPIConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid s3 config",
			mutate: func(c *Config) {},
		},
		{
			name: "valid local config",
			mutate: func(c *Config) {
				c.ObjectStore = ObjectStoreConfig{Driver: ObjectStoreLocal, Local: LocalStoreConfig{BaseDir: "/data"}}
			},
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr:   true,
			errString: "worker concurrency must be greater than 0",
		},
		{
			name:      "negative job timeout",
			mutate:    func(c *Config) { c.Worker.JobTimeout = -time.Second },
			wantErr:   true,
			errString: "job_timeout",
		},
		{
			name:      "missing s3 region",
			mutate:    func(c *Config) { c.ObjectStore.S3.Region = "" },
			wantErr:   true,
			errString: "s3 region is required",
		},
		{
			name:      "missing local base dir",
			mutate:    func(c *Config) { c.ObjectStore.Driver = ObjectStoreLocal },
			wantErr:   true,
			errString: "base_dir is required",
		},
		{
			name:      "unknown driver",
			mutate:    func(c *Config) { c.ObjectStore.Driver = "ftp" },
			wantErr:   true,
			errString: "unknown object_store driver",
		},
		{
			name:      "shared database checks apply",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validWorkerConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.NoError(t, cfg.ValidateAPIConfig())
		require.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateWorkerConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}

func TestPortConstants(t *testing.T) {
	assert.Equal(t, 1, MinPort)
	assert.Equal(t, 65535, MaxPort)
}
