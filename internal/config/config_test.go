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

				// Verify some key fields are populated
				assert.Equal(t, 8000, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "obsidian_sync", cfg.Database.Database)
				assert.Equal(t, "anthropic", cfg.AI.Provider)
				assert.Equal(t, "claude-3-5-haiku-latest", cfg.AI.Model)
				assert.Equal(t, "processing.jobs.queue", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, "obsidian-sync-api", cfg.App.Name)
			}
		})
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	// Limits left out of the file get filled in
	assert.Equal(t, 10, cfg.Processing.MaxTags)
	assert.Equal(t, 50, cfg.Processing.MaxTagLength)
	assert.Equal(t, int64(10*1024*1024), cfg.Processing.MaxUploadBytes)
	assert.Equal(t, 3, cfg.AI.RetryAttempts)
	assert.Equal(t, 4*time.Second, cfg.AI.RetryDelay)
	assert.Equal(t, time.Minute, cfg.AI.RateLimitWait)
	assert.Equal(t, 90*time.Second, cfg.AI.CallTimeout)

	// Values present in the file are not overridden
	assert.Equal(t, 50000, cfg.Processing.MaxTextLength)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AI_MODEL", "gpt-4o-mini")
	t.Setenv("DEFAULT_VAULT_PATH", "/srv/vault")
	t.Setenv("DB_PASSWORD", "s3cret")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "/srv/vault", cfg.Vault.DefaultPath)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8000},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "obsidian_sync",
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
			Exchange: ExchangeConfig{
				Name: "processing.jobs",
			},
			Queue: QueueConfig{
				Name: "processing.jobs.queue",
			},
		},
		AI: AIConfig{
			Provider: "anthropic",
			Model:    "claude-3-5-haiku-latest",
		},
		Worker: WorkerConfig{
			Concurrency:     4,
			JobTimeout:      5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "missing database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "missing ai provider",
			mutate:    func(c *Config) { c.AI.Provider = "" },
			wantErr:   true,
			errString: "ai provider is required",
		},
		{
			name:      "missing ai model",
			mutate:    func(c *Config) { c.AI.Model = "" },
			wantErr:   true,
			errString: "ai model is required",
		},
		{
			name: "rabbitmq ignored when disabled",
			mutate: func(c *Config) {
				c.RabbitMQ.Enabled = false
				c.RabbitMQ.Host = ""
			},
		},
		{
			name: "rabbitmq validated when enabled",
			mutate: func(c *Config) {
				c.RabbitMQ.Enabled = true
				c.RabbitMQ.Host = ""
			},
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "rabbitmq always required",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr:   true,
			errString: "worker concurrency must be greater than 0",
		},
		{
			name:      "zero job timeout",
			mutate:    func(c *Config) { c.Worker.JobTimeout = 0 },
			wantErr:   true,
			errString: "worker job_timeout must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
