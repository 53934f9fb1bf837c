package config

import (
	"context"
	"os"
	"time"

	"github.com/far4599/ytduration/internal/models"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/viper"
)

const (
	BackendAPI   = "api"
	BackendYtDlp = "ytdlp"

	maxBatchSize = 50
)

type Config struct {
	YouTube struct {
		APIKey    string `mapstructure:"api_key" env:"YOUTUBE_API_KEY"`
		Backend   string `mapstructure:"backend" env:"YTDURATION_BACKEND,default=api"`
		YtDlpPath string `mapstructure:"ytdlp_path" env:"YTDURATION_YTDLP_PATH,default=yt-dlp"`
		CacheDir  string `mapstructure:"cache_dir" env:"YTDURATION_CACHE_DIR"`
	} `mapstructure:"youtube"`
	Fetch struct {
		BatchSize       int           `mapstructure:"batch_size" env:"YTDURATION_BATCH_SIZE,default=50"`
		RequestTimeout  time.Duration `mapstructure:"request_timeout" env:"YTDURATION_REQUEST_TIMEOUT,default=30s"`
		Attempts        uint          `mapstructure:"attempts" env:"YTDURATION_ATTEMPTS,default=2"`
		RetryDelay      time.Duration `mapstructure:"retry_delay" env:"YTDURATION_RETRY_DELAY,default=1s"`
		Concurrency     int           `mapstructure:"concurrency" env:"YTDURATION_CONCURRENCY,default=1"`
		CacheSize       int           `mapstructure:"cache_size" env:"YTDURATION_CACHE_SIZE,default=10000"`
		ChannelCacheTTL time.Duration `mapstructure:"channel_cache_ttl" env:"YTDURATION_CHANNEL_CACHE_TTL,default=1h"`
	} `mapstructure:"fetch"`
}

func NewConfig(ctx context.Context, configPath string) (*Config, error) {
	var conf Config
	if len(configPath) == 0 {
		if err := envconfig.Process(ctx, &conf); err != nil {
			return nil, errors.Wrap(err, "failed to process config environment variables")
		}
		return &conf, nil
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config file '%s'", configPath)
	}
	defer f.Close()

	v := newViper()
	if err := v.ReadConfig(f); err != nil {
		return nil, errors.Wrap(err, "failed to read config yaml file")
	}
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "failed to decode config yaml file")
	}

	return &conf, nil
}

// newViper mirrors the environment defaults and keeps the API key overridable from
// the environment, the key usually does not live in the file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("youtube.backend", BackendAPI)
	v.SetDefault("youtube.ytdlp_path", "yt-dlp")
	v.SetDefault("fetch.batch_size", maxBatchSize)
	v.SetDefault("fetch.request_timeout", 30*time.Second)
	v.SetDefault("fetch.attempts", 2)
	v.SetDefault("fetch.retry_delay", time.Second)
	v.SetDefault("fetch.concurrency", 1)
	v.SetDefault("fetch.cache_size", 10_000)
	v.SetDefault("fetch.channel_cache_ttl", time.Hour)

	_ = v.BindEnv("youtube.api_key", "YOUTUBE_API_KEY")

	return v
}

// Validate reports configuration problems before anything goes upstream.
func (c *Config) Validate() error {
	switch c.YouTube.Backend {
	case BackendAPI:
		if len(c.YouTube.APIKey) == 0 {
			return &models.ConfigurationError{Field: "youtube.api_key", Reason: "is required for the api backend (set YOUTUBE_API_KEY)"}
		}
	case BackendYtDlp:
	default:
		return &models.ConfigurationError{Field: "youtube.backend", Reason: "must be 'api' or 'ytdlp'"}
	}

	if c.Fetch.BatchSize < 1 || c.Fetch.BatchSize > maxBatchSize {
		return &models.ConfigurationError{Field: "fetch.batch_size", Reason: "must be between 1 and 50"}
	}
	if c.Fetch.Concurrency < 1 {
		return &models.ConfigurationError{Field: "fetch.concurrency", Reason: "must be at least 1"}
	}
	if c.Fetch.RequestTimeout < 0 || c.Fetch.RetryDelay < 0 {
		return &models.ConfigurationError{Field: "fetch", Reason: "durations must not be negative"}
	}

	return nil
}
