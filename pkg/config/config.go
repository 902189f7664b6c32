// Package config loads the module's configuration from a file plus
// environment overrides.
package config

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/pakcart/storesync/cache"
	"github.com/pakcart/storesync/storefront"
	"github.com/pakcart/storesync/upload"
)

// EnvPrefix namespaces environment overrides, e.g. STORESYNC_UPLOAD_PRESET.
const EnvPrefix = "STORESYNC"

// SourceConfig addresses the external document source.
type SourceConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	WebSocketURL string `mapstructure:"websocket_url"`
}

// UploadConfig configures the media upload pipeline.
type UploadConfig struct {
	Endpoint     string                            `mapstructure:"endpoint"`
	Preset       string                            `mapstructure:"preset"`
	DailyCeiling int                               `mapstructure:"daily_ceiling"`
	QuotaDB      string                            `mapstructure:"quota_db"`
	Limits       map[upload.Category]upload.Limits `mapstructure:"limits"`
}

// FormRelayConfig configures the hosted form relay.
type FormRelayConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
}

// Config is the full module configuration.
type Config struct {
	Cache       cache.Config              `mapstructure:"cache"`
	Source      SourceConfig              `mapstructure:"source"`
	Upload      UploadConfig              `mapstructure:"upload"`
	FormRelay   FormRelayConfig           `mapstructure:"form_relay"`
	Shipping    storefront.ShippingPolicy `mapstructure:"shipping"`
	AdminEmails []string                  `mapstructure:"admin_emails"`
	SiteBaseURL string                    `mapstructure:"site_base_url"`
}

// Validate checks the loaded configuration.
func (c Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.SiteBaseURL, is.URL),
		validation.Field(&c.AdminEmails, validation.Each(is.Email)),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Upload,
		validation.Field(&c.Upload.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Upload.Preset, validation.Required),
		validation.Field(&c.Upload.DailyCeiling, validation.Min(0)),
	)
}

// Load reads configuration from the given file (optional; empty path means
// "storesync.yaml" in the working directory if present) and applies
// STORESYNC_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storesync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		// Missing config is fine when no explicit path was given; defaults
		// plus environment carry the day.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.Upload.Limits == nil {
		cfg.Upload.Limits = upload.DefaultLimits()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := cache.DefaultConfig()
	v.SetDefault("cache.capacity", defaults.Capacity)
	v.SetDefault("cache.num_shards", defaults.NumShards)
	v.SetDefault("cache.ttl", defaults.TTL)
	v.SetDefault("cache.eviction_percentage", defaults.EvictionPercentage)
	v.SetDefault("cache.missing_record_storage", defaults.MissingRecordStorage)

	v.SetDefault("upload.daily_ceiling", upload.DefaultDailyCeiling)
	v.SetDefault("shipping.free_threshold", 0)
	v.SetDefault("shipping.flat_fee", 0)
}
