package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Cron    CronConfig    `mapstructure:"cron"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Shopify ShopifyConfig `mapstructure:"shopify"`
	Notion  NotionConfig  `mapstructure:"notion"`
	Sync    SyncConfig    `mapstructure:"sync"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	OrderSync string `mapstructure:"order_sync"`
}

// AuthConfig carries the optional shared secret gating the API. An empty
// secret disables the check entirely (non-production mode).
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

type ShopifyConfig struct {
	StoreURL    string        `mapstructure:"store_url"`
	AccessToken string        `mapstructure:"access_token"`
	APIVersion  string        `mapstructure:"api_version"`
	StoreHandle string        `mapstructure:"store_handle"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type NotionConfig struct {
	Token      string        `mapstructure:"token"`
	DatabaseID string        `mapstructure:"database_id"`
	Version    string        `mapstructure:"version"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type SyncConfig struct {
	Limit         int           `mapstructure:"limit"`
	LockTimeout   time.Duration `mapstructure:"lock_timeout"`
	WriteInterval time.Duration `mapstructure:"write_interval"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.order_sync", "@every 15m")
	v.SetDefault("auth.secret", "")
	v.SetDefault("shopify.api_version", "2023-10")
	v.SetDefault("shopify.timeout", "30s")
	v.SetDefault("notion.version", "2022-06-28")
	v.SetDefault("notion.timeout", "30s")
	v.SetDefault("sync.limit", 50)
	v.SetDefault("sync.lock_timeout", "10m")
	v.SetDefault("sync.write_interval", "350ms")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the credentials the sync cannot run without.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Shopify.StoreURL) == "" {
		missing = append(missing, "shopify.store_url")
	}
	if strings.TrimSpace(c.Shopify.AccessToken) == "" {
		missing = append(missing, "shopify.access_token")
	}
	if strings.TrimSpace(c.Notion.Token) == "" {
		missing = append(missing, "notion.token")
	}
	if strings.TrimSpace(c.Notion.DatabaseID) == "" {
		missing = append(missing, "notion.database_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
