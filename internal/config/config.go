package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Mirror   *MirrorConfig   `mapstructure:"mirror"`
	Event    *EventConfig    `mapstructure:"event"`
	Realtime *RealtimeConfig `mapstructure:"realtime"`

	// DatabaseURL comes from DATABASE_URL and wins over the postgres block.
	DatabaseURL string `mapstructure:"database_url"`

	v *viper.Viper
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// Enabled reports whether a remote store is configured at all.
func (c *PostgresConfig) Enabled() bool {
	return c != nil && c.Host != ""
}

// DSN is the key=value form accepted by both pgx and lib/pq.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

type MirrorConfig struct {
	Path string `mapstructure:"path"`
}

type EventConfig struct {
	AdminCode          string        `mapstructure:"admin_code"`
	CheckInPath        string        `mapstructure:"checkin_path"`
	StrictEntryNumbers bool          `mapstructure:"strict_entry_numbers"`
	RemoteTimeout      time.Duration `mapstructure:"remote_timeout"`
}

type RealtimeConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	NotifyChannel string `mapstructure:"notify_channel"`
}

// RemoteDSN returns the connection string for the remote store, or "" when
// the service runs on the local mirror alone.
func (c *AppConfig) RemoteDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.Postgres.Enabled() {
		return c.Postgres.DSN()
	}

	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:3000"})
	v.SetDefault("api.jwt_signing_key", "")
	v.SetDefault("api.session_ttl", 24*time.Hour)

	v.SetDefault("gin.mode", "debug")

	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "encore")
	v.SetDefault("postgres.ssl_mode", "disable")

	v.SetDefault("mirror.path", "./encore.db")

	v.SetDefault("event.admin_code", "0215")
	v.SetDefault("event.checkin_path", "/checkin/enter")
	v.SetDefault("event.strict_entry_numbers", false)
	v.SetDefault("event.remote_timeout", 5*time.Second)

	v.SetDefault("realtime.enabled", true)
	v.SetDefault("realtime.notify_channel", "documents")

	v.SetDefault("database_url", "")
}

// Load reads path (optional) and overlays environment variables such as
// API_PORT or EVENT_ADMIN_CODE.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
		}
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	conf.v = v

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *AppConfig) validate() error {
	if c.API.JWTSigningKey == "" {
		return fmt.Errorf("api.jwt_signing_key is required")
	}
	if c.Event.AdminCode == "" {
		return fmt.Errorf("event.admin_code is required")
	}
	if !strings.HasPrefix(c.Event.CheckInPath, "/") {
		c.Event.CheckInPath = "/" + c.Event.CheckInPath
	}

	return nil
}

// Watch re-reads the config file on change and hands the new values to fn.
// Invalid files are reported through onErr and otherwise ignored.
func (c *AppConfig) Watch(fn func(*AppConfig), onErr func(error)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		conf, err := unmarshal(c.v)
		if err != nil {
			onErr(err)
			return
		}
		fn(conf)
	})
	c.v.WatchConfig()
}
