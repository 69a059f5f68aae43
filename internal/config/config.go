package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cron      CronConfig      `mapstructure:"cron"`
	Kalshi    KalshiConfig    `mapstructure:"kalshi"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	News      NewsConfig      `mapstructure:"news"`
	Embed     EmbedConfig     `mapstructure:"embed"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Retention RetentionConfig `mapstructure:"retention"`
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
	Enabled bool   `mapstructure:"enabled"`
	Ingest  string `mapstructure:"ingest"`
}

type KalshiConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type IngestConfig struct {
	MaxMarkets int `mapstructure:"max_markets"`
	MaxEvents  int `mapstructure:"max_events"`
	NeighborK  int `mapstructure:"neighbor_k"`
	// RunOnBoot triggers one cycle at startup before the schedule kicks in.
	RunOnBoot bool `mapstructure:"run_on_boot"`
}

type NewsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Feeds overrides the built-in catalog when non-empty, as
	// "Source|https://feed.url" pairs.
	Feeds   []string      `mapstructure:"feeds"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EmbedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Token   string `mapstructure:"token"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type RetentionConfig struct {
	UnlinkedArticles time.Duration `mapstructure:"unlinked_articles"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KN")
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
	v.SetDefault("cron.ingest", "@every 10m")
	v.SetDefault("kalshi.base_url", "https://api.elections.kalshi.com/trade-api/v2")
	v.SetDefault("kalshi.timeout", "15s")
	v.SetDefault("ingest.max_markets", 300)
	v.SetDefault("ingest.max_events", 200)
	v.SetDefault("ingest.neighbor_k", 3)
	v.SetDefault("ingest.run_on_boot", true)
	v.SetDefault("news.enabled", true)
	v.SetDefault("news.timeout", "20s")
	v.SetDefault("embed.enabled", false)
	v.SetDefault("embed.base_url", "http://localhost:8081/v1")
	v.SetDefault("embed.model", "all-MiniLM-L6-v2")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("retention.unlinked_articles", "720h")

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
