package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var config = viper.New()

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppName string `mapstructure:"APP_NAME"`
	Server  struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBName         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConn     int           `mapstructure:"MAX_OPEN_CONN"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Webhook struct {
		// SigningKey is the shared secret used to compute the HMAC over raw
		// webhook bodies.
		SigningKey string `mapstructure:"SIGNING_KEY"`
		// Routes maps a webhook route name to the set of canonical event
		// signatures it accepts.
		Routes map[string][]string `mapstructure:"ROUTES"`
	} `mapstructure:"WEBHOOK"`
	Chain struct {
		ID int64 `mapstructure:"ID"`
	} `mapstructure:"CHAIN"`
	Points struct {
		StreakCap int64 `mapstructure:"STREAK_CAP"`
	} `mapstructure:"POINTS"`
	Retention struct {
		MaxAge time.Duration `mapstructure:"MAX_AGE"`
	} `mapstructure:"RETENTION"`
	Worker struct {
		Concurrency int    `mapstructure:"CONCURRENCY"`
		Queue       string `mapstructure:"QUEUE"`
	} `mapstructure:"WORKER"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func LoadConfig() *Config {
	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	setDefaults(config)

	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			zap.L().Error("failed to read config file", zap.Error(err))
			os.Exit(1)
		}
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		zap.L().Error("failed to unmarshal config", zap.Error(err))
		os.Exit(1)
	}

	if len(cfg.Webhook.Routes) == 0 {
		cfg.Webhook.Routes = map[string][]string{
			"checkin": {"CheckIn(address,uint256,uint256)"},
		}
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "arkada-rewards")
	v.SetDefault("HTTP_SERVER.ADDR", ":8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 10*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("CHAIN.ID", 1868)
	v.SetDefault("POINTS.STREAK_CAP", 30)
	v.SetDefault("RETENTION.MAX_AGE", 24*time.Hour)
	v.SetDefault("WORKER.CONCURRENCY", 1)
	v.SetDefault("WORKER.QUEUE", "webhooks")
}
