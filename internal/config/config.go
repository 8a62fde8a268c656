// Package config はサービスの設定を読み込む。
//
// 設定は既定値、設定ファイル（任意）、.envファイル（任意）、環境変数の順に上書きされる。
// 環境変数名はキーのドットをアンダースコアに置き換えた大文字（例: database.dsn → DATABASE_DSN）。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config はサービス全体の設定。
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Redis      RedisConfig      `mapstructure:"redis"`
	EventStore EventStoreConfig `mapstructure:"eventstore"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Port はリッスンポート。
	Port string `mapstructure:"port"`
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig は通知ストアの接続設定。
type DatabaseConfig struct {
	// Driver は "sqlite" または "pgx"。
	Driver string `mapstructure:"driver"`
	// DSN はドライバに渡す接続文字列。
	DSN string `mapstructure:"dsn"`
	// MaxOpenConns は最大接続数。0は無制限。
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// AuthConfig はJWT認証の設定。
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// CORSConfig はCORSの設定。
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RedisConfig は未読件数キャッシュの設定。Addrが空の場合キャッシュは無効。
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// EventStoreConfig は状態変更イベントの送信先。URLが空の場合送信しない。
type EventStoreConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig はロガーの設定。
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load は設定を読み込む。configFileが空の場合は設定ファイルを読まない。
// カレントディレクトリの.envファイルが存在すれば環境変数として取り込む。
func Load(configFile string) (*Config, error) {
	// .envが無いのは正常
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORTとJWT_SECRETはコンテナ実行環境の慣例に合わせて直接受け付ける
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("eventstore.url", "EVENTSTORE_URL")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("設定のデコードに失敗: %w", err)
	}
	// 環境変数からはカンマ区切りの文字列として渡される
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8086")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "/data/notification.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 30*time.Second)
	v.SetDefault("eventstore.url", "")
	v.SetDefault("eventstore.timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port が空です"))
	}
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q は未対応です（sqlite または pgx）", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn が空です"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret（JWT_SECRET）が空です"))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, errors.New("redis.ttl は0以上である必要があります"))
	}
	return errors.Join(errs...)
}

// splitList はカンマ区切りの要素を展開し、空要素を取り除く。
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
