package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name    string
	Version string
	Env     string
	HTTP    HTTP
	Admin   AdminHTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	RefreshTTLHours   int
	LeewaySec         int
}

type Redis struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	CacheTTLSec int    `mapstructure:"cache_ttl_sec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Security 对应生产环境的 allowed hosts / https / cookie 开关
type Security struct {
	AllowedHosts  []string `mapstructure:"allowed_hosts"`
	HTTPSOnly     bool     `mapstructure:"https_only"`
	HSTSSeconds   int      `mapstructure:"hsts_seconds"`
	SecureCookies bool     `mapstructure:"secure_cookies"`
}

type CORS struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type Limits struct {
	RPS         float64 `mapstructure:"rps"`
	Burst       int     `mapstructure:"burst"`
	PerIPRPS    float64 `mapstructure:"per_ip_rps"`
	PerIPBurst  int     `mapstructure:"per_ip_burst"`
	Concurrency int64   `mapstructure:"concurrency"`
	MaxBodyMB   int64   `mapstructure:"max_body_mb"`
	TimeoutSec  int     `mapstructure:"timeout_sec"`
}

type Config struct {
	App      App
	Log      Log
	JWT      JWT
	DB       DB
	Redis    Redis `mapstructure:"redis"`
	Security Security
	CORS     CORS `mapstructure:"cors"`
	Limits   Limits
}

func (j JWT) AccessTTL() time.Duration  { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) RefreshTTL() time.Duration { return time.Duration(j.RefreshTTLHours) * time.Hour }
func (j JWT) Leeway() time.Duration     { return time.Duration(j.LeewaySec) * time.Second }

func (r Redis) CacheTTL() time.Duration { return time.Duration(r.CacheTTLSec) * time.Second }

// HSTS https_only 关闭时为 0
func (s Security) HSTS() time.Duration {
	if !s.HTTPSOnly {
		return 0
	}
	return time.Duration(s.HSTSSeconds) * time.Second
}

func (l Limits) Timeout() time.Duration { return time.Duration(l.TimeoutSec) * time.Second }
func (l Limits) MaxBodyBytes() int64    { return l.MaxBodyMB << 20 }

func defaults(v *viper.Viper) {
	v.SetDefault("app.name", "fitness-platform")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 15)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "0.0.0.0")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	// 空默认值让 APP_JWT_SECRET 等环境变量也能覆盖
	v.SetDefault("jwt.secret", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("jwt.issuer", "fitness-platform")
	v.SetDefault("jwt.accesstokenttlmin", 60)
	v.SetDefault("jwt.refreshttlhours", 24)
	v.SetDefault("jwt.leewaysec", 0)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "fitness.db")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("redis.cache_ttl_sec", 300)
	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.per_ip_rps", 20)
	v.SetDefault("limits.per_ip_burst", 40)
	v.SetDefault("limits.concurrency", 300)
	v.SetDefault("limits.max_body_mb", 16)
	v.SetDefault("limits.timeout_sec", 10)
}

// Load 读取 yaml 配置，APP_ 前缀环境变量覆盖（APP_DB_DSN → db.dsn）
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	if c.App.Env == "prod" && len(c.Security.AllowedHosts) == 0 {
		return fmt.Errorf("config: security.allowed_hosts is required in prod")
	}
	return nil
}
