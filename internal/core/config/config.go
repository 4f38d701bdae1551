package config

import (
	"fmt"
	"log"
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
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type LogRotate struct {
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
	Rotate LogRotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Redis struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	CatalogTTLSec int    `mapstructure:"catalogTTLSec"`
}

func (r Redis) CatalogTTL() time.Duration { return time.Duration(r.CatalogTTLSec) * time.Second }

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

// Store 房源/收藏落在哪：gorm（走 DB 段）或 firestore
type Store struct {
	Driver             string
	FirestoreProject   string
	FirestoreCredsFile string
}

type Listing struct {
	// 默认列表是否排除下架房源；业主和后台列表不受影响
	ExcludeInactive bool
	LookupLimit     int
}

// Client TUI 通过 HTTP SDK 连接 api
type Client struct {
	BaseURL    string
	TimeoutSec int
	Email      string
	Password   string
}

func (c Client) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// Seed 启动时确保存在的管理员账号，留空不创建
type Seed struct {
	AdminEmail    string
	AdminPassword string
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Store   Store
	Listing Listing
	Client  Client
	Seed    Seed
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "property-listing")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxSizeMB", 100)
	v.SetDefault("log.rotate.maxBackups", 7)
	v.SetDefault("log.rotate.maxAgeDays", 30)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "property-listing")
	v.SetDefault("jwt.accessTokenTTLMin", 120)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:property-listing.db?cache=shared")
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")
	v.SetDefault("redis.catalogTTLSec", 60)
	v.SetDefault("store.driver", "gorm")
	v.SetDefault("listing.excludeInactive", true)
	v.SetDefault("listing.lookupLimit", 8)
	v.SetDefault("client.baseURL", "http://127.0.0.1:8080")
	v.SetDefault("client.timeoutSec", 10)
	v.SetDefault("seed.adminEmail", "")
	v.SetDefault("seed.adminPassword", "")
}

// Parse 读配置文件 + APP_ 前缀环境变量覆盖
func Parse(path string) (*Config, error) {
	v := viper.New()
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
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret required")
	}
	switch c.Store.Driver {
	case "gorm":
	case "firestore":
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("store.firestoreProject required for firestore driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Listing.LookupLimit <= 0 {
		c.Listing.LookupLimit = 8
	}
	return nil
}

func Load(path string) *Config {
	c, err := Parse(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}
