package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 存储后端
const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

// 通知方式
const (
	NotifierRedis = "redis"
	NotifierLog   = "log"
)

// 锁类型
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lmstfy   LmstfyConfig   `mapstructure:"lmstfy"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Lock     LockConfig     `mapstructure:"lock"`
	Service  ServiceConfig  `mapstructure:"service"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	Backend  string `mapstructure:"backend"` // memory | mysql
	NodeID   int64  `mapstructure:"node_id"` // 内存后端生成 ID 用
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MySQLConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig host 为空时使用进程内队列
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
	Queue     string `mapstructure:"queue"`
	TTL       uint32 `mapstructure:"ttl"`
	Tries     uint16 `mapstructure:"tries"`
}

type NotifierConfig struct {
	Kind              string `mapstructure:"kind"` // redis | log
	ChannelPrefix     string `mapstructure:"channel_prefix"`
	RequireSubscriber bool   `mapstructure:"require_subscriber"`
}

type LockConfig struct {
	Kind string        `mapstructure:"kind"` // local | redis
	TTL  time.Duration `mapstructure:"ttl"`
}

// ServiceConfig 任务单默认参数
type ServiceConfig struct {
	MaxRetry int `mapstructure:"max_retry"`
	Timeout  int `mapstructure:"timeout"` // 秒
}

type SweeperConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// Load 从配置文件加载配置，JOBSVC_ 前缀的环境变量覆盖文件内容
// 例如 JOBSVC_MYSQL_DSN 覆盖 mysql.dsn
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}
	return unmarshal(v)
}

// LoadDefault 加载默认配置文件路径
func LoadDefault() (*Config, error) {
	return Load("config/config.yaml")
}

// FromEnv 不读文件，仅使用默认值和环境变量
func FromEnv() (*Config, error) {
	return unmarshal(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("JOBSVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "jobsvc")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.backend", BackendMemory)
	v.SetDefault("app.node_id", 0)
	v.SetDefault("server.port", "8080")
	v.SetDefault("mysql.dsn", "")
	v.SetDefault("mysql.auto_migrate", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("lmstfy.host", "")
	v.SetDefault("lmstfy.port", 7777)
	v.SetDefault("lmstfy.namespace", "")
	v.SetDefault("lmstfy.token", "")
	v.SetDefault("lmstfy.queue", "job_orders")
	v.SetDefault("lmstfy.ttl", 0)
	v.SetDefault("lmstfy.tries", 1)
	v.SetDefault("notifier.kind", NotifierLog)
	v.SetDefault("notifier.channel_prefix", "jobsvc")
	v.SetDefault("notifier.require_subscriber", false)
	v.SetDefault("lock.kind", LockLocal)
	v.SetDefault("lock.ttl", "30s")
	v.SetDefault("service.max_retry", 3)
	v.SetDefault("service.timeout", 300)
	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.interval", "30s")
	v.SetDefault("sweeper.batch_size", 100)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	return &cfg, nil
}

// Validate 按所选后端检查必填项
func (c *Config) Validate() error {
	switch c.App.Backend {
	case BackendMemory:
	case BackendMySQL:
		if c.MySQL.DSN == "" {
			return fmt.Errorf("mysql.dsn is required for backend %s", c.App.Backend)
		}
	default:
		return fmt.Errorf("unknown app.backend %q", c.App.Backend)
	}

	switch c.Notifier.Kind {
	case NotifierLog, NotifierRedis:
	default:
		return fmt.Errorf("unknown notifier.kind %q", c.Notifier.Kind)
	}
	switch c.Lock.Kind {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown lock.kind %q", c.Lock.Kind)
	}

	if c.NeedsRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.UsesLmstfy() {
		if c.Lmstfy.Namespace == "" || c.Lmstfy.Token == "" {
			return fmt.Errorf("lmstfy namespace and token are required")
		}
		if c.Lmstfy.Queue == "" {
			return fmt.Errorf("lmstfy.queue is required")
		}
	}

	if c.Service.MaxRetry < 0 {
		return fmt.Errorf("service.max_retry must be non-negative")
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("service.timeout must be non-negative")
	}
	if c.Sweeper.Enabled && c.Sweeper.Interval <= 0 {
		return fmt.Errorf("sweeper.interval must be positive")
	}
	return nil
}

// UsesLmstfy 配置了 lmstfy 时使用延迟队列，否则使用进程内队列
func (c *Config) UsesLmstfy() bool {
	return c.Lmstfy.Host != ""
}

// NeedsRedis redis 通知、redis 锁以及 lmstfy 的索引都依赖 redis
func (c *Config) NeedsRedis() bool {
	return c.Notifier.Kind == NotifierRedis || c.Lock.Kind == LockRedis || c.UsesLmstfy()
}

// GetServerPort 获取服务端口
func (c *Config) GetServerPort() string {
	if c.Server.Port != "" {
		return c.Server.Port
	}
	return "8080"
}
