package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Grid     GridConfig     `mapstructure:"grid"`
	Services ServicesConfig `mapstructure:"services"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	DBName    string `mapstructure:"dbname"`
	Charset   string `mapstructure:"charset"`
	ParseTime bool   `mapstructure:"parse_time"`
	Loc       string `mapstructure:"loc"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServicesConfig 本格协作服务地址
type ServicesConfig struct {
	AccountsURL  string `mapstructure:"accounts_url"`
	PresenceURL  string `mapstructure:"presence_url"`
	GridURL      string `mapstructure:"grid_url"`      // 区域注册表
	AvatarURL    string `mapstructure:"avatar_url"`
	SimulatorURL string `mapstructure:"simulator_url"` // 本格事件下发
}

// JWTConfig 网格内服务间认证配置
type JWTConfig struct {
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	Issuer         string        `mapstructure:"issuer"`
	AccessExpiry   time.Duration `mapstructure:"access_expiry"`
}

// GridConfig 超网格配置
// foreign_trips_allowed / allow_except / disallow_except 的键
// 形如 level_0、level_200，按账户信任等级索引出境策略
type GridConfig struct {
	ExternalName                string            `mapstructure:"external_name"`   // 本网格对外规范地址
	GatekeeperURI               string            `mapstructure:"gatekeeper_uri"`  // 留空时取 external_name
	BypassClientVerification    bool              `mapstructure:"bypass_client_verification"`
	LevelOutsideContacts        int               `mapstructure:"level_outside_contacts"`
	ShowUserDetailsInHGProfile  bool              `mapstructure:"show_user_details_in_hg_profile"`
	ForwardOfflineGroupMessages bool              `mapstructure:"forward_offline_group_messages"`
	InGatekeeper                bool              `mapstructure:"in_gatekeeper"`
	ForeignTripsAllowed         map[string]bool   `mapstructure:"foreign_trips_allowed"`
	AllowExcept                 map[string]string `mapstructure:"allow_except"`
	DisallowExcept              map[string]string `mapstructure:"disallow_except"`
}

// GatekeeperURL 本网格的守门人地址，缺省复用对外规范地址
func (g *GridConfig) GatekeeperURL() string {
	if g.GatekeeperURI != "" {
		return g.GatekeeperURI
	}
	return g.ExternalName
}

// Validate 启动期校验：对外地址必须可解析，主机名必须可查询
// 校验失败是致命错误，服务宁可拒绝启动也不能半配置运行
func (g *GridConfig) Validate() error {
	if g.ExternalName == "" {
		return fmt.Errorf("grid.external_name 未配置")
	}
	u, err := url.Parse(g.ExternalName)
	if err != nil || u.Host == "" {
		return fmt.Errorf("grid.external_name 不是合法地址: %s", g.ExternalName)
	}
	if _, err := net.LookupHost(u.Hostname()); err != nil {
		return fmt.Errorf("grid.external_name 主机名解析失败: %w", err)
	}
	return nil
}

var current *Config

// Get 获取全局配置（需先调用 Load / LoadFromFile）
func Get() *Config {
	return current
}

// Load 加载配置
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// 支持环境变量覆盖
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	current = &cfg
	return &cfg, nil
}

// LoadFromFile 从指定文件加载配置
func LoadFromFile(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	current = &cfg
	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器默认配置
	viper.SetDefault("server.addr", ":8002")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")

	// 数据库默认配置
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.user", "postgres")
	viper.SetDefault("database.postgres.password", "")
	viper.SetDefault("database.postgres.dbname", "hypergrid")
	viper.SetDefault("database.postgres.sslmode", "disable")

	// Redis 默认配置
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// JWT 默认配置
	viper.SetDefault("jwt.issuer", "hypergrid-backend")
	viper.SetDefault("jwt.access_expiry", "2h")

	// 本格协作服务默认配置
	viper.SetDefault("services.accounts_url", "http://localhost:8003/")
	viper.SetDefault("services.presence_url", "http://localhost:8003/")
	viper.SetDefault("services.grid_url", "http://localhost:8003/")
	viper.SetDefault("services.avatar_url", "http://localhost:8003/")
	viper.SetDefault("services.simulator_url", "http://localhost:9000/")

	// 超网格默认配置
	viper.SetDefault("grid.external_name", "http://localhost:8002/")
	viper.SetDefault("grid.gatekeeper_uri", "")
	viper.SetDefault("grid.bypass_client_verification", false)
	viper.SetDefault("grid.level_outside_contacts", 0)
	viper.SetDefault("grid.show_user_details_in_hg_profile", true)
	viper.SetDefault("grid.forward_offline_group_messages", false)
	viper.SetDefault("grid.in_gatekeeper", true)
}
