package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"gsource-auth/pkg/constants"
)

var GlobalConfig *Config

// Config 全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Log      LogConfig      `mapstructure:"log"`
	Probe    ProbeConfig    `mapstructure:"probe"`
	SCM      SCMConfig      `mapstructure:"scm"`
	Verify   VerifyConfig   `mapstructure:"verify"`
	Agent    AgentConfig    `mapstructure:"agent"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // SQL日志级别: silent/error/warn/info
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTokenExpire int    `mapstructure:"access_token_expire"` // 秒
}

// CryptoConfig 加密配置，实际密钥由 HKDF 从 AESKey 派生
type CryptoConfig struct {
	AESKey string `mapstructure:"aes_key"`
	Salt   string `mapstructure:"salt"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`  // debug, info, warn, error
	Format   string `mapstructure:"format"` // json, console
	Output   string `mapstructure:"output"` // stdout, file
	FilePath string `mapstructure:"file_path"`
}

// ProbeConfig robot 凭据定时探测
type ProbeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"` // 支持秒字段
	Timeout string `mapstructure:"timeout"`
}

// SCMConfig 已安装的 SCM 插件，决定启用哪些来源提取器
type SCMConfig struct {
	Plugins []string `mapstructure:"plugins"`
}

// VerifyConfig 仓库连通性校验
type VerifyConfig struct {
	Timeout string `mapstructure:"timeout"`
}

// AgentConfig 构建 agent 侧凭据助手配置
type AgentConfig struct {
	ControllerURL string `mapstructure:"controller_url"`
	Token         string `mapstructure:"token"`
	SnapshotFile  string `mapstructure:"snapshot_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "gsource-auth")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("auth.jwt.issuer", "gsource-auth")
	v.SetDefault("auth.jwt.access_token_expire", 3600)
	v.SetDefault("probe.enabled", true)
	v.SetDefault("probe.cron", "0 */30 * * * *")
	v.SetDefault("probe.timeout", "30s")
	v.SetDefault("verify.timeout", "15s")
	v.SetDefault("scm.plugins", []string{
		constants.SCMPluginGit,
		constants.SCMPluginMercurial,
		constants.SCMPluginMultiSCM,
	})
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 读取环境变量，例如 GSOURCE_DATABASE_PASSWORD
	v.SetEnvPrefix("GSOURCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 设置全局配置
	GlobalConfig = config

	return config, nil
}

// GetDSN 获取数据库DSN
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
