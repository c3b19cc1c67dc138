package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

const DefaultListenAddr = ":3000"

type MySQLConfig struct {
	Dsn             string `mapstructure:"dsn"`
	TablePrefix     string `mapstructure:"tablePrefix"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type OAuthProviderConfig struct {
	ClientID     string   `mapstructure:"clientID"`
	ClientSecret string   `mapstructure:"clientSecret"`
	Scope        []string `mapstructure:"scope"`
}

type ProvidersConfig struct {
	Google OAuthProviderConfig `mapstructure:"google"`
	Twitch OAuthProviderConfig `mapstructure:"twitch"`
}

// WebhookConfig holds the inbound auth-email hook secret. The secret is
// accepted either bare or in the "v1,<key>" form the identity backend
// displays it in.
type WebhookConfig struct {
	SendEmailSecret string `mapstructure:"sendEmailSecret"`
}

type Config struct {
	Debug        bool            `mapstructure:"debug"`
	SiteName     string          `mapstructure:"siteName"`
	BaseURL      string          `mapstructure:"baseURL"`
	SiteURL      string          `mapstructure:"siteURL"` // user-facing app the email links point at
	MasterKey    string          `mapstructure:"masterKey"`
	CronSecret   string          `mapstructure:"cronSecret"` // bearer token guarding the refresh sweep
	GateSecret   string          `mapstructure:"gateSecret"` // bearer token guarding gate evaluation
	ListenAddr   string          `mapstructure:"listenAddr"`
	TemplateDir  string          `mapstructure:"templateDir"`
	AllowOrigins []string        `mapstructure:"allowOrigins"`
	Redis        RedisConfig     `mapstructure:"redis"`
	Mail         MailConfig      `mapstructure:"mail"`
	MySQL        MySQLConfig     `mapstructure:"mysql"`
	Providers    ProvidersConfig `mapstructure:"providers"`
	Webhook      WebhookConfig   `mapstructure:"webhook"`
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.SiteURL == "" {
		c.SiteURL = c.BaseURL
	}
	return nil
}

// Validate fails fast on missing secrets so a misconfigured deployment never
// starts serving; secret problems are configuration errors, not request errors.
func (c *Config) Validate() error {
	if c.MasterKey == "" {
		return errors.New("config: masterKey is required")
	}
	if c.CronSecret == "" {
		return errors.New("config: cronSecret is required")
	}
	if c.GateSecret == "" {
		return errors.New("config: gateSecret is required")
	}
	if c.Webhook.SendEmailSecret == "" {
		return errors.New("config: webhook.sendEmailSecret is required")
	}
	if c.MySQL.Dsn == "" {
		return errors.New("config: mysql.dsn is required")
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
