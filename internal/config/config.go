package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	TokenModeStatic = "static"
	TokenModeJWT    = "jwt"

	defaultServerAddr  = ":8080"
	defaultFallbackURL = "https://www.kaiwu.info"
)

type Config struct {
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Bridge   BridgeConfig   `yaml:"bridge" json:"bridge"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

type ProviderConfig struct {
	Name       string `yaml:"name" json:"name"`
	ClientID   string `yaml:"clientID" json:"clientID"`
	APIBaseURL string `yaml:"apiBaseURL" json:"apiBaseURL"`
}

// BridgeConfig holds the consumer-facing surface of the bridge: the
// single registered client credential pair, the bearer token returned
// on redemption, and the informational URL users without a valid
// subscription are sent to.
type BridgeConfig struct {
	ClientID     string `yaml:"clientID" json:"clientID"`
	ClientSecret string `yaml:"clientSecret" json:"clientSecret"`
	AccessToken  string `yaml:"accessToken" json:"accessToken"`
	FallbackURL  string `yaml:"fallbackURL" json:"fallbackURL"`
	TokenMode    string `yaml:"tokenMode" json:"tokenMode"`
}

type StoreConfig struct {
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig configures the Redis-backed code store. An empty Addr
// selects the in-memory store.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

func Load() (*Config, error) {
	fileName := "/etc/tiangong-oauth2-bridge/config/config.yaml"
	if fn := os.Getenv("TIANGONG_BRIDGE_CONFIG"); fn != "" {
		fileName = fn
	}
	var cfg Config
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.ValidateAndInitialize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ValidateAndInitialize() error {
	// Apply defaults.
	if c.Bridge.FallbackURL == "" {
		c.Bridge.FallbackURL = defaultFallbackURL
	}
	if c.Bridge.TokenMode == "" {
		c.Bridge.TokenMode = TokenModeStatic
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}

	// Validate required fields.
	if c.Provider.Name == "" {
		return fmt.Errorf("provider.name must be set")
	}
	if c.Provider.ClientID == "" {
		return fmt.Errorf("provider.clientID must be set")
	}
	if c.Bridge.ClientID == "" {
		return fmt.Errorf("bridge.clientID must be set")
	}
	if c.Bridge.ClientSecret == "" {
		return fmt.Errorf("bridge.clientSecret must be set")
	}
	switch c.Bridge.TokenMode {
	case TokenModeStatic:
		if c.Bridge.AccessToken == "" {
			return fmt.Errorf("bridge.accessToken must be set when bridge.tokenMode is '%s'", TokenModeStatic)
		}
	case TokenModeJWT:
	default:
		return fmt.Errorf("unsupported bridge.tokenMode '%s', must be '%s' or '%s'",
			c.Bridge.TokenMode, TokenModeStatic, TokenModeJWT)
	}

	return nil
}
