package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Config holds everything the daemon needs at startup.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Auth      AuthConfig      `json:"auth"`
	Logging   LoggingConfig   `json:"logging"`
	Metrics   MetricsConfig   `json:"metrics"`
	Wallet    WalletConfig    `json:"wallet"`
	Chain     ChainConfig     `json:"chain"`
	Providers ProvidersConfig `json:"providers"`
	Media     MediaConfig     `json:"media"`
	Storage   StorageConfig   `json:"storage"`
	OpQueue   QueueConfig     `json:"op_queue"`
	Alerting  AlertingConfig  `json:"alerting"`
	Runtime   RuntimeConfig   `json:"runtime"`
}

// AlertingConfig controls failure notification channels. Failed operations
// always reach the audit log; a webhook is added when the URL is set.
type AlertingConfig struct {
	WebhookURL string `json:"webhook_url,omitempty"`
}

// ServerConfig controls the REST listener.
type ServerConfig struct {
	Address string `json:"address"`
}

// AuthConfig carries the static API keys accepted by the REST surface.
// Authentication is disabled when the list is empty.
type AuthConfig struct {
	APIKeys []string `json:"api_keys"`
}

// LoggingConfig mirrors pkg/logger.Config.
type LoggingConfig struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"output_paths"`
	Audit       struct {
		Enabled    bool   `json:"enabled"`
		Path       string `json:"path"`
		MaxSizeMB  int    `json:"max_size_mb"`
		MaxBackups int    `json:"max_backups"`
		MaxAgeDays int    `json:"max_age_days"`
	} `json:"audit"`
}

// MetricsConfig controls the standalone metrics listener.
type MetricsConfig struct {
	Address string `json:"address"`
}

// WalletConfig locates the signing key. The key itself is read from the
// environment variable when PrivateKeyEnv is set, so config files on disk
// never have to carry key material.
type WalletConfig struct {
	PrivateKeyBase58 string `json:"private_key_base58,omitempty"`
	PrivateKeyEnv    string `json:"private_key_env,omitempty"`
}

// ChainConfig describes how to reach the ledger.
type ChainConfig struct {
	RPCURL                string `json:"rpc_url"`
	ClusterConfig         string `json:"cluster_config"`
	DefaultCluster        string `json:"default_cluster"`
	Commitment            string `json:"commitment"`
	ConfirmTimeoutSeconds int    `json:"confirm_timeout_seconds"`
	ConfirmPollMillis     int    `json:"confirm_poll_millis"`
}

// ConfirmTimeout returns the confirmation ceiling as a duration.
func (c ChainConfig) ConfirmTimeout() time.Duration {
	if c.ConfirmTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.ConfirmTimeoutSeconds) * time.Second
}

// ConfirmPoll returns the confirmation polling interval.
func (c ChainConfig) ConfirmPoll() time.Duration {
	if c.ConfirmPollMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.ConfirmPollMillis) * time.Millisecond
}

// ProvidersConfig carries the base URLs of the wrapped protocol services.
// Empty fields fall back to each client's production default.
type ProvidersConfig struct {
	JupiterQuoteURL string `json:"jupiter_quote_url"`
	JupiterPriceURL string `json:"jupiter_price_url"`
	StakeBlinkURL   string `json:"stake_blink_url"`
	LuloURL         string `json:"lulo_url"`
	PumpfunIPFSURL  string `json:"pumpfun_ipfs_url"`
	PumpfunTradeURL string `json:"pumpfun_trade_url"`
	MeteoraURL      string `json:"meteora_url"`
	PythRPCURL      string `json:"pyth_rpc_url"`
	RugcheckURL     string `json:"rugcheck_url"`
	SNSRPCURL       string `json:"sns_rpc_url"`
	TokenDirectory  string `json:"token_directory"`
}

// MediaConfig configures the optional auxiliary image/NL service.
type MediaConfig struct {
	Provider       string `json:"provider"`
	APIKey         string `json:"api_key,omitempty"`
	APIKeyEnv      string `json:"api_key_env,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// Timeout returns the media client timeout.
func (m MediaConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// StorageConfig selects the operation store backend.
type StorageConfig struct {
	Driver                 string `json:"driver"`
	DSN                    string `json:"dsn,omitempty"`
	Retries                int    `json:"retries"`
	MaxOpenConns           int    `json:"max_open_conns,omitempty"`
	MaxIdleConns           int    `json:"max_idle_conns,omitempty"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds,omitempty"`
}

// QueueConfig selects the operation queue backend.
type QueueConfig struct {
	Driver string `json:"driver"`
	Worker int    `json:"worker"`
	Redis  struct {
		Address   string `json:"address"`
		Password  string `json:"password,omitempty"`
		DB        int    `json:"db"`
		Queue     string `json:"queue"`
		BlockWait int    `json:"block_wait_seconds"`
	} `json:"redis"`
	RabbitMQ struct {
		URL        string `json:"url"`
		Queue      string `json:"queue"`
		Prefetch   int    `json:"prefetch"`
		Durable    bool   `json:"durable"`
		AutoDelete bool   `json:"auto_delete"`
	} `json:"rabbitmq"`
}

// RuntimeConfig holds general runtime parameters.
type RuntimeConfig struct {
	DataDir string `json:"data_dir"`
}

// Load parses the JSON config file at path.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	cfg, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a config document and applies defaults.
func Parse(r io.Reader) (*Config, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8085"
	}
	if c.Chain.Commitment == "" {
		c.Chain.Commitment = "confirmed"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Retries <= 0 {
		c.Storage.Retries = 3
	}
	if c.OpQueue.Driver == "" {
		c.OpQueue.Driver = "memory"
	}
	if c.OpQueue.Worker <= 0 {
		c.OpQueue.Worker = 4
	}
	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = "data"
	}
}

// PrivateKey resolves the signing key material, preferring the environment.
func (w WalletConfig) PrivateKey() (string, error) {
	if env := strings.TrimSpace(w.PrivateKeyEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value, nil
		}
	}
	if key := strings.TrimSpace(w.PrivateKeyBase58); key != "" {
		return key, nil
	}
	return "", errors.New("wallet private key not configured")
}

// APIKeyFor resolves the media credential, preferring the environment.
func (m MediaConfig) APIKeyFor() string {
	if env := strings.TrimSpace(m.APIKeyEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(m.APIKey)
}
