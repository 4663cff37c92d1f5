package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// NativeMint is the token_mint sentinel selecting native SOL payments.
const NativeMint = "native"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Backend  BackendConfig  `mapstructure:"backend"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// SolanaConfig describes the ledger connection and the merchant side of every payment.
type SolanaConfig struct {
	RPCEndpoint    string   `mapstructure:"rpc_endpoint"`
	BackupRPCs     []string `mapstructure:"backup_rpcs"`
	MerchantWallet string   `mapstructure:"merchant_wallet"`
	TokenMint      string   `mapstructure:"token_mint"` // mint address or "native"
	Commitment     string   `mapstructure:"commitment"`
	WalletKeys     []string `mapstructure:"wallet_keys"`     // base58 private keys of payer wallets
	WalletKeySeal  string   `mapstructure:"wallet_key_seal"` // hex AES-256 key; when set, wallet_keys are sealed
}

// Endpoints returns the primary RPC endpoint followed by the backups, skipping blanks.
func (s SolanaConfig) Endpoints() []string {
	out := make([]string, 0, len(s.BackupRPCs)+1)
	if s.RPCEndpoint != "" {
		out = append(out, s.RPCEndpoint)
	}
	for _, e := range s.BackupRPCs {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// IsNative reports whether payments are made in native SOL.
func (s SolanaConfig) IsNative() bool {
	return s.TokenMint == "" || s.TokenMint == NativeMint
}

type PaymentConfig struct {
	Label          string        `mapstructure:"label"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	QRSize         int           `mapstructure:"qr_size"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	ReferenceTTL   time.Duration `mapstructure:"reference_ttl"`
	StateTTL       time.Duration `mapstructure:"state_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"` // how often stale pending attempts are expired
}

type BackendConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts uint          `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	SigningSecret string        `mapstructure:"signing_secret"` // HMAC key for X-Signature; empty = unsigned
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SPG_ (Solana Payment Gateway).
// Nested keys use underscore: SPG_SOLANA_RPC_ENDPOINT, SPG_BACKEND_BASE_URL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "solana_payments")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "solana-payment-gateway")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("solana.rpc_endpoint", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.backup_rpcs", []string{})
	v.SetDefault("solana.merchant_wallet", "")
	v.SetDefault("solana.token_mint", NativeMint)
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.wallet_keys", []string{})
	v.SetDefault("solana.wallet_key_seal", "")
	v.SetDefault("payment.label", "WuAI AI credits purchase")
	v.SetDefault("payment.poll_interval", "5s")
	v.SetDefault("payment.max_attempts", 24)
	v.SetDefault("payment.qr_size", 256)
	v.SetDefault("payment.confirm_timeout", "90s")
	v.SetDefault("payment.reference_ttl", "10m")
	v.SetDefault("payment.state_ttl", "1h")
	v.SetDefault("payment.sweep_interval", "1m")
	v.SetDefault("backend.base_url", "http://localhost:8000/api")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.retry_attempts", 3)
	v.SetDefault("backend.retry_delay", "1s")
	v.SetDefault("backend.signing_secret", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// SPG_SOLANA_MERCHANT_WALLET -> solana.merchant_wallet
	v.SetEnvPrefix("SPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the payment flow cannot run without.
func (c *Config) Validate() error {
	if c.Solana.MerchantWallet == "" {
		return fmt.Errorf("solana.merchant_wallet is required")
	}
	if len(c.Solana.Endpoints()) == 0 {
		return fmt.Errorf("at least one solana rpc endpoint is required")
	}
	if c.Payment.PollInterval <= 0 {
		return fmt.Errorf("payment.poll_interval must be positive")
	}
	if c.Payment.MaxAttempts <= 0 {
		return fmt.Errorf("payment.max_attempts must be positive")
	}
	if c.Payment.SweepInterval <= 0 {
		return fmt.Errorf("payment.sweep_interval must be positive")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}
