// Package config provides environment-aware configuration for the oracle agent.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	slruntime "github.com/covenantfi/oracle-agent/infrastructure/runtime"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// Mode selects which contract variant receives newly created pools.
type Mode string

const (
	ModeLegacy  Mode = "legacy"
	ModeCurrent Mode = "current"
)

// Config holds all runtime configuration for the agent process.
type Config struct {
	Env Environment

	// Wallet
	PrivateKeyHex string // hex private key; empty when running under an enclave
	EnclaveMode   bool

	// Chain
	RPCURL             string
	ChainID            int64
	StablecoinAddress  string
	LegacyContractAddr string // optional
	CurrentContractAddr string // optional, at least one of Legacy/Current required
	NewPoolMode        Mode

	// Social / LLM / historical data
	SocialAPIKey     string
	SocialBaseURL    string
	LLMAPIKey        string
	LLMBaseURL       string
	LLMModel         string
	HistoricalAPIKey string // optional

	// Controller behavior
	PauseCreation    bool
	OracleCycle      time.Duration
	SocialOnlyCycle  time.Duration
	MaxLivePools     int
	CreationCooldown int // cycles since last creation

	// Timeout floors (spec §5)
	RPCReadTimeout    time.Duration
	RPCWriteTimeout   time.Duration
	EvidenceTimeout   time.Duration
	LLMTimeout        time.Duration
	SocialTimeout     time.Duration
	HeartbeatTimeout  time.Duration
	CacheTTL          time.Duration
	InterRPCReadDelay time.Duration
	InterCommentDelay time.Duration

	// Persistence
	StateFilePath string

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics
	MetricsEnabled bool
	MetricsPort    int
}

// Load loads configuration from the environment, optionally overlaying a
// per-environment .env file, and validates the result.
func Load() (*Config, error) {
	envStr := os.Getenv("AGENT_ENV")
	if envStr == "" {
		envStr = string(slruntime.Development)
	}
	parsedEnv, ok := slruntime.ParseEnvironment(envStr)
	if !ok {
		return nil, fmt.Errorf("invalid AGENT_ENV: %s (must be development, testing, or production)", envStr)
	}
	env := Environment(parsedEnv)

	configFile := filepath.Join("config", fmt.Sprintf("%s.env", env))
	if err := godotenv.Load(configFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("Warning: could not load %s: %v\n", configFile, err)
		}
	}

	cfg := &Config{Env: env}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() error {
	c.EnclaveMode = getBoolEnv("ENCLAVE_MODE", false)
	c.PrivateKeyHex = strings.TrimPrefix(getEnv("AGENT_PRIVATE_KEY", ""), "0x")

	c.RPCURL = getEnv("CHAIN_RPC_URL", "")
	chainID, err := strconv.ParseInt(getEnv("CHAIN_ID", "1"), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid CHAIN_ID: %w", err)
	}
	c.ChainID = chainID

	c.StablecoinAddress = getEnv("STABLECOIN_ADDRESS", "")
	c.LegacyContractAddr = getEnv("LEGACY_CONTRACT_ADDRESS", "")
	c.CurrentContractAddr = getEnv("CURRENT_CONTRACT_ADDRESS", "")

	mode := strings.ToLower(getEnv("NEW_POOL_MODE", "current"))
	switch Mode(mode) {
	case ModeLegacy, ModeCurrent:
		c.NewPoolMode = Mode(mode)
	default:
		return fmt.Errorf("invalid NEW_POOL_MODE: %s (must be legacy or current)", mode)
	}

	c.SocialAPIKey = getEnv("SOCIAL_API_KEY", "")
	c.SocialBaseURL = getEnv("SOCIAL_BASE_URL", "")
	c.LLMAPIKey = getEnv("LLM_API_KEY", "")
	c.LLMBaseURL = getEnv("LLM_BASE_URL", "https://api.anthropic.com")
	c.LLMModel = getEnv("LLM_MODEL", "claude-3-5-sonnet-20241022")
	c.HistoricalAPIKey = getEnv("HISTORICAL_DATA_API_KEY", "")

	c.PauseCreation = getBoolEnv("PAUSE_POOL_CREATION", false)

	c.OracleCycle, err = getDurationEnv("ORACLE_CYCLE_INTERVAL", 5*time.Minute)
	if err != nil {
		return err
	}
	c.SocialOnlyCycle, err = getDurationEnv("SOCIAL_ONLY_CYCLE_INTERVAL", 10*time.Minute)
	if err != nil {
		return err
	}
	c.MaxLivePools = getIntEnv("MAX_LIVE_POOLS", 15)
	c.CreationCooldown = getIntEnv("CREATION_COOLDOWN_CYCLES", 3)

	c.RPCReadTimeout, err = getDurationEnv("RPC_READ_TIMEOUT", 20*time.Second)
	if err != nil {
		return err
	}
	c.RPCWriteTimeout, err = getDurationEnv("RPC_WRITE_TIMEOUT", 120*time.Second)
	if err != nil {
		return err
	}
	c.EvidenceTimeout, err = getDurationEnv("EVIDENCE_FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return err
	}
	c.LLMTimeout, err = getDurationEnv("LLM_CALL_TIMEOUT", 60*time.Second)
	if err != nil {
		return err
	}
	c.SocialTimeout, err = getDurationEnv("SOCIAL_CALL_TIMEOUT", 15*time.Second)
	if err != nil {
		return err
	}
	c.HeartbeatTimeout, err = getDurationEnv("HEARTBEAT_TIMEOUT", 10*time.Minute)
	if err != nil {
		return err
	}
	c.CacheTTL, err = getDurationEnv("CACHE_TTL", 60*time.Second)
	if err != nil {
		return err
	}
	c.InterRPCReadDelay, err = getDurationEnv("INTER_RPC_READ_DELAY", 200*time.Millisecond)
	if err != nil {
		return err
	}
	c.InterCommentDelay, err = getDurationEnv("INTER_COMMENT_DELAY", 20*time.Second)
	if err != nil {
		return err
	}

	c.StateFilePath = getEnv("STATE_FILE_PATH", "data/agent_state.json")

	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.LogFormat = getEnv("LOG_FORMAT", "json")

	c.MetricsEnabled = getBoolEnv("METRICS_ENABLED", c.Env == Production)
	c.MetricsPort = getIntEnv("METRICS_PORT", 9090)

	return nil
}

// Validate enforces the fatal-at-startup requirements of spec §7: missing
// required config is a hard failure, everything else degrades gracefully.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL is required")
	}
	if c.StablecoinAddress == "" {
		return fmt.Errorf("STABLECOIN_ADDRESS is required")
	}
	if c.LegacyContractAddr == "" && c.CurrentContractAddr == "" {
		return fmt.Errorf("at least one of LEGACY_CONTRACT_ADDRESS or CURRENT_CONTRACT_ADDRESS is required")
	}
	if !c.EnclaveMode && c.PrivateKeyHex == "" {
		return fmt.Errorf("AGENT_PRIVATE_KEY is required when ENCLAVE_MODE is false")
	}
	if c.MaxLivePools <= 0 {
		return fmt.Errorf("MAX_LIVE_POOLS must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.Env == Development }
func (c *Config) IsTesting() bool     { return c.Env == Testing }
func (c *Config) IsProduction() bool  { return c.Env == Production }

// HasLegacy and HasCurrent report whether that contract variant is configured.
func (c *Config) HasLegacy() bool  { return c.LegacyContractAddr != "" }
func (c *Config) HasCurrent() bool { return c.CurrentContractAddr != "" }

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
