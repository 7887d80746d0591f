package config

import (
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	RPCURL       string
	Pair         string
	Block        uint64
	StateFile    string
	PebbleDir    string
	Pool         string
	AmountIn     string
	TokenIn      string
	FeeBps       uint32
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"fee-bps":       30,
		"max-retries":   3,
		"retry-backoff": 500 * time.Millisecond,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		RPCURL:       v.GetString("rpc"),
		Pair:         v.GetString("pair"),
		Block:        v.GetUint64("block"),
		StateFile:    v.GetString("state-file"),
		PebbleDir:    v.GetString("pebble-dir"),
		Pool:         v.GetString("pool"),
		AmountIn:     v.GetString("amount-in"),
		TokenIn:      v.GetString("token-in"),
		FeeBps:       v.GetUint32("fee-bps"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
