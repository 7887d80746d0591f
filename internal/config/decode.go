package config

import (
	"time"

	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	RPCURL          string
	In              string
	Out             string
	Errors          string
	LogLevel        string
	Topic0Map       map[string]string
	IncludeLiveMeta bool
	ReplayReserves  bool
	FeeBps          uint32
	Pool            string
	Token0          string
	Token1          string
	PGDSN           string
	MaxRetries      int
	RetryBackoff    time.Duration
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":                "./data/logs.jsonl",
		"out":               "./data/typed_events.jsonl",
		"errors":            "./data/decode_errors.jsonl",
		"include-live-meta": false,
		"replay-reserves":   true,
		"fee-bps":           30,
		"max-retries":       3,
		"retry-backoff":     500 * time.Millisecond,
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		RPCURL:          v.GetString("rpc"),
		In:              v.GetString("in"),
		Out:             v.GetString("out"),
		Errors:          v.GetString("errors"),
		LogLevel:        v.GetString("log-level"),
		Topic0Map:       getStringMap(v, "topic0-map"),
		IncludeLiveMeta: v.GetBool("include-live-meta"),
		ReplayReserves:  v.GetBool("replay-reserves"),
		FeeBps:          v.GetUint32("fee-bps"),
		Pool:            v.GetString("pool"),
		Token0:          v.GetString("token0"),
		Token1:          v.GetString("token1"),
		PGDSN:           v.GetString("pg-dsn"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
	}

	return cfg, nil
}
