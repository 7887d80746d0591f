package config

import (
	"github.com/spf13/pflag"
)

// State backends for simulation snapshots.
const (
	StateBackendFile   = "file"
	StateBackendPebble = "pebble"
	StateBackendNone   = "none"
)

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	Script           string
	Out              string
	Errors           string
	ChainID          uint64
	Pool             string
	Token0           string
	Token1           string
	Token1Name       string
	Token1Symbol     string
	FeeBps           uint32
	MinimumLiquidity string
	LockAddress      string
	StartBlock       uint64
	StartTimestamp   uint64
	BlockTime        uint64
	BatchSize        int
	StateBackend     string
	StateFile        string
	PebbleDir        string
	PGDSN            string
	LogLevel         string
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":               "./data/logs.jsonl",
		"errors":            "./data/op_errors.jsonl",
		"chain-id":          uint64(31337),
		"pool":              "0x0000000000000000000000000000000000005a02",
		"token0":            "0x000000000000000000000000000000000000e7e1",
		"token1":            "0x0000000000000000000000000000000000000e7b",
		"token1-name":       "Fake ETH",
		"token1-symbol":     "FAKEETH",
		"fee-bps":           30,
		"minimum-liquidity": "0",
		"block-time":        uint64(12),
		"batch-size":        100,
		"state-backend":     StateBackendFile,
		"state-file":        "./data/pool_state.json",
		"pebble-dir":        "./data/pool_state.pebble",
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	cfg := SimulateConfig{
		Script:           v.GetString("script"),
		Out:              v.GetString("out"),
		Errors:           v.GetString("errors"),
		ChainID:          v.GetUint64("chain-id"),
		Pool:             v.GetString("pool"),
		Token0:           v.GetString("token0"),
		Token1:           v.GetString("token1"),
		Token1Name:       v.GetString("token1-name"),
		Token1Symbol:     v.GetString("token1-symbol"),
		FeeBps:           v.GetUint32("fee-bps"),
		MinimumLiquidity: v.GetString("minimum-liquidity"),
		LockAddress:      v.GetString("lock-address"),
		StartBlock:       v.GetUint64("start-block"),
		StartTimestamp:   v.GetUint64("start-timestamp"),
		BlockTime:        v.GetUint64("block-time"),
		BatchSize:        v.GetInt("batch-size"),
		StateBackend:     v.GetString("state-backend"),
		StateFile:        v.GetString("state-file"),
		PebbleDir:        v.GetString("pebble-dir"),
		PGDSN:            v.GetString("pg-dsn"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}
