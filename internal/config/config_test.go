package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir so no ./config.* file is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestLoadSimulateDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadSimulate("", nil)
	require.NoError(t, err)
	require.Equal(t, uint32(30), cfg.FeeBps)
	require.Equal(t, StateBackendFile, cfg.StateBackend)
	require.Equal(t, uint64(12), cfg.BlockTime)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadSimulateFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "swapv2.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("fee-bps: 25\nscript: ops.jsonl\nstate-backend: pebble\n"), 0o644))

	flags := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	flags.Uint32("fee-bps", 30, "")
	flags.String("script", "", "")
	require.NoError(t, flags.Parse([]string{"--script", "other.jsonl"}))

	cfg, err := LoadSimulate(cfgPath, flags)
	require.NoError(t, err)
	require.Equal(t, uint32(25), cfg.FeeBps)
	require.Equal(t, "other.jsonl", cfg.Script)
	require.Equal(t, StateBackendPebble, cfg.StateBackend)
}

func TestLoadDecodeEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SWAPV2_RPC", "http://127.0.0.1:8545")
	t.Setenv("SWAPV2_TOPIC0_MAP", "0xabc=swap, 0xdef=mint,broken")

	cfg, err := LoadDecode("", nil)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
	require.True(t, cfg.ReplayReserves)
	require.Equal(t, map[string]string{"0xabc": "swap", "0xdef": "mint"}, cfg.Topic0Map)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := LoadQuote(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	require.NoError(t, err)
	require.Equal(t, uint64(1_700_000_000), ts)

	ts, err = ParseTimestamp("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	require.Equal(t, uint64(1_700_000_000), ts)

	ts, err = ParseTimestamp(" ")
	require.NoError(t, err)
	require.Zero(t, ts)

	_, err = ParseTimestamp("yesterday")
	require.Error(t, err)
}
