package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "swapv2",
		Short:        "SwapV2 constant-product pool simulator and tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Apply an operation script to a pool and write its event logs",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("script", "", "operation script JSONL")
	simulateCmd.Flags().String("out", "./data/logs.jsonl", "output raw logs JSONL (appended)")
	simulateCmd.Flags().String("errors", "./data/op_errors.jsonl", "rejected operations JSONL")
	simulateCmd.Flags().Uint64("chain-id", 31337, "chain id stamped on logs")
	simulateCmd.Flags().String("pool", "", "pool address")
	simulateCmd.Flags().String("token0", "", "WETH address (token0)")
	simulateCmd.Flags().String("token1", "", "ERC20 address (token1)")
	simulateCmd.Flags().String("token1-name", "Fake ETH", "token1 name")
	simulateCmd.Flags().String("token1-symbol", "FAKEETH", "token1 symbol")
	simulateCmd.Flags().Uint32("fee-bps", 30, "swap fee in basis points")
	simulateCmd.Flags().String("minimum-liquidity", "0", "shares locked on the first deposit")
	simulateCmd.Flags().String("lock-address", "", "holder of the locked shares")
	simulateCmd.Flags().Uint64("start-block", 0, "block before the first operation")
	simulateCmd.Flags().Uint64("start-timestamp", 0, "timestamp before the first operation")
	simulateCmd.Flags().Uint64("block-time", 12, "seconds between operations without a timestamp")
	simulateCmd.Flags().Int("batch-size", 100, "operations per flush of logs and state")
	simulateCmd.Flags().String("state-backend", "file", "snapshot backend (file, pebble, none)")
	simulateCmd.Flags().String("state-file", "./data/pool_state.json", "snapshot file for the file backend")
	simulateCmd.Flags().String("pebble-dir", "./data/pool_state.pebble", "database directory for the pebble backend")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to mirror pools, events and state")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw pool logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("rpc", "", "optional RPC URL for pool and token metadata")
	decodeCmd.Flags().String("in", "./data/logs.jsonl", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	decodeCmd.Flags().Bool("include-live-meta", false, "read reserves from chain at each log's block (requires archive RPC)")
	decodeCmd.Flags().Bool("replay-reserves", true, "attach post-event reserves by replaying events")
	decodeCmd.Flags().Uint32("fee-bps", 30, "pool fee recorded in pool metadata")
	decodeCmd.Flags().String("pool", "", "pool address, required without --rpc")
	decodeCmd.Flags().String("token0", "", "pool token0, required without --rpc")
	decodeCmd.Flags().String("token1", "", "pool token1, required without --rpc")
	decodeCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to store decoded events")
	decodeCmd.Flags().Int("max-retries", 3, "maximum RPC retry attempts")
	decodeCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate typed events into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("rpc", "", "optional RPC URL for token decimals and balance TVL")
	aggregateCmd.Flags().String("in", "./data/typed_events.jsonl", "input typed events JSONL")
	aggregateCmd.Flags().String("out", "./data/window_metrics.jsonl", "output metrics JSONL when no Postgres DSN is set")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for sink writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("state-name", "aggregate", "progress row name in Postgres")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote an exact-input swap against a live pair or a saved pool",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "RPC URL for --pair")
	quoteCmd.Flags().String("pair", "", "V2 pair address")
	quoteCmd.Flags().Uint64("block", 0, "block to read the pair at, 0 means latest")
	quoteCmd.Flags().String("state-file", "", "pool snapshot file")
	quoteCmd.Flags().String("pebble-dir", "", "pool snapshot database")
	quoteCmd.Flags().String("pool", "", "pool address in the snapshot store, optional when it holds one pool")
	quoteCmd.Flags().String("amount-in", "", "input amount in base units")
	quoteCmd.Flags().String("token-in", "token0", "input asset: address, token0 or token1")
	quoteCmd.Flags().Uint32("fee-bps", 30, "pair fee in basis points")
	quoteCmd.Flags().Int("max-retries", 3, "maximum RPC retry attempts")
	quoteCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
