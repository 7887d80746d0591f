package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapV2/internal/config"
	"swapV2/internal/simulate"
	"swapV2/internal/storage"
	"swapV2/internal/storage/pebble"
	"swapV2/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Script == "" {
		return fmt.Errorf("script path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	pool, err := parseAddress("pool", cfg.Pool)
	if err != nil {
		return err
	}
	token0, err := parseAddress("token0", cfg.Token0)
	if err != nil {
		return err
	}
	token1, err := parseAddress("token1", cfg.Token1)
	if err != nil {
		return err
	}
	var lock common.Address
	if cfg.LockAddress != "" {
		if lock, err = parseAddress("lock-address", cfg.LockAddress); err != nil {
			return err
		}
	}
	minimum, ok := new(big.Int).SetString(cfg.MinimumLiquidity, 10)
	if !ok || minimum.Sign() < 0 {
		return fmt.Errorf("invalid minimum-liquidity: %q", cfg.MinimumLiquidity)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []simulate.Option{simulate.WithLogger(logger)}
	switch cfg.StateBackend {
	case config.StateBackendFile:
		opts = append(opts, simulate.WithStateStore(&storage.FileStateStore{Path: cfg.StateFile}))
	case config.StateBackendPebble:
		store, err := pebble.Open(cfg.PebbleDir)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, simulate.WithStateStore(store))
	case config.StateBackendNone, "":
	default:
		return fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}

	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, simulate.WithMirror(pg))
	}

	runner, err := simulate.NewRunner(ctx, simulate.Config{
		ChainID:          cfg.ChainID,
		Pool:             pool,
		Token0:           token0,
		Token1:           token1,
		Token1Name:       cfg.Token1Name,
		Token1Symbol:     cfg.Token1Symbol,
		FeeBps:           cfg.FeeBps,
		MinimumLiquidity: minimum,
		LockAddress:      lock,
		StartBlock:       cfg.StartBlock,
		StartTimestamp:   cfg.StartTimestamp,
		BlockTime:        cfg.BlockTime,
		BatchSize:        cfg.BatchSize,
	}, opts...)
	if err != nil {
		return err
	}

	script, err := os.Open(cfg.Script)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer script.Close()

	var errWriter *storage.JSONLWriter
	if cfg.Errors != "" {
		errWriter, err = storage.NewJSONLWriter(cfg.Errors, false)
		if err != nil {
			return err
		}
		defer errWriter.Close()
	}

	logger.Info("simulate config",
		zap.String("script", cfg.Script),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("state_backend", cfg.StateBackend),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	var errs simulate.RecordWriter
	if errWriter != nil {
		errs = errWriter
	}
	_, err = runner.Run(ctx, script, storage.NewJsonlStorage(cfg.Out), errs)
	return err
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", name, value)
	}
	return common.HexToAddress(value), nil
}
