package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapV2/internal/chain"
	"swapV2/internal/config"
	"swapV2/internal/dex"
	"swapV2/internal/model"
	"swapV2/internal/quote"
	"swapV2/internal/storage"
	"swapV2/internal/storage/pebble"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	amountIn, ok := new(big.Int).SetString(cfg.AmountIn, 10)
	if !ok || amountIn.Sign() <= 0 {
		return fmt.Errorf("amount-in must be a positive integer: %q", cfg.AmountIn)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res quote.Result
	switch {
	case cfg.Pair != "":
		if cfg.RPCURL == "" {
			return fmt.Errorf("rpc url is required with --pair")
		}
		pair, err := parseAddress("pair", cfg.Pair)
		if err != nil {
			return err
		}
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		number := cfg.Block
		if number == 0 {
			if number, err = chainClient.LatestBlockNumber(ctx); err != nil {
				return fmt.Errorf("latest block: %w", err)
			}
		}
		block := new(big.Int).SetUint64(number)
		caller := chain.NewRetryCaller(chainClient, cfg.MaxRetries, cfg.RetryBackoff)
		res, err = quote.FromPair(ctx, caller, pair, block, amountIn, cfg.TokenIn, cfg.FeeBps, dex.NewTokenMetaCache(2), logger)
		if err != nil {
			return err
		}
	case cfg.StateFile != "" || cfg.PebbleDir != "":
		snap, err := loadSnapshot(ctx, cfg)
		if err != nil {
			return err
		}
		res, err = quote.FromSnapshot(snap, amountIn, cfg.TokenIn)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("either --pair or a pool snapshot is required")
	}

	logger.Debug("quote", zap.String("source", res.Source), zap.String("amount_out", res.AmountOut))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func loadSnapshot(ctx context.Context, cfg config.QuoteConfig) (model.PoolState, error) {
	var store storage.StateStore
	pool := cfg.Pool
	if cfg.PebbleDir != "" {
		db, err := pebble.Open(cfg.PebbleDir)
		if err != nil {
			return model.PoolState{}, err
		}
		defer db.Close()
		if pool == "" {
			pools, err := db.Pools(ctx)
			if err != nil {
				return model.PoolState{}, err
			}
			if len(pools) != 1 {
				return model.PoolState{}, fmt.Errorf("pebble dir holds %d pools, pass --pool", len(pools))
			}
			pool = pools[0]
		}
		store = db
	} else {
		file := &storage.FileStateStore{Path: cfg.StateFile}
		if pool == "" {
			var snap model.PoolState
			found, err := storage.ReadJSONFile(cfg.StateFile, &snap)
			if err != nil {
				return model.PoolState{}, err
			}
			if !found {
				return model.PoolState{}, fmt.Errorf("no snapshot at %s", cfg.StateFile)
			}
			return snap, nil
		}
		store = file
	}

	snap, ok, err := store.LoadPoolState(ctx, pool)
	if err != nil {
		return model.PoolState{}, err
	}
	if !ok {
		return model.PoolState{}, fmt.Errorf("no snapshot of pool %s", pool)
	}
	return snap, nil
}
