package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapV2/internal/chain"
	"swapV2/internal/config"
	"swapV2/internal/dex"
	"swapV2/internal/model"
	"swapV2/internal/storage"
	"swapV2/internal/storage/postgres"
)

const eventBatchSize = 500

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decoder, err := dex.NewSwapV2Decoder(dex.DecoderConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	decodeCtx := dex.DecodeContext{
		Context:         ctx,
		PoolMetaCache:   dex.NewPoolMetaCache(1024),
		TokenMetaCache:  dex.NewTokenMetaCache(1024),
		Logger:          logger,
		IncludeLiveMeta: cfg.IncludeLiveMeta,
		FeeBps:          cfg.FeeBps,
	}
	if cfg.ReplayReserves {
		decodeCtx.Reserves = dex.NewReserveTracker()
	}

	var chainClient *chain.Client
	if cfg.RPCURL != "" {
		chainClient, err = chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		decodeCtx.Chain = chain.NewRetryCaller(chainClient, cfg.MaxRetries, cfg.RetryBackoff)
	}

	if cfg.Pool != "" {
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
		decodeCtx.PoolMetaCache.Set(pool, model.PoolMeta{Token0: token0.Hex(), Token1: token1.Hex(), FeeBps: cfg.FeeBps})
	} else if decodeCtx.Chain == nil {
		return fmt.Errorf("either rpc url or pool with token0 and token1 is required")
	}

	var pg *postgres.Store
	if cfg.PGDSN != "" {
		pg, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	outWriter, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Bool("include_live_meta", cfg.IncludeLiveMeta),
		zap.Bool("replay_reserves", cfg.ReplayReserves),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	pending := make([]model.TypedEvent, 0, eventBatchSize)
	flush := func() error {
		if pg == nil || len(pending) == 0 {
			return nil
		}
		if err := pg.InsertEvents(ctx, pending); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		pending = pending[:0]
		return nil
	}

	var total, decoded, skipped, failed int
	err = storage.ScanJSONLFile(cfg.In, func(_ int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			writeDecodeError(errWriter, model.DecodeError{Error: err.Error()})
			return nil
		}
		if len(record.Topics) == 0 {
			failed++
			writeDecodeError(errWriter, model.NewDecodeError(record, fmt.Errorf("missing topic0")))
			return nil
		}

		if !decoder.CanDecode(record.Topic0()) {
			skipped++
			return nil
		}

		if record.Timestamp == 0 && chainClient != nil {
			err := chain.WithRetry(ctx, cfg.MaxRetries, cfg.RetryBackoff, func(callCtx context.Context) error {
				ts, err := chainClient.BlockTimestamp(callCtx, record.BlockNumber)
				if err != nil {
					return err
				}
				record.Timestamp = ts
				return nil
			})
			if err != nil {
				failed++
				writeDecodeError(errWriter, model.NewDecodeError(record, fmt.Errorf("block timestamp: %w", err)))
				return nil
			}
		}

		event, err := decoder.Decode(record, decodeCtx)
		if err != nil {
			failed++
			writeDecodeError(errWriter, model.NewDecodeError(record, err))
			return nil
		}

		if err := outWriter.Write(event); err != nil {
			return err
		}
		decoded++

		if pg != nil {
			pending = append(pending, *event)
			if len(pending) >= eventBatchSize {
				return flush()
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", total),
		zap.Int("decoded", decoded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

func writeDecodeError(writer *storage.JSONLWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
