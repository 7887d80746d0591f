package aggregate

import (
	"context"
	"fmt"

	"swapV2/internal/model"
	"swapV2/internal/storage"
)

// MetricsSink receives pool rows and window metrics.
type MetricsSink interface {
	UpsertPools(ctx context.Context, pools []model.Pool) error
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// JSONLSink writes window metrics as JSON lines. Pool rows are only counted.
type JSONLSink struct {
	writer *storage.JSONLWriter
	pools  int
}

func NewJSONLSink(path string, appendMode bool) (*JSONLSink, error) {
	writer, err := storage.NewJSONLWriter(path, appendMode)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{writer: writer}, nil
}

func (s *JSONLSink) UpsertPools(ctx context.Context, pools []model.Pool) error {
	s.pools += len(pools)
	return nil
}

func (s *JSONLSink) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	for _, m := range metrics {
		if err := s.writer.Write(m); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return s.writer.Flush()
}

func (s *JSONLSink) Close() error {
	return s.writer.Close()
}
