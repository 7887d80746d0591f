package aggregate

import (
	"context"
	"fmt"
	"time"

	"swapV2/internal/storage"
)

// ProgressStore persists the last processed event timestamp.
type ProgressStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, ts uint64) error
}

// FileProgressStore keeps progress in a local JSON file. The file records
// the window it was written for; resuming with another window is refused,
// since the saved timestamp is aligned to the old window boundaries.
type FileProgressStore struct {
	Path          string
	WindowSeconds uint64
}

type progressRecord struct {
	LastProcessed uint64 `json:"last_processed_ts"`
	WindowSeconds uint64 `json:"window_seconds,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

func (s *FileProgressStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	var rec progressRecord
	found, err := storage.ReadJSONFile(s.Path, &rec)
	if err != nil || !found {
		return 0, false, err
	}
	if rec.WindowSeconds != 0 && s.WindowSeconds != 0 && rec.WindowSeconds != s.WindowSeconds {
		return 0, false, fmt.Errorf("progress in %s was saved for %ds windows, not %ds", s.Path, rec.WindowSeconds, s.WindowSeconds)
	}
	return rec.LastProcessed, true, nil
}

func (s *FileProgressStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	return storage.WriteJSONFile(s.Path, progressRecord{
		LastProcessed: ts,
		WindowSeconds: s.WindowSeconds,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	})
}
