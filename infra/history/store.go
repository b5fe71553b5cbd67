// Package history keeps a local log of finished runs so repeated invocations
// on a dock can be audited.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/dockid/core/model"
)

// RunRecord captures one finished run.
type RunRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Result    model.Result `json:"result"`
	ClientID  string       `json:"client_id"`
	Messages  int          `json:"messages"`
	WaitMS    int64        `json:"wait_ms"`
}

// Store persists RunRecords.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	// Recent returns up to limit records, newest first. limit <= 0 means all.
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}

// Config selects the history backend.
type Config struct {
	// Backend is "none", "jsonl" or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
	if c.Path == "" {
		switch c.Backend {
		case "jsonl":
			c.Path = "dockid_history.jsonl"
		case "sqlite":
			c.Path = "dockid_history.db"
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "none":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("history path is required for backend %s", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("unknown history backend %s", c.Backend)
	}
}

// Open returns the configured store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %s", cfg.Backend)
	}
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error          { return nil }
func (NopStore) Recent(context.Context, int) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                     { return nil }
