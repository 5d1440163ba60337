package server

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
)

type snapshot struct {
	table    *dataset.Table
	loadedAt time.Time
}

// Holder publishes the table currently in service. Readers never block;
// Swap replaces the whole table in one step.
type Holder struct {
	cur atomic.Pointer[snapshot]
}

// NewHolder returns a holder serving t.
func NewHolder(t *dataset.Table) *Holder {
	h := &Holder{}
	h.Swap(t)
	return h
}

// Table returns the table in service.
func (h *Holder) Table() *dataset.Table {
	if s := h.cur.Load(); s != nil {
		return s.table
	}
	return nil
}

// LoadedAt returns when the current table was installed.
func (h *Holder) LoadedAt() time.Time {
	if s := h.cur.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// Swap installs t. A nil table is ignored.
func (h *Holder) Swap(t *dataset.Table) {
	if t == nil {
		return
	}
	prev := h.cur.Swap(&snapshot{table: t, loadedAt: time.Now().UTC()})
	metricTableRows.Set(float64(t.Len()))
	metricTableDropped.Set(float64(t.Dropped()))
	if prev != nil {
		metricReloads.Inc()
	}
}

// ReloadFile returns a function that re-reads path and swaps the result in.
// On error the current table stays in service.
func (h *Holder) ReloadFile(path string, opt dataset.Options) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := dataset.LoadFile(path, opt)
		if err != nil {
			metricReloadFailures.Inc()
			return fmt.Errorf("reload: %w", err)
		}
		h.Swap(t)
		return nil
	}
}
