// Package marketdata defines the contract for the historical price/pattern
// provider. The research loop consumes bars as read-only input loaded once
// up front; missing symbols or ranges are reported, never fatal.
package marketdata

import (
	"context"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// Provider serves ordered historical bars for a symbol and date range.
type Provider interface {
	// Bars returns all bars for symbol within [startMs, endMs] (inclusive),
	// ordered by timestamp ASC. An empty slice means no usable history.
	Bars(ctx context.Context, symbol string, startMs, endMs int64) ([]*domain.Bar, error)
}

// StoreProvider adapts a storage.BarStore to the Provider contract.
type StoreProvider struct {
	store storage.BarStore
}

// NewStoreProvider creates a provider backed by a bar store.
func NewStoreProvider(store storage.BarStore) *StoreProvider {
	return &StoreProvider{store: store}
}

// Bars returns stored bars for the symbol and range.
func (p *StoreProvider) Bars(ctx context.Context, symbol string, startMs, endMs int64) ([]*domain.Bar, error) {
	return p.store.GetBySymbolRange(ctx, symbol, startMs, endMs)
}

var _ Provider = (*StoreProvider)(nil)
