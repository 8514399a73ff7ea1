package memory

import (
	"context"
	"sync"
)

const (
	defaultMaxExchanges  = 20
	defaultHistoryWindow = 10
)

// Buffer is a bounded conversation that keeps the newest maxExchanges and
// silently drops the rest.
type Buffer struct {
	mu            sync.RWMutex
	exchanges     []Exchange
	maxExchanges  int
	historyWindow int
}

// NewBuffer builds a buffer conversation. Non-positive limits fall back to
// the defaults.
func NewBuffer(maxExchanges, historyWindow int) *Buffer {
	if maxExchanges <= 0 {
		maxExchanges = defaultMaxExchanges
	}
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}
	return &Buffer{maxExchanges: maxExchanges, historyWindow: historyWindow}
}

func (b *Buffer) Append(_ context.Context, exchange Exchange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exchanges = append(b.exchanges, exchange)
	if len(b.exchanges) > b.maxExchanges {
		b.exchanges = b.exchanges[len(b.exchanges)-b.maxExchanges:]
	}
}

func (b *Buffer) History(limit int) string {
	if limit <= 0 {
		limit = b.historyWindow
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	exchanges := b.exchanges
	if len(exchanges) > limit {
		exchanges = exchanges[len(exchanges)-limit:]
	}
	return formatExchanges(exchanges)
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.exchanges)
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exchanges = nil
}
