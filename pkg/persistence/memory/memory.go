package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/assets"
	"github.com/dex-wallet/wallet-session-go/pkg/persistence"
)

// MemoryPersistence is an in-memory implementation of IAssetPersistence.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Copies assets to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// Asset storage: id -> record
	records map[string]*persistence.AssetRecord

	ttl    time.Duration
	closed bool
}

var _ persistence.IAssetPersistence = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory persistence layer. A zero ttl keeps assets forever.
func NewMemoryPersistence(ttl time.Duration) *MemoryPersistence {
	return &MemoryPersistence{
		records: make(map[string]*persistence.AssetRecord),
		ttl:     ttl,
	}
}

// SaveAsset persists an asset.
func (m *MemoryPersistence) SaveAsset(asset *assets.Asset) error {
	if asset == nil {
		return fmt.Errorf("cannot save nil Asset")
	}
	if err := asset.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.records[asset.ID] = persistence.NewAssetRecord(persistence.CopyAsset(asset))
	return nil
}

// LoadAsset retrieves an asset by id.
func (m *MemoryPersistence) LoadAsset(id string) (*assets.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	record, exists := m.records[id]
	if !exists || record.IsExpired(m.ttl) {
		return nil, nil
	}

	return persistence.CopyAsset(record.Asset), nil
}

// ListAssets returns all unexpired assets sorted by id.
func (m *MemoryPersistence) ListAssets() ([]*assets.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	result := make([]*assets.Asset, 0, len(m.records))
	for _, record := range m.records {
		if record.IsExpired(m.ttl) {
			continue
		}
		result = append(result, persistence.CopyAsset(record.Asset))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// DeleteAsset removes an asset.
func (m *MemoryPersistence) DeleteAsset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	delete(m.records, id)
	return nil
}

// Close marks the persistence layer as closed.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck always returns nil for in-memory storage unless closed.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return nil
}
