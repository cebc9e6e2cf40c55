package persistence

import "github.com/dex-wallet/wallet-session-go/pkg/assets"

// IAssetPersistence stores resolved asset metadata so lookups survive restarts and can be shared between processes.
// All implementations must be thread-safe as the resolver is called concurrently.
//
// Only asset metadata is stored. Session state is never persisted.
type IAssetPersistence interface {
	// SaveAsset persists an asset indexed by its id, overwriting any existing entry.
	SaveAsset(asset *assets.Asset) error

	// LoadAsset retrieves an asset by id.
	// Returns nil if the asset doesn't exist or has expired, error only on storage failure.
	LoadAsset(id string) (*assets.Asset, error)

	// ListAssets returns every stored asset sorted by id.
	ListAssets() ([]*assets.Asset, error)

	// DeleteAsset removes an asset. Idempotent.
	DeleteAsset(id string) error

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	HealthCheck() error
}

// PersistenceType selects the asset cache backend.
type PersistenceType string

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

func (p PersistenceType) IsValid() bool {
	switch p {
	case PersistenceTypeMemory, PersistenceTypeBadger, PersistenceTypeRedis:
		return true
	default:
		return false
	}
}
