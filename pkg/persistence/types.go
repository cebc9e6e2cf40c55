package persistence

import (
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/assets"
)

// AssetRecord is the stored form of an asset.
type AssetRecord struct {
	Asset *assets.Asset `json:"asset"`

	// CachedAt is the Unix timestamp when the asset was stored.
	CachedAt int64 `json:"cachedAt"`
}

func NewAssetRecord(asset *assets.Asset) *AssetRecord {
	return &AssetRecord{
		Asset:    asset,
		CachedAt: time.Now().Unix(),
	}
}

// IsExpired checks if the record is older than ttl. A zero ttl never expires.
func (r *AssetRecord) IsExpired(ttl time.Duration) bool {
	if r == nil {
		return true
	}
	if ttl <= 0 {
		return false
	}
	elapsed := time.Now().Unix() - r.CachedAt
	return elapsed > int64(ttl.Seconds())
}
