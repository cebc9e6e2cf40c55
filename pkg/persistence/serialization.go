package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/dex-wallet/wallet-session-go/pkg/assets"
)

// MarshalAssetRecord serializes an AssetRecord to JSON bytes.
func MarshalAssetRecord(record *AssetRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("cannot marshal nil AssetRecord")
	}
	if err := record.Asset.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid asset: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal AssetRecord to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalAssetRecord deserializes an AssetRecord from JSON bytes.
func UnmarshalAssetRecord(data []byte) (*AssetRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var record AssetRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to AssetRecord: %w", err)
	}
	if err := record.Asset.Validate(); err != nil {
		return nil, fmt.Errorf("stored asset is invalid: %w", err)
	}

	return &record, nil
}

// CopyAsset returns a copy so stored assets can't be mutated through returned pointers.
func CopyAsset(a *assets.Asset) *assets.Asset {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
