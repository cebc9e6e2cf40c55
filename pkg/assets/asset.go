package assets

import (
	"fmt"
	"strings"
)

const (
	NativeAssetID   = "WAVES"
	NativePrecision = 8
	// MaxPrecision is the largest decimal count an asset can be issued with.
	MaxPrecision = 8
)

// RoundingMode controls how token amounts with more decimals than the asset supports are brought to whole coins.
type RoundingMode int

const (
	RoundDown RoundingMode = iota
	RoundHalfUp
	RoundUp
)

func (r RoundingMode) String() string {
	switch r {
	case RoundDown:
		return "down"
	case RoundHalfUp:
		return "half-up"
	case RoundUp:
		return "up"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(r))
	}
}

// Asset is the metadata needed to convert between tokens and coins.
type Asset struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Precision   uint8        `json:"precision"`
	Reissuable  bool         `json:"reissuable"`
	Rounding    RoundingMode `json:"rounding"`
}

// NativeAsset returns the chain's own asset, which never needs a lookup.
func NativeAsset() *Asset {
	return &Asset{
		ID:        NativeAssetID,
		Name:      "Waves",
		Precision: NativePrecision,
	}
}

// IsNativeAssetID reports whether id refers to the native asset.
func IsNativeAssetID(id string) bool {
	return id == "" || strings.EqualFold(id, NativeAssetID)
}

func (a *Asset) Validate() error {
	if a == nil {
		return fmt.Errorf("asset cannot be nil")
	}
	if a.ID == "" {
		return fmt.Errorf("asset id cannot be empty")
	}
	if a.Precision > MaxPrecision {
		return fmt.Errorf("asset %s precision %d exceeds %d", a.ID, a.Precision, MaxPrecision)
	}
	return nil
}

func (a *Asset) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s)", a.Name, a.ID)
}

// AssetRef identifies an asset either by id or by an already resolved *Asset.
type AssetRef interface {
	isAssetRef()
}

// AssetID is an unresolved asset reference.
type AssetID string

func (AssetID) isAssetRef() {}
func (*Asset) isAssetRef()  {}

// AssetPair is an ordered (amount, price) pair. The order is significant.
type AssetPair struct {
	AmountAsset *Asset
	PriceAsset  *Asset
}

func NewAssetPair(amountAsset, priceAsset *Asset) (AssetPair, error) {
	if err := amountAsset.Validate(); err != nil {
		return AssetPair{}, fmt.Errorf("invalid amount asset: %w", err)
	}
	if err := priceAsset.Validate(); err != nil {
		return AssetPair{}, fmt.Errorf("invalid price asset: %w", err)
	}
	return AssetPair{AmountAsset: amountAsset, PriceAsset: priceAsset}, nil
}

func (p AssetPair) String() string {
	return fmt.Sprintf("%s/%s", p.AmountAsset, p.PriceAsset)
}
