package assets

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// matcherPriceBase is the fixed decimal shift the matcher applies to every price.
const matcherPriceBase = 8

// OrderPrice is the price of one amount asset token, denominated in the price asset, as the matcher encodes it.
type OrderPrice struct {
	matcherCoins *big.Int
	pair         AssetPair
}

// matcherScale is 8 + priceDecimals - amountDecimals.
func matcherScale(pair AssetPair) int32 {
	return matcherPriceBase + int32(pair.PriceAsset.Precision) - int32(pair.AmountAsset.Precision)
}

func validatePair(pair AssetPair) error {
	if err := pair.AmountAsset.Validate(); err != nil {
		return fmt.Errorf("invalid amount asset: %w", err)
	}
	if err := pair.PriceAsset.Validate(); err != nil {
		return fmt.Errorf("invalid price asset: %w", err)
	}
	return nil
}

// NewOrderPriceFromMatcherCoins takes a matcher encoded price as-is.
func NewOrderPriceFromMatcherCoins(coins *big.Int, pair AssetPair) (OrderPrice, error) {
	if coins == nil {
		return OrderPrice{}, fmt.Errorf("matcher coins cannot be nil")
	}
	if err := validatePair(pair); err != nil {
		return OrderPrice{}, err
	}
	return OrderPrice{matcherCoins: new(big.Int).Set(coins), pair: pair}, nil
}

// NewOrderPriceFromTokens converts a human price to matcher coins, rounding with the price asset's mode.
func NewOrderPriceFromTokens(tokens decimal.Decimal, pair AssetPair) (OrderPrice, error) {
	if err := validatePair(pair); err != nil {
		return OrderPrice{}, err
	}
	coins := roundToCoins(tokens.Shift(matcherScale(pair)), pair.PriceAsset.Rounding)
	return OrderPrice{matcherCoins: coins, pair: pair}, nil
}

func (p OrderPrice) MatcherCoins() *big.Int {
	if p.matcherCoins == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(p.matcherCoins)
}

func (p OrderPrice) Tokens() decimal.Decimal {
	if p.pair.AmountAsset == nil || p.pair.PriceAsset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(p.MatcherCoins(), -matcherScale(p.pair))
}

func (p OrderPrice) Pair() AssetPair {
	return p.pair
}

// Equal reports whether both prices hold the same matcher coins for the same ordered pair of asset ids.
func (p OrderPrice) Equal(other OrderPrice) bool {
	if p.pair.AmountAsset == nil || p.pair.PriceAsset == nil || other.pair.AmountAsset == nil || other.pair.PriceAsset == nil {
		return false
	}
	return p.MatcherCoins().Cmp(other.MatcherCoins()) == 0 &&
		p.pair.AmountAsset.ID == other.pair.AmountAsset.ID &&
		p.pair.PriceAsset.ID == other.pair.PriceAsset.ID
}

func (p OrderPrice) String() string {
	if p.pair.PriceAsset == nil {
		return "0"
	}
	return fmt.Sprintf("%s %s", p.Tokens().String(), p.pair)
}
