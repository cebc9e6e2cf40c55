package assets

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Money is an exact amount of an asset kept in coins, the asset's smallest unit.
type Money struct {
	coins *big.Int
	asset *Asset
}

// NewMoney takes coins as-is, with no scaling or rounding.
func NewMoney(coins *big.Int, asset *Asset) (Money, error) {
	if coins == nil {
		return Money{}, fmt.Errorf("coins cannot be nil")
	}
	if err := asset.Validate(); err != nil {
		return Money{}, err
	}
	return Money{coins: new(big.Int).Set(coins), asset: asset}, nil
}

// NewMoneyFromTokens scales tokens by 10^precision and rounds with the asset's rounding mode.
func NewMoneyFromTokens(tokens decimal.Decimal, asset *Asset) (Money, error) {
	if err := asset.Validate(); err != nil {
		return Money{}, err
	}
	coins := roundToCoins(tokens.Shift(int32(asset.Precision)), asset.Rounding)
	return Money{coins: coins, asset: asset}, nil
}

func (m Money) Coins() *big.Int {
	if m.coins == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(m.coins)
}

func (m Money) Tokens() decimal.Decimal {
	if m.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(m.Coins(), -int32(m.asset.Precision))
}

func (m Money) Asset() *Asset {
	return m.asset
}

func (m Money) String() string {
	if m.asset == nil {
		return "0"
	}
	return fmt.Sprintf("%s %s", m.Tokens().StringFixed(int32(m.asset.Precision)), m.asset.Name)
}

func roundToCoins(d decimal.Decimal, mode RoundingMode) *big.Int {
	switch mode {
	case RoundHalfUp:
		d = d.Round(0)
	case RoundUp:
		d = d.RoundUp(0)
	default:
		d = d.RoundDown(0)
	}
	return d.BigInt()
}
