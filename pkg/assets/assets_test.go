package assets

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeFetcher struct {
	assets map[string]*Asset
	calls  atomic.Int32
	err    error
}

func (f *fakeFetcher) FetchAsset(ctx context.Context, id string) (*Asset, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrAssetNotFound, id)
	}
	return a, nil
}

// blockingFetcher holds every fetch until release is closed or the fetch context ends.
type blockingFetcher struct {
	asset    *Asset
	started  chan struct{}
	release  chan struct{}
	once     sync.Once
	calls    atomic.Int32
	canceled atomic.Bool
}

func (f *blockingFetcher) FetchAsset(ctx context.Context, id string) (*Asset, error) {
	f.calls.Add(1)
	f.once.Do(func() { close(f.started) })
	select {
	case <-f.release:
		return f.asset, nil
	case <-ctx.Done():
		f.canceled.Store(true)
		return nil, ctx.Err()
	}
}

type mapCache struct {
	mu     sync.Mutex
	assets map[string]*Asset
}

func (c *mapCache) LoadAsset(id string) (*Asset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assets[id], nil
}

func (c *mapCache) SaveAsset(asset *Asset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets[asset.ID] = asset
	return nil
}

var (
	usdAsset = &Asset{ID: "Ft8X1v1LTa1ABafufpaCWyVj8KkaxUWE6xBhW6sNFJck", Name: "USD", Precision: 2}
	btcAsset = &Asset{ID: "8LQW8f7P5d5PZM7GtZEBgaqRPGSzS3DfPuiXrURJ4AJS", Name: "BTC", Precision: 8}
	ethAsset = &Asset{ID: "474jTeYx2r2Va35794tCScAXWJG9hU2HcgxzMowaZUnu", Name: "ETH", Precision: 8, Rounding: RoundHalfUp}
)

func newTestResolver(t *testing.T) (*Resolver, *fakeFetcher) {
	f := &fakeFetcher{assets: map[string]*Asset{
		usdAsset.ID: usdAsset,
		btcAsset.ID: btcAsset,
		ethAsset.ID: ethAsset,
	}}
	return NewResolver(f, &mapCache{assets: map[string]*Asset{}}, zaptest.NewLogger(t)), f
}

func Test_Money(t *testing.T) {
	t.Run("Should convert one token of an 8 decimal asset to 100000000 coins", func(t *testing.T) {
		m, err := NewMoneyFromTokens(decimal.NewFromInt(1), btcAsset)
		require.NoError(t, err)
		assert.Equal(t, int64(100000000), m.Coins().Int64())
	})

	t.Run("Should convert 100000000 coins of an 8 decimal asset to one token", func(t *testing.T) {
		m, err := NewMoney(big.NewInt(100000000), btcAsset)
		require.NoError(t, err)
		assert.True(t, m.Tokens().Equal(decimal.NewFromInt(1)))
	})

	t.Run("Should round down by default", func(t *testing.T) {
		m, err := NewMoneyFromTokens(decimal.RequireFromString("1.239"), usdAsset)
		require.NoError(t, err)
		assert.Equal(t, int64(123), m.Coins().Int64())
	})

	t.Run("Should round half up when the asset asks for it", func(t *testing.T) {
		halfUp := &Asset{ID: "x", Name: "X", Precision: 2, Rounding: RoundHalfUp}
		m, err := NewMoneyFromTokens(decimal.RequireFromString("1.235"), halfUp)
		require.NoError(t, err)
		assert.Equal(t, int64(124), m.Coins().Int64())
	})

	t.Run("Should keep exact coins beyond int64", func(t *testing.T) {
		huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
		require.True(t, ok)
		m, err := NewMoney(huge, btcAsset)
		require.NoError(t, err)
		assert.Equal(t, 0, huge.Cmp(m.Coins()))
		assert.Equal(t, "1234567890123456789012.3456789", m.Tokens().String())
	})

	t.Run("Should not share coins with the caller", func(t *testing.T) {
		coins := big.NewInt(5)
		m, err := NewMoney(coins, btcAsset)
		require.NoError(t, err)
		coins.SetInt64(6)
		assert.Equal(t, int64(5), m.Coins().Int64())
	})

	t.Run("Should reject invalid input", func(t *testing.T) {
		_, err := NewMoney(nil, btcAsset)
		assert.Error(t, err)
		_, err = NewMoney(big.NewInt(1), nil)
		assert.Error(t, err)
		_, err = NewMoneyFromTokens(decimal.NewFromInt(1), &Asset{ID: "x", Precision: 9})
		assert.Error(t, err)
	})

	t.Run("Should format with the asset precision", func(t *testing.T) {
		m, err := NewMoney(big.NewInt(150), usdAsset)
		require.NoError(t, err)
		assert.Equal(t, "1.50 USD", m.String())
	})
}

func Test_OrderPrice(t *testing.T) {
	pair, err := NewAssetPair(btcAsset, usdAsset)
	require.NoError(t, err)

	t.Run("Should scale by 8 plus price decimals minus amount decimals", func(t *testing.T) {
		p, err := NewOrderPriceFromTokens(decimal.RequireFromString("65000.12"), pair)
		require.NoError(t, err)
		// 8 + 2 - 8 = 2
		assert.Equal(t, int64(6500012), p.MatcherCoins().Int64())
		assert.True(t, p.Tokens().Equal(decimal.RequireFromString("65000.12")))
	})

	t.Run("Should depend on pair order", func(t *testing.T) {
		reversed, err := NewAssetPair(usdAsset, btcAsset)
		require.NoError(t, err)

		a, err := NewOrderPriceFromMatcherCoins(big.NewInt(100), pair)
		require.NoError(t, err)
		b, err := NewOrderPriceFromMatcherCoins(big.NewInt(100), reversed)
		require.NoError(t, err)

		assert.False(t, a.Tokens().Equal(b.Tokens()))
		assert.False(t, a.Equal(b))
	})

	t.Run("Should reject an incomplete pair", func(t *testing.T) {
		_, err := NewOrderPriceFromMatcherCoins(big.NewInt(1), AssetPair{AmountAsset: btcAsset})
		assert.Error(t, err)
		_, err = NewAssetPair(nil, usdAsset)
		assert.Error(t, err)
	})
}

func Test_Resolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Should resolve the native asset without a lookup", func(t *testing.T) {
		r, f := newTestResolver(t)
		for _, id := range []string{"", "WAVES"} {
			a, err := r.ResolveAsset(ctx, AssetID(id))
			require.NoError(t, err)
			assert.Equal(t, uint8(8), a.Precision)
		}
		assert.Equal(t, int32(0), f.calls.Load())
	})

	t.Run("Should pass resolved assets through", func(t *testing.T) {
		r, f := newTestResolver(t)
		a, err := r.ResolveAsset(ctx, usdAsset)
		require.NoError(t, err)
		assert.Same(t, usdAsset, a)
		assert.Equal(t, int32(0), f.calls.Load())
	})

	t.Run("Should fetch once and then serve from cache", func(t *testing.T) {
		r, f := newTestResolver(t)
		for i := 0; i < 3; i++ {
			a, err := r.ResolveAsset(ctx, AssetID(usdAsset.ID))
			require.NoError(t, err)
			assert.Equal(t, usdAsset.ID, a.ID)
		}
		assert.Equal(t, int32(1), f.calls.Load())
	})

	t.Run("Should fail unknown ids with asset not found", func(t *testing.T) {
		r, _ := newTestResolver(t)

		_, err := r.ResolveAsset(ctx, AssetID("unknown"))
		assert.ErrorIs(t, err, types.ErrAssetNotFound)

		m, err := r.MoneyFromTokens(ctx, decimal.NewFromInt(1), AssetID("unknown"))
		assert.ErrorIs(t, err, types.ErrAssetNotFound)
		assert.Nil(t, m.Asset())

		_, err = r.MoneyFromCoins(ctx, big.NewInt(1), AssetID("unknown"))
		assert.ErrorIs(t, err, types.ErrAssetNotFound)
	})

	t.Run("Should fail the whole pair when one side is unknown", func(t *testing.T) {
		r, _ := newTestResolver(t)

		p, err := r.OrderPriceFromCoinsForAssets(ctx, big.NewInt(1), AssetID(btcAsset.ID), AssetID("unknown"))
		assert.ErrorIs(t, err, types.ErrAssetNotFound)
		assert.Nil(t, p.Pair().AmountAsset)

		_, err = r.OrderPriceFromTokensForAssets(ctx, decimal.NewFromInt(1), AssetID("unknown"), AssetID(usdAsset.ID))
		assert.ErrorIs(t, err, types.ErrAssetNotFound)

		_, err = r.ResolvePair(ctx, nil, AssetID(usdAsset.ID))
		assert.ErrorIs(t, err, types.ErrAssetNotFound)
	})

	t.Run("Should build identical prices from a pair or from two references", func(t *testing.T) {
		r, _ := newTestResolver(t)
		pair, err := NewAssetPair(btcAsset, usdAsset)
		require.NoError(t, err)

		coins := big.NewInt(6500012)
		direct, err := r.OrderPriceFromCoins(pair, coins)
		require.NoError(t, err)
		resolved, err := r.OrderPriceFromCoinsForAssets(ctx, coins, AssetID(btcAsset.ID), AssetID(usdAsset.ID))
		require.NoError(t, err)
		assert.True(t, direct.Equal(resolved))
		assert.True(t, direct.Tokens().Equal(resolved.Tokens()))

		tokens := decimal.RequireFromString("0.0525")
		directTokens, err := r.OrderPriceFromTokens(pair, tokens)
		require.NoError(t, err)
		resolvedTokens, err := r.OrderPriceFromTokensForAssets(ctx, tokens, btcAsset, AssetID(usdAsset.ID))
		require.NoError(t, err)
		assert.True(t, directTokens.Equal(resolvedTokens))
	})

	t.Run("Should invert money conversions for powers of ten", func(t *testing.T) {
		r, _ := newTestResolver(t)

		fromTokens, err := r.MoneyFromTokens(ctx, decimal.NewFromInt(1), AssetID(ethAsset.ID))
		require.NoError(t, err)
		assert.Equal(t, int64(100000000), fromTokens.Coins().Int64())

		fromCoins, err := r.MoneyFromCoins(ctx, big.NewInt(100000000), AssetID(ethAsset.ID))
		require.NoError(t, err)
		assert.True(t, fromCoins.Tokens().Equal(decimal.NewFromInt(1)))
	})

	t.Run("Should wrap transport errors", func(t *testing.T) {
		boom := errors.New("connection refused")
		r := NewResolver(&fakeFetcher{err: boom}, nil, zaptest.NewLogger(t))
		_, err := r.ResolveAsset(ctx, AssetID(usdAsset.ID))
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, types.ErrAssetNotFound)
	})

	t.Run("Should report not found with no fetcher", func(t *testing.T) {
		r := NewResolver(nil, nil, zaptest.NewLogger(t))
		_, err := r.ResolveAsset(ctx, AssetID(usdAsset.ID))
		assert.ErrorIs(t, err, types.ErrAssetNotFound)
	})

	t.Run("Should keep a shared lookup alive when the first caller gives up", func(t *testing.T) {
		f := &blockingFetcher{asset: btcAsset, started: make(chan struct{}), release: make(chan struct{})}
		r := NewResolver(f, &mapCache{assets: map[string]*Asset{}}, zaptest.NewLogger(t))

		leaderCtx, cancel := context.WithCancel(ctx)
		leaderErr := make(chan error, 1)
		go func() {
			_, err := r.ResolveAsset(leaderCtx, AssetID(btcAsset.ID))
			leaderErr <- err
		}()
		<-f.started

		type result struct {
			asset *Asset
			err   error
		}
		follower := make(chan result, 1)
		go func() {
			a, err := r.ResolveAsset(ctx, AssetID(btcAsset.ID))
			follower <- result{a, err}
		}()

		cancel()
		assert.ErrorIs(t, <-leaderErr, context.Canceled)

		close(f.release)
		res := <-follower
		require.NoError(t, res.err)
		assert.Equal(t, btcAsset.ID, res.asset.ID)
		assert.False(t, f.canceled.Load(), "shared fetch must not see the caller's cancellation")
	})

	t.Run("Should resolve concurrently", func(t *testing.T) {
		r, _ := newTestResolver(t)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a, err := r.ResolveAsset(ctx, AssetID(btcAsset.ID))
				assert.NoError(t, err)
				assert.Equal(t, btcAsset.ID, a.ID)
			}()
		}
		wg.Wait()
	})
}
