package assets

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// IAssetFetcher looks asset metadata up from an external source.
// Unknown ids must fail with an error wrapping types.ErrAssetNotFound.
type IAssetFetcher interface {
	FetchAsset(ctx context.Context, id string) (*Asset, error)
}

// IAssetCache stores resolved assets. LoadAsset returns nil, nil when the asset is absent.
type IAssetCache interface {
	LoadAsset(id string) (*Asset, error)
	SaveAsset(asset *Asset) error
}

// Resolver turns asset references into assets and builds Money and OrderPrice values from them.
type Resolver struct {
	fetcher IAssetFetcher
	cache   IAssetCache
	logger  *zap.Logger

	// lookups collapses concurrent fetches of the same id.
	lookups singleflight.Group
}

// NewResolver creates a resolver. cache may be nil, in which case every lookup hits the fetcher.
func NewResolver(fetcher IAssetFetcher, cache IAssetCache, logger *zap.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
	}
}

// ResolveAsset returns the asset a reference points to.
func (r *Resolver) ResolveAsset(ctx context.Context, ref AssetRef) (*Asset, error) {
	switch v := ref.(type) {
	case *Asset:
		if err := v.Validate(); err != nil {
			return nil, err
		}
		return v, nil
	case AssetID:
		return r.resolveID(ctx, string(v))
	case nil:
		return nil, fmt.Errorf("%w: nil asset reference", types.ErrAssetNotFound)
	default:
		return nil, fmt.Errorf("unsupported asset reference %T", ref)
	}
}

func (r *Resolver) resolveID(ctx context.Context, id string) (*Asset, error) {
	if IsNativeAssetID(id) {
		return NativeAsset(), nil
	}

	if r.cache != nil {
		cached, err := r.cache.LoadAsset(id)
		if err != nil {
			r.logger.Sugar().Warnw("Failed to load asset from cache", "assetId", id, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	if r.fetcher == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrAssetNotFound, id)
	}

	// The shared fetch must outlive any single caller, each caller only stops waiting on its own context.
	detached := context.WithoutCancel(ctx)
	ch := r.lookups.DoChan(id, func() (interface{}, error) {
		return r.fetch(detached, id)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Asset), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Resolver) fetch(ctx context.Context, id string) (*Asset, error) {
	asset, err := r.fetcher.FetchAsset(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrAssetNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch asset %s: %w", id, err)
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrAssetNotFound, id)
	}
	if err := asset.Validate(); err != nil {
		return nil, fmt.Errorf("fetched invalid asset %s: %w", id, err)
	}

	if r.cache != nil {
		if err := r.cache.SaveAsset(asset); err != nil {
			r.logger.Sugar().Warnw("Failed to cache asset", "assetId", id, "error", err)
		}
	}
	r.logger.Sugar().Debugw("Resolved asset", "assetId", id, "precision", asset.Precision)
	return asset, nil
}

// ResolvePair resolves both references. Either failing fails the whole pair.
func (r *Resolver) ResolvePair(ctx context.Context, amountRef, priceRef AssetRef) (AssetPair, error) {
	amountAsset, err := r.ResolveAsset(ctx, amountRef)
	if err != nil {
		return AssetPair{}, err
	}
	priceAsset, err := r.ResolveAsset(ctx, priceRef)
	if err != nil {
		return AssetPair{}, err
	}
	return NewAssetPair(amountAsset, priceAsset)
}

func (r *Resolver) MoneyFromTokens(ctx context.Context, tokens decimal.Decimal, ref AssetRef) (Money, error) {
	asset, err := r.ResolveAsset(ctx, ref)
	if err != nil {
		return Money{}, err
	}
	return NewMoneyFromTokens(tokens, asset)
}

func (r *Resolver) MoneyFromCoins(ctx context.Context, coins *big.Int, ref AssetRef) (Money, error) {
	asset, err := r.ResolveAsset(ctx, ref)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(coins, asset)
}

// OrderPriceFromCoins builds a price for a pair that is already resolved.
func (r *Resolver) OrderPriceFromCoins(pair AssetPair, coins *big.Int) (OrderPrice, error) {
	return NewOrderPriceFromMatcherCoins(coins, pair)
}

// OrderPriceFromCoinsForAssets resolves amountRef and priceRef, in that order, then builds the price.
func (r *Resolver) OrderPriceFromCoinsForAssets(ctx context.Context, coins *big.Int, amountRef, priceRef AssetRef) (OrderPrice, error) {
	pair, err := r.ResolvePair(ctx, amountRef, priceRef)
	if err != nil {
		return OrderPrice{}, err
	}
	return r.OrderPriceFromCoins(pair, coins)
}

func (r *Resolver) OrderPriceFromTokens(pair AssetPair, tokens decimal.Decimal) (OrderPrice, error) {
	return NewOrderPriceFromTokens(tokens, pair)
}

func (r *Resolver) OrderPriceFromTokensForAssets(ctx context.Context, tokens decimal.Decimal, amountRef, priceRef AssetRef) (OrderPrice, error) {
	pair, err := r.ResolvePair(ctx, amountRef, priceRef)
	if err != nil {
		return OrderPrice{}, err
	}
	return r.OrderPriceFromTokens(pair, tokens)
}
