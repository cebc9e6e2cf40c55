package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dex-wallet/wallet-session-go/pkg/assets"
	"github.com/dex-wallet/wallet-session-go/pkg/transport"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"go.uber.org/zap"
)

// assetDetails is the node's response for /assets/details/{id}.
type assetDetails struct {
	AssetID     string `json:"assetId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Decimals    uint8  `json:"decimals"`
	Reissuable  bool   `json:"reissuable"`
}

// NodeFetcher reads asset metadata from a node's REST API.
type NodeFetcher struct {
	client   *transport.Client
	rounding map[string]assets.RoundingMode
	logger   *zap.Logger
}

var _ assets.IAssetFetcher = (*NodeFetcher)(nil)

// NewNodeFetcher wraps a transport client pointed at the node URL.
// rounding overrides the default RoundDown mode per asset id and may be nil.
func NewNodeFetcher(client *transport.Client, rounding map[string]assets.RoundingMode, logger *zap.Logger) *NodeFetcher {
	return &NodeFetcher{
		client:   client,
		rounding: rounding,
		logger:   logger,
	}
}

func (f *NodeFetcher) FetchAsset(ctx context.Context, id string) (*assets.Asset, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty asset id", types.ErrAssetNotFound)
	}

	var details assetDetails
	err := f.client.GetJSON(ctx, "/assets/details/"+url.PathEscape(id), nil, &details)
	if err != nil {
		// The node answers 400 for ids that are not valid base58 asset ids.
		if transport.IsStatus(err, http.StatusNotFound) || transport.IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %s", types.ErrAssetNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch asset details: %w", err)
	}
	if details.AssetID != id {
		return nil, fmt.Errorf("node returned asset %q for %q", details.AssetID, id)
	}

	asset := &assets.Asset{
		ID:          details.AssetID,
		Name:        details.Name,
		Description: details.Description,
		Precision:   details.Decimals,
		Reissuable:  details.Reissuable,
		Rounding:    f.rounding[details.AssetID],
	}
	f.logger.Sugar().Debugw("Fetched asset details", "assetId", asset.ID, "name", asset.Name, "decimals", asset.Precision)
	return asset, nil
}
