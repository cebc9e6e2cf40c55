package matcher

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/transport"
	"go.uber.org/zap"
)

const (
	HeaderTimestamp = "Timestamp"
	HeaderSignature = "Signature"
)

// IMatcherClient receives the time-scoped signature that authorizes order book reads for a public key.
type IMatcherClient interface {
	AddSignature(ctx context.Context, signature, publicKey string, timestamp int64) error
}

// Signature is a matcher authorization valid until Timestamp (Unix milliseconds).
type Signature struct {
	Signature string
	PublicKey string
	Timestamp int64
}

func (s *Signature) Expired(now time.Time) bool {
	return s == nil || now.UnixMilli() >= s.Timestamp
}

type OrderAssetPair struct {
	AmountAsset *string `json:"amountAsset"`
	PriceAsset  *string `json:"priceAsset"`
}

type Order struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Amount    int64          `json:"amount"`
	Price     int64          `json:"price"`
	Timestamp int64          `json:"timestamp"`
	Filled    int64          `json:"filled"`
	Status    string         `json:"status"`
	AssetPair OrderAssetPair `json:"assetPair"`
}

// Client talks to the matcher REST API and keeps the latest signature per public key.
type Client struct {
	transport *transport.Client
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.RWMutex
	signatures map[string]*Signature
}

var _ IMatcherClient = (*Client)(nil)

func NewClient(t *transport.Client, logger *zap.Logger) *Client {
	return &Client{
		transport:  t,
		logger:     logger,
		now:        time.Now,
		signatures: make(map[string]*Signature),
	}
}

func signatureHeaders(sig *Signature) map[string]string {
	return map[string]string{
		HeaderTimestamp: strconv.FormatInt(sig.Timestamp, 10),
		HeaderSignature: sig.Signature,
	}
}

func orderBookPath(publicKey string) string {
	return "/matcher/orderbook/" + url.PathEscape(publicKey)
}

// AddSignature checks the signature against the matcher and, if accepted, keeps it for later order reads.
func (c *Client) AddSignature(ctx context.Context, signature, publicKey string, timestamp int64) error {
	if signature == "" || publicKey == "" {
		return fmt.Errorf("signature and public key are required")
	}
	sig := &Signature{Signature: signature, PublicKey: publicKey, Timestamp: timestamp}
	if sig.Expired(c.now()) {
		return fmt.Errorf("signature already expired at %d", timestamp)
	}

	if err := c.transport.GetJSON(ctx, orderBookPath(publicKey), signatureHeaders(sig), nil); err != nil {
		return fmt.Errorf("matcher rejected signature: %w", err)
	}

	c.mu.Lock()
	c.signatures[publicKey] = sig
	c.mu.Unlock()

	c.logger.Sugar().Infow("Registered matcher signature", "publicKey", publicKey, "expires", time.UnixMilli(timestamp).UTC())
	return nil
}

// GetSignature returns the stored signature for publicKey if it has not expired.
func (c *Client) GetSignature(publicKey string) (*Signature, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sig, ok := c.signatures[publicKey]
	if !ok || sig.Expired(c.now()) {
		return nil, false
	}
	return sig, true
}

// DropSignature forgets the signature for publicKey.
func (c *Client) DropSignature(publicKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.signatures, publicKey)
}

// GetOrders lists the orders of publicKey using its stored signature.
func (c *Client) GetOrders(ctx context.Context, publicKey string) ([]Order, error) {
	sig, ok := c.GetSignature(publicKey)
	if !ok {
		return nil, fmt.Errorf("no valid matcher signature for %s", publicKey)
	}

	var orders []Order
	if err := c.transport.GetJSON(ctx, orderBookPath(publicKey), signatureHeaders(sig), &orders); err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}
