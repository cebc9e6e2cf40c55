package kmsSigner

import (
	"context"
	"fmt"

	"github.com/dex-wallet/wallet-session-go/internal/keyGenerator"
	"github.com/dex-wallet/wallet-session-go/pkg/codec"
	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
	"github.com/dex-wallet/wallet-session-go/pkg/signer"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"go.uber.org/zap"
)

// KMSSigner signs through a key manager holding an Ed25519 key. The private key never
// leaves it; only the canonical payload bytes are sent. The account public key is the
// Curve25519 form of the managed key and every signature carries the Edwards sign bit,
// so signatures verify like those of a seed-derived account.
type KMSSigner struct {
	logger    *zap.Logger
	codec     codec.ICodec
	keys      keyGenerator.IKeyGenerator
	keyId     string
	edPublic  []byte
	publicKey string
	address   string
}

var _ signer.ISigner = (*KMSSigner)(nil)

// NewKMSSigner resolves the public key of keyId once and derives the address for chainId.
func NewKMSSigner(
	ctx context.Context,
	keys keyGenerator.IKeyGenerator,
	keyId string,
	chainId byte,
	c codec.ICodec,
	logger *zap.Logger,
) (*KMSSigner, error) {
	if keys == nil {
		return nil, fmt.Errorf("key generator cannot be nil")
	}
	if keyId == "" {
		return nil, fmt.Errorf("key id cannot be empty")
	}
	if c == nil {
		return nil, fmt.Errorf("codec cannot be nil")
	}

	key, err := keys.GetKeyById(ctx, keyId)
	if err != nil {
		return nil, fmt.Errorf("failed to load key %s: %w", keyId, err)
	}
	publicKey, err := key.GetPublicKeyBase58()
	if err != nil {
		return nil, err
	}
	address, err := key.GetAddress(chainId)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address: %w", err)
	}

	logger.Sugar().Infow("Loaded KMS signer",
		"keyId", keyId,
		"address", address,
	)

	return &KMSSigner{
		logger:    logger,
		codec:     c,
		keys:      keys,
		keyId:     keyId,
		edPublic:  key.PublicKey,
		publicKey: publicKey,
		address:   address,
	}, nil
}

func (ks *KMSSigner) GetPublicKey(ctx context.Context) (string, error) {
	return ks.publicKey, nil
}

func (ks *KMSSigner) GetAddress(ctx context.Context) (string, error) {
	return ks.address, nil
}

func (ks *KMSSigner) Sign(ctx context.Context, payload types.SignPayload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := ks.codec.Encode(payload)
	if err != nil {
		return "", err
	}

	sig, err := ks.keys.SignMessage(ctx, ks.keyId, data)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s payload: %w", payload.SignType(), err)
	}
	sig, err = crypto.SignatureFromEd25519(ks.edPublic, sig)
	if err != nil {
		return "", fmt.Errorf("unusable signature from key %s: %w", ks.keyId, err)
	}

	ks.logger.Debug("Signed payload with KMS key",
		zap.String("signType", payload.SignType().String()),
		zap.String("keyId", ks.keyId),
		zap.Int("payloadLen", len(data)),
	)

	return crypto.EncodeBase58(sig), nil
}
