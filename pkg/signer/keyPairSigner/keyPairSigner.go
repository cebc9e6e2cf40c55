package keyPairSigner

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dex-wallet/wallet-session-go/pkg/codec"
	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
	"github.com/dex-wallet/wallet-session-go/pkg/signer"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"go.uber.org/zap"
)

// KeyPairSigner signs with a local Curve25519 key pair. The private key never leaves this struct.
type KeyPairSigner struct {
	logger     *zap.Logger
	codec      codec.ICodec
	privateKey []byte
	publicKey  string
	address    string
}

var _ signer.ISigner = (*KeyPairSigner)(nil)

// NewKeyPairSigner creates a signer bound to address. The public key must belong to the private key.
func NewKeyPairSigner(
	keyPair *types.KeyPair,
	address string,
	c codec.ICodec,
	logger *zap.Logger,
) (*KeyPairSigner, error) {
	if keyPair == nil {
		return nil, fmt.Errorf("key pair cannot be nil")
	}
	if address == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}
	if c == nil {
		return nil, fmt.Errorf("codec cannot be nil")
	}

	privateKey, err := crypto.PrivateKeyFromBase58(keyPair.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	publicKey, err := crypto.DecodeBase58Fixed(keyPair.PublicKey, crypto.PublicKeyLength)
	if err != nil {
		return nil, fmt.Errorf("error loading public key: %w", err)
	}
	derived, err := crypto.PublicKeyFromPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("error deriving public key: %w", err)
	}
	if !bytes.Equal(derived, publicKey) {
		return nil, fmt.Errorf("public key does not match private key")
	}

	return &KeyPairSigner{
		logger:     logger,
		codec:      c,
		privateKey: privateKey,
		publicKey:  keyPair.PublicKey,
		address:    address,
	}, nil
}

// NewKeyPairSignerFromSeed derives the key pair and address from a seed phrase.
func NewKeyPairSignerFromSeed(
	seed string,
	nonce uint32,
	chainId byte,
	c codec.ICodec,
	logger *zap.Logger,
) (*KeyPairSigner, error) {
	keyPair, err := crypto.KeyPairFromSeed(seed, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key pair from seed: %w", err)
	}
	address, err := crypto.AddressFromPublicKey(keyPair.PublicKey, chainId)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address: %w", err)
	}
	return NewKeyPairSigner(keyPair, address, c, logger)
}

func (kps *KeyPairSigner) GetPublicKey(ctx context.Context) (string, error) {
	return kps.publicKey, nil
}

func (kps *KeyPairSigner) GetAddress(ctx context.Context) (string, error) {
	return kps.address, nil
}

func (kps *KeyPairSigner) Sign(ctx context.Context, payload types.SignPayload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := kps.codec.Encode(payload)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(kps.privateKey, data)
	if err != nil {
		return "", fmt.Errorf("failed to sign payload: %w", err)
	}

	kps.logger.Debug("Signed payload with local key",
		zap.String("signType", payload.SignType().String()),
		zap.String("address", kps.address),
		zap.Int("payloadLen", len(data)),
	)

	return sig, nil
}
