package keyGenerator

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// GeneratedKey is an Ed25519 signing key whose private half lives in a key manager.
// PublicKey holds the Edwards encoding; accounts use its Curve25519 form.
type GeneratedKey struct {
	PublicKey []byte
	KeyId     string
}

// AccountPublicKey returns the Curve25519 public key accounts and signatures are checked against.
func (gk *GeneratedKey) AccountPublicKey() ([]byte, error) {
	if len(gk.PublicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("unexpected public key length: %d", len(gk.PublicKey))
	}
	return crypto.MontgomeryFromEdwards(gk.PublicKey)
}

func (gk *GeneratedKey) GetPublicKeyBase58() (string, error) {
	pub, err := gk.AccountPublicKey()
	if err != nil {
		return "", err
	}
	return crypto.EncodeBase58(pub), nil
}

func (gk *GeneratedKey) GetPublicKeyHex() (string, error) {
	pub, err := gk.AccountPublicKey()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(pub), nil
}

// GetAddress derives the account address for chainId.
func (gk *GeneratedKey) GetAddress(chainId byte) (string, error) {
	pub, err := gk.GetPublicKeyBase58()
	if err != nil {
		return "", err
	}
	return crypto.AddressFromPublicKey(pub, chainId)
}

type IKeyGenerator interface {
	GenerateKey(ctx context.Context, keyName string, aliasName string) (*GeneratedKey, error)
	GetKeyById(ctx context.Context, keyId string) (*GeneratedKey, error)
	// SignMessage returns a raw 64 byte Ed25519 signature over message.
	SignMessage(ctx context.Context, keyId string, message []byte) ([]byte, error)
}
