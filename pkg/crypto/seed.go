package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"golang.org/x/crypto/curve25519"
)

// KeyPairFromSeed derives the Curve25519 key pair of an account from a seed phrase and nonce.
// The private key is clamp(sha256(secureHash(nonce || seed))) and the public key its X25519 base point product.
func KeyPairFromSeed(seed string, nonce uint32) (*types.KeyPair, error) {
	if seed == "" {
		return nil, fmt.Errorf("seed cannot be empty")
	}

	buf := make([]byte, 4+len(seed))
	binary.BigEndian.PutUint32(buf[:4], nonce)
	copy(buf[4:], seed)

	accountSeed := SecureHash(buf)
	keySeed := sha256.Sum256(accountSeed)
	privateKey := clampPrivateKey(keySeed[:])

	publicKey, err := PublicKeyFromPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	return &types.KeyPair{
		PublicKey:  EncodeBase58(publicKey),
		PrivateKey: EncodeBase58(privateKey),
	}, nil
}

func clampPrivateKey(b []byte) []byte {
	k := make([]byte, PrivateKeyLength)
	copy(k, b)
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
	return k
}

// PrivateKeyFromBase58 decodes a 32 byte Curve25519 private key and clamps it.
func PrivateKeyFromBase58(privateKey string) ([]byte, error) {
	b, err := DecodeBase58Fixed(privateKey, PrivateKeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	return clampPrivateKey(b), nil
}

// PublicKeyFromPrivateKey returns the Curve25519 public key of privateKey.
func PublicKeyFromPrivateKey(privateKey []byte) ([]byte, error) {
	if len(privateKey) != PrivateKeyLength {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeyLength, len(privateKey))
	}
	return curve25519.X25519(privateKey, curve25519.Basepoint)
}
