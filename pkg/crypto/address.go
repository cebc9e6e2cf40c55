package crypto

import (
	"bytes"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
)

const (
	AddressVersion   byte = 1
	AddressLength         = 26
	PublicKeyLength       = 32
	PrivateKeyLength      = 32
	DigestLength          = 32
	SignatureLength       = 64

	addressHashLength     = 20
	addressChecksumLength = 4
)

// Chain ids of the public networks.
const (
	ChainIdMainnet  byte = 'W'
	ChainIdTestnet  byte = 'T'
	ChainIdStagenet byte = 'S'
)

// SecureHash is keccak256(blake2b256(data)), the hash used for addresses and account seeds.
func SecureHash(data []byte) []byte {
	b := blake2b.Sum256(data)
	return ethcrypto.Keccak256(b[:])
}

// AddressBytesFromPublicKey builds the 26 byte address for a public key on the given chain.
func AddressBytesFromPublicKey(publicKey []byte, chainId byte) ([]byte, error) {
	if len(publicKey) != PublicKeyLength {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", PublicKeyLength, len(publicKey))
	}
	addr := make([]byte, 0, AddressLength)
	addr = append(addr, AddressVersion, chainId)
	addr = append(addr, SecureHash(publicKey)[:addressHashLength]...)
	addr = append(addr, SecureHash(addr)[:addressChecksumLength]...)
	return addr, nil
}

// AddressFromPublicKey returns the base58 address for a base58 public key.
func AddressFromPublicKey(publicKey string, chainId byte) (string, error) {
	pk, err := DecodeBase58Fixed(publicKey, PublicKeyLength)
	if err != nil {
		return "", fmt.Errorf("failed to decode public key: %w", err)
	}
	addr, err := AddressBytesFromPublicKey(pk, chainId)
	if err != nil {
		return "", err
	}
	return EncodeBase58(addr), nil
}

// ValidateAddress checks version, chain id and checksum of a base58 address.
func ValidateAddress(address string, chainId byte) error {
	addr, err := DecodeBase58Fixed(address, AddressLength)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	if addr[0] != AddressVersion {
		return fmt.Errorf("invalid address version %d", addr[0])
	}
	if addr[1] != chainId {
		return fmt.Errorf("address chain id %q does not match %q", addr[1], chainId)
	}
	body := addr[:AddressLength-addressChecksumLength]
	checksum := SecureHash(body)[:addressChecksumLength]
	if !bytes.Equal(checksum, addr[AddressLength-addressChecksumLength:]) {
		return fmt.Errorf("invalid address checksum")
	}
	return nil
}
