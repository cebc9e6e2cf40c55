package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}

// DecodeBase58 decodes s, rejecting input that contains characters outside the base58 alphabet.
func DecodeBase58(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	decoded := base58.Decode(s)
	if len(decoded) == 0 {
		return nil, fmt.Errorf("invalid base58 string %q", s)
	}
	return decoded, nil
}

// DecodeBase58Fixed decodes s and checks the decoded length.
func DecodeBase58Fixed(s string, size int) ([]byte, error) {
	decoded, err := DecodeBase58(s)
	if err != nil {
		return nil, err
	}
	if len(decoded) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d for %q", size, len(decoded), s)
	}
	return decoded, nil
}
