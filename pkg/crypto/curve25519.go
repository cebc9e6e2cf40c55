package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"
)

const signBitMask byte = 0x80

// signaturePrefix separates the nonce hash from other uses of the private key.
var signaturePrefix = [32]byte{
	0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// Sign returns the base58 encoded Curve25519 signature of message.
// Signatures are randomized, two calls over the same message differ but both verify.
func Sign(privateKey []byte, message []byte) (string, error) {
	sig, err := SignBytes(privateKey, message, rand.Reader)
	if err != nil {
		return "", err
	}
	return EncodeBase58(sig), nil
}

// SignBytes signs message with a Curve25519 private key, reading 64 bytes of nonce randomness from random.
//
// The private key is used directly as the Ed25519 scalar. The signature is a regular Ed25519
// signature (R || s) whose top bit carries the sign of the Edwards public key, which a
// Curve25519 public key cannot encode.
func SignBytes(privateKey []byte, message []byte, random io.Reader) ([]byte, error) {
	if len(privateKey) != PrivateKeyLength {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeyLength, len(privateKey))
	}
	sk := clampPrivateKey(privateKey)

	nonce := make([]byte, 64)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("failed to read signature randomness: %w", err)
	}

	a, err := edwards25519.NewScalar().SetBytesWithClamping(sk)
	if err != nil {
		return nil, err
	}
	edPublicKey := new(edwards25519.Point).ScalarBaseMult(a).Bytes()

	h := sha512.New()
	h.Write(signaturePrefix[:])
	h.Write(sk)
	h.Write(message)
	h.Write(nonce)
	r, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		return nil, err
	}
	R := new(edwards25519.Point).ScalarBaseMult(r).Bytes()

	h.Reset()
	h.Write(R)
	h.Write(edPublicKey)
	h.Write(message)
	k, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		return nil, err
	}
	s := edwards25519.NewScalar().MultiplyAdd(k, a, r)

	sig := make([]byte, 0, SignatureLength)
	sig = append(sig, R...)
	sig = append(sig, s.Bytes()...)
	sig[63] |= edPublicKey[31] & signBitMask
	return sig, nil
}

// Verify checks a Curve25519 signature over message. Keys and signature are base58 encoded.
func Verify(publicKey string, message []byte, signature string) (bool, error) {
	pk, err := DecodeBase58Fixed(publicKey, PublicKeyLength)
	if err != nil {
		return false, fmt.Errorf("failed to decode public key: %w", err)
	}
	sig, err := DecodeBase58Fixed(signature, SignatureLength)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}
	return VerifyBytes(pk, message, sig), nil
}

// VerifyBytes checks a raw 64 byte signature against a raw Curve25519 public key.
func VerifyBytes(publicKey []byte, message []byte, signature []byte) bool {
	if len(publicKey) != PublicKeyLength || len(signature) != SignatureLength {
		return false
	}
	edPublicKey, err := edwardsFromMontgomery(publicKey, signature[63]&signBitMask)
	if err != nil {
		return false
	}
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	sig[63] &^= signBitMask
	return ed25519.Verify(edPublicKey, message, sig)
}

// edwardsFromMontgomery maps a Curve25519 u coordinate to the Edwards y coordinate, y = (u-1)/(u+1),
// and sets the sign bit of x.
func edwardsFromMontgomery(u []byte, signBit byte) (ed25519.PublicKey, error) {
	var x field.Element
	if _, err := x.SetBytes(u); err != nil {
		return nil, err
	}
	one := new(field.Element).One()
	num := new(field.Element).Subtract(&x, one)
	den := new(field.Element).Add(&x, one)
	y := new(field.Element).Multiply(num, new(field.Element).Invert(den))

	b := y.Bytes()
	b[31] |= signBit
	return ed25519.PublicKey(b), nil
}

// MontgomeryFromEdwards converts an Ed25519 public key to the Curve25519 public key accounts are derived from.
func MontgomeryFromEdwards(edPublicKey []byte) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(edPublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid Ed25519 public key: %w", err)
	}
	return p.BytesMontgomery(), nil
}

// SignatureFromEd25519 turns a plain Ed25519 signature made by edPublicKey into one that
// verifies against MontgomeryFromEdwards(edPublicKey).
func SignatureFromEd25519(edPublicKey []byte, signature []byte) ([]byte, error) {
	if len(edPublicKey) != PublicKeyLength {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", PublicKeyLength, len(edPublicKey))
	}
	if len(signature) != SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(signature))
	}
	if signature[63]&signBitMask != 0 {
		return nil, fmt.Errorf("signature scalar is not canonical")
	}
	out := make([]byte, SignatureLength)
	copy(out, signature)
	out[63] |= edPublicKey[31] & signBitMask
	return out, nil
}
