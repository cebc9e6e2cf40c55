package signer

import (
	"context"

	"github.com/dex-wallet/wallet-session-go/pkg/types"
)

// ISigner supplies the identity of an account and signs payloads on its behalf.
// Implementations may hold a local key or delegate to a remote/hardware signer.
type ISigner interface {
	// GetPublicKey returns the base58 encoded public key of the account
	GetPublicKey(ctx context.Context) (string, error)

	// GetAddress returns the base58 encoded address of the account
	GetAddress(ctx context.Context) (string, error)

	// Sign returns the base58 encoded signature over the canonical bytes of payload
	Sign(ctx context.Context, payload types.SignPayload) (string, error)
}

type SignerType string

const (
	SignerTypeLocal  SignerType = "local"
	SignerTypeAWSKMS SignerType = "aws-kms"
)

func (st SignerType) String() string {
	return string(st)
}
