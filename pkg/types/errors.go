package types

import "errors"

var (
	// ErrNoActiveSigner is returned when a signing operation runs before login or after logout.
	ErrNoActiveSigner = errors.New("no active signer: session expired or not logged in")

	// ErrUnsupportedPayloadTag is returned for payloads whose tag is outside the closed sign type set.
	ErrUnsupportedPayloadTag = errors.New("transaction type not supported")

	// ErrAssetNotFound is returned when an asset reference cannot be resolved.
	ErrAssetNotFound = errors.New("unknown asset")

	// ErrLoginStepFailed wraps the first failing step of a login.
	ErrLoginStepFailed = errors.New("login step failed")

	// ErrInvalidPayload is returned when a payload field cannot be encoded (bad base58, wrong length, ...).
	ErrInvalidPayload = errors.New("invalid sign payload")

	// ErrAddressMismatch is returned when a login address does not belong to the signer.
	ErrAddressMismatch = errors.New("address does not belong to signer")
)
