package types

import (
	"encoding/json"
	"fmt"
)

// SignPayload is the closed union of everything a signer can be asked to sign.
// Only the types in this file implement it.
type SignPayload interface {
	SignType() SignType
	isSignPayload()
}

// KeyPair holds base58 encoded keys. Only the local key pair signer should hold one.
type KeyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

type AuthData struct {
	Prefix string `json:"prefix"`
	Host   string `json:"host"`
	Data   string `json:"data"`
}

// MatcherOrdersData authorizes order book access on the matcher until Timestamp.
type MatcherOrdersData struct {
	SenderPublicKey string `json:"senderPublicKey"`
	Timestamp       int64  `json:"timestamp"`
}

// TxCommon carries the fields shared by every transaction payload.
type TxCommon struct {
	Sender          string `json:"sender"`
	SenderPublicKey string `json:"senderPublicKey"`
	Fee             Amount `json:"fee"`
	Timestamp       int64  `json:"timestamp"`
}

type TransferData struct {
	TxCommon
	AssetID    string `json:"assetId"`
	FeeAssetID string `json:"feeAssetId"`
	Amount     Amount `json:"amount"`
	Attachment string `json:"attachment"`
	Recipient  string `json:"recipient"`
}

type IssueData struct {
	TxCommon
	Name        string `json:"name"`
	Description string `json:"description"`
	Precision   uint8  `json:"precision"`
	Quantity    Amount `json:"quantity"`
	Reissuable  bool   `json:"reissuable"`
}

type ReissueData struct {
	TxCommon
	AssetID    string `json:"assetId"`
	Quantity   Amount `json:"quantity"`
	Reissuable bool   `json:"reissuable"`
}

type BurnData struct {
	TxCommon
	AssetID  string `json:"assetId"`
	Quantity Amount `json:"quantity"`
}

type LeaseData struct {
	TxCommon
	Amount    Amount `json:"amount"`
	Recipient string `json:"recipient"`
}

type CancelLeasingData struct {
	TxCommon
	TransactionID string `json:"transactionId"`
}

type CreateAliasData struct {
	TxCommon
	Alias string `json:"alias"`
}

type MassTransferItem struct {
	Recipient string `json:"recipient"`
	Amount    Amount `json:"amount"`
}

type MassTransferData struct {
	TxCommon
	Version    uint8              `json:"version"`
	AssetID    string             `json:"assetId"`
	Transfers  []MassTransferItem `json:"transfers"`
	Attachment string             `json:"attachment"`
}

func (*AuthData) SignType() SignType          { return SignTypeAuth }
func (*MatcherOrdersData) SignType() SignType { return SignTypeMatcherOrders }
func (*IssueData) SignType() SignType         { return SignTypeIssue }
func (*TransferData) SignType() SignType      { return SignTypeTransfer }
func (*ReissueData) SignType() SignType       { return SignTypeReissue }
func (*BurnData) SignType() SignType          { return SignTypeBurn }
func (*LeaseData) SignType() SignType         { return SignTypeLease }
func (*CancelLeasingData) SignType() SignType { return SignTypeCancelLeasing }
func (*CreateAliasData) SignType() SignType   { return SignTypeCreateAlias }
func (*MassTransferData) SignType() SignType  { return SignTypeMassTransfer }

func (*AuthData) isSignPayload()          {}
func (*MatcherOrdersData) isSignPayload() {}
func (*IssueData) isSignPayload()         {}
func (*TransferData) isSignPayload()      {}
func (*ReissueData) isSignPayload()       {}
func (*BurnData) isSignPayload()          {}
func (*LeaseData) isSignPayload()         {}
func (*CancelLeasingData) isSignPayload() {}
func (*CreateAliasData) isSignPayload()   {}
func (*MassTransferData) isSignPayload()  {}

// RawSignRequest is the untyped form of a sign request, as it arrives from JSON.
type RawSignRequest struct {
	Type SignType        `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewSignPayload returns an empty payload for the given tag.
func NewSignPayload(st SignType) (SignPayload, error) {
	switch st {
	case SignTypeAuth:
		return &AuthData{}, nil
	case SignTypeMatcherOrders:
		return &MatcherOrdersData{}, nil
	case SignTypeIssue:
		return &IssueData{}, nil
	case SignTypeTransfer:
		return &TransferData{}, nil
	case SignTypeReissue:
		return &ReissueData{}, nil
	case SignTypeBurn:
		return &BurnData{}, nil
	case SignTypeLease:
		return &LeaseData{}, nil
	case SignTypeCancelLeasing:
		return &CancelLeasingData{}, nil
	case SignTypeCreateAlias:
		return &CreateAliasData{}, nil
	case SignTypeMassTransfer:
		return &MassTransferData{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPayloadTag, st)
	}
}

// DecodeSignPayload converts an untyped request into the closed payload union.
func DecodeSignPayload(req *RawSignRequest) (SignPayload, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrUnsupportedPayloadTag)
	}
	payload, err := NewSignPayload(req.Type)
	if err != nil {
		return nil, err
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data for %s", ErrInvalidPayload, req.Type)
	}
	if err := json.Unmarshal(req.Data, payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s data: %v", ErrInvalidPayload, req.Type, err)
	}
	return payload, nil
}
