package codec

import (
	"fmt"

	"github.com/dex-wallet/wallet-session-go/pkg/types"
)

// ICodec produces the canonical byte sequence a payload must be signed over.
type ICodec interface {
	Encode(payload types.SignPayload) ([]byte, error)
}

type encoderFunc func(w *payloadWriter, payload types.SignPayload) error

// encoders maps every sign type to its byte layout. Adding a sign type means adding an entry here;
// there is no fallback encoding.
var encoders = map[types.SignType]encoderFunc{
	types.SignTypeAuth:          encodeAuth,
	types.SignTypeMatcherOrders: encodeMatcherOrders,
	types.SignTypeIssue:         encodeIssue,
	types.SignTypeTransfer:      encodeTransfer,
	types.SignTypeReissue:       encodeReissue,
	types.SignTypeBurn:          encodeBurn,
	types.SignTypeLease:         encodeLease,
	types.SignTypeCancelLeasing: encodeCancelLeasing,
	types.SignTypeCreateAlias:   encodeCreateAlias,
	types.SignTypeMassTransfer:  encodeMassTransfer,
}

// HasEncoder reports whether the codec knows the byte layout of a sign type.
func HasEncoder(st types.SignType) bool {
	_, ok := encoders[st]
	return ok
}

// WavesCodec encodes payloads for a single network, identified by its chain id byte.
type WavesCodec struct {
	chainId byte
}

func NewWavesCodec(chainId byte) *WavesCodec {
	return &WavesCodec{chainId: chainId}
}

func (c *WavesCodec) ChainId() byte {
	return c.chainId
}

func (c *WavesCodec) Encode(payload types.SignPayload) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload", types.ErrUnsupportedPayloadTag)
	}
	st := payload.SignType()
	encode, ok := encoders[st]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedPayloadTag, st)
	}

	w := newPayloadWriter(c.chainId)
	if err := encode(w, payload); err != nil {
		return nil, err
	}
	b, err := w.finish()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidPayload, st, err)
	}
	return b, nil
}

func mismatch(st types.SignType, payload types.SignPayload) error {
	return fmt.Errorf("%w: payload %T does not match tag %s", types.ErrUnsupportedPayloadTag, payload, st)
}

// Transaction type bytes, written as the first byte of every transaction layout.
const (
	txTypeIssue         byte = 3
	txTypeTransfer      byte = 4
	txTypeReissue       byte = 5
	txTypeBurn          byte = 6
	txTypeLease         byte = 8
	txTypeCancelLeasing byte = 9
	txTypeCreateAlias   byte = 10
	txTypeMassTransfer  byte = 11

	massTransferVersion byte = 1
)

func encodeAuth(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.AuthData)
	if !ok || d == nil {
		return mismatch(types.SignTypeAuth, payload)
	}
	w.stringWithSize("prefix", d.Prefix)
	w.stringWithSize("host", d.Host)
	w.stringWithSize("data", d.Data)
	return nil
}

func encodeMatcherOrders(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.MatcherOrdersData)
	if !ok || d == nil {
		return mismatch(types.SignTypeMatcherOrders, payload)
	}
	w.publicKey(d.SenderPublicKey)
	w.long("timestamp", d.Timestamp)
	return nil
}

func encodeIssue(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.IssueData)
	if !ok || d == nil {
		return mismatch(types.SignTypeIssue, payload)
	}
	w.writeByte(txTypeIssue)
	w.publicKey(d.SenderPublicKey)
	w.stringWithSize("name", d.Name)
	w.stringWithSize("description", d.Description)
	w.long("quantity", int64(d.Quantity))
	w.writeByte(d.Precision)
	w.writeBool(d.Reissuable)
	w.long("fee", int64(d.Fee))
	w.long("timestamp", d.Timestamp)
	return nil
}

func encodeTransfer(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.TransferData)
	if !ok || d == nil {
		return mismatch(types.SignTypeTransfer, payload)
	}
	w.writeByte(txTypeTransfer)
	w.publicKey(d.SenderPublicKey)
	w.optionalAsset("assetId", d.AssetID)
	w.optionalAsset("feeAssetId", d.FeeAssetID)
	w.long("timestamp", d.Timestamp)
	w.long("amount", int64(d.Amount))
	w.long("fee", int64(d.Fee))
	w.recipient("recipient", d.Recipient)
	w.attachment(d.Attachment)
	return nil
}

func encodeReissue(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.ReissueData)
	if !ok || d == nil {
		return mismatch(types.SignTypeReissue, payload)
	}
	w.writeByte(txTypeReissue)
	w.publicKey(d.SenderPublicKey)
	w.base58Fixed("assetId", d.AssetID, assetIdLength)
	w.long("quantity", int64(d.Quantity))
	w.writeBool(d.Reissuable)
	w.long("fee", int64(d.Fee))
	w.long("timestamp", d.Timestamp)
	return nil
}

func encodeBurn(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.BurnData)
	if !ok || d == nil {
		return mismatch(types.SignTypeBurn, payload)
	}
	w.writeByte(txTypeBurn)
	w.publicKey(d.SenderPublicKey)
	w.base58Fixed("assetId", d.AssetID, assetIdLength)
	w.long("quantity", int64(d.Quantity))
	w.long("fee", int64(d.Fee))
	w.long("timestamp", d.Timestamp)
	return nil
}

func encodeLease(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.LeaseData)
	if !ok || d == nil {
		return mismatch(types.SignTypeLease, payload)
	}
	w.writeByte(txTypeLease)
	w.publicKey(d.SenderPublicKey)
	w.recipient("recipient", d.Recipient)
	w.long("amount", int64(d.Amount))
	w.long("fee", int64(d.Fee))
	w.long("timestamp", d.Timestamp)
	return nil
}

func encodeCancelLeasing(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.CancelLeasingData)
	if !ok || d == nil {
		return mismatch(types.SignTypeCancelLeasing, payload)
	}
	w.writeByte(txTypeCancelLeasing)
	w.publicKey(d.SenderPublicKey)
	w.long("fee", int64(d.Fee))
	w.long("timestamp", d.Timestamp)
	w.base58Fixed("transactionId", d.TransactionID, txIdLength)
	return nil
}

func encodeCreateAlias(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.CreateAliasData)
	if !ok || d == nil {
		return mismatch(types.SignTypeCreateAlias, payload)
	}
	w.writeByte(txTypeCreateAlias)
	w.publicKey(d.SenderPublicKey)
	if err := validateAlias(d.Alias); err != nil {
		w.fail("alias", err)
	}
	w.bytesWithSize("alias", w.aliasBytes(d.Alias))
	w.long("fee", int64(d.Fee))
	w.long("timestamp", d.Timestamp)
	return nil
}

func encodeMassTransfer(w *payloadWriter, payload types.SignPayload) error {
	d, ok := payload.(*types.MassTransferData)
	if !ok || d == nil {
		return mismatch(types.SignTypeMassTransfer, payload)
	}
	version := d.Version
	if version == 0 {
		version = massTransferVersion
	}
	if len(d.Transfers) > 100 {
		w.fail("transfers", fmt.Errorf("at most 100 transfers allowed, got %d", len(d.Transfers)))
	}
	w.writeByte(txTypeMassTransfer)
	w.writeByte(version)
	w.publicKey(d.SenderPublicKey)
	w.optionalAsset("assetId", d.AssetID)
	w.short(uint16(len(d.Transfers)))
	for i, t := range d.Transfers {
		w.recipient(fmt.Sprintf("transfers[%d].recipient", i), t.Recipient)
		w.long(fmt.Sprintf("transfers[%d].amount", i), int64(t.Amount))
	}
	w.long("timestamp", d.Timestamp)
	w.long("fee", int64(d.Fee))
	w.attachment(d.Attachment)
	return nil
}
