package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
)

const (
	aliasPrefix        = "alias:"
	aliasVersion  byte = 2
	minAliasLen        = 4
	maxAliasLen        = 30
	maxAttachment      = 140
	assetIdLength      = 32
	txIdLength         = 32
	nativeAssetId      = "WAVES"
)

// payloadWriter accumulates the canonical bytes of a payload. The first error sticks and
// every later write becomes a no-op.
type payloadWriter struct {
	buf     bytes.Buffer
	chainId byte
	err     error
}

func newPayloadWriter(chainId byte) *payloadWriter {
	return &payloadWriter{chainId: chainId}
}

func (w *payloadWriter) fail(field string, err error) {
	if w.err == nil {
		w.err = fmt.Errorf("%s: %w", field, err)
	}
}

func (w *payloadWriter) writeByte(b byte) {
	if w.err != nil {
		return
	}
	w.buf.WriteByte(b)
}

func (w *payloadWriter) writeBool(v bool) {
	if v {
		w.writeByte(1)
		return
	}
	w.writeByte(0)
}

func (w *payloadWriter) short(v uint16) {
	if w.err != nil {
		return
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *payloadWriter) long(field string, v int64) {
	if w.err != nil {
		return
	}
	if v < 0 {
		w.fail(field, fmt.Errorf("must not be negative, got %d", v))
		return
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

func (w *payloadWriter) raw(b []byte) {
	if w.err != nil {
		return
	}
	w.buf.Write(b)
}

// bytesWithSize writes a uint16 length prefix followed by b.
func (w *payloadWriter) bytesWithSize(field string, b []byte) {
	if w.err != nil {
		return
	}
	if len(b) > math.MaxUint16 {
		w.fail(field, fmt.Errorf("too long: %d bytes", len(b)))
		return
	}
	w.short(uint16(len(b)))
	w.raw(b)
}

func (w *payloadWriter) stringWithSize(field, s string) {
	w.bytesWithSize(field, []byte(s))
}

func (w *payloadWriter) base58Fixed(field, s string, size int) {
	if w.err != nil {
		return
	}
	b, err := crypto.DecodeBase58Fixed(s, size)
	if err != nil {
		w.fail(field, err)
		return
	}
	w.raw(b)
}

func (w *payloadWriter) publicKey(s string) {
	w.base58Fixed("senderPublicKey", s, crypto.PublicKeyLength)
}

// optionalAsset writes 0 for the native asset, otherwise 1 followed by the 32 byte asset id.
func (w *payloadWriter) optionalAsset(field, assetId string) {
	if assetId == "" || assetId == nativeAssetId {
		w.writeByte(0)
		return
	}
	w.writeByte(1)
	w.base58Fixed(field, assetId, assetIdLength)
}

func (w *payloadWriter) attachment(s string) {
	if w.err != nil {
		return
	}
	b, err := crypto.DecodeBase58(s)
	if err != nil {
		w.fail("attachment", err)
		return
	}
	if len(b) > maxAttachment {
		w.fail("attachment", fmt.Errorf("exceeds %d bytes", maxAttachment))
		return
	}
	w.bytesWithSize("attachment", b)
}

func (w *payloadWriter) aliasBytes(alias string) []byte {
	var inner bytes.Buffer
	inner.WriteByte(aliasVersion)
	inner.WriteByte(w.chainId)
	var size [2]byte
	binary.BigEndian.PutUint16(size[:], uint16(len(alias)))
	inner.Write(size[:])
	inner.WriteString(alias)
	return inner.Bytes()
}

func validateAlias(alias string) error {
	if len(alias) < minAliasLen || len(alias) > maxAliasLen {
		return fmt.Errorf("alias length must be between %d and %d, got %d", minAliasLen, maxAliasLen, len(alias))
	}
	return nil
}

// recipient writes either a 26 byte address or an alias ("alias:<chain>:<name>" or a bare name).
func (w *payloadWriter) recipient(field, r string) {
	if w.err != nil {
		return
	}
	if strings.HasPrefix(r, aliasPrefix) {
		parts := strings.SplitN(strings.TrimPrefix(r, aliasPrefix), ":", 2)
		if len(parts) != 2 || len(parts[0]) != 1 {
			w.fail(field, fmt.Errorf("malformed alias %q", r))
			return
		}
		if parts[0][0] != w.chainId {
			w.fail(field, fmt.Errorf("alias chain id %q does not match %q", parts[0][0], w.chainId))
			return
		}
		w.alias(field, parts[1])
		return
	}
	if len(r) <= maxAliasLen {
		w.alias(field, r)
		return
	}
	w.base58Fixed(field, r, crypto.AddressLength)
}

func (w *payloadWriter) alias(field, name string) {
	if err := validateAlias(name); err != nil {
		w.fail(field, err)
		return
	}
	w.raw(w.aliasBytes(name))
}

func (w *payloadWriter) finish() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}
