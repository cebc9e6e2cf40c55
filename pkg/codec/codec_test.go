package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
	"github.com/dex-wallet/wallet-session-go/pkg/testutil"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EncodersCoverEverySignType(t *testing.T) {
	for _, st := range types.AllSignTypes() {
		assert.True(t, HasEncoder(st), "missing encoder for %s", st)
	}
	assert.Len(t, encoders, len(types.AllSignTypes()))
}

func Test_WavesCodec_Encode(t *testing.T) {
	codec := NewWavesCodec(testutil.TestChainId)
	sender := testutil.CreateTestAccount(t, 0)
	recipient := testutil.CreateTestAccount(t, 1)
	payloads := testutil.CreateTestPayloads(t, sender, recipient)

	pubKey, err := crypto.DecodeBase58(sender.KeyPair.PublicKey)
	require.NoError(t, err)

	t.Run("Should encode every well formed payload", func(t *testing.T) {
		for st, payload := range payloads {
			b, err := codec.Encode(payload)
			require.NoError(t, err, "tag %s", st)
			assert.NotEmpty(t, b, "tag %s", st)
		}
	})

	t.Run("Should encode matcher orders as public key and timestamp", func(t *testing.T) {
		b, err := codec.Encode(payloads[types.SignTypeMatcherOrders])
		require.NoError(t, err)
		require.Len(t, b, 40)
		assert.Equal(t, pubKey, b[:32])
		assert.Equal(t, uint64(testutil.TestTimestamp), binary.BigEndian.Uint64(b[32:]))
	})

	t.Run("Should encode auth as length prefixed strings", func(t *testing.T) {
		b, err := codec.Encode(&types.AuthData{Prefix: "ab", Host: "c", Data: ""})
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 2, 'a', 'b', 0, 1, 'c', 0, 0}, b)
	})

	t.Run("Should encode transfer with type byte and fixed layout", func(t *testing.T) {
		b, err := codec.Encode(payloads[types.SignTypeTransfer])
		require.NoError(t, err)

		// type, pubkey, asset flag+id, fee asset flag, timestamp, amount, fee, address, attachment
		expectedLen := 1 + 32 + 33 + 1 + 8 + 8 + 8 + crypto.AddressLength + 2 + len("hello")
		require.Len(t, b, expectedLen)
		assert.Equal(t, txTypeTransfer, b[0])
		assert.Equal(t, pubKey, b[1:33])
		assert.Equal(t, byte(1), b[33])
		assert.Equal(t, byte(0), b[66])
		assert.Equal(t, uint64(testutil.TestTimestamp), binary.BigEndian.Uint64(b[67:75]))
		assert.Equal(t, uint64(100000000), binary.BigEndian.Uint64(b[75:83]))
	})

	t.Run("Should match the golden layout of every transaction tag", func(t *testing.T) {
		recipientAddr, err := crypto.DecodeBase58(recipient.Address)
		require.NoError(t, err)
		assetId := bytes.Repeat([]byte{1}, 32)
		leaseId := bytes.Repeat([]byte{7}, 32)

		fee := []byte{0, 0, 0, 0, 0, 0x01, 0x86, 0xa0}
		timestamp := []byte{0, 0, 0x01, 0x8b, 0xcf, 0xe5, 0x68, 0x00}
		aliasRecipient := join([]byte{2, 'T', 0, 8}, []byte("my-alias"))

		golden := map[types.SignType][]byte{
			types.SignTypeIssue: join(
				[]byte{3}, pubKey,
				[]byte{0, 5}, []byte("Token"),
				[]byte{0, 10}, []byte("test token"),
				[]byte{0, 0, 0, 0x17, 0x48, 0x76, 0xe8, 0x00},
				[]byte{8},
				[]byte{1},
				fee, timestamp,
			),
			types.SignTypeTransfer: join(
				[]byte{4}, pubKey,
				[]byte{1}, assetId,
				[]byte{0},
				timestamp,
				[]byte{0, 0, 0, 0, 0x05, 0xf5, 0xe1, 0x00},
				fee,
				recipientAddr,
				[]byte{0, 5}, []byte("hello"),
			),
			types.SignTypeReissue: join(
				[]byte{5}, pubKey,
				assetId,
				[]byte{0, 0, 0, 0, 0, 0, 0x01, 0xf4},
				[]byte{0},
				fee, timestamp,
			),
			types.SignTypeBurn: join(
				[]byte{6}, pubKey,
				assetId,
				[]byte{0, 0, 0, 0, 0, 0, 0, 0x2a},
				fee, timestamp,
			),
			types.SignTypeLease: join(
				[]byte{8}, pubKey,
				recipientAddr,
				[]byte{0, 0, 0, 0, 0, 0, 0x03, 0xe8},
				fee, timestamp,
			),
			types.SignTypeCancelLeasing: join(
				[]byte{9}, pubKey,
				fee, timestamp,
				leaseId,
			),
			types.SignTypeCreateAlias: join(
				[]byte{10}, pubKey,
				[]byte{0, 12}, aliasRecipient,
				fee, timestamp,
			),
			types.SignTypeMassTransfer: join(
				[]byte{11, 1}, pubKey,
				[]byte{0},
				[]byte{0, 2},
				recipientAddr, []byte{0, 0, 0, 0, 0, 0, 0, 10},
				aliasRecipient, []byte{0, 0, 0, 0, 0, 0, 0, 20},
				timestamp, fee,
				[]byte{0, 5}, []byte("hello"),
			),
		}

		for st, expected := range golden {
			t.Run(st.String(), func(t *testing.T) {
				b, err := codec.Encode(payloads[st])
				require.NoError(t, err)
				assert.Equal(t, expected, b)
			})
		}
	})

	t.Run("Should produce identical bytes for identical payloads", func(t *testing.T) {
		first, err := codec.Encode(payloads[types.SignTypeMassTransfer])
		require.NoError(t, err)
		second, err := codec.Encode(payloads[types.SignTypeMassTransfer])
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("Should reject tags outside the closed set", func(t *testing.T) {
		for _, tag := range []types.SignType{2, 7, 12, -1} {
			_, err := codec.Encode(testutil.UnknownPayload{AuthData: &types.AuthData{}, Tag: tag})
			assert.ErrorIs(t, err, types.ErrUnsupportedPayloadTag)
		}
	})

	t.Run("Should reject nil payloads", func(t *testing.T) {
		_, err := codec.Encode(nil)
		assert.ErrorIs(t, err, types.ErrUnsupportedPayloadTag)

		var transfer *types.TransferData
		_, err = codec.Encode(transfer)
		assert.ErrorIs(t, err, types.ErrUnsupportedPayloadTag)
	})

	t.Run("Should reject payloads whose shape does not match the tag", func(t *testing.T) {
		_, err := codec.Encode(testutil.UnknownPayload{AuthData: &types.AuthData{}, Tag: types.SignTypeTransfer})
		assert.ErrorIs(t, err, types.ErrUnsupportedPayloadTag)
	})

	t.Run("Should fail on invalid field values", func(t *testing.T) {
		_, err := codec.Encode(&types.MatcherOrdersData{SenderPublicKey: "not-base58-0OIl", Timestamp: 1})
		assert.ErrorIs(t, err, types.ErrInvalidPayload)

		_, err = codec.Encode(&types.MatcherOrdersData{SenderPublicKey: testutil.CreateTestId(1)[:10], Timestamp: 1})
		assert.ErrorIs(t, err, types.ErrInvalidPayload)

		_, err = codec.Encode(&types.BurnData{
			TxCommon: types.TxCommon{SenderPublicKey: sender.KeyPair.PublicKey, Fee: -1},
			AssetID:  testutil.CreateTestId(1),
		})
		assert.ErrorIs(t, err, types.ErrInvalidPayload)
	})

	t.Run("Should reject aliases for another chain", func(t *testing.T) {
		_, err := codec.Encode(&types.LeaseData{
			TxCommon:  types.TxCommon{SenderPublicKey: sender.KeyPair.PublicKey},
			Amount:    1,
			Recipient: "alias:W:my-alias",
		})
		assert.ErrorIs(t, err, types.ErrInvalidPayload)
	})

	t.Run("Should reject too short aliases", func(t *testing.T) {
		_, err := codec.Encode(&types.CreateAliasData{
			TxCommon: types.TxCommon{SenderPublicKey: sender.KeyPair.PublicKey},
			Alias:    "abc",
		})
		assert.ErrorIs(t, err, types.ErrInvalidPayload)
	})
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}
