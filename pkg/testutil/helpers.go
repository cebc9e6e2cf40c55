package testutil

import (
	"bytes"
	"testing"

	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
)

const (
	TestSeed      = "manage manual recall harvest series desert melt police rose hollow moral pledge kitten position add"
	TestChainId   = crypto.ChainIdTestnet
	TestTimestamp = int64(1700000000000)
)

// TestAccount is a deterministic key pair and address derived from TestSeed.
type TestAccount struct {
	KeyPair *types.KeyPair
	Address string
}

// CreateTestAccount derives an account from TestSeed with the given nonce.
func CreateTestAccount(t *testing.T, nonce uint32) *TestAccount {
	t.Helper()

	kp, err := crypto.KeyPairFromSeed(TestSeed, nonce)
	if err != nil {
		t.Fatalf("Failed to derive key pair: %v", err)
	}
	addr, err := crypto.AddressFromPublicKey(kp.PublicKey, TestChainId)
	if err != nil {
		t.Fatalf("Failed to derive address: %v", err)
	}
	return &TestAccount{KeyPair: kp, Address: addr}
}

// CreateTestId returns a base58 encoded 32 byte id filled with b.
func CreateTestId(b byte) string {
	return crypto.EncodeBase58(bytes.Repeat([]byte{b}, 32))
}

// CreateTestPayloads returns one well formed payload per sign type, all sent by sender.
func CreateTestPayloads(t *testing.T, sender *TestAccount, recipient *TestAccount) map[types.SignType]types.SignPayload {
	t.Helper()

	common := types.TxCommon{
		Sender:          sender.Address,
		SenderPublicKey: sender.KeyPair.PublicKey,
		Fee:             100000,
		Timestamp:       TestTimestamp,
	}
	attachment := crypto.EncodeBase58([]byte("hello"))

	return map[types.SignType]types.SignPayload{
		types.SignTypeAuth: &types.AuthData{
			Prefix: "WavesWalletAuthentication",
			Host:   "dex.example.com",
			Data:   "session-nonce",
		},
		types.SignTypeMatcherOrders: &types.MatcherOrdersData{
			SenderPublicKey: sender.KeyPair.PublicKey,
			Timestamp:       TestTimestamp,
		},
		types.SignTypeIssue: &types.IssueData{
			TxCommon:    common,
			Name:        "Token",
			Description: "test token",
			Precision:   8,
			Quantity:    100000000000,
			Reissuable:  true,
		},
		types.SignTypeTransfer: &types.TransferData{
			TxCommon:   common,
			AssetID:    CreateTestId(1),
			FeeAssetID: "",
			Amount:     100000000,
			Attachment: attachment,
			Recipient:  recipient.Address,
		},
		types.SignTypeReissue: &types.ReissueData{
			TxCommon:   common,
			AssetID:    CreateTestId(1),
			Quantity:   500,
			Reissuable: false,
		},
		types.SignTypeBurn: &types.BurnData{
			TxCommon: common,
			AssetID:  CreateTestId(1),
			Quantity: 42,
		},
		types.SignTypeLease: &types.LeaseData{
			TxCommon:  common,
			Amount:    1000,
			Recipient: recipient.Address,
		},
		types.SignTypeCancelLeasing: &types.CancelLeasingData{
			TxCommon:      common,
			TransactionID: CreateTestId(7),
		},
		types.SignTypeCreateAlias: &types.CreateAliasData{
			TxCommon: common,
			Alias:    "my-alias",
		},
		types.SignTypeMassTransfer: &types.MassTransferData{
			TxCommon: common,
			AssetID:  "WAVES",
			Transfers: []types.MassTransferItem{
				{Recipient: recipient.Address, Amount: 10},
				{Recipient: "alias:T:my-alias", Amount: 20},
			},
			Attachment: attachment,
		},
	}
}

// UnknownPayload reports a sign type outside the closed set while still satisfying SignPayload.
type UnknownPayload struct {
	*types.AuthData
	Tag types.SignType
}

func (u UnknownPayload) SignType() types.SignType {
	return u.Tag
}
