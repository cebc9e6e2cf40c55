package persistence

import (
	"testing"
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/assets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMarshalUnmarshalAssetRecord_RoundTrip tests JSON marshaling/unmarshaling
func TestMarshalUnmarshalAssetRecord_RoundTrip(t *testing.T) {
	original := NewAssetRecord(&assets.Asset{
		ID:          "8LQW8f7P5d5PZM7GtZEBgaqRPGSzS3DfPuiXrURJ4AJS",
		Name:        "BTC",
		Description: "Bitcoin token",
		Precision:   8,
		Reissuable:  true,
		Rounding:    assets.RoundHalfUp,
	})

	data, err := MarshalAssetRecord(original)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	restored, err := UnmarshalAssetRecord(data)
	require.NoError(t, err)
	require.NotNil(t, restored)

	assert.Equal(t, original.Asset, restored.Asset)
	assert.Equal(t, original.CachedAt, restored.CachedAt)
}

// TestMarshalAssetRecord_NilInput tests error handling for nil input
func TestMarshalAssetRecord_NilInput(t *testing.T) {
	_, err := MarshalAssetRecord(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil AssetRecord")

	_, err = MarshalAssetRecord(&AssetRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid asset")
}

// TestUnmarshalAssetRecord_InvalidJSON tests error handling for invalid JSON
func TestUnmarshalAssetRecord_InvalidJSON(t *testing.T) {
	_, err := UnmarshalAssetRecord([]byte(`{"asset": {"precision": "eight"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")

	_, err = UnmarshalAssetRecord(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty data")

	_, err = UnmarshalAssetRecord([]byte(`{"asset": {"id": "x", "precision": 12}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestAssetRecord_IsExpired(t *testing.T) {
	record := NewAssetRecord(&assets.Asset{ID: "x", Name: "X"})
	assert.False(t, record.IsExpired(0))
	assert.False(t, record.IsExpired(time.Hour))

	record.CachedAt = time.Now().Add(-2 * time.Hour).Unix()
	assert.True(t, record.IsExpired(time.Hour))
	assert.False(t, record.IsExpired(0))

	var missing *AssetRecord
	assert.True(t, missing.IsExpired(time.Hour))
}

func TestCopyAsset(t *testing.T) {
	original := &assets.Asset{ID: "x", Name: "X"}
	c := CopyAsset(original)
	c.Name = "changed"
	assert.Equal(t, "X", original.Name)
	assert.Nil(t, CopyAsset(nil))
}
