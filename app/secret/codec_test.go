package secret

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef"

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("s3cret", testKey, 0)
	require.NoError(t, err)
	return codec
}

func TestNewCodecRejectsBadKey(t *testing.T) {
	_, err := NewCodec("s3cret", "short", 0)
	assert.Error(t, err)

	_, err = NewCodec("", testKey, 0)
	assert.Error(t, err)
}

func TestEncodeVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.UnixMilli(1_700_000_000_000)

	header, err := codec.Encode(now)
	require.NoError(t, err)

	assert.NoError(t, codec.Verify(header, now))
	assert.NoError(t, codec.Verify(header, now.Add(29*time.Second)))
}

func TestVerifyWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	header, err := codec.encode("WRONG", now)
	require.NoError(t, err)

	assert.ErrorIs(t, codec.Verify(header, now), ErrForbidden)
}

func TestVerifyStaleTimestamp(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	header, err := codec.Encode(now.Add(-45 * time.Second))
	require.NoError(t, err)

	err = codec.Verify(header, now)
	assert.ErrorIs(t, err, ErrStale)
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestVerifyFutureTimestamp(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	header, err := codec.Encode(now.Add(45 * time.Second))
	require.NoError(t, err)

	assert.ErrorIs(t, codec.Verify(header, now), ErrStale)
}

func TestVerifyMalformedHeaders(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	other, err := NewCodec("s3cret", "fedcba9876543210", 0)
	require.NoError(t, err)
	foreign, err := other.Encode(now)
	require.NoError(t, err)

	tests := map[string]string{
		"missing":     "",
		"not base64":  "%%%",
		"short block": base64.StdEncoding.EncodeToString([]byte("abc")),
		"plain json":  base64.StdEncoding.EncodeToString([]byte(`{"apiSecret":"s3cret","timestamp":1}`)),
		"foreign key": foreign,
		"not json":    base64.StdEncoding.EncodeToString(codec.encrypt([]byte("hello"))),
	}

	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, codec.Verify(header, now), ErrForbidden)
		})
	}
}

func TestPadding(t *testing.T) {
	padded := pad([]byte("0123456789abcdef"), 16)
	assert.Len(t, padded, 32)
	assert.Equal(t, byte(16), padded[31])

	plain, err := unpad(padded, 16)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", string(plain))
}
