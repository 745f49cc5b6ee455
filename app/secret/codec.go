// Package secret implements the encrypted X-API-Secret header: a JSON
// payload of the shared secret and a millisecond timestamp, AES encrypted in
// ECB mode with PKCS#7 padding and base64 encoded.
//
// The key ships with every client, so the header only deters casual direct
// use of the API. It is not authentication.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	HeaderName       = "X-API-Secret"
	LegacyHeaderName = "X-App-Secret"

	DefaultMaxSkew = 30 * time.Second
)

var (
	ErrForbidden = errors.New("invalid api secret")
	ErrStale     = errors.New("api secret timestamp outside the allowed window")
)

type payload struct {
	APISecret string `json:"apiSecret"`
	Timestamp int64  `json:"timestamp"`
}

type Codec struct {
	secret  string
	block   cipher.Block
	maxSkew time.Duration
}

// NewCodec builds a codec for the given secret and key. The key must be 16,
// 24 or 32 bytes long. A zero maxSkew selects DefaultMaxSkew.
func NewCodec(secret, key string, maxSkew time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("api secret must not be empty")
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	return &Codec{secret: secret, block: block, maxSkew: maxSkew}, nil
}

// Encode produces a header value stamped with now.
func (c *Codec) Encode(now time.Time) (string, error) {
	return c.encode(c.secret, now)
}

func (c *Codec) encode(secret string, now time.Time) (string, error) {
	plain, err := json.Marshal(payload{APISecret: secret, Timestamp: now.UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("failed to marshal secret payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(c.encrypt(plain)), nil
}

// Verify checks a header value. It returns ErrForbidden for anything that
// does not decrypt to the configured secret and ErrStale when the timestamp
// is further than maxSkew from now.
func (c *Codec) Verify(header string, now time.Time) error {
	if header == "" {
		return fmt.Errorf("%w: header missing", ErrForbidden)
	}
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	plain, err := c.decrypt(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}

	var p payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	if subtle.ConstantTimeCompare([]byte(p.APISecret), []byte(c.secret)) != 1 {
		return ErrForbidden
	}

	skew := now.Sub(time.UnixMilli(p.Timestamp)).Abs()
	if skew > c.maxSkew {
		return fmt.Errorf("%w: skew %s", ErrStale, skew)
	}
	return nil
}

func (c *Codec) encrypt(plain []byte) []byte {
	size := c.block.BlockSize()
	padded := pad(plain, size)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += size {
		c.block.Encrypt(out[i:i+size], padded[i:i+size])
	}
	return out
}

func (c *Codec) decrypt(data []byte) ([]byte, error) {
	size := c.block.BlockSize()
	if len(data) == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(data))
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += size {
		c.block.Decrypt(out[i:i+size], data[i:i+size])
	}
	return unpad(out, size)
}

func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	padded := make([]byte, len(data), len(data)+n)
	copy(padded, data)
	for i := 0; i < n; i++ {
		padded = append(padded, byte(n))
	}
	return padded
}

func unpad(data []byte, size int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
