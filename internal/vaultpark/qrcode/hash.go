package qrcode

import (
	"encoding/hex"
	"hash/fnv"

	"golang.org/x/crypto/blake2b"
)

const hashLen = 8

// Hasher derives the short integrity tag appended to a payload.
type Hasher interface {
	Sum(body string) string
}

// FNVHasher is the default, unkeyed tag. It only detects accidental
// corruption and hand edits; anyone can recompute it.
type FNVHasher struct{}

func (FNVHasher) Sum(body string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

// KeyedHasher tags payloads with BLAKE2b-256 keyed by a server-held secret,
// truncated to the same 8 hex characters as FNVHasher.
type KeyedHasher struct {
	key []byte
}

// NewKeyedHasher fails if key is longer than 64 bytes.
func NewKeyedHasher(key []byte) (*KeyedHasher, error) {
	if _, err := blake2b.New256(key); err != nil {
		return nil, err
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &KeyedHasher{key: k}, nil
}

func (k *KeyedHasher) Sum(body string) string {
	h, err := blake2b.New256(k.key)
	if err != nil {
		// key length was validated in NewKeyedHasher
		panic(err)
	}
	_, _ = h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))[:hashLen]
}
