package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"
)

// HMACSHA256 computes the HMAC-SHA256 of a message using the given key.
// The key-confirmation tags are computed this way, keyed by the canonical
// encoding of the shared point over a framed Transcript serialization.
//
// Returns a 32-byte (256-bit) MAC.
func HMACSHA256(key, message []byte) [SHA256LenBytes]byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	var result [SHA256LenBytes]byte
	copy(result[:], h.Sum(nil))
	return result
}

// HMACSHA256Slice computes the HMAC-SHA256 and returns it as a slice.
func HMACSHA256Slice(key, message []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	return h.Sum(nil)
}

// NewHMACSHA256 returns a new hash.Hash for computing HMAC-SHA256
// incrementally over streamed data.
func NewHMACSHA256(key []byte) hash.Hash {
	return hmac.New(sha256.New, key)
}

// HMACEqual compares two MACs for equality in constant time. Every
// comparison of key-confirmation tags must go through this; bytes.Equal
// would let a byte-at-a-time attacker forge a tag from timing.
func HMACEqual(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}
