package crypto

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// Password-stretching parameter bounds.
const (
	// PBKDF2IterationsMin is the minimum accepted iteration count.
	PBKDF2IterationsMin = 1000

	// PBKDF2IterationsMax is the maximum accepted iteration count.
	PBKDF2IterationsMax = 1000000

	// PBKDF2MinSaltLength is the minimum accepted salt length in bytes.
	PBKDF2MinSaltLength = 16

	// StretchedPasswordLen is the byte length StretchPassword derives.
	StretchedPasswordLen = SHA256LenBytes
)

// Errors for password stretching.
var (
	ErrInvalidIterations = errors.New("crypto: pbkdf2 iteration count out of range")
	ErrInvalidSalt       = errors.New("crypto: pbkdf2 salt too short")
)

// HKDFSHA256 derives key material using HKDF-SHA256 (RFC 5869).
//
// Parameters:
//   - inputKey: Input keying material (IKM)
//   - salt: Optional salt value (can be nil or empty)
//   - info: Optional context/application-specific info (can be nil or empty)
//   - length: Number of bytes to derive
//
// Returns the derived key material of the specified length.
func HKDFSHA256(inputKey, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputKey, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// PBKDF2SHA256 derives a key from a password using PBKDF2-HMAC-SHA256
// (NIST 800-132).
func PBKDF2SHA256(password, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key(password, salt, iterations, keyLen, sha256.New)
}

// StretchPassword runs a password through PBKDF2-HMAC-SHA256 and returns the
// 32-byte stretched value that replaces the raw password in registration and
// login. The protocol itself hashes whatever password bytes it is given;
// stretching first is what buys offline dictionary resistance for the
// server-held record, so registration and every later login must use the
// same salt and iteration count.
func StretchPassword(password, salt []byte, iterations int) ([]byte, error) {
	if iterations < PBKDF2IterationsMin || iterations > PBKDF2IterationsMax {
		return nil, ErrInvalidIterations
	}
	if len(salt) < PBKDF2MinSaltLength {
		return nil, ErrInvalidSalt
	}
	return pbkdf2.Key(password, salt, iterations, StretchedPasswordLen, sha256.New), nil
}
