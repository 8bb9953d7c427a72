package crypto

import (
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Curve identifies one of the supported prime-order groups. All three NIST
// curves have cofactor 1, so every point on the curve other than the identity
// lies in the prime-order subgroup generated by the base point.
type Curve int

const (
	// P256 is NIST P-256 (secp256r1).
	P256 Curve = iota
	// P384 is NIST P-384 (secp384r1).
	P384
	// P521 is NIST P-521 (secp521r1).
	P521
)

// String returns the curve name.
func (c Curve) String() string {
	switch c {
	case P256:
		return "P-256"
	case P384:
		return "P-384"
	case P521:
		return "P-521"
	default:
		return "Unknown"
	}
}

// Errors for group operations.
var (
	ErrUnknownCurve     = errors.New("crypto: unknown curve")
	ErrInvalidPoint     = errors.New("crypto: invalid point encoding")
	ErrPointNotOnCurve  = errors.New("crypto: point is not on the curve")
	ErrIdentityPoint    = errors.New("crypto: point is the identity element")
	ErrInvalidScalar    = errors.New("crypto: invalid scalar encoding")
	ErrScalarOutOfRange = errors.New("crypto: scalar is out of range")
)

// Point is an affine point of the curve's prime-order group. The identity
// element (point at infinity) is represented as (0, 0), matching the
// crypto/elliptic convention.
type Point struct {
	X, Y *big.Int
}

// IsIdentity reports whether p is the group's identity element.
func (p *Point) IsIdentity() bool {
	return p == nil || p.X == nil || p.Y == nil ||
		(p.X.Sign() == 0 && p.Y.Sign() == 0)
}

// Equal reports whether p and q are the same point.
func (p *Point) Equal(q *Point) bool {
	if p.IsIdentity() || q.IsIdentity() {
		return p.IsIdentity() && q.IsIdentity()
	}
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// Clone returns an independent copy of p.
func (p *Point) Clone() *Point {
	if p == nil {
		return nil
	}
	return &Point{X: new(big.Int).Set(p.X), Y: new(big.Int).Set(p.Y)}
}

// ec returns the underlying crypto/elliptic curve.
func (c Curve) ec() elliptic.Curve {
	switch c {
	case P256:
		return elliptic.P256()
	case P384:
		return elliptic.P384()
	case P521:
		return elliptic.P521()
	default:
		panic(ErrUnknownCurve)
	}
}

// Valid reports whether c names a supported curve.
func (c Curve) Valid() bool {
	return c == P256 || c == P384 || c == P521
}

// Order returns the prime order n of the base-point subgroup.
func (c Curve) Order() *big.Int {
	return c.ec().Params().N
}

// ScalarSize returns the byte length of a fixed-width scalar encoding,
// the byte length of the group order.
func (c Curve) ScalarSize() int {
	return (c.ec().Params().N.BitLen() + 7) / 8
}

// fieldSize returns the byte length of a field element.
func (c Curve) fieldSize() int {
	return (c.ec().Params().BitSize + 7) / 8
}

// PointSize returns the byte length of the canonical uncompressed point
// encoding: 0x04 || X || Y.
func (c Curve) PointSize() int {
	return 1 + 2*c.fieldSize()
}

// Generator returns the standard base point G.
func (c Curve) Generator() *Point {
	params := c.ec().Params()
	return &Point{X: new(big.Int).Set(params.Gx), Y: new(big.Int).Set(params.Gy)}
}

// RandScalar returns a uniformly random scalar in [1, n-1] read from r.
// It never returns 0. A nil reader falls back to crypto/rand.
func (c Curve) RandScalar(r io.Reader) (*big.Int, error) {
	if r == nil {
		r = rand.Reader
	}
	n := c.Order()
	buf := make([]byte, c.ScalarSize())
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("crypto: reading random scalar: %w", err)
		}
		k := new(big.Int).SetBytes(buf)
		if k.Sign() > 0 && k.Cmp(n) < 0 {
			ZeroizeBytes(buf)
			return k, nil
		}
	}
}

// ModN reduces a signed big integer into [0, n). The result is a new integer;
// the input is not modified.
func (c Curve) ModN(z *big.Int) *big.Int {
	return new(big.Int).Mod(z, c.Order())
}

// MulModN returns a*b mod n as a new integer.
func (c Curve) MulModN(a, b *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Mul(a, b), c.Order())
}

// ScalarBaseMult computes G*k.
func (c Curve) ScalarBaseMult(k *big.Int) *Point {
	x, y := c.ec().ScalarBaseMult(c.EncodeScalar(k))
	return &Point{X: x, Y: y}
}

// ScalarMult computes P*k.
func (c Curve) ScalarMult(p *Point, k *big.Int) *Point {
	x, y := c.ec().ScalarMult(p.X, p.Y, c.EncodeScalar(k))
	return &Point{X: x, Y: y}
}

// Add computes P+Q.
func (c Curve) Add(p, q *Point) *Point {
	x, y := c.ec().Add(p.X, p.Y, q.X, q.Y)
	return &Point{X: x, Y: y}
}

// Sub computes P-Q as P + (-Q), where -Q is (Qx, -Qy mod p).
func (c Curve) Sub(p, q *Point) *Point {
	if q.IsIdentity() {
		return p.Clone()
	}
	negY := new(big.Int).Neg(q.Y)
	negY.Mod(negY, c.ec().Params().P)
	x, y := c.ec().Add(p.X, p.Y, q.X, negY)
	return &Point{X: x, Y: y}
}

// IsOnCurve reports whether p is a valid element of the prime-order group:
// coordinates in range, satisfying the curve equation, and not the identity.
// Cofactor 1 makes a small-order check unnecessary.
func (c Curve) IsOnCurve(p *Point) bool {
	if p == nil || p.X == nil || p.Y == nil || p.IsIdentity() {
		return false
	}
	params := c.ec().Params()
	if p.X.Sign() < 0 || p.X.Cmp(params.P) >= 0 ||
		p.Y.Sign() < 0 || p.Y.Cmp(params.P) >= 0 {
		return false
	}
	return c.ec().IsOnCurve(p.X, p.Y)
}

// EncodePoint returns the canonical uncompressed SEC1 encoding
// 0x04 || X || Y with fixed-width coordinates. The identity element has no
// encoding; encoding it is an error.
func (c Curve) EncodePoint(p *Point) ([]byte, error) {
	if p.IsIdentity() {
		return nil, ErrIdentityPoint
	}
	return c.rawEncodePoint(p), nil
}

// rawEncodePoint encodes without the identity guard. Callers must have
// validated the point.
func (c Curve) rawEncodePoint(p *Point) []byte {
	size := c.fieldSize()
	out := make([]byte, c.PointSize())
	out[0] = 0x04
	p.X.FillBytes(out[1 : 1+size])
	p.Y.FillBytes(out[1+size:])
	return out
}

// DecodePoint parses and fully validates a canonical uncompressed point
// encoding. It fails for wrong lengths, a missing 0x04 prefix, coordinates
// outside the field, points off the curve, and the identity.
func (c Curve) DecodePoint(data []byte) (*Point, error) {
	if len(data) != c.PointSize() {
		return nil, ErrInvalidPoint
	}
	if data[0] != 0x04 {
		return nil, ErrInvalidPoint
	}
	size := c.fieldSize()
	p := &Point{
		X: new(big.Int).SetBytes(data[1 : 1+size]),
		Y: new(big.Int).SetBytes(data[1+size:]),
	}
	if p.IsIdentity() {
		return nil, ErrIdentityPoint
	}
	if !c.IsOnCurve(p) {
		return nil, ErrPointNotOnCurve
	}
	return p, nil
}

// EncodeScalar returns the fixed-width big-endian encoding of s, the same
// byte length as the group order. s must be in [0, n).
func (c Curve) EncodeScalar(s *big.Int) []byte {
	out := make([]byte, c.ScalarSize())
	s.FillBytes(out)
	return out
}

// DecodeScalar parses a fixed-width big-endian scalar and checks it lies
// in [0, n).
func (c Curve) DecodeScalar(data []byte) (*big.Int, error) {
	if len(data) != c.ScalarSize() {
		return nil, ErrInvalidScalar
	}
	s := new(big.Int).SetBytes(data)
	if s.Cmp(c.Order()) >= 0 {
		return nil, ErrScalarOutOfRange
	}
	return s, nil
}
