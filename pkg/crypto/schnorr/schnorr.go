// Package schnorr implements the non-interactive Schnorr zero-knowledge
// proof of knowledge of a discrete logarithm, made non-interactive with the
// Fiat-Shamir heuristic (RFC 8235).
//
// A proof demonstrates knowledge of x such that X = B*x for a base point B.
// The base is not always the curve generator: Owl verifies proofs over
// composite bases such as X1+X2+X3. The challenge binds the base, the
// commitment, the public value, and the prover's identity string, so a proof
// transplanted to a different base, statement, or identity fails to verify.
package schnorr

import (
	"io"
	"math/big"

	"github.com/backkem/owl/pkg/crypto"
)

// Proof is a Schnorr NIZK proof. H is the Fiat-Shamir challenge and R the
// response, both scalars in [0, n). Validity is established only by Verify.
type Proof struct {
	H *big.Int
	R *big.Int
}

// Clone returns an independent copy of the proof.
func (p *Proof) Clone() *Proof {
	if p == nil {
		return nil
	}
	return &Proof{H: new(big.Int).Set(p.H), R: new(big.Int).Set(p.R)}
}

// wellFormed reports whether the proof's scalars are present and in [0, n).
func (p *Proof) wellFormed(c crypto.Curve) bool {
	if p == nil || p.H == nil || p.R == nil {
		return false
	}
	n := c.Order()
	return p.H.Sign() >= 0 && p.H.Cmp(n) < 0 &&
		p.R.Sign() >= 0 && p.R.Cmp(n) < 0
}

// challenge computes the Fiat-Shamir challenge
// h = H(B, V, X, prover) reduced mod n.
func challenge(c crypto.Curve, base, commitment, public *crypto.Point, prover string) *big.Int {
	return crypto.NewTranscript(c).
		AddPoint(base).
		AddPoint(commitment).
		AddPoint(public).
		AddString(prover).
		SumScalar()
}

// Prove creates a proof of knowledge of x with public = base*x, bound to the
// prover identity string. rnd supplies the commitment randomness; nil falls
// back to crypto/rand.
func Prove(rnd io.Reader, c crypto.Curve, x *big.Int, base, public *crypto.Point, prover string) (*Proof, error) {
	v, err := c.RandScalar(rnd)
	if err != nil {
		return nil, err
	}
	commitment := c.ScalarMult(base, v)

	h := challenge(c, base, commitment, public, prover)

	// r = v - x*h over the integers, then reduced into [0, n).
	r := c.ModN(new(big.Int).Sub(v, new(big.Int).Mul(x, h)))

	crypto.ZeroizeScalar(v)

	return &Proof{H: h, R: r}, nil
}

// Verify checks a proof of knowledge of the discrete log of public to the
// given base, bound to the prover identity. The public point is validated
// before any arithmetic; malformed proofs and invalid points verify false,
// never panic.
func Verify(c crypto.Curve, proof *Proof, base, public *crypto.Point, prover string) bool {
	if !proof.wellFormed(c) {
		return false
	}
	if !c.IsOnCurve(public) {
		return false
	}

	// V' = B*r + X*h must reproduce the committed point.
	commitment := c.Add(c.ScalarMult(base, proof.R), c.ScalarMult(public, proof.H))
	if commitment.IsIdentity() {
		return false
	}

	return challenge(c, base, commitment, public, prover).Cmp(proof.H) == 0
}
