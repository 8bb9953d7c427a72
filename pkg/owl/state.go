package owl

import (
	"math/big"

	"github.com/backkem/owl/pkg/crypto"
	"github.com/backkem/owl/pkg/crypto/schnorr"
)

// ClientState carries the client's secrets between login flows 1 and 3.
// It is consumed exactly once by AuthFinish, which zeroizes it on every
// exit path. A caller abandoning a login must call Zeroize itself.
type ClientState struct {
	username string

	t, pi  *big.Int
	x1, x2 *big.Int

	X1, X2   *crypto.Point
	PI1, PI2 *schnorr.Proof

	consumed bool
}

// Zeroize overwrites all secret scalars and marks the state consumed.
// Safe to call more than once.
func (s *ClientState) Zeroize() {
	if s == nil {
		return
	}
	crypto.ZeroizeScalars(s.t, s.pi, s.x1, s.x2)
	s.consumed = true
}

// ServerState carries the server's secrets between login flow 2 and the
// finish step. Consumed exactly once by AuthFinish; same zeroization
// contract as ClientState. Callers should expire stale states and Zeroize
// them (pkg/auth does both).
type ServerState struct {
	username string

	T      *crypto.Point
	pi, x4 *big.Int

	X1, X2, X3, X4 *crypto.Point
	Beta           *crypto.Point

	PI1, PI2, PI3, PI4 *schnorr.Proof
	PIBeta             *schnorr.Proof

	consumed bool
}

// Zeroize overwrites all secret scalars and marks the state consumed.
// Safe to call more than once.
func (s *ServerState) Zeroize() {
	if s == nil {
		return
	}
	crypto.ZeroizeScalars(s.pi, s.x4)
	s.consumed = true
}
