package owl

import (
	"math/big"

	"github.com/backkem/owl/pkg/crypto"
	"github.com/backkem/owl/pkg/crypto/schnorr"
)

// RegistrationRequest is the client's one-shot registration message. It
// carries the password verifier pi and the point T = G*t; the password
// itself never leaves the client. The registration channel is assumed
// mutually authenticated and confidential by the deployment.
type RegistrationRequest struct {
	Pi *big.Int
	T  *crypto.Point
}

// UserCredentials is the server's persisted per-user record. X3 and PI3 are
// the server's long-term share and its proof; Pi and T come from
// registration. The record is sensitive (it admits an offline dictionary
// attack) but does not contain the password.
type UserCredentials struct {
	X3  *crypto.Point
	PI3 *schnorr.Proof
	Pi  *big.Int
	T   *crypto.Point
}

// Clone returns a deep copy of the credentials.
func (c *UserCredentials) Clone() *UserCredentials {
	if c == nil {
		return nil
	}
	return &UserCredentials{
		X3:  c.X3.Clone(),
		PI3: c.PI3.Clone(),
		Pi:  new(big.Int).Set(c.Pi),
		T:   c.T.Clone(),
	}
}

// AuthInitRequest is login flow 1, client to server: the client's two
// ephemeral shares with proofs of knowledge bound to the username.
type AuthInitRequest struct {
	X1, X2   *crypto.Point
	PI1, PI2 *schnorr.Proof
}

// AuthInitResponse is login flow 2, server to client: the server's long-term
// and ephemeral shares, and beta = (X1+X2+X3)*(x4*pi) with its proof over
// that composite base.
type AuthInitResponse struct {
	X3, X4   *crypto.Point
	PI3, PI4 *schnorr.Proof
	Beta     *crypto.Point
	PIBeta   *schnorr.Proof
}

// AuthFinishRequest is login flow 3, client to server: alpha with its proof
// over the base X1+X3+X4, and the transcript-bound response r that the
// server's password check G*r + T*h == X1 closes over.
type AuthFinishRequest struct {
	Alpha   *crypto.Point
	PIAlpha *schnorr.Proof
	R       *big.Int
}

// AuthFinishResult is the terminal output on each side of a successful
// exchange.
type AuthFinishResult struct {
	// Key is the 32-byte session key, SHA-256 of the shared point K.
	Key []byte

	// KC is the key-confirmation tag to transmit to the peer.
	KC []byte

	// KCTest is the tag expected from the peer. Compare against the
	// received tag with VerifyKeyConfirmation only.
	KCTest []byte
}
