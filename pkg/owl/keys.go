package owl

import (
	"math/big"

	"github.com/backkem/owl/pkg/crypto"
	"github.com/backkem/owl/pkg/crypto/schnorr"
)

// sessionKeyLen is the byte length of the session key and of each expanded
// directional key.
const sessionKeyLen = crypto.SHA256LenBytes

// expandInfo is the HKDF info string for directional key expansion.
var expandInfo = []byte("OwlSessionKeys")

// deriveSecrets computes the password-derived scalars
//
//	t  = H(U, w)
//	pi = H(t)
//
// and rejects the 2^-256 case pi == 0, which would collapse beta.
func deriveSecrets(c crypto.Curve, username, password string) (t, pi *big.Int, err error) {
	t = crypto.NewTranscript(c).
		AddString(username).
		AddString(password).
		SumScalar()
	pi = crypto.NewTranscript(c).
		AddScalar(t).
		SumScalar()
	if pi.Sign() == 0 {
		crypto.ZeroizeScalars(t, pi)
		return nil, nil, ErrWeakPassword
	}
	return t, pi, nil
}

// transcriptHash computes the session transcript hash h binding the shared
// point K, both identities, every public share, and every proof component
// exchanged in the session, in flow order. Both sides compute it over
// identical values, so it doubles as the challenge the password check
// G*r + T*h == X1 closes over.
func transcriptHash(c crypto.Curve, k *crypto.Point, username string,
	x1, x2 *crypto.Point, pi1, pi2 *schnorr.Proof,
	serverID string,
	x3, x4 *crypto.Point, pi3, pi4 *schnorr.Proof,
	beta *crypto.Point, piBeta *schnorr.Proof,
	alpha *crypto.Point, piAlpha *schnorr.Proof) *big.Int {

	return crypto.NewTranscript(c).
		AddPoint(k).
		AddString(username).
		AddPoint(x1).
		AddPoint(x2).
		AddScalar(pi1.H).AddScalar(pi1.R).
		AddScalar(pi2.H).AddScalar(pi2.R).
		AddString(serverID).
		AddPoint(x3).
		AddPoint(x4).
		AddScalar(pi3.H).AddScalar(pi3.R).
		AddScalar(pi4.H).AddScalar(pi4.R).
		AddPoint(beta).
		AddScalar(piBeta.H).AddScalar(piBeta.R).
		AddPoint(alpha).
		AddScalar(piAlpha.H).AddScalar(piAlpha.R).
		SumScalar()
}

// sessionKey derives the 32-byte session key as the raw SHA-256 digest of
// the canonical encoding of K. Fails closed if K degenerated to the
// identity, which valid inputs cannot produce.
func sessionKey(c crypto.Curve, k *crypto.Point) ([]byte, error) {
	enc, err := c.EncodePoint(k)
	if err != nil {
		return nil, ErrInternal
	}
	digest := crypto.SHA256(enc)
	return digest[:], nil
}

// confirmationTag computes a directional key-confirmation tag:
// HMAC-SHA-256 keyed by the canonical encoding of K over the framed tuple
// (id1, id2, p1, p2, p3, p4). The two directions order the tuple oppositely,
// so the tags differ while each side can compute both.
func confirmationTag(c crypto.Curve, k *crypto.Point, id1, id2 string, p1, p2, p3, p4 *crypto.Point) ([]byte, error) {
	kEnc, err := c.EncodePoint(k)
	if err != nil {
		return nil, ErrInternal
	}
	msg := crypto.NewTranscript(c).
		AddString(id1).
		AddString(id2).
		AddPoint(p1).
		AddPoint(p2).
		AddPoint(p3).
		AddPoint(p4).
		Bytes()
	return crypto.HMACSHA256Slice(kEnc, msg), nil
}

// VerifyKeyConfirmation compares the locally expected key-confirmation tag
// against the tag received from the peer in constant time. Either side uses
// it with its AuthFinishResult.KCTest and the peer's transmitted KC.
func VerifyKeyConfirmation(expected, received []byte) bool {
	return crypto.HMACEqual(expected, received)
}

// SessionKeys are directional traffic keys expanded from the session key.
// Optional: callers that only need one symmetric key use
// AuthFinishResult.Key directly.
type SessionKeys struct {
	// ClientToServer protects traffic the client sends.
	ClientToServer [sessionKeyLen]byte

	// ServerToClient protects traffic the server sends.
	ServerToClient [sessionKeyLen]byte
}

// ExpandSessionKeys derives the directional traffic keys from a session key
// using HKDF-SHA256. Both sides derive the same pair.
func ExpandSessionKeys(key []byte) (*SessionKeys, error) {
	if len(key) != sessionKeyLen {
		return nil, ErrInternal
	}
	okm, err := crypto.HKDFSHA256(key, nil, expandInfo, 2*sessionKeyLen)
	if err != nil {
		return nil, err
	}
	keys := &SessionKeys{}
	copy(keys.ClientToServer[:], okm[:sessionKeyLen])
	copy(keys.ServerToClient[:], okm[sessionKeyLen:])
	crypto.ZeroizeBytes(okm)
	return keys, nil
}
