package owl

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/backkem/owl/pkg/crypto"
	"github.com/backkem/owl/pkg/crypto/schnorr"
)

// Client is the client side of the Owl exchange. It holds only immutable
// configuration; per-login secrets live in the ClientState returned by
// AuthInit, so one Client may serve any number of concurrent logins.
type Client struct {
	cfg  Config
	rand io.Reader
}

// NewClient creates a client for the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, rand: rand.Reader}, nil
}

// SetRandom sets the random source. This should only be used in tests to
// inject deterministic random values.
func (c *Client) SetRandom(r io.Reader) {
	c.rand = r
}

// Register derives the registration request for a user. The password-derived
// scalar t is zeroized before returning; only pi and T = G*t leave. Send the
// request over a channel the deployment has already secured.
func (c *Client) Register(username, password string) (*RegistrationRequest, error) {
	if username == "" {
		return nil, ErrMalformedRequest
	}
	t, pi, err := deriveSecrets(c.cfg.Curve, username, password)
	if err != nil {
		return nil, err
	}
	bigT := c.cfg.Curve.ScalarBaseMult(t)
	crypto.ZeroizeScalar(t)

	return &RegistrationRequest{Pi: pi, T: bigT}, nil
}

// AuthInit runs login flow 1: it recomputes the password-derived scalars,
// samples the two ephemeral shares, proves knowledge of both, and returns
// the flow-1 message plus the state AuthFinish consumes.
func (c *Client) AuthInit(username, password string) (*AuthInitRequest, *ClientState, error) {
	if username == "" {
		return nil, nil, ErrMalformedRequest
	}
	curve := c.cfg.Curve

	t, pi, err := deriveSecrets(curve, username, password)
	if err != nil {
		return nil, nil, err
	}

	x1, err := curve.RandScalar(c.rand)
	if err != nil {
		crypto.ZeroizeScalars(t, pi)
		return nil, nil, err
	}
	x2, err := curve.RandScalar(c.rand)
	if err != nil {
		crypto.ZeroizeScalars(t, pi, x1)
		return nil, nil, err
	}

	bigX1 := curve.ScalarBaseMult(x1)
	bigX2 := curve.ScalarBaseMult(x2)

	g := curve.Generator()
	pi1, err := schnorr.Prove(c.rand, curve, x1, g, bigX1, username)
	if err != nil {
		crypto.ZeroizeScalars(t, pi, x1, x2)
		return nil, nil, err
	}
	pi2, err := schnorr.Prove(c.rand, curve, x2, g, bigX2, username)
	if err != nil {
		crypto.ZeroizeScalars(t, pi, x1, x2)
		return nil, nil, err
	}

	state := &ClientState{
		username: username,
		t:        t,
		pi:       pi,
		x1:       x1,
		x2:       x2,
		X1:       bigX1,
		X2:       bigX2,
		PI1:      pi1,
		PI2:      pi2,
	}
	req := &AuthInitRequest{X1: bigX1, X2: bigX2, PI1: pi1, PI2: pi2}
	return req, state, nil
}

// AuthFinish runs login flow 3. It validates and verifies everything in the
// server's response before any of it is used, computes the shared point K,
// derives the session key and both key-confirmation tags, and produces the
// finish message. The state is consumed and zeroized on every exit path.
//
// The returned result's KCTest is the tag the server will transmit; compare
// with VerifyKeyConfirmation before trusting the key.
func (c *Client) AuthFinish(state *ClientState, resp *AuthInitResponse) (*AuthFinishRequest, *AuthFinishResult, error) {
	if state == nil || state.consumed {
		return nil, nil, ErrStateConsumed
	}
	defer state.Zeroize()

	curve := c.cfg.Curve
	if resp == nil {
		return nil, nil, ErrMalformedResponse
	}
	if !curve.IsOnCurve(resp.X3) || !curve.IsOnCurve(resp.X4) || !curve.IsOnCurve(resp.Beta) {
		return nil, nil, ErrMalformedResponse
	}

	// Every server proof verifies before its value is touched. Beta's proof
	// is over the composite base X1+X2+X3.
	g := curve.Generator()
	betaGen := curve.Add(curve.Add(state.X1, state.X2), resp.X3)
	if betaGen.IsIdentity() {
		return nil, nil, ErrMalformedResponse
	}
	if !schnorr.Verify(curve, resp.PI3, g, resp.X3, c.cfg.ServerID) ||
		!schnorr.Verify(curve, resp.PI4, g, resp.X4, c.cfg.ServerID) ||
		!schnorr.Verify(curve, resp.PIBeta, betaGen, resp.Beta, c.cfg.ServerID) {
		return nil, nil, ErrZKPVerification
	}

	s := curve.MulModN(state.x2, state.pi)

	alphaGen := curve.Add(curve.Add(state.X1, resp.X3), resp.X4)
	if alphaGen.IsIdentity() {
		return nil, nil, ErrMalformedResponse
	}
	alpha := curve.ScalarMult(alphaGen, s)
	if alpha.IsIdentity() {
		crypto.ZeroizeScalar(s)
		return nil, nil, ErrMalformedResponse
	}
	piAlpha, err := schnorr.Prove(c.rand, curve, s, alphaGen, alpha, state.username)
	if err != nil {
		crypto.ZeroizeScalar(s)
		return nil, nil, err
	}

	// K = (beta - X4*s) * x2
	k := curve.ScalarMult(curve.Sub(resp.Beta, curve.ScalarMult(resp.X4, s)), state.x2)
	if k.IsIdentity() {
		crypto.ZeroizeScalar(s)
		return nil, nil, ErrInternal
	}

	h := transcriptHash(curve, k, state.username,
		state.X1, state.X2, state.PI1, state.PI2,
		c.cfg.ServerID,
		resp.X3, resp.X4, resp.PI3, resp.PI4,
		resp.Beta, resp.PIBeta,
		alpha, piAlpha)

	// r = x1 - t*h over the integers, reduced into [0, n).
	r := curve.ModN(new(big.Int).Sub(state.x1, new(big.Int).Mul(state.t, h)))

	key, err := sessionKey(curve, k)
	if err != nil {
		crypto.ZeroizeScalars(s, k.X, k.Y)
		return nil, nil, err
	}
	kcOut, err := confirmationTag(curve, k, state.username, c.cfg.ServerID,
		state.X1, state.X2, resp.X3, resp.X4)
	if err != nil {
		crypto.ZeroizeScalars(s, k.X, k.Y)
		return nil, nil, err
	}
	kcExpected, err := confirmationTag(curve, k, c.cfg.ServerID, state.username,
		resp.X3, resp.X4, state.X1, state.X2)
	if err != nil {
		crypto.ZeroizeScalars(s, k.X, k.Y)
		return nil, nil, err
	}

	crypto.ZeroizeScalars(s, k.X, k.Y)

	req := &AuthFinishRequest{Alpha: alpha, PIAlpha: piAlpha, R: r}
	result := &AuthFinishResult{Key: key, KC: kcOut, KCTest: kcExpected}
	return req, result, nil
}
