package owl

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/backkem/owl/pkg/crypto"
	"github.com/backkem/owl/pkg/crypto/schnorr"
)

// Server is the server side of the Owl exchange. Like Client it holds only
// immutable configuration; per-login secrets live in the ServerState
// returned by AuthInit. Credential storage is the caller's concern
// (pkg/store provides the contract).
type Server struct {
	cfg  Config
	rand io.Reader
}

// NewServer creates a server for the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, rand: rand.Reader}, nil
}

// SetRandom sets the random source. This should only be used in tests to
// inject deterministic random values.
func (s *Server) SetRandom(r io.Reader) {
	s.rand = r
}

// Register validates a registration request and produces the per-user
// record to persist. The server contributes its long-term share X3 with a
// proof; x3 itself is zeroized before returning and is never needed again.
func (s *Server) Register(username string, req *RegistrationRequest) (*UserCredentials, error) {
	curve := s.cfg.Curve
	if username == "" || req == nil {
		return nil, ErrMalformedRequest
	}
	if !curve.IsOnCurve(req.T) {
		return nil, ErrMalformedRequest
	}
	if req.Pi == nil || req.Pi.Sign() <= 0 || req.Pi.Cmp(curve.Order()) >= 0 {
		return nil, ErrMalformedRequest
	}

	x3, err := curve.RandScalar(s.rand)
	if err != nil {
		return nil, err
	}
	bigX3 := curve.ScalarBaseMult(x3)
	pi3, err := schnorr.Prove(s.rand, curve, x3, curve.Generator(), bigX3, s.cfg.ServerID)
	crypto.ZeroizeScalar(x3)
	if err != nil {
		return nil, err
	}

	return &UserCredentials{
		X3:  bigX3,
		PI3: pi3,
		Pi:  new(big.Int).Set(req.Pi),
		T:   req.T.Clone(),
	}, nil
}

// DummyCredentials fabricates a well-formed record for a user that does not
// exist, so a server can run the full exchange and fail at the password
// check instead of revealing through timing or error shape that the user is
// unknown. Callers must not persist the result.
func (s *Server) DummyCredentials(username string) (*UserCredentials, error) {
	curve := s.cfg.Curve

	t, err := curve.RandScalar(s.rand)
	if err != nil {
		return nil, err
	}
	pi := crypto.NewTranscript(curve).AddScalar(t).SumScalar()
	bigT := curve.ScalarBaseMult(t)
	crypto.ZeroizeScalar(t)
	if pi.Sign() == 0 {
		return nil, ErrInternal
	}

	return s.Register(username, &RegistrationRequest{Pi: pi, T: bigT})
}

// AuthInit runs login flow 2. It validates the client's shares, verifies
// both proofs against the username, contributes X4 and
// beta = (X1+X2+X3)*(x4*pi) with proofs, and returns the flow-2 message plus
// the state AuthFinish consumes. A nil cred reports ErrUnknownUser; callers
// masking user enumeration pass DummyCredentials instead.
func (s *Server) AuthInit(username string, req *AuthInitRequest, cred *UserCredentials) (*AuthInitResponse, *ServerState, error) {
	curve := s.cfg.Curve
	if cred == nil {
		return nil, nil, ErrUnknownUser
	}
	if username == "" || req == nil {
		return nil, nil, ErrMalformedRequest
	}
	if !curve.IsOnCurve(req.X1) || !curve.IsOnCurve(req.X2) {
		return nil, nil, ErrMalformedRequest
	}

	g := curve.Generator()
	if !schnorr.Verify(curve, req.PI1, g, req.X1, username) ||
		!schnorr.Verify(curve, req.PI2, g, req.X2, username) {
		return nil, nil, ErrZKPVerification
	}

	x4, err := curve.RandScalar(s.rand)
	if err != nil {
		return nil, nil, err
	}
	bigX4 := curve.ScalarBaseMult(x4)
	pi4, err := schnorr.Prove(s.rand, curve, x4, g, bigX4, s.cfg.ServerID)
	if err != nil {
		crypto.ZeroizeScalar(x4)
		return nil, nil, err
	}

	// beta = (X1+X2+X3)*(x4*pi). A degenerate share set collapsing the
	// composite base or beta to the identity is rejected outright.
	sec := curve.MulModN(x4, cred.Pi)
	betaGen := curve.Add(curve.Add(req.X1, req.X2), cred.X3)
	if betaGen.IsIdentity() {
		crypto.ZeroizeScalars(x4, sec)
		return nil, nil, ErrMalformedRequest
	}
	beta := curve.ScalarMult(betaGen, sec)
	if beta.IsIdentity() {
		crypto.ZeroizeScalars(x4, sec)
		return nil, nil, ErrMalformedRequest
	}
	piBeta, err := schnorr.Prove(s.rand, curve, sec, betaGen, beta, s.cfg.ServerID)
	crypto.ZeroizeScalar(sec)
	if err != nil {
		crypto.ZeroizeScalar(x4)
		return nil, nil, err
	}

	state := &ServerState{
		username: username,
		T:        cred.T.Clone(),
		pi:       new(big.Int).Set(cred.Pi),
		x4:       x4,
		X1:       req.X1,
		X2:       req.X2,
		X3:       cred.X3.Clone(),
		X4:       bigX4,
		Beta:     beta,
		PI1:      req.PI1,
		PI2:      req.PI2,
		PI3:      cred.PI3.Clone(),
		PI4:      pi4,
		PIBeta:   piBeta,
	}
	resp := &AuthInitResponse{
		X3:     state.X3,
		X4:     bigX4,
		PI3:    state.PI3,
		PI4:    pi4,
		Beta:   beta,
		PIBeta: piBeta,
	}
	return resp, state, nil
}

// AuthFinish runs the server's finish step. It verifies the client's alpha
// proof over the composite base X1+X3+X4, computes the shared point K, and
// only then applies the password check G*r + T*h == X1, where h is the full
// session transcript hash. The state is consumed and zeroized on every exit
// path, success or failure.
func (s *Server) AuthFinish(username string, req *AuthFinishRequest, state *ServerState) (*AuthFinishResult, error) {
	if state == nil || state.consumed {
		return nil, ErrStateConsumed
	}
	defer state.Zeroize()

	curve := s.cfg.Curve
	if req == nil || username != state.username {
		return nil, ErrMalformedRequest
	}
	if !curve.IsOnCurve(req.Alpha) {
		return nil, ErrMalformedRequest
	}
	if req.R == nil || req.R.Sign() < 0 || req.R.Cmp(curve.Order()) >= 0 {
		return nil, ErrMalformedRequest
	}

	alphaGen := curve.Add(curve.Add(state.X1, state.X3), state.X4)
	if alphaGen.IsIdentity() {
		return nil, ErrMalformedRequest
	}
	if !schnorr.Verify(curve, req.PIAlpha, alphaGen, req.Alpha, username) {
		return nil, ErrZKPVerification
	}

	// K = (alpha - X2*(x4*pi)) * x4
	sec := curve.MulModN(state.x4, state.pi)
	k := curve.ScalarMult(curve.Sub(req.Alpha, curve.ScalarMult(state.X2, sec)), state.x4)
	if k.IsIdentity() {
		crypto.ZeroizeScalar(sec)
		return nil, ErrInternal
	}

	h := transcriptHash(curve, k, username,
		state.X1, state.X2, state.PI1, state.PI2,
		s.cfg.ServerID,
		state.X3, state.X4, state.PI3, state.PI4,
		state.Beta, state.PIBeta,
		req.Alpha, req.PIAlpha)

	// Password check: G*r + T*h must reproduce X1. This is what ties the
	// session to knowledge of the password-derived t, and it must pass
	// before any key material is released.
	check := curve.Add(curve.ScalarBaseMult(req.R), curve.ScalarMult(state.T, h))
	if !check.Equal(state.X1) {
		crypto.ZeroizeScalars(sec, k.X, k.Y)
		return nil, ErrAuthentication
	}

	key, err := sessionKey(curve, k)
	if err != nil {
		crypto.ZeroizeScalars(sec, k.X, k.Y)
		return nil, err
	}
	kcOut, err := confirmationTag(curve, k, s.cfg.ServerID, username,
		state.X3, state.X4, state.X1, state.X2)
	if err != nil {
		crypto.ZeroizeScalars(sec, k.X, k.Y)
		return nil, err
	}
	kcExpected, err := confirmationTag(curve, k, username, s.cfg.ServerID,
		state.X1, state.X2, state.X3, state.X4)
	if err != nil {
		crypto.ZeroizeScalars(sec, k.X, k.Y)
		return nil, err
	}

	crypto.ZeroizeScalars(sec, k.X, k.Y)

	return &AuthFinishResult{Key: key, KC: kcOut, KCTest: kcExpected}, nil
}
