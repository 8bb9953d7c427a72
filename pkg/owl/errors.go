package owl

import "errors"

// Protocol errors. Apart from errors passed through from the random source,
// every failure an operation can return is one of these; callers branch on
// them with errors.Is. On any failure the session state
// involved has already been zeroized, and no key material is returned.
var (
	// ErrMalformedRequest means a client-originated input failed structural
	// or curve-validity checks.
	ErrMalformedRequest = errors.New("owl: malformed request")

	// ErrMalformedResponse means a server-originated input failed structural
	// or curve-validity checks.
	ErrMalformedResponse = errors.New("owl: malformed response")

	// ErrZKPVerification means a Schnorr proof did not verify.
	ErrZKPVerification = errors.New("owl: zero-knowledge proof verification failed")

	// ErrAuthentication means the password check failed (server) or a
	// key-confirmation tag did not match (client).
	ErrAuthentication = errors.New("owl: authentication failed")

	// ErrUnknownUser means no credential record exists for the user. Servers
	// exposed to the network should mask this as ErrAuthentication after
	// running the exchange against DummyCredentials; pkg/auth does.
	ErrUnknownUser = errors.New("owl: unknown user")

	// ErrWeakPassword means the password verifier reduced to zero. The odds
	// are 2^-256 per password; rejecting keeps beta = (X1+X2+X3)*(x4*pi)
	// from collapsing to the identity.
	ErrWeakPassword = errors.New("owl: password verifier is zero")

	// ErrStateConsumed means a ClientState or ServerState was presented a
	// second time. Session state is single-use.
	ErrStateConsumed = errors.New("owl: session state already consumed")

	// ErrInvalidConfig means the Config names an unsupported curve or an
	// empty server identity.
	ErrInvalidConfig = errors.New("owl: invalid configuration")

	// ErrInternal means the arithmetic layer reported a condition valid
	// inputs cannot produce.
	ErrInternal = errors.New("owl: internal arithmetic error")
)
