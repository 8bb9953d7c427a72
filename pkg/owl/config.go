package owl

import "github.com/backkem/owl/pkg/crypto"

// Config selects the curve and names the server. It is constructed once at
// process start and never modified; both sides of an exchange must agree on
// both fields, since the server identity is bound into every server proof
// and into the session transcript.
type Config struct {
	// Curve is the prime-order group all protocol values live in.
	Curve crypto.Curve

	// ServerID is the server's identity string. Opaque UTF-8, non-empty,
	// stable for the lifetime of the server's credential database.
	ServerID string
}

func (cfg Config) validate() error {
	if !cfg.Curve.Valid() {
		return ErrInvalidConfig
	}
	if cfg.ServerID == "" {
		return ErrInvalidConfig
	}
	return nil
}
