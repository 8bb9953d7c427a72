package auth

import (
	"errors"

	"github.com/pion/logging"

	"github.com/backkem/owl/pkg/crypto"
	"github.com/backkem/owl/pkg/owl"
)

// Client-side errors.
var (
	// ErrLoginInProgress is returned by StartLogin while a login is pending.
	ErrLoginInProgress = errors.New("auth: login already in progress")

	// ErrNoLoginInProgress is returned by FinishLogin with nothing pending.
	ErrNoLoginInProgress = errors.New("auth: no login in progress")
)

// StretchParams configures PBKDF2 password pre-stretching. The protocol
// hashes whatever password bytes it is given; stretching first slows offline
// dictionary attacks against a stolen credential record. The same salt and
// iteration count must be used at registration and at every login.
type StretchParams struct {
	// Salt is the stretching salt, at least crypto.PBKDF2MinSaltLength bytes.
	Salt []byte

	// Iterations is the PBKDF2 iteration count, within the
	// crypto.PBKDF2Iterations bounds.
	Iterations int
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Config is the protocol configuration shared with the server.
	Config owl.Config

	// PasswordStretch, when set, runs every password through
	// crypto.StretchPassword before it enters the protocol.
	// If nil, passwords are used as given.
	PasswordStretch *StretchParams

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Client drives the client side of registration and login, holding the
// in-flight state between flow 1 and flow 3. One Client tracks at most one
// login at a time; run concurrent logins on separate Clients.
type Client struct {
	owl     *owl.Client
	stretch *StretchParams
	log     logging.LeveledLogger
	pending *owl.ClientState
}

// NewClient creates a client-side authentication helper.
func NewClient(config ClientConfig) (*Client, error) {
	c, err := owl.NewClient(config.Config)
	if err != nil {
		return nil, err
	}
	client := &Client{owl: c, stretch: config.PasswordStretch}
	if config.LoggerFactory != nil {
		client.log = config.LoggerFactory.NewLogger("auth")
	}
	return client, nil
}

// password applies the configured stretching, or passes the password
// through untouched.
func (c *Client) password(password string) (string, error) {
	if c.stretch == nil {
		return password, nil
	}
	stretched, err := crypto.StretchPassword([]byte(password), c.stretch.Salt, c.stretch.Iterations)
	if err != nil {
		return "", err
	}
	return string(stretched), nil
}

// Register produces the registration request for a user.
func (c *Client) Register(username, password string) (*owl.RegistrationRequest, error) {
	w, err := c.password(password)
	if err != nil {
		return nil, err
	}
	return c.owl.Register(username, w)
}

// StartLogin runs login flow 1 and parks the state for FinishLogin.
func (c *Client) StartLogin(username, password string) (*owl.AuthInitRequest, error) {
	if c.pending != nil {
		return nil, ErrLoginInProgress
	}
	w, err := c.password(password)
	if err != nil {
		return nil, err
	}
	req, state, err := c.owl.AuthInit(username, w)
	if err != nil {
		return nil, err
	}
	c.pending = state
	c.logf("login flow 1 for %q", username)
	return req, nil
}

// FinishLogin runs login flow 3 against the server's response. The pending
// state is consumed whatever the outcome.
func (c *Client) FinishLogin(resp *owl.AuthInitResponse) (*owl.AuthFinishRequest, *owl.AuthFinishResult, error) {
	if c.pending == nil {
		return nil, nil, ErrNoLoginInProgress
	}
	state := c.pending
	c.pending = nil
	return c.owl.AuthFinish(state, resp)
}

// AbandonLogin drops and zeroizes any pending login state.
func (c *Client) AbandonLogin() {
	if c.pending != nil {
		c.pending.Zeroize()
		c.pending = nil
	}
}

// ConfirmServer checks the server's key-confirmation tag against the local
// expectation in constant time. A mismatch means the peer does not hold the
// same key; discard the session key.
func (c *Client) ConfirmServer(result *owl.AuthFinishResult, serverKC []byte) error {
	if result == nil || !owl.VerifyKeyConfirmation(result.KCTest, serverKC) {
		return ErrAuthenticationFailed
	}
	return nil
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Debugf(format, args...)
	}
}
