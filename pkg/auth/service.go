// Package auth wraps the pure Owl state machines with the bookkeeping a
// deployment needs: credential storage, a table of pending login sessions,
// expiry of abandoned sessions, uniform failure masking, and logging.
//
// The pure core in pkg/owl returns distinct failure kinds so tests and
// embedders can tell them apart. This package is the outward-facing surface:
// every server-side login failure - unknown user, malformed input, proof
// failure, password mismatch - leaves as the same ErrAuthenticationFailed,
// and unknown users still cost a full exchange against fabricated
// credentials.
package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/backkem/owl/pkg/owl"
	"github.com/backkem/owl/pkg/store"
)

// Defaults for pending-login housekeeping.
const (
	// DefaultMaxPending limits concurrent half-open logins.
	DefaultMaxPending = 1024

	// DefaultPendingTTL is how long a flow-2 state waits for its flow-3
	// message before it is expired and zeroized.
	DefaultPendingTTL = 2 * time.Minute
)

// Errors.
var (
	// ErrAuthenticationFailed is the only protocol failure a login can
	// surface. The pending-table errors ErrTooManyPending and
	// ErrNoPendingLogin are reported separately.
	ErrAuthenticationFailed = errors.New("auth: authentication failed")

	// ErrUserExists is returned by Register for an already-registered user.
	ErrUserExists = errors.New("auth: user already registered")

	// ErrTooManyPending is returned by BeginLogin when the pending table
	// is full.
	ErrTooManyPending = errors.New("auth: too many pending logins")

	// ErrNoPendingLogin is returned by FinishLogin for an unknown, expired,
	// or already-consumed login handle.
	ErrNoPendingLogin = errors.New("auth: no pending login for handle")

	// ErrStoreRequired is returned by NewService without a credential store.
	ErrStoreRequired = errors.New("auth: credential store is required")
)

// pendingLogin is one half-open login session.
type pendingLogin struct {
	username string
	state    *owl.ServerState
	created  time.Time

	// dummy marks a session started for an unknown user; it runs the full
	// exchange but can never succeed.
	dummy bool
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Config is the protocol configuration shared with clients.
	Config owl.Config

	// Store holds the per-user credential records. Required.
	Store store.CredentialStore

	// MaxPending limits concurrent half-open logins.
	// Default: DefaultMaxPending.
	MaxPending int

	// PendingTTL expires half-open logins. Default: DefaultPendingTTL.
	PendingTTL time.Duration

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Service is the server-side authentication manager. It owns the credential
// store and the table of pending logins, and exposes one method per protocol
// flow. Safe for concurrent use.
type Service struct {
	server *owl.Server
	store  store.CredentialStore

	maxPending int
	ttl        time.Duration
	now        func() time.Time

	log logging.LeveledLogger

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingLogin
}

// NewService creates an authentication service.
func NewService(config ServiceConfig) (*Service, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	server, err := owl.NewServer(config.Config)
	if err != nil {
		return nil, err
	}

	maxPending := config.MaxPending
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	ttl := config.PendingTTL
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}

	s := &Service{
		server:     server,
		store:      config.Store,
		maxPending: maxPending,
		ttl:        ttl,
		now:        time.Now,
		pending:    make(map[uuid.UUID]*pendingLogin),
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("auth")
	}
	return s, nil
}

// Register validates a registration request and persists the resulting
// credential record. Registration is assumed to arrive over a channel the
// deployment has already secured.
func (s *Service) Register(username string, req *owl.RegistrationRequest) error {
	if _, found, err := s.store.Get(username); err != nil {
		return err
	} else if found {
		return ErrUserExists
	}

	cred, err := s.server.Register(username, req)
	if err != nil {
		return err
	}
	if err := s.store.Put(username, cred); err != nil {
		return err
	}
	s.logf("registered user %q", username)
	return nil
}

// BeginLogin runs login flow 2 and parks the resulting state in the pending
// table under a fresh handle. Unknown users get fabricated credentials and a
// dummy session, so the response shape and work performed match a real user.
func (s *Service) BeginLogin(username string, req *owl.AuthInitRequest) (uuid.UUID, *owl.AuthInitResponse, error) {
	s.expireStale()

	cred, found, err := s.store.Get(username)
	dummy := false
	if err != nil || !found {
		cred, err = s.server.DummyCredentials(username)
		if err != nil {
			return uuid.Nil, nil, ErrAuthenticationFailed
		}
		dummy = true
	}

	resp, state, err := s.server.AuthInit(username, req, cred)
	if err != nil {
		s.logf("login flow 2 for %q rejected: %v", username, err)
		return uuid.Nil, nil, ErrAuthenticationFailed
	}

	handle := uuid.New()
	s.mu.Lock()
	if len(s.pending) >= s.maxPending {
		s.mu.Unlock()
		state.Zeroize()
		return uuid.Nil, nil, ErrTooManyPending
	}
	s.pending[handle] = &pendingLogin{
		username: username,
		state:    state,
		created:  s.now(),
		dummy:    dummy,
	}
	s.mu.Unlock()

	s.logf("login flow 2 for %q -> handle %s", username, handle)
	return handle, resp, nil
}

// FinishLogin consumes a pending login and runs the server finish step. On
// success it returns the session key and confirmation tags; every failure
// kind surfaces as ErrAuthenticationFailed. The pending state is removed and
// zeroized whatever the outcome.
func (s *Service) FinishLogin(handle uuid.UUID, req *owl.AuthFinishRequest) (*owl.AuthFinishResult, error) {
	s.expireStale()

	s.mu.Lock()
	p, ok := s.pending[handle]
	delete(s.pending, handle)
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoPendingLogin
	}

	result, err := s.server.AuthFinish(p.username, req, p.state)
	if err != nil || p.dummy {
		s.logf("login finish for %q failed: dummy=%v err=%v", p.username, p.dummy, err)
		return nil, ErrAuthenticationFailed
	}

	s.logf("login finish for %q succeeded", p.username)
	return result, nil
}

// AbandonLogin drops a pending login and zeroizes its state. Dropping an
// unknown handle is not an error.
func (s *Service) AbandonLogin(handle uuid.UUID) {
	s.mu.Lock()
	p, ok := s.pending[handle]
	delete(s.pending, handle)
	s.mu.Unlock()
	if ok {
		p.state.Zeroize()
	}
}

// PendingLogins returns the number of half-open logins.
func (s *Service) PendingLogins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// expireStale removes and zeroizes pending logins older than the TTL.
func (s *Service) expireStale() {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*pendingLogin
	for handle, p := range s.pending {
		if p.created.Before(cutoff) {
			expired = append(expired, p)
			delete(s.pending, handle)
		}
	}
	s.mu.Unlock()

	for _, p := range expired {
		p.state.Zeroize()
		s.logf("expired pending login for %q", p.username)
	}
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.log != nil {
		s.log.Debugf(format, args...)
	}
}
