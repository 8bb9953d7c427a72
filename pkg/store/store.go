// Package store provides the credential store contract the Owl server
// consumes, and an in-memory implementation.
//
// A store maps usernames to their persisted credential records. Records are
// written once at registration and read-only during login, so any backend
// (memory, file, database) works as long as it returns every record
// byte-identically; the in-memory implementation keeps records in their
// deterministic CBOR encoding to make that property structural.
package store

import (
	"errors"
	"sync"

	"github.com/backkem/owl/pkg/crypto"
	"github.com/backkem/owl/pkg/owl"
)

// Errors.
var (
	ErrNotFound = errors.New("store: no credentials for user")
)

// CredentialStore abstracts persistence of per-user credential records.
//
// All methods must be safe for concurrent use.
type CredentialStore interface {
	// Get returns the record for a user, or found=false if none exists.
	Get(username string) (cred *owl.UserCredentials, found bool, err error)

	// Put stores the record for a user, replacing any previous one.
	Put(username string, cred *owl.UserCredentials) error

	// Delete removes the record for a user. Deleting an absent user is
	// not an error.
	Delete(username string) error
}

// MemoryStore is an in-memory CredentialStore. Useful for testing and
// development. Data is lost when the process exits.
//
// All methods are safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	codec   *owl.Codec
	records map[string][]byte
}

// NewMemoryStore creates an in-memory store for records on the given curve.
func NewMemoryStore(curve crypto.Curve) (*MemoryStore, error) {
	codec, err := owl.NewCodec(curve)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		codec:   codec,
		records: make(map[string][]byte),
	}, nil
}

// Get returns the record for a user.
func (m *MemoryStore) Get(username string) (*owl.UserCredentials, bool, error) {
	m.mu.RLock()
	data, ok := m.records[username]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	cred, err := m.codec.DecodeCredentials(data)
	if err != nil {
		return nil, false, err
	}
	return cred, true, nil
}

// Put stores the record for a user.
func (m *MemoryStore) Put(username string, cred *owl.UserCredentials) error {
	data, err := m.codec.EncodeCredentials(cred)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[username] = data
	m.mu.Unlock()
	return nil
}

// Delete removes the record for a user.
func (m *MemoryStore) Delete(username string) error {
	m.mu.Lock()
	delete(m.records, username)
	m.mu.Unlock()
	return nil
}
