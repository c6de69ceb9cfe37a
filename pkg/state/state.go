// Package state holds the application's mutable state behind explicit
// setters, so screens read snapshots instead of ambient globals.
package state

import (
	"context"
	"sync"

	"github.com/chargehq/chargewallet/pkg/backend"
	"github.com/chargehq/chargewallet/pkg/logger"
)

// Store owns the session, profile, balance, contacts, and transaction list.
// All mutation funnels through setters; reads return copies.
type Store struct {
	mu           sync.RWMutex
	session      *backend.Session
	profile      *backend.Profile
	balance      backend.Balance
	contacts     []backend.Contact
	transactions []backend.Transaction
}

// NewStore creates an empty state store.
func NewStore() *Store {
	return &Store{}
}

// SetSession replaces the active session.
func (s *Store) SetSession(session *backend.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// Session returns the active session, or nil before sign-in.
func (s *Store) Session() *backend.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SetProfile replaces the signed-in user's profile.
func (s *Store) SetProfile(p *backend.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// Profile returns the signed-in user's profile, or nil.
func (s *Store) Profile() *backend.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SetBalance replaces the cached balance.
func (s *Store) SetBalance(b backend.Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = b
}

// Balance returns the cached balance.
func (s *Store) Balance() backend.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// ReplaceContacts swaps the contact list.
func (s *Store) ReplaceContacts(contacts []backend.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append([]backend.Contact(nil), contacts...)
}

// Contacts returns a copy of the contact list.
func (s *Store) Contacts() []backend.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]backend.Contact(nil), s.contacts...)
}

// ReplaceTransactions swaps the transaction list.
func (s *Store) ReplaceTransactions(txs []backend.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]backend.Transaction(nil), txs...)
}

// Transactions returns a copy of the transaction list.
func (s *Store) Transactions() []backend.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]backend.Transaction(nil), s.transactions...)
}

// Refresh pulls profile, balance, contacts, and recent transactions for the
// signed-in user. Partial failures leave the previous value in place.
func (s *Store) Refresh(ctx context.Context, data *backend.DataClient) error {
	session := s.Session()
	if !session.Valid() {
		return backend.ErrAuthFailed
	}
	userID := session.UserID

	var firstErr error
	record := func(what string, err error) {
		if err == nil {
			return
		}
		logger.WarnCF("state", "Refresh step failed", map[string]any{
			"step":  what,
			"error": err.Error(),
		})
		if firstErr == nil {
			firstErr = err
		}
	}

	if profile, err := data.Profile(ctx, userID); err == nil {
		s.SetProfile(profile)
	} else {
		record("profile", err)
	}
	if balance, err := data.Balance(ctx, userID); err == nil {
		s.SetBalance(balance)
	} else {
		record("balance", err)
	}
	if contacts, err := data.Contacts(ctx, userID); err == nil {
		s.ReplaceContacts(contacts)
	} else {
		record("contacts", err)
	}
	if txs, err := data.Transactions(ctx, userID, 20); err == nil {
		s.ReplaceTransactions(txs)
	} else {
		record("transactions", err)
	}

	return firstErr
}
