package authflow_test

import (
	"context"
	"sync"
	"time"

	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

// memAccounts is an in-memory AccountStore with a unique-email check at the
// "storage layer", mirroring the race-checked constraint.
type memAccounts struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Account
	byID    map[string]*domain.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{
		byEmail: make(map[string]*domain.Account),
		byID:    make(map[string]*domain.Account),
	}
}

func (s *memAccounts) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[account.Email]; ok {
		return domerrors.ErrDuplicateEmail
	}
	cp := *account
	s.byEmail[cp.Email] = &cp
	s.byID[cp.ID.String()] = &cp
	return nil
}

func (s *memAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byEmail[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *memAccounts) GetByID(_ context.Context, id domain.AccountID) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byID[id.String()]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *memAccounts) UpdatePassword(_ context.Context, id domain.AccountID, hash, salt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id.String()]
	if !ok {
		return domerrors.ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.PasswordSalt = salt
	a.UpdatedAt = time.Now()
	return nil
}

type memResetToken struct {
	accountID domain.AccountID
	expiresAt time.Time
	consumed  bool
}

// memTokens is an in-memory ResetTokenStore; consume is a mutex-guarded CAS.
type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*memResetToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[string]*memResetToken)}
}

func (s *memTokens) Put(_ context.Context, tokenHash string, accountID domain.AccountID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = &memResetToken{accountID: accountID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memTokens) Get(_ context.Context, tokenHash string) (domain.AccountID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[tokenHash]
	if !ok || tok.consumed || time.Now().After(tok.expiresAt) {
		return domain.AccountID{}, domerrors.ErrTokenNotFound
	}
	return tok.accountID, nil
}

func (s *memTokens) ConsumeAtomic(_ context.Context, tokenHash string) (domain.AccountID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[tokenHash]
	if !ok || tok.consumed || time.Now().After(tok.expiresAt) {
		return domain.AccountID{}, domerrors.ErrTokenNotFound
	}
	tok.consumed = true
	return tok.accountID, nil
}

func (s *memTokens) InvalidateAllForAccount(_ context.Context, accountID domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tok := range s.tokens {
		if tok.accountID == accountID {
			tok.consumed = true
		}
	}
	return nil
}

func (s *memTokens) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tok := range s.tokens {
		if !tok.consumed && time.Now().Before(tok.expiresAt) {
			n++
		}
	}
	return n
}

// memMail records enqueued reset emails; fail makes every enqueue error.
type memMail struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

type sentMail struct {
	email    string
	resetURL string
}

func (m *memMail) EnqueueSendPasswordReset(_ context.Context, email, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return domerrors.ErrStorage
	}
	m.sent = append(m.sent, sentMail{email: email, resetURL: resetURL})
	return nil
}

func (m *memMail) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
