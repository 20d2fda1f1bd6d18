package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/landlordy-api/shared/auth"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

type memoryAccounts struct {
	mu        sync.Mutex
	byID      map[string]*model.Account
	failNext  error
	updateErr error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byID: map[string]*model.Account{}}
}

func clone(a *model.Account) *model.Account {
	c := *a
	if a.VerificationToken != nil {
		t := *a.VerificationToken
		c.VerificationToken = &t
	}
	if a.PasswordResetToken != nil {
		t := *a.PasswordResetToken
		c.PasswordResetToken = &t
	}
	return &c
}

func (m *memoryAccounts) takeErr() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memoryAccounts) CreateAccount(_ context.Context, account *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	for _, a := range m.byID {
		if a.Email == account.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	m.byID[account.ID] = clone(account)
	return clone(account), nil
}

func (m *memoryAccounts) GetAccount(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return clone(a), nil
}

func (m *memoryAccounts) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	for _, a := range m.byID {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (m *memoryAccounts) GetAccountByVerificationToken(
	_ context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	return m.findToken(func(a *model.Account) *model.Token { return a.VerificationToken }, token, now)
}

func (m *memoryAccounts) GetAccountByPasswordResetToken(
	_ context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	return m.findToken(func(a *model.Account) *model.Token { return a.PasswordResetToken }, token, now)
}

func (m *memoryAccounts) findToken(
	field func(*model.Account) *model.Token,
	token string,
	now time.Time,
) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	for _, a := range m.byID {
		if t := field(a); live(t, now) && t.Value == token {
			return clone(a), nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func live(t *model.Token, now time.Time) bool {
	return t != nil && now.Before(t.ExpiresAt)
}

func (m *memoryAccounts) ConsumeVerificationToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	verified := true
	return m.consume(ctx, func(a *model.Account) *model.Token { return a.VerificationToken }, token, now,
		repository.UpdateAccountParams{EmailVerified: &verified, ClearVerificationToken: true})
}

func (m *memoryAccounts) ConsumePasswordResetToken(
	ctx context.Context,
	token string,
	now time.Time,
	passwordHash string,
) (*model.Account, error) {
	return m.consume(ctx, func(a *model.Account) *model.Token { return a.PasswordResetToken }, token, now,
		repository.UpdateAccountParams{PasswordHash: &passwordHash, ClearPasswordResetToken: true})
}

// consume matches and updates under one lock, like a conditional write.
func (m *memoryAccounts) consume(
	_ context.Context,
	field func(*model.Account) *model.Token,
	token string,
	now time.Time,
	params repository.UpdateAccountParams,
) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for _, a := range m.byID {
		if t := field(a); live(t, now) && t.Value == token {
			return m.applyLocked(a, params), nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (m *memoryAccounts) UpdateAccount(
	_ context.Context,
	id string,
	params repository.UpdateAccountParams,
) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return m.applyLocked(a, params), nil
}

func (m *memoryAccounts) applyLocked(a *model.Account, params repository.UpdateAccountParams) *model.Account {
	if params.PasswordHash != nil {
		a.PasswordHash = *params.PasswordHash
	}
	if params.FirstName != nil {
		a.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		a.LastName = *params.LastName
	}
	if params.EmailVerified != nil {
		a.EmailVerified = *params.EmailVerified
	}
	switch {
	case params.ClearVerificationToken:
		a.VerificationToken = nil
	case params.VerificationToken != nil:
		t := *params.VerificationToken
		a.VerificationToken = &t
	}
	switch {
	case params.ClearPasswordResetToken:
		a.PasswordResetToken = nil
	case params.PasswordResetToken != nil:
		t := *params.PasswordResetToken
		a.PasswordResetToken = &t
	}
	a.UpdatedAt = time.Now().UTC()
	return clone(a)
}

func (m *memoryAccounts) ClearExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.byID {
		if a.VerificationToken != nil && !live(a.VerificationToken, now) {
			a.VerificationToken = nil
			n++
		}
		if a.PasswordResetToken != nil && !live(a.PasswordResetToken, now) {
			a.PasswordResetToken = nil
			n++
		}
	}
	return n, nil
}

func (m *memoryAccounts) Ping(context.Context) error { return nil }

func (m *memoryAccounts) get(t *testing.T, email string) *model.Account {
	t.Helper()
	a, err := m.GetAccountByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("account %s: %v", email, err)
	}
	return a
}

type plainHasher struct {
	err error
}

func (h plainHasher) HashPassword(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

func (h plainHasher) VerifyPassword(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "hashed:") {
		return false, errors.New("malformed hash")
	}
	return encoded == "hashed:"+password, nil
}

type sequenceTokens struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceTokens) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("token-%d", s.n), nil
}

type sentMessage struct {
	kind  string
	to    string
	token string
	name  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) SendEmailVerification(_ context.Context, to, token, name string) error {
	return n.record("verify", to, token, name)
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, to, token, name string) error {
	return n.record("reset", to, token, name)
}

func (n *recordingNotifier) record(kind, to, token, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{kind: kind, to: to, token: token, name: name})
	return nil
}

func (n *recordingNotifier) last() sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentMessage{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fixture struct {
	cfg      *config.AuthServiceConfig
	accounts *memoryAccounts
	notifier *recordingNotifier
	jwtAuth  auth.JWTAuthenticator
	now      time.Time

	auth     *authUsecase
	password *passwordUsecase
	profile  *profileUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.AuthServiceConfig{}
	cfg.Token.Issuer = "landlordy-api"
	cfg.Token.SessionSecret = testSessionSecret
	cfg.Token.SessionExpiresIn = 7 * 24 * time.Hour
	cfg.Token.VerificationExpiresIn = 24 * time.Hour
	cfg.Token.PasswordResetExpiresIn = time.Hour
	cfg.Notifier.Timeout = time.Second

	f := &fixture{
		cfg:      cfg,
		accounts: newMemoryAccounts(),
		notifier: &recordingNotifier{},
		jwtAuth:  auth.NewJWTAuthenticator("landlordy-api", "landlordy-api"),
		now:      time.Now().UTC(),
	}

	deps := Dependencies{
		Config:      cfg,
		AccountRepo: f.accounts,
		Hasher:      plainHasher{},
		Tokens:      &sequenceTokens{},
		Notifier:    f.notifier,
		JWTAuth:     f.jwtAuth,
	}

	f.auth = NewAuthUsecase(deps).(*authUsecase)
	f.password = NewPasswordUsecase(deps).(*passwordUsecase)
	f.profile = NewProfileUsecase(deps).(*profileUsecase)

	clock := func() time.Time { return f.now }
	f.auth.nowFn = clock
	f.password.nowFn = clock
	f.profile.nowFn = clock

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) register(t *testing.T, email, password string) *model.Account {
	t.Helper()
	account, err := f.auth.Register(context.Background(), RegisterParams{
		Email:     email,
		Password:  password,
		FirstName: "A",
		LastName:  "B",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return account
}

// registerVerified registers email and consumes the issued verification token.
func (f *fixture) registerVerified(t *testing.T, email, password string) *model.Account {
	t.Helper()
	account := f.register(t, email, password)
	if err := f.auth.VerifyEmail(context.Background(), VerifyEmailParams{Token: f.notifier.last().token}); err != nil {
		t.Fatalf("verify %s: %v", email, err)
	}
	return account
}
