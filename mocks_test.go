package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/pagewright/auth"
)

// testConfig lets tests drive token lifetimes directly, including negative
// TTLs to mint already-expired tokens.
type testConfig struct {
	accessKey    string
	refreshKey   string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	issuer       string
	audience     []string
	cookieName   string
	cookieSecure bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		accessKey:  "access-secret",
		refreshKey: "refresh-secret",
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		issuer:     "pagewright-test",
		cookieName: auth.DefaultCookieName,
	}
}

func (c *testConfig) GetAccessSigningKey() string        { return c.accessKey }
func (c *testConfig) GetRefreshSigningKey() string       { return c.refreshKey }
func (c *testConfig) GetAccessTokenTTL() time.Duration   { return c.accessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration  { return c.refreshTTL }
func (c *testConfig) GetIssuer() string                  { return c.issuer }
func (c *testConfig) GetAudience() []string              { return c.audience }
func (c *testConfig) GetAuthScheme() string              { return auth.DefaultAuthScheme }
func (c *testConfig) GetCookieName() string              { return c.cookieName }
func (c *testConfig) GetCookieSecure() bool              { return c.cookieSecure }

// recordingLogger captures formatted log lines for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debug(format string, args ...any) { l.logf(format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.logf(format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.logf(format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.logf(format, args...) }

func (l *recordingLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// memAccounts is an in-memory Accounts store mirroring the uniqueness
// constraints the relational schema enforces.
type memAccounts struct {
	mu      sync.Mutex
	records map[uuid.UUID]*auth.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{records: map[uuid.UUID]*auth.Account{}}
}

var _ auth.Accounts = (*memAccounts)(nil)

func (m *memAccounts) FindByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record, ok := m.records[id]; ok {
		clone := *record
		return &clone, nil
	}
	return nil, auth.ErrAccountNotFound
}

func (m *memAccounts) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	return m.findBy(func(a *auth.Account) bool { return a.Username == username })
}

func (m *memAccounts) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	if email == "" {
		return nil, auth.ErrAccountNotFound
	}
	return m.findBy(func(a *auth.Account) bool { return a.Email == email })
}

func (m *memAccounts) FindBySubjectID(ctx context.Context, subjectID string) (*auth.Account, error) {
	if subjectID == "" {
		return nil, auth.ErrAccountNotFound
	}
	return m.findBy(func(a *auth.Account) bool { return a.SubjectID == subjectID })
}

func (m *memAccounts) findBy(match func(*auth.Account) bool) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if match(record) {
			clone := *record
			return &clone, nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (m *memAccounts) Create(ctx context.Context, record *auth.Account) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = auth.RoleMember
	}
	now := time.Now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	if err := m.checkUnique(record); err != nil {
		return nil, err
	}

	clone := *record
	m.records[record.ID] = &clone
	return record, nil
}

func (m *memAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *auth.Account) (*auth.Account, error) {
	return m.Create(ctx, record)
}

func (m *memAccounts) Update(ctx context.Context, record *auth.Account) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return nil, auth.ErrAccountNotFound
	}

	if err := m.checkUnique(record); err != nil {
		return nil, err
	}

	now := time.Now()
	record.UpdatedAt = &now
	clone := *record
	m.records[record.ID] = &clone
	return record, nil
}

func (m *memAccounts) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}

	record.Role = role
	clone := *record
	return &clone, nil
}

func (m *memAccounts) checkUnique(record *auth.Account) error {
	for _, other := range m.records {
		if other.ID == record.ID {
			continue
		}
		if other.Username == record.Username {
			return auth.ErrDuplicateUsername
		}
		if record.Email != "" && other.Email == record.Email {
			return auth.ErrDuplicateEmail
		}
		if record.SubjectID != "" && other.SubjectID == record.SubjectID {
			return auth.ErrDuplicateExternalIdentity
		}
	}
	return nil
}

// memSessions is an in-memory RefreshSessions store.
type memSessions struct {
	mu      sync.Mutex
	records map[string]*auth.RefreshSession
}

func newMemSessions() *memSessions {
	return &memSessions{records: map[string]*auth.RefreshSession{}}
}

var _ auth.RefreshSessions = (*memSessions)(nil)

func (m *memSessions) Create(ctx context.Context, session *auth.RefreshSession) (*auth.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt == nil {
		now := time.Now()
		session.CreatedAt = &now
	}

	clone := *session
	m.records[session.Token] = &clone
	return session, nil
}

func (m *memSessions) FindByToken(ctx context.Context, token string) (*auth.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.records[token]; ok {
		clone := *session
		return &clone, nil
	}
	return nil, auth.ErrRefreshTokenNotFound
}

func (m *memSessions) DeleteByToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, token)
	return nil
}

func (m *memSessions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, session := range m.records {
		if session.ID == id {
			delete(m.records, token)
		}
	}
	return nil
}

func (m *memSessions) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, session := range m.records {
		if session.AccountID == accountID {
			delete(m.records, token)
		}
	}
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// memRepo wires the in-memory stores behind the RepositoryManager surface.
type memRepo struct {
	accounts *memAccounts
	sessions *memSessions
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts: newMemAccounts(),
		sessions: newMemSessions(),
	}
}

var _ auth.RepositoryManager = (*memRepo)(nil)

func (m *memRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *memRepo) Validate() error { return nil }

func (m *memRepo) MustValidate() {}

func (m *memRepo) Accounts() auth.Accounts { return m.accounts }

func (m *memRepo) RefreshSessions() auth.RefreshSessions { return m.sessions }
