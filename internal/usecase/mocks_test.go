package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pipaura/internal/domain"
)

// ============ Mock Linked Account Repository ============

type MockLinkedAccountRepository struct {
	mu            sync.Mutex
	accounts      map[uuid.UUID]*domain.LinkedAccount // by user id
	getErr        error
	sweepErr      error
	markErr       error
	sessionWrites int
}

func NewMockLinkedAccountRepository() *MockLinkedAccountRepository {
	return &MockLinkedAccountRepository{accounts: make(map[uuid.UUID]*domain.LinkedAccount)}
}

func (m *MockLinkedAccountRepository) put(a *domain.LinkedAccount) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.accounts[a.UserID] = &cp
}

func (m *MockLinkedAccountRepository) Upsert(ctx context.Context, a *domain.LinkedAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.accounts[a.UserID]; ok {
		a.ID = existing.ID
	}
	m.put(a)
	return nil
}

func (m *MockLinkedAccountRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*domain.LinkedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.accounts[userID]
	if !ok || !a.IsActive {
		return nil, domain.ErrNotLinked
	}
	cp := *a
	return &cp, nil
}

func (m *MockLinkedAccountRepository) GetSweepCandidates(ctx context.Context) ([]*domain.LinkedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sweepErr != nil {
		return nil, m.sweepErr
	}
	var out []*domain.LinkedAccount
	for _, a := range m.accounts {
		if a.IsActive && a.SyncStatus == domain.SyncStatusActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockLinkedAccountRepository) byID(id uuid.UUID) *domain.LinkedAccount {
	for _, a := range m.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (m *MockLinkedAccountRepository) UpdateSession(ctx context.Context, id uuid.UUID, sessionID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionWrites++
	if a := m.byID(id); a != nil {
		a.SessionID = &sessionID
		a.SessionExpiresAt = &expiresAt
	}
	return nil
}

func (m *MockLinkedAccountRepository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a := m.byID(id); a != nil {
		a.SyncStatus = domain.SyncStatusActive
		a.SyncErrorMessage = nil
		a.LastSyncAt = &at
	}
	return nil
}

func (m *MockLinkedAccountRepository) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.markErr != nil {
		return m.markErr
	}
	if a := m.byID(id); a != nil {
		a.SyncStatus = domain.SyncStatusError
		a.SyncErrorMessage = &message
	}
	return nil
}

func (m *MockLinkedAccountRepository) Deactivate(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.accounts[userID]; ok {
		a.IsActive = false
		a.SyncStatus = domain.SyncStatusDisconnected
	}
	return nil
}

func (m *MockLinkedAccountRepository) get(userID uuid.UUID) *domain.LinkedAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[userID]
}

// ============ Mock Broker Account Repository ============

type MockBrokerAccountRepository struct {
	mu         sync.Mutex
	accounts   map[string]*domain.BrokerSubAccount // by MyFxBook account id
	syncable   error
	upsertErr  error
	cursorErrs map[uuid.UUID]error
}

func NewMockBrokerAccountRepository() *MockBrokerAccountRepository {
	return &MockBrokerAccountRepository{
		accounts:   make(map[string]*domain.BrokerSubAccount),
		cursorErrs: make(map[uuid.UUID]error),
	}
}

func (m *MockBrokerAccountRepository) Upsert(ctx context.Context, a *domain.BrokerSubAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertErr != nil {
		return m.upsertErr
	}
	if existing, ok := m.accounts[a.BrokerAccountID]; ok {
		a.ID = existing.ID
		a.LastTradeID = existing.LastTradeID
	} else if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.accounts[a.BrokerAccountID] = &cp
	return nil
}

func (m *MockBrokerAccountRepository) GetByBrokerAccountID(ctx context.Context, brokerAccountID string) (*domain.BrokerSubAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[brokerAccountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockBrokerAccountRepository) GetSyncable(ctx context.Context, userID uuid.UUID) ([]*domain.BrokerSubAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.syncable != nil {
		return nil, m.syncable
	}
	var out []*domain.BrokerSubAccount
	for _, a := range m.accounts {
		if a.UserID == userID && a.IsActive && a.AutoSyncEnabled {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockBrokerAccountRepository) CountActive(ctx context.Context, linkedAccountID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, a := range m.accounts {
		if a.LinkedAccountID == linkedAccountID && a.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *MockBrokerAccountRepository) UpdateCursor(ctx context.Context, id uuid.UUID, lastTradeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.cursorErrs[id]; err != nil {
		return err
	}
	for _, a := range m.accounts {
		if a.ID == id {
			cursor := lastTradeID
			a.LastTradeID = &cursor
		}
	}
	return nil
}

func (m *MockBrokerAccountRepository) DeactivateMissing(ctx context.Context, linkedAccountID uuid.UUID, keep []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}

	var n int64
	for id, a := range m.accounts {
		if a.LinkedAccountID == linkedAccountID && a.IsActive && !kept[id] {
			a.IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *MockBrokerAccountRepository) DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if a.UserID == userID {
			a.IsActive = false
			a.AutoSyncEnabled = false
		}
	}
	return nil
}

func (m *MockBrokerAccountRepository) add(a *domain.BrokerSubAccount) *domain.BrokerSubAccount {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.accounts[a.BrokerAccountID] = a
	return a
}

func (m *MockBrokerAccountRepository) get(brokerAccountID string) *domain.BrokerSubAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[brokerAccountID]
}

// ============ Mock Trade Repository ============

type MockTradeRepository struct {
	mu         sync.Mutex
	trades     map[string]*domain.Trade // by user id + ticket id
	insertErrs map[string]error         // by ticket id
}

func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{
		trades:     make(map[string]*domain.Trade),
		insertErrs: make(map[string]error),
	}
}

func (m *MockTradeRepository) InsertIgnoreDuplicate(ctx context.Context, t *domain.Trade) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.insertErrs[t.TicketID]; err != nil {
		return false, err
	}
	key := t.UserID.String() + "|" + t.TicketID
	if _, exists := m.trades[key]; exists {
		return false, nil
	}
	m.trades[key] = t
	return true, nil
}

func (m *MockTradeRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trades)
}

func (m *MockTradeRepository) find(userID uuid.UUID, ticketID string) *domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trades[userID.String()+"|"+ticketID]
}

// ============ Mock Trade Account Repository ============

type MockTradeAccountRepository struct {
	mu        sync.Mutex
	created   []*domain.TradeAccount
	createErr error
	failNames map[string]bool
}

func (m *MockTradeAccountRepository) Create(ctx context.Context, a *domain.TradeAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil || m.failNames[a.AccountName] {
		return errBoom
	}
	a.ID = uuid.New()
	m.created = append(m.created, a)
	return nil
}

// ============ Mock Broker Client ============

type tradeCall struct {
	sessionID string
	accountID string
	since     string
}

type MockBrokerClient struct {
	mu              sync.Mutex
	session         string
	sessionTTL      time.Duration
	loginErr        error
	loginCalls      int
	accounts        []domain.BrokerAccount
	accountsErr     error
	trades          map[string][]domain.BrokerTrade
	tradeErrs       map[string]error
	invalidSessions map[string]bool
	tradeCalls      []tradeCall
}

func NewMockBrokerClient() *MockBrokerClient {
	return &MockBrokerClient{
		session:         "S1",
		sessionTTL:      24 * time.Hour,
		trades:          make(map[string][]domain.BrokerTrade),
		tradeErrs:       make(map[string]error),
		invalidSessions: make(map[string]bool),
	}
}

func (m *MockBrokerClient) Login(ctx context.Context, email, password string) (*domain.BrokerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loginCalls++
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &domain.BrokerSession{SessionID: m.session, ExpiresAt: time.Now().Add(m.sessionTTL)}, nil
}

func (m *MockBrokerClient) ListAccounts(ctx context.Context, sessionID string) ([]domain.BrokerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.invalidSessions[sessionID] {
		return nil, domain.ErrSessionInvalid
	}
	if m.accountsErr != nil {
		return nil, m.accountsErr
	}
	return m.accounts, nil
}

func (m *MockBrokerClient) ListTrades(ctx context.Context, sessionID, brokerAccountID, sinceTicketID string) ([]domain.BrokerTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tradeCalls = append(m.tradeCalls, tradeCall{sessionID: sessionID, accountID: brokerAccountID, since: sinceTicketID})

	if m.invalidSessions[sessionID] {
		return nil, domain.ErrSessionInvalid
	}
	if err := m.tradeErrs[brokerAccountID]; err != nil {
		return nil, err
	}
	return m.trades[brokerAccountID], nil
}

func (m *MockBrokerClient) logins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

// ============ Mock Vault ============

type MockVault struct {
	decryptErr error
}

func (v *MockVault) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (v *MockVault) Decrypt(ciphertext string) (string, error) {
	if v.decryptErr != nil {
		return "", v.decryptErr
	}
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", &domain.DecryptionError{Reason: "bad decrypt"}
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

// ============ Mock User Syncer ============

type MockUserSyncer struct {
	mu      sync.Mutex
	results map[uuid.UUID]*domain.SyncResult
	errs    map[uuid.UUID]error
	calls   []uuid.UUID
}

func NewMockUserSyncer() *MockUserSyncer {
	return &MockUserSyncer{
		results: make(map[uuid.UUID]*domain.SyncResult),
		errs:    make(map[uuid.UUID]error),
	}
}

func (m *MockUserSyncer) SyncUser(ctx context.Context, a *domain.LinkedAccount) (*domain.SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, a.UserID)
	if err := m.errs[a.UserID]; err != nil {
		return nil, err
	}
	if res, ok := m.results[a.UserID]; ok {
		return res, nil
	}
	return &domain.SyncResult{UserID: a.UserID}, nil
}

// ============ Mock Session Provider ============

type MockSessionProvider struct {
	readyErr error
}

func (m *MockSessionProvider) Ready() error { return m.readyErr }

func (m *MockSessionProvider) EnsureFreshSession(ctx context.Context, a *domain.LinkedAccount) (string, error) {
	return "S1", nil
}

func (m *MockSessionProvider) ForceRefresh(ctx context.Context, a *domain.LinkedAccount) (string, error) {
	return "S2", nil
}

// ============ Mock Notifier ============

type MockNotifier struct {
	mu      sync.Mutex
	results []*domain.SweepResult
	err     error
}

func (m *MockNotifier) NotifySweep(ctx context.Context, result *domain.SweepResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results = append(m.results, result)
	return m.err
}

var errBoom = errors.New("boom")
