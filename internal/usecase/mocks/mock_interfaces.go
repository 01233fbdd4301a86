//	mockgen -source=internal/usecase/interfaces.go -destination=internal/usecase/mocks/mock_interfaces.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"
	time "time"

	domain "github.com/ledgerkeep/ledgerkeep/internal/domain"
	usecase "github.com/ledgerkeep/ledgerkeep/internal/usecase"
	decimal "github.com/shopspring/decimal"
	gomock "go.uber.org/mock/gomock"
)

// MockAccountRepository is a mock of AccountRepository interface.
type MockAccountRepository struct {
	ctrl     *gomock.Controller
	recorder *MockAccountRepositoryMockRecorder
	isgomock struct{}
}

// MockAccountRepositoryMockRecorder is the mock recorder for MockAccountRepository.
type MockAccountRepositoryMockRecorder struct {
	mock *MockAccountRepository
}

// NewMockAccountRepository creates a new mock instance.
func NewMockAccountRepository(ctrl *gomock.Controller) *MockAccountRepository {
	mock := &MockAccountRepository{ctrl: ctrl}
	mock.recorder = &MockAccountRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAccountRepository) EXPECT() *MockAccountRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, account)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockAccountRepositoryMockRecorder) Create(ctx, tx, account any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockAccountRepository)(nil).Create), ctx, tx, account)
}

// GetByCode mocks base method.
func (m *MockAccountRepository) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByCode", ctx, code)
	ret0, _ := ret[0].(*domain.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByCode indicates an expected call of GetByCode.
func (mr *MockAccountRepositoryMockRecorder) GetByCode(ctx, code any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByCode", reflect.TypeOf((*MockAccountRepository)(nil).GetByCode), ctx, code)
}

// GetByCodes mocks base method.
func (m *MockAccountRepository) GetByCodes(ctx context.Context, codes []string) (map[string]*domain.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByCodes", ctx, codes)
	ret0, _ := ret[0].(map[string]*domain.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByCodes indicates an expected call of GetByCodes.
func (mr *MockAccountRepositoryMockRecorder) GetByCodes(ctx, codes any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByCodes", reflect.TypeOf((*MockAccountRepository)(nil).GetByCodes), ctx, codes)
}

// GetByID mocks base method.
func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockAccountRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockAccountRepository)(nil).GetByID), ctx, id)
}

// List mocks base method.
func (m *MockAccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx)
	ret0, _ := ret[0].([]*domain.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List.
func (mr *MockAccountRepositoryMockRecorder) List(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockAccountRepository)(nil).List), ctx)
}

// SetParent mocks base method.
func (m *MockAccountRepository) SetParent(ctx context.Context, tx usecase.Transaction, id, parentID string, updatedAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetParent", ctx, tx, id, parentID, updatedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// SetParent indicates an expected call of SetParent.
func (mr *MockAccountRepositoryMockRecorder) SetParent(ctx, tx, id, parentID, updatedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetParent", reflect.TypeOf((*MockAccountRepository)(nil).SetParent), ctx, tx, id, parentID, updatedAt)
}

// MockJournalRepository is a mock of JournalRepository interface.
type MockJournalRepository struct {
	ctrl     *gomock.Controller
	recorder *MockJournalRepositoryMockRecorder
	isgomock struct{}
}

// MockJournalRepositoryMockRecorder is the mock recorder for MockJournalRepository.
type MockJournalRepositoryMockRecorder struct {
	mock *MockJournalRepository
}

// NewMockJournalRepository creates a new mock instance.
func NewMockJournalRepository(ctrl *gomock.Controller) *MockJournalRepository {
	mock := &MockJournalRepository{ctrl: ctrl}
	mock.recorder = &MockJournalRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockJournalRepository) EXPECT() *MockJournalRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockJournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockJournalRepositoryMockRecorder) Create(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockJournalRepository)(nil).Create), ctx, tx, entry)
}

// GetByID mocks base method.
func (m *MockJournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.JournalEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockJournalRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockJournalRepository)(nil).GetByID), ctx, id)
}

// GetByTransactionRef mocks base method.
func (m *MockJournalRepository) GetByTransactionRef(ctx context.Context, ref string) (*domain.JournalEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByTransactionRef", ctx, ref)
	ret0, _ := ret[0].(*domain.JournalEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByTransactionRef indicates an expected call of GetByTransactionRef.
func (mr *MockJournalRepositoryMockRecorder) GetByTransactionRef(ctx, ref any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByTransactionRef", reflect.TypeOf((*MockJournalRepository)(nil).GetByTransactionRef), ctx, ref)
}

// List mocks base method.
func (m *MockJournalRepository) List(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, limit, offset)
	ret0, _ := ret[0].([]*domain.JournalEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List.
func (mr *MockJournalRepositoryMockRecorder) List(ctx, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockJournalRepository)(nil).List), ctx, limit, offset)
}

// MockReportingRepository is a mock of ReportingRepository interface.
type MockReportingRepository struct {
	ctrl     *gomock.Controller
	recorder *MockReportingRepositoryMockRecorder
	isgomock struct{}
}

// MockReportingRepositoryMockRecorder is the mock recorder for MockReportingRepository.
type MockReportingRepositoryMockRecorder struct {
	mock *MockReportingRepository
}

// NewMockReportingRepository creates a new mock instance.
func NewMockReportingRepository(ctrl *gomock.Controller) *MockReportingRepository {
	mock := &MockReportingRepository{ctrl: ctrl}
	mock.recorder = &MockReportingRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockReportingRepository) EXPECT() *MockReportingRepositoryMockRecorder {
	return m.recorder
}

// AccountTotals mocks base method.
func (m *MockReportingRepository) AccountTotals(ctx context.Context) ([]usecase.BalanceRow, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AccountTotals", ctx)
	ret0, _ := ret[0].([]usecase.BalanceRow)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// AccountTotals indicates an expected call of AccountTotals.
func (mr *MockReportingRepositoryMockRecorder) AccountTotals(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AccountTotals", reflect.TypeOf((*MockReportingRepository)(nil).AccountTotals), ctx)
}

// AccountTotalsByCode mocks base method.
func (m *MockReportingRepository) AccountTotalsByCode(ctx context.Context, code string) (*usecase.BalanceRow, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AccountTotalsByCode", ctx, code)
	ret0, _ := ret[0].(*usecase.BalanceRow)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// AccountTotalsByCode indicates an expected call of AccountTotalsByCode.
func (mr *MockReportingRepositoryMockRecorder) AccountTotalsByCode(ctx, code any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AccountTotalsByCode", reflect.TypeOf((*MockReportingRepository)(nil).AccountTotalsByCode), ctx, code)
}

// LedgerTotals mocks base method.
func (m *MockReportingRepository) LedgerTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LedgerTotals", ctx)
	ret0, _ := ret[0].(decimal.Decimal)
	ret1, _ := ret[1].(decimal.Decimal)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// LedgerTotals indicates an expected call of LedgerTotals.
func (mr *MockReportingRepositoryMockRecorder) LedgerTotals(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LedgerTotals", reflect.TypeOf((*MockReportingRepository)(nil).LedgerTotals), ctx)
}

// MockClaimRightRepository is a mock of ClaimRightRepository interface.
type MockClaimRightRepository struct {
	ctrl     *gomock.Controller
	recorder *MockClaimRightRepositoryMockRecorder
	isgomock struct{}
}

// MockClaimRightRepositoryMockRecorder is the mock recorder for MockClaimRightRepository.
type MockClaimRightRepositoryMockRecorder struct {
	mock *MockClaimRightRepository
}

// NewMockClaimRightRepository creates a new mock instance.
func NewMockClaimRightRepository(ctrl *gomock.Controller) *MockClaimRightRepository {
	mock := &MockClaimRightRepository{ctrl: ctrl}
	mock.recorder = &MockClaimRightRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockClaimRightRepository) EXPECT() *MockClaimRightRepositoryMockRecorder {
	return m.recorder
}

// ActiveTotalsByType mocks base method.
func (m *MockClaimRightRepository) ActiveTotalsByType(ctx context.Context) (map[domain.ClaimType]usecase.ClaimTotals, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ActiveTotalsByType", ctx)
	ret0, _ := ret[0].(map[domain.ClaimType]usecase.ClaimTotals)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ActiveTotalsByType indicates an expected call of ActiveTotalsByType.
func (mr *MockClaimRightRepositoryMockRecorder) ActiveTotalsByType(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ActiveTotalsByType", reflect.TypeOf((*MockClaimRightRepository)(nil).ActiveTotalsByType), ctx)
}

// Cancel mocks base method.
func (m *MockClaimRightRepository) Cancel(ctx context.Context, tx usecase.Transaction, id, reason string, cancelledAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Cancel", ctx, tx, id, reason, cancelledAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// Cancel indicates an expected call of Cancel.
func (mr *MockClaimRightRepositoryMockRecorder) Cancel(ctx, tx, id, reason, cancelledAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Cancel", reflect.TypeOf((*MockClaimRightRepository)(nil).Cancel), ctx, tx, id, reason, cancelledAt)
}

// CountByStatus mocks base method.
func (m *MockClaimRightRepository) CountByStatus(ctx context.Context) (map[domain.ClaimStatus]int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountByStatus", ctx)
	ret0, _ := ret[0].(map[domain.ClaimStatus]int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountByStatus indicates an expected call of CountByStatus.
func (mr *MockClaimRightRepositoryMockRecorder) CountByStatus(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountByStatus", reflect.TypeOf((*MockClaimRightRepository)(nil).CountByStatus), ctx)
}

// Create mocks base method.
func (m *MockClaimRightRepository) Create(ctx context.Context, tx usecase.Transaction, claim *domain.ClaimRight) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, claim)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockClaimRightRepositoryMockRecorder) Create(ctx, tx, claim any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockClaimRightRepository)(nil).Create), ctx, tx, claim)
}

// GetByID mocks base method.
func (m *MockClaimRightRepository) GetByID(ctx context.Context, id string) (*domain.ClaimRight, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.ClaimRight)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockClaimRightRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockClaimRightRepository)(nil).GetByID), ctx, id)
}

// GetByIDForUpdate mocks base method.
func (m *MockClaimRightRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ClaimRight, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByIDForUpdate", ctx, tx, id)
	ret0, _ := ret[0].(*domain.ClaimRight)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByIDForUpdate indicates an expected call of GetByIDForUpdate.
func (mr *MockClaimRightRepositoryMockRecorder) GetByIDForUpdate(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByIDForUpdate", reflect.TypeOf((*MockClaimRightRepository)(nil).GetByIDForUpdate), ctx, tx, id)
}

// List mocks base method.
func (m *MockClaimRightRepository) List(ctx context.Context, filter usecase.ClaimFilter, limit, offset int) ([]*domain.ClaimRight, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, filter, limit, offset)
	ret0, _ := ret[0].([]*domain.ClaimRight)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List.
func (mr *MockClaimRightRepositoryMockRecorder) List(ctx, filter, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockClaimRightRepository)(nil).List), ctx, filter, limit, offset)
}

// UpdateAmounts mocks base method.
func (m *MockClaimRightRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, claim *domain.ClaimRight) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateAmounts", ctx, tx, claim)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateAmounts indicates an expected call of UpdateAmounts.
func (mr *MockClaimRightRepositoryMockRecorder) UpdateAmounts(ctx, tx, claim any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateAmounts", reflect.TypeOf((*MockClaimRightRepository)(nil).UpdateAmounts), ctx, tx, claim)
}

// MockAmortizationRepository is a mock of AmortizationRepository interface.
type MockAmortizationRepository struct {
	ctrl     *gomock.Controller
	recorder *MockAmortizationRepositoryMockRecorder
	isgomock struct{}
}

// MockAmortizationRepositoryMockRecorder is the mock recorder for MockAmortizationRepository.
type MockAmortizationRepositoryMockRecorder struct {
	mock *MockAmortizationRepository
}

// NewMockAmortizationRepository creates a new mock instance.
func NewMockAmortizationRepository(ctrl *gomock.Controller) *MockAmortizationRepository {
	mock := &MockAmortizationRepository{ctrl: ctrl}
	mock.recorder = &MockAmortizationRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAmortizationRepository) EXPECT() *MockAmortizationRepositoryMockRecorder {
	return m.recorder
}

// CreateSchedule mocks base method.
func (m *MockAmortizationRepository) CreateSchedule(ctx context.Context, tx usecase.Transaction, schedule *domain.AmortizationSchedule) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateSchedule", ctx, tx, schedule)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateSchedule indicates an expected call of CreateSchedule.
func (mr *MockAmortizationRepositoryMockRecorder) CreateSchedule(ctx, tx, schedule any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateSchedule", reflect.TypeOf((*MockAmortizationRepository)(nil).CreateSchedule), ctx, tx, schedule)
}

// GetEntry mocks base method.
func (m *MockAmortizationRepository) GetEntry(ctx context.Context, id string) (*domain.AmortizationEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetEntry", ctx, id)
	ret0, _ := ret[0].(*domain.AmortizationEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetEntry indicates an expected call of GetEntry.
func (mr *MockAmortizationRepositoryMockRecorder) GetEntry(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetEntry", reflect.TypeOf((*MockAmortizationRepository)(nil).GetEntry), ctx, id)
}

// GetScheduleByClaim mocks base method.
func (m *MockAmortizationRepository) GetScheduleByClaim(ctx context.Context, claimRightID string) (*domain.AmortizationSchedule, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetScheduleByClaim", ctx, claimRightID)
	ret0, _ := ret[0].(*domain.AmortizationSchedule)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetScheduleByClaim indicates an expected call of GetScheduleByClaim.
func (mr *MockAmortizationRepositoryMockRecorder) GetScheduleByClaim(ctx, claimRightID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetScheduleByClaim", reflect.TypeOf((*MockAmortizationRepository)(nil).GetScheduleByClaim), ctx, claimRightID)
}

// MarkPosted mocks base method.
func (m *MockAmortizationRepository) MarkPosted(ctx context.Context, tx usecase.Transaction, entryID, journalEntryID string, postedAt time.Time) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkPosted", ctx, tx, entryID, journalEntryID, postedAt)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// MarkPosted indicates an expected call of MarkPosted.
func (mr *MockAmortizationRepositoryMockRecorder) MarkPosted(ctx, tx, entryID, journalEntryID, postedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkPosted", reflect.TypeOf((*MockAmortizationRepository)(nil).MarkPosted), ctx, tx, entryID, journalEntryID, postedAt)
}

// PendingStats mocks base method.
func (m *MockAmortizationRepository) PendingStats(ctx context.Context, asOf time.Time) (int, decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PendingStats", ctx, asOf)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(decimal.Decimal)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// PendingStats indicates an expected call of PendingStats.
func (mr *MockAmortizationRepositoryMockRecorder) PendingStats(ctx, asOf any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PendingStats", reflect.TypeOf((*MockAmortizationRepository)(nil).PendingStats), ctx, asOf)
}

// SelectPending mocks base method.
func (m *MockAmortizationRepository) SelectPending(ctx context.Context, periodStart, periodEnd time.Time) ([]*domain.AmortizationEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SelectPending", ctx, periodStart, periodEnd)
	ret0, _ := ret[0].([]*domain.AmortizationEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SelectPending indicates an expected call of SelectPending.
func (mr *MockAmortizationRepositoryMockRecorder) SelectPending(ctx, periodStart, periodEnd any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SelectPending", reflect.TypeOf((*MockAmortizationRepository)(nil).SelectPending), ctx, periodStart, periodEnd)
}

// SkipPending mocks base method.
func (m *MockAmortizationRepository) SkipPending(ctx context.Context, tx usecase.Transaction, claimRightID string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SkipPending", ctx, tx, claimRightID)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SkipPending indicates an expected call of SkipPending.
func (mr *MockAmortizationRepositoryMockRecorder) SkipPending(ctx, tx, claimRightID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SkipPending", reflect.TypeOf((*MockAmortizationRepository)(nil).SkipPending), ctx, tx, claimRightID)
}

// MockOutboxRepository is a mock of OutboxRepository interface.
type MockOutboxRepository struct {
	ctrl     *gomock.Controller
	recorder *MockOutboxRepositoryMockRecorder
	isgomock struct{}
}

// MockOutboxRepositoryMockRecorder is the mock recorder for MockOutboxRepository.
type MockOutboxRepositoryMockRecorder struct {
	mock *MockOutboxRepository
}

// NewMockOutboxRepository creates a new mock instance.
func NewMockOutboxRepository(ctrl *gomock.Controller) *MockOutboxRepository {
	mock := &MockOutboxRepository{ctrl: ctrl}
	mock.recorder = &MockOutboxRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOutboxRepository) EXPECT() *MockOutboxRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, event)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockOutboxRepositoryMockRecorder) Create(ctx, tx, event any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockOutboxRepository)(nil).Create), ctx, tx, event)
}

// DeletePublished mocks base method.
func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeletePublished", ctx, before)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeletePublished indicates an expected call of DeletePublished.
func (mr *MockOutboxRepositoryMockRecorder) DeletePublished(ctx, before any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeletePublished", reflect.TypeOf((*MockOutboxRepository)(nil).DeletePublished), ctx, before)
}

// GetByAggregate mocks base method.
func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByAggregate", ctx, aggregateType, aggregateID, limit, offset)
	ret0, _ := ret[0].([]*domain.OutboxEvent)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByAggregate indicates an expected call of GetByAggregate.
func (mr *MockOutboxRepositoryMockRecorder) GetByAggregate(ctx, aggregateType, aggregateID, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByAggregate", reflect.TypeOf((*MockOutboxRepository)(nil).GetByAggregate), ctx, aggregateType, aggregateID, limit, offset)
}

// GetUnpublished mocks base method.
func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetUnpublished", ctx, limit)
	ret0, _ := ret[0].([]*domain.OutboxEvent)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetUnpublished indicates an expected call of GetUnpublished.
func (mr *MockOutboxRepositoryMockRecorder) GetUnpublished(ctx, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetUnpublished", reflect.TypeOf((*MockOutboxRepository)(nil).GetUnpublished), ctx, limit)
}

// MarkPublished mocks base method.
func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkPublished", ctx, id, publishedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkPublished indicates an expected call of MarkPublished.
func (mr *MockOutboxRepositoryMockRecorder) MarkPublished(ctx, id, publishedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkPublished", reflect.TypeOf((*MockOutboxRepository)(nil).MarkPublished), ctx, id, publishedAt)
}

// MockTransaction is a mock of Transaction interface.
type MockTransaction struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionMockRecorder
	isgomock struct{}
}

// MockTransactionMockRecorder is the mock recorder for MockTransaction.
type MockTransactionMockRecorder struct {
	mock *MockTransaction
}

// NewMockTransaction creates a new mock instance.
func NewMockTransaction(ctrl *gomock.Controller) *MockTransaction {
	mock := &MockTransaction{ctrl: ctrl}
	mock.recorder = &MockTransactionMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransaction) EXPECT() *MockTransactionMockRecorder {
	return m.recorder
}

// Commit mocks base method.
func (m *MockTransaction) Commit(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Commit", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Commit indicates an expected call of Commit.
func (mr *MockTransactionMockRecorder) Commit(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Commit", reflect.TypeOf((*MockTransaction)(nil).Commit), ctx)
}

// Rollback mocks base method.
func (m *MockTransaction) Rollback(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Rollback", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Rollback indicates an expected call of Rollback.
func (mr *MockTransactionMockRecorder) Rollback(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Rollback", reflect.TypeOf((*MockTransaction)(nil).Rollback), ctx)
}

// MockTransactionManager is a mock of TransactionManager interface.
type MockTransactionManager struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionManagerMockRecorder
	isgomock struct{}
}

// MockTransactionManagerMockRecorder is the mock recorder for MockTransactionManager.
type MockTransactionManagerMockRecorder struct {
	mock *MockTransactionManager
}

// NewMockTransactionManager creates a new mock instance.
func NewMockTransactionManager(ctrl *gomock.Controller) *MockTransactionManager {
	mock := &MockTransactionManager{ctrl: ctrl}
	mock.recorder = &MockTransactionManagerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransactionManager) EXPECT() *MockTransactionManagerMockRecorder {
	return m.recorder
}

// Begin mocks base method.
func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Begin", ctx)
	ret0, _ := ret[0].(usecase.Transaction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Begin indicates an expected call of Begin.
func (mr *MockTransactionManagerMockRecorder) Begin(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Begin", reflect.TypeOf((*MockTransactionManager)(nil).Begin), ctx)
}

// MockIDGenerator is a mock of IDGenerator interface.
type MockIDGenerator struct {
	ctrl     *gomock.Controller
	recorder *MockIDGeneratorMockRecorder
	isgomock struct{}
}

// MockIDGeneratorMockRecorder is the mock recorder for MockIDGenerator.
type MockIDGeneratorMockRecorder struct {
	mock *MockIDGenerator
}

// NewMockIDGenerator creates a new mock instance.
func NewMockIDGenerator(ctrl *gomock.Controller) *MockIDGenerator {
	mock := &MockIDGenerator{ctrl: ctrl}
	mock.recorder = &MockIDGeneratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIDGenerator) EXPECT() *MockIDGeneratorMockRecorder {
	return m.recorder
}

// Generate mocks base method.
func (m *MockIDGenerator) Generate() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Generate")
	ret0, _ := ret[0].(string)
	return ret0
}

// Generate indicates an expected call of Generate.
func (mr *MockIDGeneratorMockRecorder) Generate() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Generate", reflect.TypeOf((*MockIDGenerator)(nil).Generate))
}

// MockLocker is a mock of Locker interface.
type MockLocker struct {
	ctrl     *gomock.Controller
	recorder *MockLockerMockRecorder
	isgomock struct{}
}

// MockLockerMockRecorder is the mock recorder for MockLocker.
type MockLockerMockRecorder struct {
	mock *MockLocker
}

// NewMockLocker creates a new mock instance.
func NewMockLocker(ctrl *gomock.Controller) *MockLocker {
	mock := &MockLocker{ctrl: ctrl}
	mock.recorder = &MockLockerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockLocker) EXPECT() *MockLockerMockRecorder {
	return m.recorder
}

// Acquire mocks base method.
func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Acquire", ctx, key, ttl)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Acquire indicates an expected call of Acquire.
func (mr *MockLockerMockRecorder) Acquire(ctx, key, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Acquire", reflect.TypeOf((*MockLocker)(nil).Acquire), ctx, key, ttl)
}

// Release mocks base method.
func (m *MockLocker) Release(ctx context.Context, key string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Release", ctx, key)
	ret0, _ := ret[0].(error)
	return ret0
}

// Release indicates an expected call of Release.
func (mr *MockLockerMockRecorder) Release(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Release", reflect.TypeOf((*MockLocker)(nil).Release), ctx, key)
}

// MockRetrier is a mock of Retrier interface.
type MockRetrier struct {
	ctrl     *gomock.Controller
	recorder *MockRetrierMockRecorder
	isgomock struct{}
}

// MockRetrierMockRecorder is the mock recorder for MockRetrier.
type MockRetrierMockRecorder struct {
	mock *MockRetrier
}

// NewMockRetrier creates a new mock instance.
func NewMockRetrier(ctrl *gomock.Controller) *MockRetrier {
	mock := &MockRetrier{ctrl: ctrl}
	mock.recorder = &MockRetrierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRetrier) EXPECT() *MockRetrierMockRecorder {
	return m.recorder
}

// Do mocks base method.
func (m *MockRetrier) Do(ctx context.Context, operation func() error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Do", ctx, operation)
	ret0, _ := ret[0].(error)
	return ret0
}

// Do indicates an expected call of Do.
func (mr *MockRetrierMockRecorder) Do(ctx, operation any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Do", reflect.TypeOf((*MockRetrier)(nil).Do), ctx, operation)
}
