package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase/mocks"
)

var (
	windowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
)

type accrualMocks struct {
	txMgr       *mocks.MockTransactionManager
	tx          *mocks.MockTransaction
	claimRepo   *mocks.MockClaimRightRepository
	amortRepo   *mocks.MockAmortizationRepository
	journalRepo *mocks.MockJournalRepository
	outboxRepo  *mocks.MockOutboxRepository
	accountRepo *mocks.MockAccountRepository
	retrier     *mocks.MockRetrier
	idGen       *mocks.MockIDGenerator
}

func newAccrualMocks(ctrl *gomock.Controller) *accrualMocks {
	m := &accrualMocks{
		txMgr:       mocks.NewMockTransactionManager(ctrl),
		tx:          mocks.NewMockTransaction(ctrl),
		claimRepo:   mocks.NewMockClaimRightRepository(ctrl),
		amortRepo:   mocks.NewMockAmortizationRepository(ctrl),
		journalRepo: mocks.NewMockJournalRepository(ctrl),
		outboxRepo:  mocks.NewMockOutboxRepository(ctrl),
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		retrier:     mocks.NewMockRetrier(ctrl),
		idGen:       mocks.NewMockIDGenerator(ctrl),
	}
	// Pass every operation straight through.
	m.retrier.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, op func() error) error { return op() },
	).AnyTimes()
	sequentialIDs(m.idGen)
	return m
}

func (m *accrualMocks) useCase() *usecase.AccrualUseCase {
	registry := usecase.NewRegistryUseCase(m.txMgr, m.accountRepo, nil, m.idGen)
	return usecase.NewAccrualUseCase(
		m.txMgr, m.claimRepo, m.amortRepo, m.journalRepo, m.outboxRepo,
		registry, m.retrier, m.idGen, nil, zerolog.Nop(),
	)
}

func windowInput(dryRun bool) usecase.ProcessPeriodInput {
	start, end := windowStart, windowEnd
	return usecase.ProcessPeriodInput{PeriodStart: &start, PeriodEnd: &end, DryRun: dryRun}
}

func pendingEntry(id, claimID, amount string) *domain.AmortizationEntry {
	return &domain.AmortizationEntry{
		ID:           id,
		ClaimRightID: claimID,
		PeriodNumber: 1,
		PeriodStart:  windowStart,
		PeriodEnd:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.RequireFromString(amount),
		Status:       domain.EntryStatusPending,
	}
}

func activeClaim(id string, claimType domain.ClaimType, remaining string) *domain.ClaimRight {
	rem := decimal.RequireFromString(remaining)
	return &domain.ClaimRight{
		ID:              id,
		Type:            claimType,
		Description:     "Claim " + id,
		TotalAmount:     decimal.NewFromInt(1200),
		RemainingAmount: rem,
		AmortizedAmount: decimal.NewFromInt(1200).Sub(rem),
		StartDate:       windowStart,
		EndDate:         time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Frequency:       domain.FrequencyMonthly,
		Status:          domain.ClaimStatusActive,
		IsProbable:      true,
		IsMeasurable:    true,
	}
}

func TestAccrualUseCase_ProcessPeriod_PostsAssetClaim(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	entry := pendingEntry("ae-1", "cr-1", "100")
	claim := activeClaim("cr-1", domain.ClaimTypeAsset, "1100")
	claim.Category = "Utilities"

	m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
		Return([]*domain.AmortizationEntry{entry}, nil)
	m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-1").Return(claim, nil)
	m.accountRepo.EXPECT().GetByCodes(gomock.Any(), []string{"5500", "1400"}).Return(map[string]*domain.Account{
		"5500": {ID: "a-5500", Code: "5500", Type: domain.AccountTypeExpense},
		"1400": {ID: "a-1400", Code: "1400", Type: domain.AccountTypeAsset},
	}, nil)
	m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)

	var journalEntry *domain.JournalEntry
	m.journalRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, e *domain.JournalEntry) error {
			journalEntry = e
			return nil
		})
	m.amortRepo.EXPECT().MarkPosted(gomock.Any(), m.tx, "ae-1", gomock.Any(), gomock.Any()).Return(true, nil)
	m.claimRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "cr-1").Return(claim, nil)

	var updated *domain.ClaimRight
	m.claimRepo.EXPECT().UpdateAmounts(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, c *domain.ClaimRight) error {
			updated = c
			return nil
		})
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.EntriesProcessed != 1 {
		t.Errorf("expected 1 entry processed, got %d", result.EntriesProcessed)
	}
	if !result.TotalAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected total 100, got %s", result.TotalAmount)
	}
	if result.AssetClaims != 1 || result.LiabilityClaims != 0 {
		t.Errorf("expected 1 asset claim, got asset=%d liability=%d", result.AssetClaims, result.LiabilityClaims)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
	if len(result.PostedEntries) != 1 || result.PostedEntries[0].JournalEntryID == "" {
		t.Errorf("expected posted entry with journal reference, got %+v", result.PostedEntries)
	}

	if journalEntry == nil {
		t.Fatal("expected a journal entry")
	}
	if !journalEntry.IsAdjusting {
		t.Error("expected an adjusting entry")
	}
	if journalEntry.Reference != "AMORT-cr-1-1" {
		t.Errorf("unexpected reference: %s", journalEntry.Reference)
	}
	if len(journalEntry.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(journalEntry.Lines))
	}
	if journalEntry.Lines[0].AccountID != "a-5500" || !journalEntry.Lines[0].Debit.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected expense debit of 100, got %+v", journalEntry.Lines[0])
	}
	if journalEntry.Lines[0].AccountCode != "5500" || journalEntry.Lines[1].AccountCode != "1400" {
		t.Errorf("expected lines to carry account codes, got %q and %q",
			journalEntry.Lines[0].AccountCode, journalEntry.Lines[1].AccountCode)
	}
	if journalEntry.Lines[1].AccountID != "a-1400" || !journalEntry.Lines[1].Credit.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected prepaid credit of 100, got %+v", journalEntry.Lines[1])
	}

	if updated == nil {
		t.Fatal("expected claim amounts update")
	}
	if !updated.RemainingAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected remaining 1000, got %s", updated.RemainingAmount)
	}
	if updated.Status != domain.ClaimStatusActive {
		t.Errorf("expected claim still active, got %s", updated.Status)
	}
}

func TestAccrualUseCase_ProcessPeriod_LiabilityAccounts(t *testing.T) {
	tests := []struct {
		name       string
		ref        string
		creditCode string
	}{
		{"claim from ingested transaction credits service revenue", "txn-9", "4200"},
		{"standalone claim credits sales revenue", "", "4100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			m := newAccrualMocks(ctrl)

			entry := pendingEntry("ae-2", "cr-2", "100")
			claim := activeClaim("cr-2", domain.ClaimTypeLiability, "400")
			claim.TransactionRef = tt.ref

			creditAccountID := "a-" + tt.creditCode

			m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
				Return([]*domain.AmortizationEntry{entry}, nil)
			m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-2").Return(claim, nil)
			m.accountRepo.EXPECT().GetByCodes(gomock.Any(), []string{"2400", tt.creditCode}).Return(map[string]*domain.Account{
				"2400":        {ID: "a-2400", Code: "2400", Type: domain.AccountTypeLiability},
				tt.creditCode: {ID: creditAccountID, Code: tt.creditCode, Type: domain.AccountTypeRevenue},
			}, nil)
			m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)

			var journalEntry *domain.JournalEntry
			m.journalRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
				func(_ context.Context, _ usecase.Transaction, e *domain.JournalEntry) error {
					journalEntry = e
					return nil
				})
			m.amortRepo.EXPECT().MarkPosted(gomock.Any(), m.tx, "ae-2", gomock.Any(), gomock.Any()).Return(true, nil)
			m.claimRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "cr-2").Return(claim, nil)
			m.claimRepo.EXPECT().UpdateAmounts(gomock.Any(), m.tx, gomock.Any()).Return(nil)
			m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
			m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
			m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

			result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(false))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.LiabilityClaims != 1 {
				t.Errorf("expected 1 liability claim, got %d", result.LiabilityClaims)
			}
			if journalEntry.Lines[0].AccountID != "a-2400" || !journalEntry.Lines[0].Debit.Equal(decimal.NewFromInt(100)) {
				t.Errorf("expected deferred revenue debit, got %+v", journalEntry.Lines[0])
			}
			if journalEntry.Lines[1].AccountID != creditAccountID || !journalEntry.Lines[1].Credit.Equal(decimal.NewFromInt(100)) {
				t.Errorf("expected revenue credit on %s, got %+v", tt.creditCode, journalEntry.Lines[1])
			}
		})
	}
}

func TestAccrualUseCase_ProcessPeriod_ZeroAmountPostsWithoutJournal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	// Subcent totals produce 0.00 periods; they must drain without creating
	// a journal entry (a two-sided zero line would never validate).
	entry := pendingEntry("ae-1", "cr-1", "0")
	claim := activeClaim("cr-1", domain.ClaimTypeAsset, "1100")

	m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
		Return([]*domain.AmortizationEntry{entry}, nil)
	m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-1").Return(claim, nil)
	m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.amortRepo.EXPECT().MarkPosted(gomock.Any(), m.tx, "ae-1", "", gomock.Any()).Return(true, nil)
	m.claimRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "cr-1").Return(claim, nil)
	m.claimRepo.EXPECT().UpdateAmounts(gomock.Any(), m.tx, gomock.Any()).Return(nil)

	var event *domain.OutboxEvent
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, e *domain.OutboxEvent) error {
			event = e
			return nil
		})
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.EntriesProcessed != 1 {
		t.Errorf("expected 1 entry processed, got %d", result.EntriesProcessed)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
	if len(result.PostedEntries) != 1 || result.PostedEntries[0].JournalEntryID != "" {
		t.Errorf("expected posted entry without journal reference, got %+v", result.PostedEntries)
	}
	if !result.TotalAmount.IsZero() {
		t.Errorf("expected zero total, got %s", result.TotalAmount)
	}
	if event == nil || event.Payload["journal_entry_id"] != "" {
		t.Errorf("expected event without journal reference, got %+v", event)
	}
}

func TestAccrualUseCase_ProcessPeriod_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	entry := pendingEntry("ae-1", "cr-1", "100")
	claim := activeClaim("cr-1", domain.ClaimTypeAsset, "1100")

	// Selection and account resolution happen, but nothing starts a
	// transaction or writes.
	m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
		Return([]*domain.AmortizationEntry{entry}, nil)
	m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-1").Return(claim, nil)
	m.accountRepo.EXPECT().GetByCodes(gomock.Any(), []string{"5990", "1400"}).Return(map[string]*domain.Account{
		"5990": {ID: "a-5990", Code: "5990", Type: domain.AccountTypeExpense},
		"1400": {ID: "a-1400", Code: "1400", Type: domain.AccountTypeAsset},
	}, nil)

	result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.DryRun {
		t.Error("expected dry-run result")
	}
	if result.EntriesProcessed != 1 {
		t.Errorf("expected 1 entry processed, got %d", result.EntriesProcessed)
	}
	if len(result.PostedEntries) != 1 || result.PostedEntries[0].JournalEntryID != "" {
		t.Errorf("expected dry-run entry without journal reference, got %+v", result.PostedEntries)
	}
}

func TestAccrualUseCase_ProcessPeriod_LostRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	entry := pendingEntry("ae-1", "cr-1", "100")
	claim := activeClaim("cr-1", domain.ClaimTypeAsset, "1100")

	m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
		Return([]*domain.AmortizationEntry{entry}, nil)
	m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-1").Return(claim, nil)
	m.accountRepo.EXPECT().GetByCodes(gomock.Any(), gomock.Any()).Return(map[string]*domain.Account{
		"5990": {ID: "a-5990", Code: "5990", Type: domain.AccountTypeExpense},
		"1400": {ID: "a-1400", Code: "1400", Type: domain.AccountTypeAsset},
	}, nil)
	m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.journalRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	// Another run already posted this entry; everything rolls back.
	m.amortRepo.EXPECT().MarkPosted(gomock.Any(), m.tx, "ae-1", gomock.Any(), gomock.Any()).Return(false, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.EntriesProcessed != 0 {
		t.Errorf("expected nothing processed, got %d", result.EntriesProcessed)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
}

func TestAccrualUseCase_ProcessPeriod_SkipsInactiveClaim(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	entry := pendingEntry("ae-1", "cr-1", "100")
	claim := activeClaim("cr-1", domain.ClaimTypeAsset, "1100")
	claim.Status = domain.ClaimStatusCancelled

	m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
		Return([]*domain.AmortizationEntry{entry}, nil)
	m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-1").Return(claim, nil)

	result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.EntriesProcessed != 0 || len(result.Errors) != 0 {
		t.Errorf("expected silent skip, got %+v", result)
	}
}

func TestAccrualUseCase_ProcessPeriod_ItemFailureContinuesBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	bad := pendingEntry("ae-bad", "cr-bad", "100")
	good := pendingEntry("ae-ok", "cr-ok", "100")
	claim := activeClaim("cr-ok", domain.ClaimTypeAsset, "1100")

	m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
		Return([]*domain.AmortizationEntry{bad, good}, nil)

	m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-bad").Return(nil, domain.ErrClaimRightNotFound)

	m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-ok").Return(claim, nil)
	m.accountRepo.EXPECT().GetByCodes(gomock.Any(), gomock.Any()).Return(map[string]*domain.Account{
		"5990": {ID: "a-5990", Code: "5990", Type: domain.AccountTypeExpense},
		"1400": {ID: "a-1400", Code: "1400", Type: domain.AccountTypeAsset},
	}, nil)
	m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.journalRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.amortRepo.EXPECT().MarkPosted(gomock.Any(), m.tx, "ae-ok", gomock.Any(), gomock.Any()).Return(true, nil)
	m.claimRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "cr-ok").Return(claim, nil)
	m.claimRepo.EXPECT().UpdateAmounts(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.EntriesProcessed != 1 {
		t.Errorf("expected 1 entry processed, got %d", result.EntriesProcessed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 batch error, got %d", len(result.Errors))
	}
	if result.Errors[0].EntryID != "ae-bad" || result.Errors[0].ClaimRightID != "cr-bad" {
		t.Errorf("unexpected batch error: %+v", result.Errors[0])
	}
	if result.PostedEntries[0].EntryID != "ae-ok" {
		t.Errorf("expected ae-ok posted, got %+v", result.PostedEntries[0])
	}
}

func TestAccrualUseCase_ProcessPeriod_CompletesClaim(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	// Final period: the posting drains the claim.
	entry := pendingEntry("ae-12", "cr-1", "100")
	claim := activeClaim("cr-1", domain.ClaimTypeAsset, "100")

	m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
		Return([]*domain.AmortizationEntry{entry}, nil)
	m.claimRepo.EXPECT().GetByID(gomock.Any(), "cr-1").Return(claim, nil)
	m.accountRepo.EXPECT().GetByCodes(gomock.Any(), gomock.Any()).Return(map[string]*domain.Account{
		"5990": {ID: "a-5990", Code: "5990", Type: domain.AccountTypeExpense},
		"1400": {ID: "a-1400", Code: "1400", Type: domain.AccountTypeAsset},
	}, nil)
	m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.journalRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.amortRepo.EXPECT().MarkPosted(gomock.Any(), m.tx, "ae-12", gomock.Any(), gomock.Any()).Return(true, nil)
	m.claimRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "cr-1").Return(claim, nil)

	var updated *domain.ClaimRight
	m.claimRepo.EXPECT().UpdateAmounts(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, c *domain.ClaimRight) error {
			updated = c
			return nil
		})

	var eventTypes []string
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, e *domain.OutboxEvent) error {
			eventTypes = append(eventTypes, e.EventType)
			return nil
		}).Times(2)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.EntriesProcessed != 1 {
		t.Errorf("expected 1 entry processed, got %d", result.EntriesProcessed)
	}
	if updated == nil {
		t.Fatal("expected claim amounts update")
	}
	if updated.Status != domain.ClaimStatusCompleted {
		t.Errorf("expected completed claim, got %s", updated.Status)
	}
	if !updated.RemainingAmount.IsZero() {
		t.Errorf("expected remaining zero, got %s", updated.RemainingAmount)
	}

	if len(eventTypes) != 2 {
		t.Fatalf("expected 2 events, got %v", eventTypes)
	}
	if eventTypes[0] != domain.EventTypeAccrualEntryPosted || eventTypes[1] != domain.EventTypeClaimRightCompleted {
		t.Errorf("unexpected event sequence: %v", eventTypes)
	}
}

func TestAccrualUseCase_ProcessPeriod_DefaultsToCurrentMonth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	var gotStart, gotEnd time.Time
	m.amortRepo.EXPECT().SelectPending(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, start, end time.Time) ([]*domain.AmortizationEntry, error) {
			gotStart, gotEnd = start, end
			return nil, nil
		})

	result, err := m.useCase().ProcessPeriod(context.Background(), usecase.ProcessPeriodInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now().UTC()
	wantStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	wantEnd := wantStart.AddDate(0, 1, 0).Add(-time.Second)
	if !gotStart.Equal(wantStart) {
		t.Errorf("expected window start %s, got %s", wantStart, gotStart)
	}
	if !gotEnd.Equal(wantEnd) {
		t.Errorf("expected window end %s, got %s", wantEnd, gotEnd)
	}
	if !result.PeriodStart.Equal(gotStart) || !result.PeriodEnd.Equal(gotEnd) {
		t.Errorf("result window %s..%s does not match query window", result.PeriodStart, result.PeriodEnd)
	}
}

func TestAccrualUseCase_ProcessPeriod_SelectionFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newAccrualMocks(ctrl)

	m.amortRepo.EXPECT().SelectPending(gomock.Any(), windowStart, windowEnd).
		Return(nil, context.DeadlineExceeded)

	result, err := m.useCase().ProcessPeriod(context.Background(), windowInput(false))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if result != nil {
		t.Errorf("expected no result, got %+v", result)
	}
}

func TestAccrualUseCase_PendingCount(t *testing.T) {
	t.Run("explicit as-of", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		m := newAccrualMocks(ctrl)

		asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
		m.amortRepo.EXPECT().PendingStats(gomock.Any(), asOf).
			Return(4, decimal.NewFromInt(350), nil)

		pending, err := m.useCase().PendingCount(context.Background(), &asOf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pending.Count != 4 {
			t.Errorf("expected 4 pending entries, got %d", pending.Count)
		}
		if !pending.TotalAmount.Equal(decimal.NewFromInt(350)) {
			t.Errorf("expected total 350, got %s", pending.TotalAmount)
		}
		if !pending.AsOf.Equal(asOf) {
			t.Errorf("expected as-of %s, got %s", asOf, pending.AsOf)
		}
	})

	t.Run("defaults to now", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		m := newAccrualMocks(ctrl)

		m.amortRepo.EXPECT().PendingStats(gomock.Any(), gomock.Any()).
			Return(0, decimal.Zero, nil)

		pending, err := m.useCase().PendingCount(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pending.Count != 0 {
			t.Errorf("expected no pending entries, got %d", pending.Count)
		}
		if pending.AsOf.IsZero() {
			t.Error("expected as-of to default to the current time")
		}
	})
}
