package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
)

// prepaidClaim books a 1200.00 annual software subscription paid up front:
// the cash leaves immediately, the expense is recognized month by month.
func prepaidClaim(ctx context.Context, t *testing.T, h *harness) *domain.ClaimRight {
	t.Helper()

	// The purchase itself: prepaid asset up, cash down.
	_, err := h.journal.CreateEntry(ctx, usecase.CreateEntryInput{
		TransactionRef: "TX-ANNUAL-SUB",
		EntryDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:    "Annual subscription prepayment",
		Lines: []usecase.EntryLineInput{
			{AccountCode: "1400", Debit: decimal.RequireFromString("1200.00")},
			{AccountCode: "1100", Credit: decimal.RequireFromString("1200.00")},
		},
	})
	if err != nil {
		t.Fatalf("prepayment entry failed: %v", err)
	}

	claim, err := h.claims.Create(ctx, usecase.CreateClaimInput{
		Type:           domain.ClaimTypeAsset,
		TotalAmount:    decimal.RequireFromString("1200.00"),
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Frequency:      domain.FrequencyMonthly,
		Description:    "Annual subscription",
		Category:       "software/technology",
		TransactionRef: "TX-ANNUAL-SUB",
	})
	if err != nil {
		t.Fatalf("claim creation failed: %v", err)
	}
	return claim
}

func januaryInput(dryRun bool) usecase.ProcessPeriodInput {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	return usecase.ProcessPeriodInput{PeriodStart: &start, PeriodEnd: &end, DryRun: dryRun}
}

func TestClaimScheduleIsGeneratedOnCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.initChart(ctx, t)

	claim := prepaidClaim(ctx, t, h)

	_, schedule, err := h.claims.GetWithSchedule(ctx, claim.ID)
	if err != nil {
		t.Fatalf("fetching schedule failed: %v", err)
	}
	if schedule == nil {
		t.Fatal("expected a schedule to exist")
	}
	if schedule.TotalPeriods != 12 {
		t.Fatalf("total periods = %d, want 12", schedule.TotalPeriods)
	}
	if len(schedule.Entries) != 12 {
		t.Fatalf("schedule entries = %d, want 12", len(schedule.Entries))
	}

	sum := decimal.Zero
	for _, e := range schedule.Entries {
		if e.Status != domain.EntryStatusPending {
			t.Fatalf("entry %d status = %s, want PENDING", e.PeriodNumber, e.Status)
		}
		sum = sum.Add(e.Amount)
	}
	if !sum.Equal(claim.TotalAmount) {
		t.Fatalf("schedule sum = %s, want %s", sum, claim.TotalAmount)
	}

	pending, err := h.accrual.PendingCount(ctx, timePtr(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)))
	if err != nil {
		t.Fatalf("pending count failed: %v", err)
	}
	if pending.Count != 12 {
		t.Fatalf("pending entries = %d, want 12", pending.Count)
	}
	if want := decimal.RequireFromString("1200.00"); !pending.TotalAmount.Equal(want) {
		t.Fatalf("pending amount = %s, want %s", pending.TotalAmount, want)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.initChart(ctx, t)

	claim := prepaidClaim(ctx, t, h)

	result, err := h.accrual.ProcessPeriod(ctx, januaryInput(true))
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if result.EntriesProcessed != 1 {
		t.Fatalf("dry run processed %d entries, want 1", result.EntriesProcessed)
	}
	if !result.DryRun {
		t.Fatal("expected result to be flagged as dry run")
	}

	got, err := h.claims.Get(ctx, claim.ID)
	if err != nil {
		t.Fatalf("fetching claim failed: %v", err)
	}
	if !got.RemainingAmount.Equal(claim.TotalAmount) {
		t.Fatalf("remaining after dry run = %s, want untouched %s", got.RemainingAmount, claim.TotalAmount)
	}

	pending, err := h.accrual.PendingCount(ctx, timePtr(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("pending count failed: %v", err)
	}
	if pending.Count != 12 {
		t.Fatalf("pending after dry run = %d, want 12", pending.Count)
	}
}

func TestAccrualPostsAndCompletesClaim(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.initChart(ctx, t)

	claim := prepaidClaim(ctx, t, h)

	// Close January on its own.
	result, err := h.accrual.ProcessPeriod(ctx, januaryInput(false))
	if err != nil {
		t.Fatalf("january batch failed: %v", err)
	}
	if result.EntriesProcessed != 1 {
		t.Fatalf("january processed %d entries, want 1", result.EntriesProcessed)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("january batch reported errors: %v", result.Errors)
	}
	if result.AssetClaims != 1 {
		t.Fatalf("asset claim postings = %d, want 1", result.AssetClaims)
	}

	// The posting realized one month of expense against the prepaid asset.
	posted := result.PostedEntries[0]
	entry, err := h.journal.GetEntry(ctx, posted.JournalEntryID)
	if err != nil {
		t.Fatalf("fetching amortization journal entry failed: %v", err)
	}
	if !entry.TotalDebits().Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("amortization entry amount = %s, want 100.00", entry.TotalDebits())
	}

	got, err := h.claims.Get(ctx, claim.ID)
	if err != nil {
		t.Fatalf("fetching claim failed: %v", err)
	}
	if want := decimal.RequireFromString("1100.00"); !got.RemainingAmount.Equal(want) {
		t.Fatalf("remaining after january = %s, want %s", got.RemainingAmount, want)
	}

	// Re-running the same window finds nothing left to post.
	result, err = h.accrual.ProcessPeriod(ctx, januaryInput(false))
	if err != nil {
		t.Fatalf("repeat january batch failed: %v", err)
	}
	if result.EntriesProcessed != 0 {
		t.Fatalf("repeat january processed %d entries, want 0", result.EntriesProcessed)
	}

	// Catch up on the rest of the year in one sweep.
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	result, err = h.accrual.ProcessPeriod(ctx, usecase.ProcessPeriodInput{PeriodStart: &start, PeriodEnd: &end})
	if err != nil {
		t.Fatalf("catch-up batch failed: %v", err)
	}
	if result.EntriesProcessed != 11 {
		t.Fatalf("catch-up processed %d entries, want 11", result.EntriesProcessed)
	}

	got, err = h.claims.Get(ctx, claim.ID)
	if err != nil {
		t.Fatalf("fetching claim failed: %v", err)
	}
	if got.Status != domain.ClaimStatusCompleted {
		t.Fatalf("claim status = %s, want completed", got.Status)
	}
	if !got.RemainingAmount.IsZero() {
		t.Fatalf("remaining after full amortization = %s, want 0", got.RemainingAmount)
	}

	// Prepaid asset is fully drawn down; the whole cost sits in expense.
	prepaid, err := h.reports.AccountBalance(ctx, "1400")
	if err != nil {
		t.Fatalf("prepaid balance failed: %v", err)
	}
	if !prepaid.IsZero() {
		t.Fatalf("prepaid balance = %s, want 0", prepaid)
	}
	software, err := h.reports.AccountBalance(ctx, "5910")
	if err != nil {
		t.Fatalf("software expense balance failed: %v", err)
	}
	if want := decimal.RequireFromString("1200.00"); !software.Equal(want) {
		t.Fatalf("software expense = %s, want %s", software, want)
	}

	if err := h.reports.CheckLedgerConsistency(ctx); err != nil {
		t.Fatalf("ledger inconsistent after amortization: %v", err)
	}
}

func TestCancelSkipsRemainingAmortizations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.initChart(ctx, t)

	claim := prepaidClaim(ctx, t, h)

	if _, err := h.accrual.ProcessPeriod(ctx, januaryInput(false)); err != nil {
		t.Fatalf("january batch failed: %v", err)
	}

	cancelled, err := h.claims.Cancel(ctx, claim.ID, "service terminated")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.ClaimStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancellationReason != "service terminated" {
		t.Fatalf("reason = %q, want 'service terminated'", cancelled.CancellationReason)
	}

	// The 11 open periods were skipped, so nothing remains to accrue.
	pending, err := h.accrual.PendingCount(ctx, timePtr(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("pending count failed: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("pending after cancel = %d, want 0", pending.Count)
	}

	result, err := h.accrual.ProcessPeriod(ctx, usecase.ProcessPeriodInput{
		PeriodStart: timePtr(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
		PeriodEnd:   timePtr(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("post-cancel batch failed: %v", err)
	}
	if result.EntriesProcessed != 0 {
		t.Fatalf("post-cancel batch processed %d entries, want 0", result.EntriesProcessed)
	}
}

func TestClaimLifecycleEmitsEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.initChart(ctx, t)

	claim := prepaidClaim(ctx, t, h)

	if _, err := h.accrual.ProcessPeriod(ctx, januaryInput(false)); err != nil {
		t.Fatalf("january batch failed: %v", err)
	}
	if _, err := h.claims.Cancel(ctx, claim.ID, "switched vendors"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	events, err := h.outbox.GetByAggregate(ctx, domain.AggregateTypeClaimRight, claim.ID, 10, 0)
	if err != nil {
		t.Fatalf("reading claim events failed: %v", err)
	}

	types := make(map[string]int, len(events))
	for _, e := range events {
		types[e.EventType]++
	}
	if types[domain.EventTypeClaimRightCreated] != 1 {
		t.Fatalf("created events = %d, want 1", types[domain.EventTypeClaimRightCreated])
	}
	if types[domain.EventTypeAccrualEntryPosted] != 1 {
		t.Fatalf("posted events = %d, want 1", types[domain.EventTypeAccrualEntryPosted])
	}
	if types[domain.EventTypeClaimRightCancelled] != 1 {
		t.Fatalf("cancelled events = %d, want 1", types[domain.EventTypeClaimRightCancelled])
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
