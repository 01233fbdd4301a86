package integration

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	postgresRepo "github.com/ledgerkeep/ledgerkeep/internal/adapter/repository/postgres"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
	"github.com/ledgerkeep/ledgerkeep/tests/testutil"
)

// harness wires the use cases over a real database, the same way the CLI
// does. Each test gets a truncated ledger.
type harness struct {
	db       *testutil.TestDB
	registry *usecase.RegistryUseCase
	journal  *usecase.JournalUseCase
	reports  *usecase.ReportUseCase
	claims   *usecase.ClaimRightUseCase
	accrual  *usecase.AccrualUseCase
	outbox   usecase.OutboxRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)
	db.TruncateAll(context.Background())

	pool := db.Pool
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	reportingRepo := postgresRepo.NewReportingRepository(pool)
	claimRepo := postgresRepo.NewClaimRightRepository(pool)
	amortRepo := postgresRepo.NewAmortizationRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(zerolog.Nop())

	registry := usecase.NewRegistryUseCase(txManager, accountRepo, reportingRepo, idGen)

	return &harness{
		db:       db,
		registry: registry,
		journal:  usecase.NewJournalUseCase(txManager, journalRepo, accountRepo, outboxRepo, registry, idGen, nil, zerolog.Nop()),
		reports:  usecase.NewReportUseCase(reportingRepo, nil, zerolog.Nop()),
		claims:   usecase.NewClaimRightUseCase(txManager, claimRepo, amortRepo, outboxRepo, idGen, nil, zerolog.Nop()),
		accrual:  usecase.NewAccrualUseCase(txManager, claimRepo, amortRepo, journalRepo, outboxRepo, registry, retrier, idGen, nil, zerolog.Nop()),
		outbox:   outboxRepo,
	}
}

// initChart seeds the default chart of accounts and fails the test if the
// seeding is incomplete.
func (h *harness) initChart(ctx context.Context, t *testing.T) {
	t.Helper()

	created, err := h.registry.InitializeDefaultAccounts(ctx)
	if err != nil {
		t.Fatalf("failed to initialize chart: %v", err)
	}
	if created == 0 {
		t.Fatal("expected a fresh chart, got no accounts created")
	}
}
