package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// RegistryUseCase manages the chart of accounts.
type RegistryUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	reportRepo  ReportingRepository
	idGen       IDGenerator
}

// NewRegistryUseCase creates a new RegistryUseCase.
func NewRegistryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	reportRepo ReportingRepository,
	idGen IDGenerator,
) *RegistryUseCase {
	return &RegistryUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		reportRepo:  reportRepo,
		idGen:       idGen,
	}
}

// InitializeDefaultAccounts creates any missing accounts from the default
// chart and wires parent links. It is idempotent: existing accounts are
// never modified. Returns the number of accounts created.
func (uc *RegistryUseCase) InitializeDefaultAccounts(ctx context.Context) (int, error) {
	chart := domain.DefaultChart()
	codes := make([]string, 0, len(chart))
	for _, def := range chart {
		codes = append(codes, def.Code)
	}

	existing, err := uc.accountRepo.GetByCodes(ctx, codes)
	if err != nil {
		return 0, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	byCode := make(map[string]*domain.Account, len(chart))
	for code, acc := range existing {
		byCode[code] = acc
	}

	// First pass: create missing accounts without parent links so creation
	// order never matters.
	created := 0
	for _, def := range chart {
		if _, ok := byCode[def.Code]; ok {
			continue
		}
		account := &domain.Account{
			ID:          uc.idGen.Generate(),
			Code:        def.Code,
			Name:        def.Name,
			Type:        def.Type,
			Description: def.Description,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := account.Validate(); err != nil {
			return 0, err
		}
		if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
			return 0, err
		}
		byCode[def.Code] = account
		created++
	}

	// Second pass: wire parent links now that every parent exists.
	for _, def := range chart {
		if def.ParentCode == "" {
			continue
		}
		child, parent := byCode[def.Code], byCode[def.ParentCode]
		if child == nil || parent == nil || child.ParentID == parent.ID {
			continue
		}
		if err := uc.accountRepo.SetParent(txCtx, tx, child.ID, parent.ID, now); err != nil {
			return 0, err
		}
		child.ParentID = parent.ID
	}

	if err := tx.Commit(txCtx); err != nil {
		return 0, err
	}

	return created, nil
}

// GetAccount retrieves an account by ID.
func (uc *RegistryUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByCode retrieves an account by its chart code.
func (uc *RegistryUseCase) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return uc.accountRepo.GetByCode(ctx, code)
}

// AccountWithBalance pairs an account with its derived balance.
type AccountWithBalance struct {
	Account       *domain.Account      `json:"account"`
	Balance       decimal.Decimal      `json:"balance"`
	NormalBalance domain.NormalBalance `json:"normalBalance"`
}

// ListAccounts returns all active accounts in chart order (roots first,
// depth-first by code) with balances derived from journal lines.
func (uc *RegistryUseCase) ListAccounts(ctx context.Context) ([]AccountWithBalance, error) {
	accounts, err := uc.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := uc.reportRepo.AccountTotals(ctx)
	if err != nil {
		return nil, err
	}
	sums := make(map[string]BalanceRow, len(totals))
	for _, row := range totals {
		sums[row.AccountID] = row
	}

	index := domain.NewAccountIndex(accounts)
	out := make([]AccountWithBalance, 0, len(accounts))
	for _, account := range index.DepthFirst() {
		balance := decimal.Zero
		if row, ok := sums[account.ID]; ok {
			balance = account.Type.SignedBalance(row.Debits, row.Credits)
		}
		out = append(out, AccountWithBalance{
			Account:       account,
			Balance:       balance,
			NormalBalance: account.Type.NormalBalance(),
		})
	}
	return out, nil
}

// EnsureDefaultAccounts resolves the given chart codes, re-initializing the
// default chart once if any are missing. A code still missing after that
// yields ErrDefaultAccountMissing.
func (uc *RegistryUseCase) EnsureDefaultAccounts(ctx context.Context, codes ...string) (map[string]*domain.Account, error) {
	accounts, err := uc.accountRepo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	if len(accounts) == len(codes) {
		return accounts, nil
	}

	if _, err := uc.InitializeDefaultAccounts(ctx); err != nil {
		return nil, err
	}

	accounts, err = uc.accountRepo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	for _, code := range codes {
		if _, ok := accounts[code]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDefaultAccountMissing, code)
		}
	}
	return accounts, nil
}
