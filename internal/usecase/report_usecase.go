package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/metrics"
)

// Report names, used as metric labels.
const (
	reportTrialBalance    = "trial_balance"
	reportIncomeStatement = "income_statement"
	reportBalanceSheet    = "balance_sheet"
)

// ReportUseCase derives balances and financial statements by aggregation.
// Nothing here writes; every figure is computed from journal lines at call
// time.
type ReportUseCase struct {
	reportRepo ReportingRepository
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(reportRepo ReportingRepository, metrics *metrics.Metrics, logger zerolog.Logger) *ReportUseCase {
	return &ReportUseCase{
		reportRepo: reportRepo,
		metrics:    metrics,
		logger:     logger,
	}
}

// AccountBalance returns the account's balance folded to its natural sign:
// debits minus credits for debit-normal accounts, the reverse otherwise.
func (uc *ReportUseCase) AccountBalance(ctx context.Context, code string) (decimal.Decimal, error) {
	row, err := uc.reportRepo.AccountTotalsByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return row.Type.SignedBalance(row.Debits, row.Credits), nil
}

// TrialBalanceRow is one account's column placement on the trial balance.
type TrialBalanceRow struct {
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	Type          domain.AccountType `json:"type"`
	DebitBalance  decimal.Decimal    `json:"debitBalance"`
	CreditBalance decimal.Decimal    `json:"creditBalance"`
}

// TrialBalance lists every account with a non-negligible balance.
type TrialBalance struct {
	Accounts     []TrialBalanceRow `json:"accounts"`
	TotalDebits  decimal.Decimal   `json:"totalDebits"`
	TotalCredits decimal.Decimal   `json:"totalCredits"`
	IsBalanced   bool              `json:"isBalanced"`
	GeneratedAt  time.Time         `json:"generatedAt"`
}

// TrialBalance builds the trial balance. Each account's signed balance goes
// to its normal-balance column; a negative (contra) balance flips to the
// opposite column as its absolute value. Accounts within tolerance of zero
// are omitted. A ledger of balanced entries always comes out balanced.
func (uc *ReportUseCase) TrialBalance(ctx context.Context) (*TrialBalance, error) {
	rows, err := uc.reportRepo.AccountTotals(ctx)
	if err != nil {
		return nil, err
	}

	tb := &TrialBalance{
		Accounts:     make([]TrialBalanceRow, 0, len(rows)),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
		GeneratedAt:  time.Now().UTC(),
	}

	for _, row := range rows {
		signed := row.Type.SignedBalance(row.Debits, row.Credits)
		if signed.Abs().LessThan(domain.BalanceTolerance) {
			continue
		}

		out := TrialBalanceRow{
			Code:          row.Code,
			Name:          row.Name,
			Type:          row.Type,
			DebitBalance:  decimal.Zero,
			CreditBalance: decimal.Zero,
		}
		debitNormal := row.Type.NormalBalance() == domain.NormalBalanceDebit
		if signed.IsNegative() {
			debitNormal = !debitNormal
			signed = signed.Abs()
		}
		if debitNormal {
			out.DebitBalance = signed
			tb.TotalDebits = tb.TotalDebits.Add(signed)
		} else {
			out.CreditBalance = signed
			tb.TotalCredits = tb.TotalCredits.Add(signed)
		}
		tb.Accounts = append(tb.Accounts, out)
	}

	tb.IsBalanced = tb.TotalDebits.Sub(tb.TotalCredits).Abs().LessThan(domain.BalanceTolerance)
	uc.observeReport(reportTrialBalance, tb.IsBalanced)
	if !tb.IsBalanced {
		uc.logger.Error().
			Str("total_debits", tb.TotalDebits.String()).
			Str("total_credits", tb.TotalCredits.String()).
			Msg("trial balance out of balance")
	}

	return tb, nil
}

// ReportLine is one account line on a financial statement.
type ReportLine struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeStatement summarizes revenue and expense balances.
type IncomeStatement struct {
	Revenues      []ReportLine    `json:"revenues"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	Expenses      []ReportLine    `json:"expenses"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}

// IncomeStatement builds the income statement: net income is total revenue
// minus total expenses. Accounts within tolerance of zero are omitted, as
// on the trial balance.
func (uc *ReportUseCase) IncomeStatement(ctx context.Context) (*IncomeStatement, error) {
	rows, err := uc.reportRepo.AccountTotals(ctx)
	if err != nil {
		return nil, err
	}

	is := &IncomeStatement{
		Revenues:      []ReportLine{},
		Expenses:      []ReportLine{},
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
		GeneratedAt:   time.Now().UTC(),
	}

	for _, row := range rows {
		signed := row.Type.SignedBalance(row.Debits, row.Credits)
		if signed.Abs().LessThan(domain.BalanceTolerance) {
			continue
		}
		line := ReportLine{Code: row.Code, Name: row.Name, Amount: signed}
		switch row.Type {
		case domain.AccountTypeRevenue:
			is.Revenues = append(is.Revenues, line)
			is.TotalRevenue = is.TotalRevenue.Add(signed)
		case domain.AccountTypeExpense:
			is.Expenses = append(is.Expenses, line)
			is.TotalExpenses = is.TotalExpenses.Add(signed)
		}
	}

	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpenses)
	uc.observeReport(reportIncomeStatement, true)

	return is, nil
}

// BalanceSheet presents the accounting identity: assets against liabilities
// plus equity, with current-period net income as a synthetic equity line.
type BalanceSheet struct {
	Assets           []ReportLine    `json:"assets"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	Liabilities      []ReportLine    `json:"liabilities"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	Equity           []ReportLine    `json:"equity"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	IsBalanced       bool            `json:"isBalanced"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}

// NetIncomeLineCode marks the synthetic equity line carrying current net
// income on the balance sheet.
const NetIncomeLineCode = "NET"

// BalanceSheet builds the balance sheet. Net income for the current period
// is appended to the equity section so the identity
// assets == liabilities + equity holds on a ledger of balanced entries.
func (uc *ReportUseCase) BalanceSheet(ctx context.Context) (*BalanceSheet, error) {
	rows, err := uc.reportRepo.AccountTotals(ctx)
	if err != nil {
		return nil, err
	}

	bs := &BalanceSheet{
		Assets:           []ReportLine{},
		Liabilities:      []ReportLine{},
		Equity:           []ReportLine{},
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
		GeneratedAt:      time.Now().UTC(),
	}
	netIncome := decimal.Zero

	for _, row := range rows {
		signed := row.Type.SignedBalance(row.Debits, row.Credits)
		switch row.Type {
		case domain.AccountTypeRevenue:
			netIncome = netIncome.Add(signed)
			continue
		case domain.AccountTypeExpense:
			netIncome = netIncome.Sub(signed)
			continue
		}
		if signed.IsZero() {
			continue
		}
		line := ReportLine{Code: row.Code, Name: row.Name, Amount: signed}
		switch row.Type {
		case domain.AccountTypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(signed)
		case domain.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(signed)
		case domain.AccountTypeEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(signed)
		}
	}

	bs.Equity = append(bs.Equity, ReportLine{
		Code:   NetIncomeLineCode,
		Name:   "Net Income (Current Period)",
		Amount: netIncome,
	})
	bs.TotalEquity = bs.TotalEquity.Add(netIncome)

	diff := bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity)).Abs()
	bs.IsBalanced = diff.LessThan(domain.BalanceTolerance)
	uc.observeReport(reportBalanceSheet, bs.IsBalanced)
	if !bs.IsBalanced {
		uc.logger.Error().
			Str("total_assets", bs.TotalAssets.String()).
			Str("total_liabilities", bs.TotalLiabilities.String()).
			Str("total_equity", bs.TotalEquity.String()).
			Msg("balance sheet violates accounting identity")
	}

	return bs, nil
}

// CheckLedgerConsistency verifies that the grand totals of all journal
// lines balance. A discrepancy means an unbalanced entry slipped in.
func (uc *ReportUseCase) CheckLedgerConsistency(ctx context.Context) error {
	totalDebits, totalCredits, err := uc.reportRepo.LedgerTotals(ctx)
	if err != nil {
		return err
	}

	if !totalDebits.Equal(totalCredits) {
		return fmt.Errorf(
			"ledger inconsistency detected: debits=%s credits=%s difference=%s",
			totalDebits.String(),
			totalCredits.String(),
			totalDebits.Sub(totalCredits).String(),
		)
	}

	return nil
}

func (uc *ReportUseCase) observeReport(report string, balanced bool) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ReportsGenerated.WithLabelValues(report).Inc()
	if !balanced {
		uc.metrics.ReportsOutOfBalance.WithLabelValues(report).Inc()
	}
}
