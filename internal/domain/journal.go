package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceTolerance is the maximum absolute difference between total debits
// and total credits for an entry (or a report) to count as balanced.
var BalanceTolerance = decimal.New(1, -2) // 0.01

// JournalEntry is an immutable double-entry record. Once persisted it is
// never updated or deleted; corrections are new entries.
type JournalEntry struct {
	ID             string
	TransactionRef string
	EntryDate      time.Time
	Reference      string
	Description    string
	Memo           string
	IsAdjusting    bool
	CreatedAt      time.Time
	Lines          []JournalLine
}

// JournalLine is a single debit or credit against an account. Exactly one
// of Debit and Credit is positive; the other is zero.
//
// AccountCode, AccountName and AccountType are filled from the accounts
// table when lines are read back; they are not stored on the line.
type JournalLine struct {
	ID             string
	JournalEntryID string
	AccountID      string
	AccountCode    string
	AccountName    string
	AccountType    AccountType
	LineNo         int
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	Description    string
}

// Validate checks that the line carries exactly one positive side.
func (l *JournalLine) Validate() error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return ErrInvalidLine
	}
	if l.Debit.IsPositive() == l.Credit.IsPositive() {
		return ErrInvalidLine
	}
	return nil
}

// TotalDebits sums the debit side of all lines.
func (e *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		total = total.Add(e.Lines[i].Debit)
	}
	return total
}

// TotalCredits sums the credit side of all lines.
func (e *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		total = total.Add(e.Lines[i].Credit)
	}
	return total
}

// Validate checks the entry's lines and the balance rule: the absolute
// difference between total debits and total credits must not exceed
// BalanceTolerance.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) == 0 {
		return ErrNoLines
	}
	for i := range e.Lines {
		if err := e.Lines[i].Validate(); err != nil {
			return err
		}
	}
	diff := e.TotalDebits().Sub(e.TotalCredits()).Abs()
	if diff.GreaterThan(BalanceTolerance) {
		return ErrUnbalancedEntry
	}
	return nil
}
