package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is the minimal view of an ingested business transaction
// (receipt, invoice, bank line) that the journal engine can derive an entry
// from. Ref is the external record key; LedgerKeep stores it opaquely.
type TransactionRecord struct {
	Ref           string
	Date          time.Time
	Vendor        string
	Description   string
	Category      string
	PaymentMethod string
	Amount        decimal.Decimal
	TotalAmount   decimal.Decimal
}

// EffectiveAmount prefers the tax-inclusive total when present and falls
// back to the base amount.
func (t *TransactionRecord) EffectiveAmount() decimal.Decimal {
	if t.TotalAmount.IsPositive() {
		return t.TotalAmount
	}
	return t.Amount
}
