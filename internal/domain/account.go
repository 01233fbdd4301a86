package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account within the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// NormalBalance is the side on which an account naturally increases.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance returns the natural balance side for the account type.
// Assets and expenses increase on the debit side; liabilities, equity and
// revenue increase on the credit side.
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// SignedBalance folds raw debit and credit sums into the account's natural
// sign: debits minus credits for debit-normal accounts, credits minus debits
// otherwise. A negative result means the account carries a contra balance.
func (t AccountType) SignedBalance(debits, credits decimal.Decimal) decimal.Decimal {
	if t.NormalBalance() == NormalBalanceDebit {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// Account is a node in the chart of accounts. Balances are never stored on
// the account; they are derived from journal lines at read time.
type Account struct {
	ID          string
	Code        string
	Name        string
	Type        AccountType
	ParentID    string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the account's intrinsic fields.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Code) == "" {
		return ErrInvalidAccountCode
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidAccountName
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	return nil
}

// AccountIndex holds a set of accounts with an explicit children index so
// the hierarchy can be walked without parent pointers on the entities.
type AccountIndex struct {
	byID     map[string]*Account
	byCode   map[string]*Account
	children map[string][]string // parent code -> child codes, sorted
	roots    []string            // codes of accounts without a parent, sorted
}

// NewAccountIndex builds an index over accounts. Parent links that point at
// accounts missing from the slice are treated as roots.
func NewAccountIndex(accounts []*Account) *AccountIndex {
	ix := &AccountIndex{
		byID:     make(map[string]*Account, len(accounts)),
		byCode:   make(map[string]*Account, len(accounts)),
		children: make(map[string][]string),
	}
	for _, a := range accounts {
		ix.byID[a.ID] = a
		ix.byCode[a.Code] = a
	}
	for _, a := range accounts {
		parent, ok := ix.byID[a.ParentID]
		if a.ParentID == "" || !ok {
			ix.roots = append(ix.roots, a.Code)
			continue
		}
		ix.children[parent.Code] = append(ix.children[parent.Code], a.Code)
	}
	sort.Strings(ix.roots)
	for code := range ix.children {
		sort.Strings(ix.children[code])
	}
	return ix
}

// ByCode returns the account with the given code.
func (ix *AccountIndex) ByCode(code string) (*Account, bool) {
	a, ok := ix.byCode[code]
	return a, ok
}

// Children returns the codes of the direct children of code.
func (ix *AccountIndex) Children(code string) []string {
	return ix.children[code]
}

// Roots returns the codes of the top-level accounts.
func (ix *AccountIndex) Roots() []string {
	return ix.roots
}

// DepthFirst returns all accounts in depth-first chart order: roots by code,
// each followed by its subtree.
func (ix *AccountIndex) DepthFirst() []*Account {
	out := make([]*Account, 0, len(ix.byCode))
	var walk func(code string)
	walk = func(code string) {
		a, ok := ix.byCode[code]
		if !ok {
			return
		}
		out = append(out, a)
		for _, child := range ix.children[code] {
			walk(child)
		}
	}
	for _, root := range ix.roots {
		walk(root)
	}
	return out
}
