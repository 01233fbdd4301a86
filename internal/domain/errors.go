package domain

import "errors"

var (
	// Account errors
	ErrInvalidAccountCode = errors.New("account code is required")
	ErrInvalidAccountName = errors.New("account name is required")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrDuplicateAccount   = errors.New("account code already exists")
	ErrAccountNotFound    = errors.New("account not found")

	// Journal errors
	ErrNoLines              = errors.New("journal entry has no lines")
	ErrInvalidLine          = errors.New("journal line must have exactly one positive side")
	ErrUnbalancedEntry      = errors.New("journal entry debits and credits do not balance")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrJournalEntryNotFound = errors.New("journal entry not found")

	// Claim right errors
	ErrInvalidClaimType   = errors.New("invalid claim type")
	ErrInvalidFrequency   = errors.New("invalid amortization frequency")
	ErrNotMeasurable      = errors.New("claim amount must be positive to be measurable")
	ErrInvalidPeriod      = errors.New("end date must be after start date")
	ErrClaimNotActive     = errors.New("claim right is not active")
	ErrClaimRightNotFound = errors.New("claim right not found")
	ErrScheduleNotFound   = errors.New("amortization schedule not found")
	ErrEntryNotFound      = errors.New("amortization entry not found")

	// ErrDefaultAccountMissing means a well-known chart account is absent
	// even after re-initializing the default chart.
	ErrDefaultAccountMissing = errors.New("default account missing from chart")
)
