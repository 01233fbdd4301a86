package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	prepaidKeywords  = []string{"prepaid", "pre-paid", "subscription", "annual", "yearly", "monthly", "quarterly"}
	deferredKeywords = []string{"deferred", "advance", "deposit", "retainer", "prepayment"}
	loanKeywords     = []string{"loan", "emi", "installment", "financing", "credit"}
	serviceKeywords  = []string{"service", "maintenance", "support", "license", "membership"}

	recurringKeywords = []string{"annual", "yearly", "subscription"}

	// largeAmountThreshold gates the recurring-amount heuristic.
	largeAmountThreshold = decimal.NewFromInt(1000)
)

// ClassifyClaim decides whether a transaction looks like a claim right and,
// if so, which direction. It is a keyword heuristic over the lower-cased
// concatenation of the inputs; ok is false when nothing matches.
func ClassifyClaim(text, category, vendor, paymentMethod string, amount decimal.Decimal) (ClaimType, string, bool) {
	haystack := strings.ToLower(strings.Join([]string{text, category, vendor, paymentMethod}, " "))

	prepaid := containsAny(haystack, prepaidKeywords)
	deferred := containsAny(haystack, deferredKeywords)
	loan := containsAny(haystack, loanKeywords)
	service := containsAny(haystack, serviceKeywords)
	revenueSide := strings.Contains(haystack, "revenue") || strings.Contains(haystack, "income")

	switch {
	case (prepaid || service) && !revenueSide:
		return ClaimTypeAsset, "prepaid or service keywords matched", true
	case deferred:
		return ClaimTypeLiability, "deferred revenue keywords matched", true
	case loan:
		return ClaimTypeLiability, "loan or financing keywords matched", true
	case amount.GreaterThan(largeAmountThreshold) && containsAny(haystack, recurringKeywords):
		return ClaimTypeAsset, "large recurring amount", true
	}
	return "", "", false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
