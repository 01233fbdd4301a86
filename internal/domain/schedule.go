package domain

import (
	"github.com/shopspring/decimal"
)

// BuildSchedule computes the amortization plan for a claim: the per-period
// amount and one PENDING entry per period, walking frequency-sized windows
// from StartDate and clipping the final window to EndDate. A clipped window
// is prorated by day count, but the last period's amount is always forced to
// total minus everything already allocated, so the entry amounts sum to
// TotalAmount exactly.
//
// The caller assigns IDs and persists; nothing here touches storage.
func BuildSchedule(claim *ClaimRight) (decimal.Decimal, []AmortizationEntry, error) {
	if err := claim.Validate(); err != nil {
		return decimal.Zero, nil, err
	}

	periods, err := PeriodCount(claim.StartDate, claim.EndDate, claim.Frequency)
	if err != nil {
		return decimal.Zero, nil, err
	}

	perPeriod := claim.TotalAmount.DivRound(decimal.NewFromInt(int64(periods)), 2)
	entries := make([]AmortizationEntry, 0, periods)
	allocated := decimal.Zero
	currentStart := claim.StartDate

	for n := 1; n <= periods; n++ {
		nextStart := NextPeriodStart(currentStart, claim.Frequency)
		periodEnd := nextStart.AddDate(0, 0, -1)
		amount := perPeriod

		if periodEnd.After(claim.EndDate) {
			periodEnd = claim.EndDate
			daysInPeriod := daysBetween(currentStart, claim.EndDate) + 1
			totalDays := daysBetween(currentStart, nextStart)
			if totalDays > 0 {
				amount = perPeriod.
					Mul(decimal.NewFromInt(int64(daysInPeriod))).
					DivRound(decimal.NewFromInt(int64(totalDays)), 2)
			}
		}

		// Never allocate past the total: a rounded-up per-period amount on a
		// subcent total would otherwise push the final period negative.
		if remaining := claim.TotalAmount.Sub(allocated); amount.GreaterThan(remaining) {
			amount = remaining
		}

		// Exact-sum rule: the final period absorbs all rounding drift.
		if n == periods {
			amount = claim.TotalAmount.Sub(allocated)
		}

		entries = append(entries, AmortizationEntry{
			ClaimRightID: claim.ID,
			PeriodNumber: n,
			PeriodStart:  currentStart,
			PeriodEnd:    periodEnd,
			Amount:       amount,
			Status:       EntryStatusPending,
		})
		allocated = allocated.Add(amount)
		currentStart = nextStart
	}

	return perPeriod, entries, nil
}
