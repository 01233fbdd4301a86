package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Journal metrics
	JournalEntriesCreated     *prometheus.CounterVec
	JournalValidationFailures prometheus.Counter

	// Claim right metrics
	ClaimRightsCreated   *prometheus.CounterVec
	ClaimRightsCancelled prometheus.Counter
	ClaimRightsCompleted prometheus.Counter

	// Accrual metrics
	AccrualEntriesPosted *prometheus.CounterVec
	AccrualEntryErrors   prometheus.Counter
	AccrualBatchDuration *prometheus.HistogramVec

	// Report metrics
	ReportsGenerated    *prometheus.CounterVec
	ReportsOutOfBalance *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished     prometheus.Counter
	OutboxPublishErrors prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Journal metrics
		JournalEntriesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerkeep_journal_entries_created_total",
				Help: "Total number of journal entries created by source",
			},
			[]string{"source"},
		),
		JournalValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerkeep_journal_validation_failures_total",
			Help: "Total number of journal entries rejected by validation",
		}),

		// Claim right metrics
		ClaimRightsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerkeep_claim_rights_created_total",
				Help: "Total number of claim rights created by type",
			},
			[]string{"claim_type"},
		),
		ClaimRightsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerkeep_claim_rights_cancelled_total",
			Help: "Total number of claim rights cancelled",
		}),
		ClaimRightsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerkeep_claim_rights_completed_total",
			Help: "Total number of claim rights fully amortized",
		}),

		// Accrual metrics
		AccrualEntriesPosted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerkeep_accrual_entries_posted_total",
				Help: "Total number of amortization entries posted by claim type",
			},
			[]string{"claim_type"},
		),
		AccrualEntryErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerkeep_accrual_entry_errors_total",
			Help: "Total number of amortization entries that failed to post",
		}),
		AccrualBatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgerkeep_accrual_batch_duration_seconds",
				Help:    "Duration of accrual batch runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dry_run"},
		),

		// Report metrics
		ReportsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerkeep_reports_generated_total",
				Help: "Total number of reports generated by kind",
			},
			[]string{"report"},
		),
		ReportsOutOfBalance: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerkeep_reports_out_of_balance_total",
				Help: "Total number of generated reports that failed their balance check",
			},
			[]string{"report"},
		),

		// Outbox metrics
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerkeep_outbox_published_total",
			Help: "Total number of outbox events published",
		}),
		OutboxPublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerkeep_outbox_publish_errors_total",
			Help: "Total number of outbox publish failures",
		}),
	}
}
