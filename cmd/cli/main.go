package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	postgresRepo "github.com/ledgerkeep/ledgerkeep/internal/adapter/repository/postgres"
	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/config"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/postgres"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
	"github.com/ledgerkeep/ledgerkeep/internal/worker"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledgerkeep",
		Short: "LedgerKeep bookkeeping CLI",
		Long:  `A command line interface for the LedgerKeep double-entry bookkeeping core.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			log = logger.New(logger.Config{
				Level:   cfg.LogLevel,
				Format:  cfg.LogFormat,
				Service: "cli",
			})
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newAccountsCommand(),
		newJournalCommand(),
		newReportsCommand(),
		newClaimsCommand(),
		newAccrueCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the use cases behind one connection pool. Outbox events
// written here sit in outbox_events until a worker drains them.
type app struct {
	pool     *pgxpool.Pool
	registry *usecase.RegistryUseCase
	journal  *usecase.JournalUseCase
	reports  *usecase.ReportUseCase
	claims   *usecase.ClaimRightUseCase
	accrual  *usecase.AccrualUseCase
}

func openApp(ctx context.Context) (*app, error) {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.DatabaseTimeout)
	if err != nil {
		return nil, err
	}

	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	reportingRepo := postgresRepo.NewReportingRepository(pool)
	claimRepo := postgresRepo.NewClaimRightRepository(pool)
	amortRepo := postgresRepo.NewAmortizationRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)

	registry := usecase.NewRegistryUseCase(txManager, accountRepo, reportingRepo, idGen)

	return &app{
		pool:     pool,
		registry: registry,
		journal:  usecase.NewJournalUseCase(txManager, journalRepo, accountRepo, outboxRepo, registry, idGen, nil, log),
		reports:  usecase.NewReportUseCase(reportingRepo, nil, log),
		claims:   usecase.NewClaimRightUseCase(txManager, claimRepo, amortRepo, outboxRepo, idGen, nil, log),
		accrual:  usecase.NewAccrualUseCase(txManager, claimRepo, amortRepo, journalRepo, outboxRepo, registry, retrier, idGen, nil, log),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
					return err
				}
				return printJSON(map[string]string{"status": "ok", "direction": "up"})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
					return err
				}
				return printJSON(map[string]string{"status": "ok", "direction": "down"})
			},
		},
	)

	return cmd
}

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Chart of accounts operations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create the default chart of accounts (idempotent)",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				created, err := a.registry.InitializeDefaultAccounts(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(map[string]int{"accountsCreated": created})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all accounts with balances in chart order",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				accounts, err := a.registry.ListAccounts(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(accounts)
			},
		},
	)

	return cmd
}

// entryFile is the JSON shape accepted by `journal post`.
type entryFile struct {
	TransactionRef string          `json:"transactionRef"`
	EntryDate      string          `json:"entryDate"`
	Reference      string          `json:"reference"`
	Description    string          `json:"description"`
	Memo           string          `json:"memo"`
	IsAdjusting    bool            `json:"isAdjusting"`
	Lines          []entryFileLine `json:"lines"`
}

type entryFileLine struct {
	AccountCode string          `json:"accountCode"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

func newJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Journal entry operations",
	}

	cmd.AddCommand(
		newJournalPostCommand(),
		newJournalAutoCommand(),
		newJournalShowCommand(),
		newJournalByRefCommand(),
		newJournalListCommand(),
	)

	return cmd
}

func newJournalPostCommand() *cobra.Command {
	var (
		file      string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Record a balanced journal entry from JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			switch {
			case fromStdin:
				data, err = io.ReadAll(os.Stdin)
			case file != "":
				data, err = os.ReadFile(file)
			default:
				return fmt.Errorf("either --file or --stdin is required")
			}
			if err != nil {
				return err
			}

			var ef entryFile
			if err := json.Unmarshal(data, &ef); err != nil {
				return fmt.Errorf("invalid entry JSON: %w", err)
			}

			entryDate := time.Now().UTC()
			if ef.EntryDate != "" {
				entryDate, err = parseTimeFlag(ef.EntryDate)
				if err != nil {
					return err
				}
			}

			input := usecase.CreateEntryInput{
				TransactionRef: ef.TransactionRef,
				EntryDate:      entryDate,
				Reference:      ef.Reference,
				Description:    ef.Description,
				Memo:           ef.Memo,
				IsAdjusting:    ef.IsAdjusting,
			}
			for _, line := range ef.Lines {
				input.Lines = append(input.Lines, usecase.EntryLineInput{
					AccountCode: line.AccountCode,
					Debit:       line.Debit,
					Credit:      line.Credit,
					Description: line.Description,
				})
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.CreateEntry(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(entry)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the entry JSON file")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the entry JSON from stdin")

	return cmd
}

func newJournalAutoCommand() *cobra.Command {
	var (
		ref           string
		vendor        string
		category      string
		paymentMethod string
		amount        string
		date          string
		description   string
	)

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Derive a journal entry from a transaction record",
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			txDate := time.Now().UTC()
			if date != "" {
				txDate, err = parseTimeFlag(date)
				if err != nil {
					return err
				}
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.AutoGenerateFromTransaction(cmd.Context(), domain.TransactionRecord{
				Ref:           ref,
				Date:          txDate,
				Vendor:        vendor,
				Description:   description,
				Category:      category,
				PaymentMethod: paymentMethod,
				Amount:        amt,
			})
			if err != nil {
				return err
			}
			if entry == nil {
				return printJSON(map[string]bool{"created": false})
			}
			return printJSON(entry)
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "transaction reference (required)")
	cmd.Flags().StringVar(&vendor, "vendor", "", "vendor name")
	cmd.Flags().StringVar(&category, "category", "", "expense category")
	cmd.Flags().StringVar(&paymentMethod, "payment-method", "", "payment method")
	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount (required)")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "transaction description")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newJournalShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a journal entry with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(entry)
		},
	}
}

func newJournalByRefCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "by-ref <ref>",
		Short: "Show the earliest journal entry for a transaction reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.GetEntryByTransactionRef(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(entry)
		},
	}
}

func newJournalListCommand() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.journal.ListEntries(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")

	return cmd
}

func newReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Financial reports",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "trial-balance",
			Short: "Trial balance across all accounts",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				report, err := a.reports.TrialBalance(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(report)
			},
		},
		&cobra.Command{
			Use:   "income-statement",
			Short: "Income statement (revenue, expenses, net income)",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				report, err := a.reports.IncomeStatement(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(report)
			},
		},
		&cobra.Command{
			Use:   "balance-sheet",
			Short: "Balance sheet (assets = liabilities + equity)",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				report, err := a.reports.BalanceSheet(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(report)
			},
		},
		newReportsBalanceCommand(),
		&cobra.Command{
			Use:   "check",
			Short: "Verify ledger-wide debit/credit equality",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				if err := a.reports.CheckLedgerConsistency(cmd.Context()); err != nil {
					return err
				}
				return printJSON(map[string]bool{"consistent": true})
			},
		},
	)

	return cmd
}

func newReportsBalanceCommand() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Balance of one account in its natural sign",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			balance, err := a.reports.AccountBalance(cmd.Context(), code)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"code": code, "balance": balance})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "account code (required)")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newClaimsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Claim right operations",
	}

	cmd.AddCommand(
		newClaimsCreateCommand(),
		newClaimsClassifyCommand(),
		newClaimsShowCommand(),
		newClaimsListCommand(),
		newClaimsCancelCommand(),
		newClaimsScheduleCommand(),
		&cobra.Command{
			Use:   "summary",
			Short: "Active claim totals and status counts",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				summary, err := a.claims.Summary(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(summary)
			},
		},
	)

	return cmd
}

func newClaimsCreateCommand() *cobra.Command {
	var (
		claimType   string
		amount      string
		start       string
		end         string
		frequency   string
		description string
		category    string
		ref         string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a claim right with its amortization schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			startDate, err := parseTimeFlag(start)
			if err != nil {
				return err
			}
			endDate, err := parseTimeFlag(end)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			claim, err := a.claims.Create(cmd.Context(), usecase.CreateClaimInput{
				Type:           domain.ClaimType(claimType),
				TotalAmount:    amt,
				StartDate:      startDate,
				EndDate:        endDate,
				Frequency:      domain.Frequency(frequency),
				Description:    description,
				Category:       category,
				TransactionRef: ref,
			})
			if err != nil {
				return err
			}
			return printJSON(claim)
		},
	}

	cmd.Flags().StringVar(&claimType, "type", "", "ASSET_CLAIM or LIABILITY_CLAIM (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "total amount (required)")
	cmd.Flags().StringVar(&start, "start", "", "service period start YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "service period end YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&frequency, "frequency", "monthly", "monthly, quarterly or yearly")
	cmd.Flags().StringVar(&description, "description", "", "claim description")
	cmd.Flags().StringVar(&category, "category", "", "expense category for asset claims")
	cmd.Flags().StringVar(&ref, "ref", "", "source transaction reference")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newClaimsClassifyCommand() *cobra.Command {
	var (
		text          string
		category      string
		vendor        string
		paymentMethod string
		amount        string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a transaction as a potential claim right",
		RunE: func(cmd *cobra.Command, args []string) error {
			amt := decimal.Zero
			if amount != "" {
				var err error
				amt, err = decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", amount, err)
				}
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return printJSON(a.claims.Classify(text, category, vendor, paymentMethod, amt))
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "transaction text to classify (required)")
	cmd.Flags().StringVar(&category, "category", "", "transaction category")
	cmd.Flags().StringVar(&vendor, "vendor", "", "vendor name")
	cmd.Flags().StringVar(&paymentMethod, "payment-method", "", "payment method")
	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newClaimsShowCommand() *cobra.Command {
	var withSchedule bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a claim right",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !withSchedule {
				claim, err := a.claims.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(claim)
			}

			claim, schedule, err := a.claims.GetWithSchedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"claim": claim, "schedule": schedule})
		},
	}

	cmd.Flags().BoolVar(&withSchedule, "schedule", false, "include the amortization schedule")

	return cmd
}

func newClaimsListCommand() *cobra.Command {
	var (
		claimType string
		status    string
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List claim rights newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			claims, err := a.claims.List(cmd.Context(), usecase.ClaimFilter{
				Type:   domain.ClaimType(claimType),
				Status: domain.ClaimStatus(status),
			}, limit, offset)
			if err != nil {
				return err
			}
			return printJSON(claims)
		},
	}

	cmd.Flags().StringVar(&claimType, "type", "", "filter by claim type")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum claims to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "claims to skip")

	return cmd
}

func newClaimsCancelCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a claim right and skip its pending amortizations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			claim, err := a.claims.Cancel(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			return printJSON(claim)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newClaimsScheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <id>",
		Short: "Generate (or fetch) the amortization schedule for a claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			schedule, err := a.claims.GenerateSchedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(schedule)
		},
	}
}

func newAccrueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accrue",
		Short: "Accrual batch operations",
	}

	cmd.AddCommand(
		newAccrueRunCommand(),
		newAccruePendingCommand(),
		newAccrueEnqueueCommand(),
	)

	return cmd
}

func newAccrueRunCommand() *cobra.Command {
	var (
		start  string
		end    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Post pending amortization entries for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := usecase.ProcessPeriodInput{DryRun: dryRun}

			if start != "" {
				t, err := parseTimeFlag(start)
				if err != nil {
					return err
				}
				input.PeriodStart = &t
			}
			if end != "" {
				t, err := parseEndFlag(end)
				if err != nil {
					return err
				}
				input.PeriodEnd = &t
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.accrual.ProcessPeriod(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "period start YYYY-MM-DD (default: first of current month)")
	cmd.Flags().StringVar(&end, "end", "", "period end YYYY-MM-DD, inclusive (default: last of current month)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute without writing")

	return cmd
}

func newAccruePendingCommand() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Count pending amortization entries due for posting",
		RunE: func(cmd *cobra.Command, args []string) error {
			var asOfPtr *time.Time
			if asOf != "" {
				t, err := parseEndFlag(asOf)
				if err != nil {
					return err
				}
				asOfPtr = &t
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			pending, err := a.accrual.PendingCount(cmd.Context(), asOfPtr)
			if err != nil {
				return err
			}
			return printJSON(pending)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "cutoff date YYYY-MM-DD (default: now)")

	return cmd
}

func newAccrueEnqueueCommand() *cobra.Command {
	var (
		start  string
		end    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Enqueue an accrual batch for the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			var startPtr, endPtr *time.Time
			if start != "" {
				t, err := parseTimeFlag(start)
				if err != nil {
					return err
				}
				startPtr = &t
			}
			if end != "" {
				t, err := parseEndFlag(end)
				if err != nil {
					return err
				}
				endPtr = &t
			}

			task, err := worker.NewAccrualProcessTask(startPtr, endPtr, dryRun)
			if err != nil {
				return err
			}

			redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
			if err != nil {
				return err
			}
			client := asynq.NewClient(redisOpt)
			defer client.Close()

			info, err := client.Enqueue(task, asynq.Queue("low"))
			if err != nil {
				return err
			}
			return printJSON(map[string]string{
				"taskId": info.ID,
				"queue":  info.Queue,
				"type":   info.Type,
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "period start YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "period end YYYY-MM-DD, inclusive")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute without writing")

	return cmd
}

// parseTimeFlag accepts YYYY-MM-DD or RFC3339 and returns UTC.
func parseTimeFlag(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t.UTC(), nil
}

// parseEndFlag parses like parseTimeFlag but widens a bare date to the last
// second of that day, so the bound is inclusive.
func parseEndFlag(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC().Add(24*time.Hour - time.Second), nil
	}
	return parseTimeFlag(s)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
