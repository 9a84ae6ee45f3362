package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/library/orchestrator"
	"github.com/AntonStoeckl/library-lending-go/library/shared/shell/config"
)

// operation runs one orchestrator call; its result is printed as JSON.
type operation func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error)

func execute(cmd *cobra.Command, a *app, name string, op operation) error {
	ctx := cmd.Context()

	o, err := a.loanOrchestrator(ctx)
	if err != nil {
		return err
	}

	var result any

	err = a.retry(ctx, name, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx, o)

		return opErr
	})
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), result)
}

func parseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Join(ErrInvalidArgument, fmt.Errorf("%s must be a positive integer, got %q", name, value))
	}

	return id, nil
}

func newMigrateCommand(a *app) *cobra.Command {
	var down, status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.engine != enginePostgres {
				return ErrMigrateRequiresPostgres
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}

			db, err := config.NewPostgresSQLDB(cmd.Context(), cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			switch {
			case status:
				return postgresengine.MigrationStatus(cmd.Context(), db)
			case down:
				return postgresengine.MigrateDown(cmd.Context(), db)
			default:
				return postgresengine.MigrateUp(cmd.Context(), db)
			}
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "print the migration status")
	cmd.MarkFlagsMutuallyExclusive("down", "status")

	return cmd
}

func newBookCommand(a *app) *cobra.Command {
	book := &cobra.Command{Use: "book", Short: "Manage the book inventory"}

	var copies int

	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a book with --copies available copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, "AddBook", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
				return o.AddBook(ctx, args[0], copies)
			})
		},
	}
	add.Flags().IntVar(&copies, "copies", 1, "number of copies")

	addCopies := &cobra.Command{
		Use:   "add-copies <bookId> <n>",
		Short: "Add n copies to an existing book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("bookId", args[0])
			if err != nil {
				return err
			}

			n, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Join(ErrInvalidArgument, err)
			}

			return execute(cmd, a, "AddBookCopies", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
				return o.AddCopies(ctx, bookID, n)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <bookId>",
		Short: "Remove a book that has no copies on loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("bookId", args[0])
			if err != nil {
				return err
			}

			return execute(cmd, a, "RemoveBook", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
				return o.RemoveBook(ctx, bookID)
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <bookId>",
		Short: "Show the copy counts of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("bookId", args[0])
			if err != nil {
				return err
			}

			return execute(cmd, a, "GetBookInventory", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
				return o.GetBookInventory(ctx, bookID)
			})
		},
	}

	book.AddCommand(add, addCopies, remove, show)

	return book
}

func newMemberCommand(a *app) *cobra.Command {
	member := &cobra.Command{Use: "member", Short: "Manage library members"}

	var (
		inactive  bool
		expiresAt string
		maxBooks  int
	)

	register := &cobra.Command{
		Use:   "register",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			expires, err := time.Parse(time.RFC3339, expiresAt)
			if err != nil {
				return errors.Join(ErrInvalidArgument, err)
			}

			return execute(cmd, a, "RegisterMember", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
				return o.RegisterMember(ctx, !inactive, expires, maxBooks)
			})
		},
	}
	register.Flags().BoolVar(&inactive, "inactive", false, "register the account as inactive")
	register.Flags().StringVar(&expiresAt, "expires-at", "", "membership expiry, RFC3339")
	register.Flags().IntVar(&maxBooks, "max-books", 5, "maximum number of simultaneous loans")
	_ = register.MarkFlagRequired("expires-at")

	member.AddCommand(register)

	return member
}

//nolint:funlen
func newLoanCommand(a *app) *cobra.Command {
	loan := &cobra.Command{Use: "loan", Short: "Create and change loans"}

	loanCommand := func(use, short, name string, call func(ctx context.Context, o *orchestrator.LoanOrchestrator, loanID int64) (any, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				loanID, err := parseID("loanId", args[0])
				if err != nil {
					return err
				}

				return execute(cmd, a, name, func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
					return call(ctx, o, loanID)
				})
			},
		}
	}

	create := &cobra.Command{
		Use:   "create <memberId> <bookId>",
		Short: "Lend one copy of a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := parseID("memberId", args[0])
			if err != nil {
				return err
			}

			bookID, err := parseID("bookId", args[1])
			if err != nil {
				return err
			}

			return execute(cmd, a, "CreateLoan", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
				return o.CreateLoan(ctx, memberID, bookID)
			})
		},
	}

	var days int

	renew := loanCommand("renew <loanId>", "Extend the due date of an active loan", "RenewLoan",
		func(ctx context.Context, o *orchestrator.LoanOrchestrator, loanID int64) (any, error) {
			if days == 0 {
				return o.RenewLoanByPolicy(ctx, loanID)
			}

			return o.RenewLoan(ctx, loanID, days)
		})
	renew.Flags().IntVar(&days, "days", 0, "days to extend by, the policy's renewal period when 0")

	var notes string

	damaged := loanCommand("damaged <loanId>", "Record that the lent copy came back damaged", "MarkLoanDamaged",
		func(ctx context.Context, o *orchestrator.LoanOrchestrator, loanID int64) (any, error) {
			return o.MarkDamaged(ctx, loanID, notes)
		})
	damaged.Flags().StringVar(&notes, "notes", "", "description of the damage")

	loan.AddCommand(
		create,
		loanCommand("return <loanId>", "Return a loan and charge any late fee", "ReturnLoan",
			func(ctx context.Context, o *orchestrator.LoanOrchestrator, loanID int64) (any, error) {
				return o.ReturnLoan(ctx, loanID)
			}),
		renew,
		loanCommand("lost <loanId>", "Record that the lent copy is lost", "MarkLoanLost",
			func(ctx context.Context, o *orchestrator.LoanOrchestrator, loanID int64) (any, error) {
				return o.MarkLost(ctx, loanID)
			}),
		damaged,
		loanCommand("pay-fee <loanId>", "Settle the late fee of a returned loan", "PayLateFee",
			func(ctx context.Context, o *orchestrator.LoanOrchestrator, loanID int64) (any, error) {
				return o.PayFee(ctx, loanID)
			}),
		loanCommand("fee-preview <loanId>", "Show the late fee a return right now would charge", "PreviewLateFee",
			func(ctx context.Context, o *orchestrator.LoanOrchestrator, loanID int64) (any, error) {
				return o.PreviewLateFee(ctx, loanID)
			}),
	)

	return loan
}

func newLoansCommand(a *app) *cobra.Command {
	loans := &cobra.Command{Use: "loans", Short: "List loans"}

	active := &cobra.Command{
		Use:   "active <memberId>",
		Short: "List the active loans of a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := parseID("memberId", args[0])
			if err != nil {
				return err
			}

			return execute(cmd, a, "GetActiveLoans", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
				return o.GetActiveLoans(ctx, memberID)
			})
		},
	}

	var asOf string

	overdue := &cobra.Command{
		Use:   "overdue",
		Short: "List active loans past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asOf == "" {
				return execute(cmd, a, "GetOverdueLoans", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
					return o.GetOverdueLoansNow(ctx)
				})
			}

			at, err := time.Parse(time.RFC3339, asOf)
			if err != nil {
				return errors.Join(ErrInvalidArgument, err)
			}

			return execute(cmd, a, "GetOverdueLoans", func(ctx context.Context, o *orchestrator.LoanOrchestrator) (any, error) {
				return o.GetOverdueLoans(ctx, at)
			})
		},
	}
	overdue.Flags().StringVar(&asOf, "as-of", "", "instant to evaluate, RFC3339; defaults to now")

	loans.AddCommand(active, overdue)

	return loans
}
