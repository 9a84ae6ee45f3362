package orchestrator

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/addbook"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/addcopies"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/createloan"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/markdamaged"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/marklost"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/payfee"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/registermember"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/removebook"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/renewloan"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/returnloan"
	"github.com/AntonStoeckl/library-lending-go/library/features/query/activeloans"
	"github.com/AntonStoeckl/library-lending-go/library/features/query/bookinventory"
	"github.com/AntonStoeckl/library-lending-go/library/features/query/feepreview"
	"github.com/AntonStoeckl/library-lending-go/library/features/query/overdueloans"
	"github.com/AntonStoeckl/library-lending-go/library/shared/shell"
	"github.com/AntonStoeckl/library-lending-go/library/shared/shell/observable"
)

// LoanOrchestrator exposes the lending operations. It is safe for concurrent use
// as long as the UnitOfWork is.
type LoanOrchestrator struct {
	uow    lending.UnitOfWork
	clock  lending.Clock
	policy lending.Policy

	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector

	createLoan     shell.CommandHandler[createloan.Command, lending.Loan]
	returnLoan     shell.CommandHandler[returnloan.Command, lending.Loan]
	renewLoan      shell.CommandHandler[renewloan.Command, lending.Loan]
	markLost       shell.CommandHandler[marklost.Command, lending.Loan]
	markDamaged    shell.CommandHandler[markdamaged.Command, lending.Loan]
	payFee         shell.CommandHandler[payfee.Command, lending.Loan]
	addBook        shell.CommandHandler[addbook.Command, lending.Book]
	addCopies      shell.CommandHandler[addcopies.Command, lending.Book]
	removeBook     shell.CommandHandler[removebook.Command, lending.Book]
	registerMember shell.CommandHandler[registermember.Command, lending.Member]

	activeLoans   shell.QueryHandler[activeloans.Query, []lending.Loan]
	overdueLoans  shell.QueryHandler[overdueloans.Query, []lending.Loan]
	feePreview    shell.QueryHandler[feepreview.Query, feepreview.FeePreview]
	bookInventory shell.QueryHandler[bookinventory.Query, bookinventory.Inventory]
}

// New builds the orchestrator and all of its handlers on uow.
// Defaults: lending.SystemClock, lending.DefaultPolicy, no instrumentation.
func New(uow lending.UnitOfWork, options ...Option) (*LoanOrchestrator, error) {
	if uow == nil {
		return nil, ErrNilUnitOfWork
	}

	o := &LoanOrchestrator{
		uow:    uow,
		clock:  lending.SystemClock{},
		policy: lending.DefaultPolicy(),
	}

	for _, option := range options {
		if err := option(o); err != nil {
			return nil, err
		}
	}

	if err := o.policy.Validate(); err != nil {
		return nil, err
	}

	if err := o.buildCommandHandlers(); err != nil {
		return nil, err
	}

	if err := o.buildQueryHandlers(); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *LoanOrchestrator) wrapperOptions() []observable.Option {
	return []observable.Option{
		observable.WithLogging(o.logger),
		observable.WithContextualLogging(o.contextualLogger),
		observable.WithMetrics(o.metricsCollector),
		observable.WithTracing(o.tracingCollector),
	}
}

//nolint:funlen
func (o *LoanOrchestrator) buildCommandHandlers() error {
	opts := o.wrapperOptions()
	uow, clock, policy := o.uow, o.clock, o.policy

	var err error

	if o.createLoan, err = observable.NewCommandWrapper[createloan.Command, lending.Loan](
		createloan.NewCommandHandler(uow, clock, policy), opts...); err != nil {
		return err
	}

	if o.returnLoan, err = observable.NewCommandWrapper[returnloan.Command, lending.Loan](
		returnloan.NewCommandHandler(uow, clock, policy), opts...); err != nil {
		return err
	}

	if o.renewLoan, err = observable.NewCommandWrapper[renewloan.Command, lending.Loan](
		renewloan.NewCommandHandler(uow, clock), opts...); err != nil {
		return err
	}

	if o.markLost, err = observable.NewCommandWrapper[marklost.Command, lending.Loan](
		marklost.NewCommandHandler(uow, clock), opts...); err != nil {
		return err
	}

	if o.markDamaged, err = observable.NewCommandWrapper[markdamaged.Command, lending.Loan](
		markdamaged.NewCommandHandler(uow, clock), opts...); err != nil {
		return err
	}

	if o.payFee, err = observable.NewCommandWrapper[payfee.Command, lending.Loan](
		payfee.NewCommandHandler(uow, clock), opts...); err != nil {
		return err
	}

	if o.addBook, err = observable.NewCommandWrapper[addbook.Command, lending.Book](
		addbook.NewCommandHandler(uow, clock), opts...); err != nil {
		return err
	}

	if o.addCopies, err = observable.NewCommandWrapper[addcopies.Command, lending.Book](
		addcopies.NewCommandHandler(uow), opts...); err != nil {
		return err
	}

	if o.removeBook, err = observable.NewCommandWrapper[removebook.Command, lending.Book](
		removebook.NewCommandHandler(uow), opts...); err != nil {
		return err
	}

	o.registerMember, err = observable.NewCommandWrapper[registermember.Command, lending.Member](
		registermember.NewCommandHandler(uow), opts...)

	return err
}

func (o *LoanOrchestrator) buildQueryHandlers() error {
	opts := o.wrapperOptions()

	var err error

	if o.activeLoans, err = observable.NewQueryWrapper[activeloans.Query, []lending.Loan](
		activeloans.NewQueryHandler(o.uow), opts...); err != nil {
		return err
	}

	if o.overdueLoans, err = observable.NewQueryWrapper[overdueloans.Query, []lending.Loan](
		overdueloans.NewQueryHandler(o.uow), opts...); err != nil {
		return err
	}

	if o.feePreview, err = observable.NewQueryWrapper[feepreview.Query, feepreview.FeePreview](
		feepreview.NewQueryHandler(o.uow, o.clock, o.policy), opts...); err != nil {
		return err
	}

	o.bookInventory, err = observable.NewQueryWrapper[bookinventory.Query, bookinventory.Inventory](
		bookinventory.NewQueryHandler(o.uow), opts...)

	return err
}

// Policy returns the validated policy in effect.
func (o *LoanOrchestrator) Policy() lending.Policy {
	return o.policy
}

// CreateLoan lends one copy of bookID to memberID.
// Rejections: *lending.IneligibleError, lending.ErrUnavailable, *lending.NotFoundError for the book.
func (o *LoanOrchestrator) CreateLoan(ctx context.Context, memberID, bookID int64) (lending.Loan, error) {
	return o.createLoan.Handle(ctx, createloan.BuildCommand(memberID, bookID))
}

// ReturnLoan returns an active, possibly overdue, loan and charges the late fee.
func (o *LoanOrchestrator) ReturnLoan(ctx context.Context, loanID int64) (lending.Loan, error) {
	return o.returnLoan.Handle(ctx, returnloan.BuildCommand(loanID))
}

// RenewLoan extends the due date of an active loan that is not overdue by days.
func (o *LoanOrchestrator) RenewLoan(ctx context.Context, loanID int64, days int) (lending.Loan, error) {
	return o.renewLoan.Handle(ctx, renewloan.BuildCommand(loanID, days))
}

// RenewLoanByPolicy renews by the policy's renewal period.
func (o *LoanOrchestrator) RenewLoanByPolicy(ctx context.Context, loanID int64) (lending.Loan, error) {
	return o.RenewLoan(ctx, loanID, o.policy.RenewalDays)
}

func (o *LoanOrchestrator) MarkLost(ctx context.Context, loanID int64) (lending.Loan, error) {
	return o.markLost.Handle(ctx, marklost.BuildCommand(loanID))
}

func (o *LoanOrchestrator) MarkDamaged(ctx context.Context, loanID int64, notes string) (lending.Loan, error) {
	return o.markDamaged.Handle(ctx, markdamaged.BuildCommand(loanID, notes))
}

// PayFee settles the late fee of a returned loan.
func (o *LoanOrchestrator) PayFee(ctx context.Context, loanID int64) (lending.Loan, error) {
	return o.payFee.Handle(ctx, payfee.BuildCommand(loanID))
}

// PreviewLateFee reports the fee a return right now would charge.
func (o *LoanOrchestrator) PreviewLateFee(ctx context.Context, loanID int64) (feepreview.FeePreview, error) {
	return o.feePreview.Handle(ctx, feepreview.BuildQuery(loanID))
}

func (o *LoanOrchestrator) GetActiveLoans(ctx context.Context, memberID int64) ([]lending.Loan, error) {
	return o.activeLoans.Handle(ctx, activeloans.BuildQuery(memberID))
}

func (o *LoanOrchestrator) GetOverdueLoans(ctx context.Context, asOf time.Time) ([]lending.Loan, error) {
	return o.overdueLoans.Handle(ctx, overdueloans.BuildQuery(asOf))
}

// GetOverdueLoansNow is GetOverdueLoans as of the orchestrator's clock.
func (o *LoanOrchestrator) GetOverdueLoansNow(ctx context.Context) ([]lending.Loan, error) {
	return o.GetOverdueLoans(ctx, o.clock.Now())
}

func (o *LoanOrchestrator) GetBookInventory(ctx context.Context, bookID int64) (bookinventory.Inventory, error) {
	return o.bookInventory.Handle(ctx, bookinventory.BuildQuery(bookID))
}

func (o *LoanOrchestrator) AddBook(ctx context.Context, title string, totalCopies int) (lending.Book, error) {
	return o.addBook.Handle(ctx, addbook.BuildCommand(title, totalCopies))
}

func (o *LoanOrchestrator) AddCopies(ctx context.Context, bookID int64, copies int) (lending.Book, error) {
	return o.addCopies.Handle(ctx, addcopies.BuildCommand(bookID, copies))
}

// RemoveBook soft-deletes a book that has no copies on loan.
func (o *LoanOrchestrator) RemoveBook(ctx context.Context, bookID int64) (lending.Book, error) {
	return o.removeBook.Handle(ctx, removebook.BuildCommand(bookID))
}

func (o *LoanOrchestrator) RegisterMember(
	ctx context.Context,
	isActive bool,
	membershipExpiresAt time.Time,
	maxBooksAllowed int,
) (lending.Member, error) {
	return o.registerMember.Handle(ctx, registermember.BuildCommand(isActive, membershipExpiresAt, maxBooksAllowed))
}
