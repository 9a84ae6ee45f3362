package memengine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Operation identifies a Tx method for failure injection.
type Operation string

const (
	OpAcquireCopy Operation = "acquire_copy"
	OpReleaseCopy Operation = "release_copy"
	OpRemoveCopy  Operation = "remove_copy"
	OpFindMember  Operation = "find_member"
	OpAddFee      Operation = "add_outstanding_fee"
	OpInsertLoan  Operation = "insert_loan"
	OpUpdateLoan  Operation = "update_loan"
	OpAppendAudit Operation = "append_audit"
	OpCommit      Operation = "commit"
)

const (
	logMsgTxRollback = "memengine transaction rolled back"
	logMsgTxCommit   = "memengine transaction committed"
	logAttrError     = "error"
)

// ErrInjectedFailure is joined into every error produced by FailOn.
var ErrInjectedFailure = errors.New("injected failure")

// Store is the in-memory engine. The zero value is not usable, use New.
type Store struct {
	mu       sync.Mutex
	state    *state
	failures map[Operation]error
	logger   lending.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for commit/rollback debug messages.
func WithLogger(logger lending.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

type state struct {
	books        map[int64]lending.Book
	members      map[int64]lending.Member
	loans        map[int64]lending.LoanRecord
	audit        []lending.AuditEntry
	nextBookID   int64
	nextMemberID int64
	nextLoanID   int64
}

// New returns an empty Store.
func New(options ...Option) *Store {
	s := &Store{
		state: &state{
			books:   make(map[int64]lending.Book),
			members: make(map[int64]lending.Member),
			loans:   make(map[int64]lending.LoanRecord),
		},
		failures: make(map[Operation]error),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (st *state) clone() *state {
	return &state{
		books:        maps.Clone(st.books),
		members:      maps.Clone(st.members),
		loans:        maps.Clone(st.loans),
		audit:        slices.Clone(st.audit),
		nextBookID:   st.nextBookID,
		nextMemberID: st.nextMemberID,
		nextLoanID:   st.nextLoanID,
	}
}

// RunInTx runs fn against a private copy of the state and publishes it only if fn
// returns nil and ctx is still alive. Calls are serialized; fn must not call RunInTx.
func (s *Store) RunInTx(ctx context.Context, fn lending.TxFunc) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, state: s.state.clone()}

	defer func() {
		if recovered := recover(); recovered != nil {
			s.logDebug(logMsgTxRollback, logAttrError, "panic")
			panic(recovered)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		s.logDebug(logMsgTxRollback, logAttrError, err.Error())
		return err
	}

	if err = ctx.Err(); err != nil {
		s.logDebug(logMsgTxRollback, logAttrError, err.Error())
		return err
	}

	if err = s.injected(OpCommit); err != nil {
		s.logDebug(logMsgTxRollback, logAttrError, err.Error())
		return err
	}

	s.state = tx.state
	s.logDebug(logMsgTxCommit)

	return nil
}

// FailOn makes every following call of op fail with err (joined with ErrInjectedFailure)
// until ClearFailures is called.
func (s *Store) FailOn(op Operation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[op] = errors.Join(ErrInjectedFailure, err)
}

// ClearFailures removes all injected failures.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.failures)
}

// injected must be called with s.mu held.
func (s *Store) injected(op Operation) error {
	return s.failures[op]
}

// Book returns the committed state of a book.
func (s *Store) Book(bookID int64) (lending.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.state.books[bookID]

	return book, ok
}

// Member returns the committed state of a member.
func (s *Store) Member(memberID int64) (lending.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.state.members[memberID]

	return member, ok
}

// LoanCount returns the number of committed loans.
func (s *Store) LoanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.state.loans)
}

// AuditEntries returns a copy of the committed audit journal.
func (s *Store) AuditEntries() []lending.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.state.audit)
}

// CheckInvariants validates the copy counts of every committed book.
func (s *Store) CheckInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := slices.Collect(maps.Keys(s.state.books))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := s.state.books[id].Validate(); err != nil {
			return fmt.Errorf("book %d: %w", id, err)
		}
	}

	return nil
}

func (s *Store) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// memTx implements lending.Tx and all repositories on top of one working state.
type memTx struct {
	store *Store
	state *state
}

func (tx *memTx) Inventory() lending.InventoryLedger { return memInventory{tx} }
func (tx *memTx) Members() lending.MemberRepository  { return memMembers{tx} }
func (tx *memTx) Loans() lending.LoanRepository      { return memLoans{tx} }
func (tx *memTx) Audit() lending.AuditJournal        { return memAudit{tx} }

type memInventory struct{ tx *memTx }

func (inv memInventory) AcquireCopy(_ context.Context, bookID int64) (bool, error) {
	if err := inv.tx.store.injected(OpAcquireCopy); err != nil {
		return false, err
	}

	book, ok := inv.tx.state.books[bookID]
	if !ok || book.IsDeleted {
		return false, lending.NewNotFoundError(lending.EntityBook, bookID)
	}

	if book.AvailableCopies <= 0 {
		return false, nil
	}

	book.AvailableCopies--
	inv.tx.state.books[bookID] = book

	return true, nil
}

func (inv memInventory) ReleaseCopy(_ context.Context, bookID int64) (bool, error) {
	if err := inv.tx.store.injected(OpReleaseCopy); err != nil {
		return false, err
	}

	book, ok := inv.tx.state.books[bookID]
	if !ok {
		return false, lending.NewNotFoundError(lending.EntityBook, bookID)
	}

	if book.AvailableCopies >= book.TotalCopies {
		return false, nil
	}

	book.AvailableCopies++
	inv.tx.state.books[bookID] = book

	return true, nil
}

func (inv memInventory) RemoveCopyFromCirculation(_ context.Context, bookID int64) (bool, error) {
	if err := inv.tx.store.injected(OpRemoveCopy); err != nil {
		return false, err
	}

	book, ok := inv.tx.state.books[bookID]
	if !ok {
		return false, lending.NewNotFoundError(lending.EntityBook, bookID)
	}

	if book.TotalCopies <= book.AvailableCopies {
		return false, nil
	}

	book.TotalCopies--
	inv.tx.state.books[bookID] = book

	return true, nil
}

func (inv memInventory) AddCopies(_ context.Context, bookID int64, n int) (bool, error) {
	if n <= 0 {
		return false, lending.ErrInvalidCopyCount
	}

	book, ok := inv.tx.state.books[bookID]
	if !ok || book.IsDeleted {
		return false, lending.NewNotFoundError(lending.EntityBook, bookID)
	}

	book.TotalCopies += n
	book.AvailableCopies += n
	inv.tx.state.books[bookID] = book

	return true, nil
}

func (inv memInventory) SoftDeleteBook(_ context.Context, bookID int64) (bool, error) {
	book, ok := inv.tx.state.books[bookID]
	if !ok || book.IsDeleted {
		return false, lending.NewNotFoundError(lending.EntityBook, bookID)
	}

	if book.CopiesOnLoan() != 0 {
		return false, nil
	}

	book.IsDeleted = true
	inv.tx.state.books[bookID] = book

	return true, nil
}

func (inv memInventory) AddBook(_ context.Context, book lending.Book) (lending.Book, error) {
	if err := book.Validate(); err != nil {
		return lending.Book{}, err
	}

	inv.tx.state.nextBookID++
	book.ID = inv.tx.state.nextBookID
	inv.tx.state.books[book.ID] = book

	return book, nil
}

func (inv memInventory) FindBook(_ context.Context, bookID int64) (lending.Book, error) {
	book, ok := inv.tx.state.books[bookID]
	if !ok || book.IsDeleted {
		return lending.Book{}, lending.NewNotFoundError(lending.EntityBook, bookID)
	}

	return book, nil
}

type memMembers struct{ tx *memTx }

func (m memMembers) FindMember(_ context.Context, memberID int64) (lending.Member, error) {
	if err := m.tx.store.injected(OpFindMember); err != nil {
		return lending.Member{}, err
	}

	member, ok := m.tx.state.members[memberID]
	if !ok {
		return lending.Member{}, lending.NewNotFoundError(lending.EntityMember, memberID)
	}

	return member, nil
}

func (m memMembers) RegisterMember(_ context.Context, member lending.Member) (lending.Member, error) {
	if member.MaxBooksAllowed < 0 {
		return lending.Member{}, lending.ErrInvalidMaxBooksAllowed
	}

	m.tx.state.nextMemberID++
	member.ID = m.tx.state.nextMemberID
	m.tx.state.members[member.ID] = member

	return member, nil
}

func (m memMembers) AddOutstandingFee(_ context.Context, memberID int64, amount decimal.Decimal) error {
	if err := m.tx.store.injected(OpAddFee); err != nil {
		return err
	}

	if amount.IsNegative() {
		return lending.ErrNegativeAmount
	}

	member, ok := m.tx.state.members[memberID]
	if !ok {
		return lending.NewNotFoundError(lending.EntityMember, memberID)
	}

	member.OutstandingFees = member.OutstandingFees.Add(amount)
	m.tx.state.members[memberID] = member

	return nil
}

func (m memMembers) SettleOutstandingFee(_ context.Context, memberID int64, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, lending.ErrNegativeAmount
	}

	member, ok := m.tx.state.members[memberID]
	if !ok {
		return false, lending.NewNotFoundError(lending.EntityMember, memberID)
	}

	if member.OutstandingFees.LessThan(amount) {
		return false, nil
	}

	member.OutstandingFees = member.OutstandingFees.Sub(amount)
	m.tx.state.members[memberID] = member

	return true, nil
}

type memLoans struct{ tx *memTx }

func (l memLoans) InsertLoan(_ context.Context, loan lending.Loan) (lending.Loan, error) {
	if err := l.tx.store.injected(OpInsertLoan); err != nil {
		return lending.Loan{}, err
	}

	if _, ok := l.tx.state.members[loan.MemberID()]; !ok {
		return lending.Loan{}, lending.NewNotFoundError(lending.EntityMember, loan.MemberID())
	}

	if _, ok := l.tx.state.books[loan.BookID()]; !ok {
		return lending.Loan{}, lending.NewNotFoundError(lending.EntityBook, loan.BookID())
	}

	l.tx.state.nextLoanID++

	persisted, err := loan.WithID(l.tx.state.nextLoanID)
	if err != nil {
		return lending.Loan{}, err
	}

	l.tx.state.loans[persisted.ID()] = persisted.Record()

	return persisted, nil
}

func (l memLoans) FindLoan(_ context.Context, loanID int64) (lending.Loan, error) {
	record, ok := l.tx.state.loans[loanID]
	if !ok {
		return lending.Loan{}, lending.NewNotFoundError(lending.EntityLoan, loanID)
	}

	return lending.ReconstituteLoan(record)
}

func (l memLoans) UpdateLoan(_ context.Context, before, after lending.Loan) (bool, error) {
	if err := l.tx.store.injected(OpUpdateLoan); err != nil {
		return false, err
	}

	stored, ok := l.tx.state.loans[before.ID()]
	if !ok {
		return false, lending.NewNotFoundError(lending.EntityLoan, before.ID())
	}

	if stored.Status != before.Status() ||
		stored.RenewalCount != before.RenewalCount() ||
		stored.IsFeePaid != before.IsFeePaid() {
		return false, nil
	}

	l.tx.state.loans[before.ID()] = after.Record()

	return true, nil
}

func (l memLoans) CountActiveLoans(ctx context.Context, memberID int64) (int, error) {
	loans, err := l.ActiveLoansByMember(ctx, memberID)

	return len(loans), err
}

func (l memLoans) ActiveLoansByMember(_ context.Context, memberID int64) ([]lending.Loan, error) {
	return l.collect(func(r lending.LoanRecord) bool {
		return r.MemberID == memberID && r.Status == lending.LoanStatusActive
	}, func(a, b lending.LoanRecord) bool {
		return a.ID < b.ID
	})
}

func (l memLoans) OverdueLoans(_ context.Context, asOf time.Time) ([]lending.Loan, error) {
	return l.collect(func(r lending.LoanRecord) bool {
		return r.Status == lending.LoanStatusActive && r.DueDate.Before(asOf)
	}, func(a, b lending.LoanRecord) bool {
		if a.DueDate.Equal(b.DueDate) {
			return a.ID < b.ID
		}
		return a.DueDate.Before(b.DueDate)
	})
}

func (l memLoans) collect(
	match func(lending.LoanRecord) bool,
	less func(a, b lending.LoanRecord) bool,
) ([]lending.Loan, error) {

	records := make([]lending.LoanRecord, 0)
	for _, record := range l.tx.state.loans {
		if match(record) {
			records = append(records, record)
		}
	}

	sort.Slice(records, func(i, j int) bool { return less(records[i], records[j]) })

	loans := make([]lending.Loan, 0, len(records))
	for _, record := range records {
		loan, err := lending.ReconstituteLoan(record)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, nil
}

type memAudit struct{ tx *memTx }

func (a memAudit) Append(_ context.Context, entry lending.AuditEntry) error {
	if err := a.tx.store.injected(OpAppendAudit); err != nil {
		return err
	}

	a.tx.state.audit = append(a.tx.state.audit, entry)

	return nil
}

func (a memAudit) EntriesForLoan(_ context.Context, loanID int64) ([]lending.AuditEntry, error) {
	entries := make([]lending.AuditEntry, 0)
	for _, entry := range a.tx.state.audit {
		if entry.LoanID == loanID {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

var _ lending.UnitOfWork = (*Store)(nil)
