package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

var (
	ErrBuildQueryFailed = errors.New("failed to build sql query")
	ErrQueryFailed      = errors.New("database query failed")
	ErrExecFailed       = errors.New("database execution failed")
	ErrScanFailed       = errors.New("failed to scan database row")
	ErrBeginTxFailed    = errors.New("failed to begin transaction")
	ErrCommitFailed     = errors.New("failed to commit transaction")
)

const (
	logMsgBeginTxFailed        = "failed to begin transaction"
	logMsgCommitFailed         = "failed to commit transaction"
	logMsgRollbackFailed       = "failed to roll back transaction"
	logMsgTxPanicked           = "transaction body panicked, rolled back"
	logMsgTxCommitted          = "transaction committed"
	logMsgTxRolledBack         = "transaction rolled back"
	logMsgBuildQueryFailed     = "failed to build sql query"
	logMsgDBQueryFailed        = "database query execution failed"
	logMsgDBExecFailed         = "database execution failed"
	logMsgCloseRowsFailed      = "failed to close database rows"
	logMsgScanRowFailed        = "failed to scan database row"
	logMsgRowsAffectedFailed   = "failed to get rows affected count"
	logMsgIntegrityViolation   = "inventory integrity violation: release would exceed total copies"
	logMsgSQLExecuted          = "executed sql for: "
	logAttrError               = "error"
	logAttrErrorCode           = "error_code"
	logAttrQuery               = "query"
	logAttrDurationMS          = "duration_ms"
	logAttrBookID              = "book_id"
	dialectPostgres            = "postgres"
	tableBooks                 = "books"
	tableMembers               = "members"
	tableLoans                 = "loans"
	tableLoanAudit             = "loan_audit"
	colID                      = "id"
	colTitle                   = "title"
	colTotalCopies             = "total_copies"
	colAvailableCopies         = "available_copies"
	colIsDeleted               = "is_deleted"
	colUpdatedAt               = "updated_at"
	colIsActive                = "is_active"
	colMembershipExpiresAt     = "membership_expires_at"
	colMaxBooksAllowed         = "max_books_allowed"
	colOutstandingFees         = "outstanding_fees"
	colMemberID                = "member_id"
	colBookID                  = "book_id"
	colBorrowedAt              = "borrowed_at"
	colDueDate                 = "due_date"
	colReturnedAt              = "returned_at"
	colStatus                  = "status"
	colRenewalCount            = "renewal_count"
	colMaxRenewalsAllowed      = "max_renewals_allowed"
	colLateFee                 = "late_fee"
	colIsFeePaid               = "is_fee_paid"
	colNotes                   = "notes"
	colLoanID                  = "loan_id"
	colAction                  = "action"
	colOccurredAt              = "occurred_at"
	colPayload                 = "payload"
	castNumeric                = "?::numeric"
	castJsonb                  = "?::jsonb"
	exprNow                    = "now()"
	exprOutstandingFeesAsText  = "outstanding_fees::text"
	exprLateFeeAsText          = "late_fee::text"
	exprAuditIDAsText          = "id::text"
	exprPayloadAsText          = "payload::text"
	actionAcquireCopy          = "acquire_copy"
	actionReleaseCopy          = "release_copy"
	actionRemoveCopy           = "remove_copy"
	actionAddCopies            = "add_copies"
	actionSoftDeleteBook       = "soft_delete_book"
	actionAddBook              = "add_book"
	actionFindBook             = "find_book"
	actionFindMember           = "find_member"
	actionRegisterMember       = "register_member"
	actionAddOutstandingFee    = "add_outstanding_fee"
	actionSettleOutstandingFee = "settle_outstanding_fee"
	actionInsertLoan           = "insert_loan"
	actionFindLoan             = "find_loan"
	actionUpdateLoan           = "update_loan"
	actionCountActiveLoans     = "count_active_loans"
	actionListLoans            = "list_loans"
	actionAppendAudit          = "append_audit"
	actionListAudit            = "list_audit"
)

var dialect = goqu.Dialect(dialectPostgres)

// Store is the PostgreSQL implementation of lending.UnitOfWork.
type Store struct {
	db               adapters.DBAdapter
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
}

var _ lending.UnitOfWork = (*Store)(nil)

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options)
}

func newStore(db adapters.DBAdapter, options []Option) (*Store, error) {
	s := &Store{db: db}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// RunInTx runs fn inside one READ COMMITTED transaction.
//
// The transaction commits only when fn returns nil and ctx is still alive. On error,
// panic or cancellation it is rolled back; the rollback itself ignores ctx cancellation.
// A panic is re-raised after the rollback.
func (s *Store) RunInTx(ctx context.Context, fn lending.TxFunc) (err error) {
	ctx, span := s.startTxSpan(ctx)
	start := time.Now()

	dbTx, err := s.db.BeginTx(ctx)
	if err != nil {
		s.logError(ctx, logMsgBeginTxFailed, err)
		s.recordErrorMetrics(ctx, operationBeginTx, errorTypeBeginTx)
		s.finishTx(ctx, span, txStatusError, time.Since(start))

		return errors.Join(ErrBeginTxFailed, err)
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		recovered := recover()

		if rbErr := dbTx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			s.logWarn(ctx, logMsgRollbackFailed, logAttrError, rbErr.Error())
		}

		if recovered != nil {
			s.logError(ctx, logMsgTxPanicked, fmt.Errorf("%v", recovered))
			s.finishTx(ctx, span, txStatusPanicked, time.Since(start))
			panic(recovered)
		}
	}()

	if err = fn(ctx, &pgTx{store: s, exec: dbTx}); err != nil {
		s.logRollback(ctx, err, time.Since(start))
		s.finishTx(ctx, span, rollbackStatus(err), time.Since(start))

		return err
	}

	if err = ctx.Err(); err != nil {
		s.logRollback(ctx, err, time.Since(start))
		s.finishTx(ctx, span, txStatusCanceled, time.Since(start))

		return err
	}

	if err = dbTx.Commit(ctx); err != nil {
		s.logError(ctx, logMsgCommitFailed, err)
		s.recordErrorMetrics(ctx, operationCommit, errorTypeCommit)
		s.finishTx(ctx, span, txStatusError, time.Since(start))

		return errors.Join(ErrCommitFailed, err)
	}

	committed = true
	s.logInfo(ctx, logMsgTxCommitted, logAttrDurationMS, toMilliseconds(time.Since(start)))
	s.finishTx(ctx, span, txStatusCommitted, time.Since(start))

	return nil
}

func rollbackStatus(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return txStatusCanceled
	case lending.IsRejection(err):
		return txStatusRejected
	default:
		return txStatusError
	}
}

// pgTx binds the repositories to one open database transaction.
type pgTx struct {
	store *Store
	exec  adapters.Executor
}

func (tx *pgTx) Inventory() lending.InventoryLedger { return pgInventory{tx} }
func (tx *pgTx) Members() lending.MemberRepository  { return pgMembers{tx} }
func (tx *pgTx) Loans() lending.LoanRepository      { return pgLoans{tx} }
func (tx *pgTx) Audit() lending.AuditJournal        { return pgAudit{tx} }

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// query renders the builder and runs it; the caller must close the rows.
func (tx *pgTx) query(ctx context.Context, action string, builder sqlBuilder) (adapters.DBRows, error) {
	sqlQuery, err := tx.render(ctx, action, builder)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := tx.exec.Query(ctx, sqlQuery)
	tx.store.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if err != nil {
		tx.store.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		tx.store.recordErrorMetrics(ctx, action, errorTypeQuery)

		return nil, errors.Join(ErrQueryFailed, err)
	}

	return rows, nil
}

// execute renders the builder, runs it and returns the number of affected rows.
func (tx *pgTx) execute(ctx context.Context, action string, builder sqlBuilder) (int64, error) {
	sqlQuery, err := tx.render(ctx, action, builder)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	result, err := tx.exec.Exec(ctx, sqlQuery)
	tx.store.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if err != nil {
		tx.store.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		tx.store.recordErrorMetrics(ctx, action, errorTypeExec)

		return 0, errors.Join(ErrExecFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		tx.store.logError(ctx, logMsgRowsAffectedFailed, err)
		tx.store.recordErrorMetrics(ctx, action, errorTypeExec)

		return 0, errors.Join(ErrExecFailed, err)
	}

	return rowsAffected, nil
}

func (tx *pgTx) render(ctx context.Context, action string, builder sqlBuilder) (string, error) {
	sqlQuery, _, err := builder.ToSQL()
	if err != nil {
		tx.store.logError(ctx, logMsgBuildQueryFailed, err, logAttrQuery, action)
		tx.store.recordErrorMetrics(ctx, action, errorTypeBuildQuery)

		return "", errors.Join(ErrBuildQueryFailed, err)
	}

	return sqlQuery, nil
}

// queryRows runs the query and calls scan once per row, closing the rows afterward.
func (tx *pgTx) queryRows(
	ctx context.Context,
	action string,
	builder sqlBuilder,
	scan func(rows adapters.DBRows) error,
) error {
	rows, err := tx.query(ctx, action, builder)
	if err != nil {
		return err
	}

	defer tx.closeRows(ctx, rows)

	for rows.Next() {
		if err = scan(rows); err != nil {
			tx.store.logError(ctx, logMsgScanRowFailed, err)
			tx.store.recordErrorMetrics(ctx, action, errorTypeScan)

			return errors.Join(ErrScanFailed, err)
		}
	}

	if err = rows.Err(); err != nil {
		tx.store.logError(ctx, logMsgDBQueryFailed, err)
		tx.store.recordErrorMetrics(ctx, action, errorTypeQuery)

		return errors.Join(ErrQueryFailed, err)
	}

	return nil
}

func (tx *pgTx) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		tx.store.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, err.Error())
	}
}

// exists reports whether a row matching the conditions exists.
func (tx *pgTx) exists(ctx context.Context, action, table string, conditions ...exp.Expression) (bool, error) {
	found := false
	builder := dialect.From(table).Select(goqu.L("1")).Where(conditions...).Limit(1)

	err := tx.queryRows(ctx, action, builder, func(rows adapters.DBRows) error {
		var one int
		if err := rows.Scan(&one); err != nil {
			return err
		}
		found = true

		return nil
	})

	return found, err
}
