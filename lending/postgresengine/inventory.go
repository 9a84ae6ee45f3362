package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

type pgInventory struct{ tx *pgTx }

// AcquireCopy decrements available_copies in one conditional UPDATE.
func (inv pgInventory) AcquireCopy(ctx context.Context, bookID int64) (bool, error) {
	builder := dialect.Update(tableBooks).
		Set(goqu.Record{
			colAvailableCopies: goqu.L(colAvailableCopies + " - 1"),
			colUpdatedAt:       goqu.L(exprNow),
		}).
		Where(
			goqu.C(colID).Eq(bookID),
			goqu.C(colIsDeleted).IsFalse(),
			goqu.C(colAvailableCopies).Gt(0),
		)

	applied, err := inv.conditionalWrite(ctx, actionAcquireCopy, bookID, builder, true)
	if err != nil {
		return false, err
	}

	inv.tx.store.recordCopyOperation(ctx, actionAcquireCopy, applied)

	return applied, nil
}

// ReleaseCopy increments available_copies unless it already equals total_copies.
func (inv pgInventory) ReleaseCopy(ctx context.Context, bookID int64) (bool, error) {
	builder := dialect.Update(tableBooks).
		Set(goqu.Record{
			colAvailableCopies: goqu.L(colAvailableCopies + " + 1"),
			colUpdatedAt:       goqu.L(exprNow),
		}).
		Where(
			goqu.C(colID).Eq(bookID),
			goqu.C(colAvailableCopies).Lt(goqu.I(colTotalCopies)),
		)

	applied, err := inv.conditionalWrite(ctx, actionReleaseCopy, bookID, builder, false)
	if err != nil {
		return false, err
	}

	inv.tx.store.recordCopyOperation(ctx, actionReleaseCopy, applied)

	if !applied {
		inv.tx.store.recordIntegrityViolation(ctx, bookID)
	}

	return applied, nil
}

// RemoveCopyFromCirculation decrements total_copies for a copy that is currently on loan.
func (inv pgInventory) RemoveCopyFromCirculation(ctx context.Context, bookID int64) (bool, error) {
	builder := dialect.Update(tableBooks).
		Set(goqu.Record{
			colTotalCopies: goqu.L(colTotalCopies + " - 1"),
			colUpdatedAt:   goqu.L(exprNow),
		}).
		Where(
			goqu.C(colID).Eq(bookID),
			goqu.C(colTotalCopies).Gt(goqu.I(colAvailableCopies)),
		)

	applied, err := inv.conditionalWrite(ctx, actionRemoveCopy, bookID, builder, false)
	if err != nil {
		return false, err
	}

	inv.tx.store.recordCopyOperation(ctx, actionRemoveCopy, applied)

	return applied, nil
}

func (inv pgInventory) AddCopies(ctx context.Context, bookID int64, n int) (bool, error) {
	if n <= 0 {
		return false, lending.ErrInvalidCopyCount
	}

	builder := dialect.Update(tableBooks).
		Set(goqu.Record{
			colTotalCopies:     goqu.L(colTotalCopies+" + ?", n),
			colAvailableCopies: goqu.L(colAvailableCopies+" + ?", n),
			colUpdatedAt:       goqu.L(exprNow),
		}).
		Where(
			goqu.C(colID).Eq(bookID),
			goqu.C(colIsDeleted).IsFalse(),
		)

	applied, err := inv.conditionalWrite(ctx, actionAddCopies, bookID, builder, true)
	if err != nil {
		return false, err
	}

	inv.tx.store.recordCopyOperation(ctx, actionAddCopies, applied)

	return applied, nil
}

// SoftDeleteBook flags the book as deleted iff total_copies = available_copies.
func (inv pgInventory) SoftDeleteBook(ctx context.Context, bookID int64) (bool, error) {
	builder := dialect.Update(tableBooks).
		Set(goqu.Record{
			colIsDeleted: true,
			colUpdatedAt: goqu.L(exprNow),
		}).
		Where(
			goqu.C(colID).Eq(bookID),
			goqu.C(colIsDeleted).IsFalse(),
			goqu.C(colTotalCopies).Eq(goqu.I(colAvailableCopies)),
		)

	return inv.conditionalWrite(ctx, actionSoftDeleteBook, bookID, builder, true)
}

func (inv pgInventory) AddBook(ctx context.Context, book lending.Book) (lending.Book, error) {
	if err := book.Validate(); err != nil {
		return lending.Book{}, err
	}

	builder := dialect.Insert(tableBooks).
		Rows(goqu.Record{
			colTitle:           book.Title,
			colTotalCopies:     book.TotalCopies,
			colAvailableCopies: book.AvailableCopies,
			colIsDeleted:       false,
		}).
		Returning(colID, colUpdatedAt)

	var updatedAt time.Time

	err := inv.tx.queryRows(ctx, actionAddBook, builder, func(rows adapters.DBRows) error {
		return rows.Scan(&book.ID, &updatedAt)
	})
	if err != nil {
		return lending.Book{}, err
	}

	book.IsDeleted = false
	book.UpdatedAt = updatedAt.UTC()

	return book, nil
}

func (inv pgInventory) FindBook(ctx context.Context, bookID int64) (lending.Book, error) {
	builder := dialect.From(tableBooks).
		Select(colID, colTitle, colTotalCopies, colAvailableCopies, colIsDeleted, colUpdatedAt).
		Where(goqu.C(colID).Eq(bookID), goqu.C(colIsDeleted).IsFalse())

	var (
		book  lending.Book
		found bool
	)

	err := inv.tx.queryRows(ctx, actionFindBook, builder, func(rows adapters.DBRows) error {
		var updatedAt time.Time
		if err := rows.Scan(
			&book.ID, &book.Title, &book.TotalCopies, &book.AvailableCopies, &book.IsDeleted, &updatedAt,
		); err != nil {
			return err
		}
		book.UpdatedAt = updatedAt.UTC()
		found = true

		return nil
	})
	if err != nil {
		return lending.Book{}, err
	}

	if !found {
		return lending.Book{}, lending.NewNotFoundError(lending.EntityBook, bookID)
	}

	return book, nil
}

// conditionalWrite runs a guarded UPDATE. When no row was affected it checks, in the
// same transaction, whether the book exists at all and reports a *NotFoundError if not.
func (inv pgInventory) conditionalWrite(
	ctx context.Context,
	action string,
	bookID int64,
	builder sqlBuilder,
	deletedIsMissing bool,
) (bool, error) {
	rowsAffected, err := inv.tx.execute(ctx, action, builder)
	if err != nil {
		return false, err
	}

	if rowsAffected > 0 {
		return true, nil
	}

	exists, err := inv.bookExists(ctx, action, bookID, deletedIsMissing)
	if err != nil {
		return false, err
	}

	if !exists {
		return false, lending.NewNotFoundError(lending.EntityBook, bookID)
	}

	return false, nil
}

func (inv pgInventory) bookExists(ctx context.Context, action string, bookID int64, deletedIsMissing bool) (bool, error) {
	if deletedIsMissing {
		return inv.tx.exists(ctx, action, tableBooks, goqu.C(colID).Eq(bookID), goqu.C(colIsDeleted).IsFalse())
	}

	return inv.tx.exists(ctx, action, tableBooks, goqu.C(colID).Eq(bookID))
}
