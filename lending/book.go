package lending

import "time"

// Book carries the inventory-relevant fields of a catalog entry.
// 0 <= AvailableCopies <= TotalCopies holds for every value the engines hand out.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	IsDeleted       bool      `json:"isDeleted"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewBook returns an unpersisted book with every copy available.
func NewBook(title string, totalCopies int, now time.Time) (Book, error) {
	if totalCopies < 0 {
		return Book{}, ErrInvalidCopyCount
	}

	return Book{
		Title:           title,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		UpdatedAt:       now,
	}, nil
}

// CopiesOnLoan is the number of copies currently lent out.
func (b Book) CopiesOnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}

// Validate checks the copy-count invariant.
func (b Book) Validate() error {
	if b.TotalCopies < 0 {
		return ErrInvalidCopyCount
	}

	if b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return ErrInvalidBookState
	}

	return nil
}
