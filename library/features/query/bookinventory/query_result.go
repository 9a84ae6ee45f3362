package bookinventory

import "time"

// Inventory holds the copy counts of a book. CopiesOnLoan is TotalCopies - AvailableCopies.
type Inventory struct {
	BookID          int64     `json:"bookId"`
	Title           string    `json:"title"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	CopiesOnLoan    int       `json:"copiesOnLoan"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
