// Package overdueloans implements the Overdue Loans query use case.
//
// Overdue is derived at read time: a loan is overdue when its status is Active and its due date
// lies before the queried instant. Terminal loans are never overdue, whatever their due date.
package overdueloans
