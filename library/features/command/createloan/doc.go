// Package createloan implements the Create Loan use case.
//
// A member borrows one copy of a book. The handler reads the member (row-locked) and their
// active loan count, applies the eligibility rules, acquires a copy with a single conditional
// write, then opens and stores the loan together with its audit entry. All of it runs in one
// transaction, so a failure after the copy was acquired also gives the copy back.
package createloan
