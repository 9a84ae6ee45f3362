// Package marklost implements the Mark Loan Lost use case.
//
// The loan ends as Lost. Its copy is not returned to the shelf; instead it is taken out of
// circulation by lowering the book's total copies.
package marklost
