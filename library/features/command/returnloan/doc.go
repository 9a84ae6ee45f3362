// Package returnloan implements the Return Loan use case.
//
// An Active loan, overdue or not, is closed with the late fee fixed as of the return time.
// The fee is charged to the member and the copy goes back to the shelf via a conditional
// release. A release that finds the shelf already full aborts the whole return with
// lending.ErrInventoryIntegrity instead of committing a loan whose copy was never counted back.
package returnloan
