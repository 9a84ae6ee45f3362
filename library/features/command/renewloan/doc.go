// Package renewloan implements the Renew Loan use case.
//
// An Active loan that is not yet overdue gets its due date extended and its renewal count
// incremented in one state update, until maxRenewalsAllowed is reached.
package renewloan
