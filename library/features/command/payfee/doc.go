// Package payfee implements the Pay Late Fee use case.
//
// A Returned loan with an unpaid positive late fee is marked as paid and the fee is taken off
// the member's outstanding balance with a conditional write that never goes below zero.
package payfee
