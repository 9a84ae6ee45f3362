// Package feepreview implements the Late Fee Preview query use case.
//
// The preview answers "what would the fee be if the loan were returned now" with the same
// calculation ReturnLoan applies, without mutating anything. Only Active loans can be previewed.
package feepreview
