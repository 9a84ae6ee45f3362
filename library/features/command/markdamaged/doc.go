// Package markdamaged implements the Mark Loan Damaged use case.
// It mirrors marklost, with free-text notes describing the damage.
package markdamaged
