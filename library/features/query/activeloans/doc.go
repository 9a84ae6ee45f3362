// Package activeloans implements the Active Loans query use case.
//
// The query returns every loan of a member whose stored status is Active, overdue ones included,
// ordered by loan id. A member without loans, or an unknown member id, yields an empty list.
package activeloans
