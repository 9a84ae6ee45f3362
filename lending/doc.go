// Package lending is the functional core of the library loan engine.
//
// It holds the canonical aggregate types (Book, Member, Loan), the pure rules that
// decide whether a loan may be created, renewed or returned, and the ports a
// persistence engine has to implement so that every public operation runs inside
// exactly one transaction.
//
// Nothing in this package performs I/O or reads the wall clock directly:
//   - CheckEligibility evaluates a member against the borrowing rules in a fixed order
//   - CalculateLateFee derives a fee from a due date, a point in time and a daily rate
//   - Loan only changes through named transitions (Renew, Return, MarkLost, MarkDamaged, SettleFee)
//     which validate their invariants and return a new, fully constructed value
//
// Persistence engines live in sub-packages (postgresengine, memengine) and implement UnitOfWork.
package lending
