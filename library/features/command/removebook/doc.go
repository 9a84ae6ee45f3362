// Package removebook implements the Remove Book use case.
//
// A book is soft-deleted, which is only allowed while none of its copies is on loan.
// Deleted books can no longer be lent or found, but their loans keep referencing them.
package removebook
