// Package bookinventory implements the Book Inventory query use case: the current copy counts of one book.
package bookinventory
