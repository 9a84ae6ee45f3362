// Package addbook implements the Add Book use case: a new catalog entry with every copy on the shelf.
package addbook
