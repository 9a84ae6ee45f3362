// Package addcopies implements the Add Copies use case: more copies of an existing, non-deleted
// book, added to both the total and the available count in one conditional write.
package addcopies
