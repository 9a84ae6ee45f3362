// Package shell contains the infrastructure shared by all feature slices.
//
// It defines the Command and Query contracts the slices implement, the observability helpers
// (metric names, span names, log messages and their recording functions) used by the observable
// wrappers, a caller-side exponential backoff retry, and the mapping of errors to user-facing messages.
//
// Nothing in here contains business rules; those live in the lending package.
package shell
