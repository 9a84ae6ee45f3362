// Package fixtures seeds books, members and loans through any lending.UnitOfWork for tests.
package fixtures
