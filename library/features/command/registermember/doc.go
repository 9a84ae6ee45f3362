// Package registermember implements the Register Member use case. New members start without outstanding fees.
package registermember
