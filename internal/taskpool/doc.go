// Package taskpool schedules independent units of work onto a bounded number of goroutines
// and joins them in submission order.
package taskpool
