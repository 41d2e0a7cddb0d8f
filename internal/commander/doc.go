// Package commander runs command requests through classification, confirmation, and
// execution, and schedules batches of them on a task pool.
package commander
