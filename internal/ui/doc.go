// Package ui provides helpers for formatting human-readable console output.
//
// Command lifecycle events are translated into concise log messages, and finished
// command reports are rendered so that a failed command, a cancelled command, and a
// command that could not start read differently on the terminal.
package ui
