// Package confirmation implements the interactive yes/no checkpoint that precedes command
// execution. Only one caller owns the terminal at a time.
package confirmation
