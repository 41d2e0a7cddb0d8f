// Package flags binds the command-line flags shared by the command execution entrypoints.
//
// Boolean flags are registered as toggles that accept yes/no style values in addition to
// the strconv booleans, so "--verbose=no" and "--yes=off" read naturally.
package flags
