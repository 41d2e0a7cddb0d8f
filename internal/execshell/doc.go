// Package execshell runs command strings through the host shell.
//
// Runner spawns the interpreter selected by a ShellStrategy in one of two
// modes: captured, where standard output and standard error are read line by
// line into an ExecutionOutcome (optionally echoing stdout live), and
// inherited, where the child shares the caller's terminal streams. Spawn and
// wait faults are reported with the sentinel exit code -1 and never abort the
// caller.
package execshell
