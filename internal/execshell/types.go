package execshell

import (
	"errors"
	"fmt"
)

const (
	executionModeCapturedStringConstant   = "captured"
	executionModeInheritedStringConstant  = "inherited"
	commandFailedErrorTemplateConstant    = "command %q failed with exit code %d"
	commandExecutionErrorTemplateConstant = "command %q could not %s: %v"
	loggerNotConfiguredMessageConstant    = "execshell: logger not configured"
	shellNotConfiguredMessageConstant     = "execshell: shell strategy not configured"
)

// UnavailableExitCode marks outcomes whose process could not be started or observed.
const UnavailableExitCode = -1

// ExecutionMode selects how the child process standard streams are connected.
type ExecutionMode string

// Supported execution modes.
const (
	ExecutionModeCaptured  ExecutionMode = ExecutionMode(executionModeCapturedStringConstant)
	ExecutionModeInherited ExecutionMode = ExecutionMode(executionModeInheritedStringConstant)
)

// ParseExecutionMode converts configuration text into an ExecutionMode.
func ParseExecutionMode(value string) (ExecutionMode, bool) {
	switch ExecutionMode(value) {
	case ExecutionModeCaptured:
		return ExecutionModeCaptured, true
	case ExecutionModeInherited:
		return ExecutionModeInherited, true
	default:
		return "", false
	}
}

// ShellCommand describes one command string handed to the shell. EchoOutput
// streams each captured stdout line to the runner output as it arrives.
type ShellCommand struct {
	Text       string
	Mode       ExecutionMode
	EchoOutput bool
}

// ExecutionOutcome is the result of running a ShellCommand.
// StandardOutput and StandardError are populated in captured mode only.
type ExecutionOutcome struct {
	Mode           ExecutionMode
	ExitCode       int
	StandardOutput string
	StandardError  string
}

// Succeeded reports whether the shell signalled success.
func (outcome ExecutionOutcome) Succeeded() bool {
	return outcome.ExitCode == 0
}

// ExecutionStage identifies the lifecycle step at which an infrastructure fault occurred.
type ExecutionStage string

// Execution stages reported by CommandExecutionError.
const (
	ExecutionStageStart ExecutionStage = "start"
	ExecutionStageRead  ExecutionStage = "read output"
	ExecutionStageWait  ExecutionStage = "be awaited"
)

var (
	// ErrLoggerNotConfigured indicates the runner was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrShellStrategyNotConfigured indicates the runner was constructed without a shell program.
	ErrShellStrategyNotConfigured = errors.New(shellNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran and exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Outcome ExecutionOutcome
}

// Error describes the failure.
func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Text, failure.Outcome.ExitCode)
}

// CommandExecutionError reports a command whose process could not be started or observed.
type CommandExecutionError struct {
	Command ShellCommand
	Stage   ExecutionStage
	Cause   error
}

// Error describes the fault.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Text, failure.Stage, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}
