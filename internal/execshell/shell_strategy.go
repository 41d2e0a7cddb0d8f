package execshell

import (
	"strings"
)

const (
	posixShellProgramConstant       = "sh"
	posixShellCommandFlagConstant   = "-c"
	posixElevationProgramConstant   = "sudo"
	windowsShellProgramConstant     = "cmd"
	windowsShellCommandFlagConstant = "/C"
	windowsOperatingSystemConstant  = "windows"
)

// ShellStrategy describes how a command string is handed to the platform interpreter.
// The command string is passed as a single argument after CommandFlag; no further
// tokenization or quoting is performed.
//
// ElevateExecution wraps the invocation with ElevationProgram. It is independent of
// the classifier: a command mentioning sudo is not elevated by this flag, and an
// elevated invocation does not change the verdict of its text.
type ShellStrategy struct {
	Program          string
	CommandFlag      string
	ElevationProgram string
	ElevateExecution bool
}

// POSIXShellStrategy invokes commands through sh -c.
func POSIXShellStrategy() ShellStrategy {
	return ShellStrategy{
		Program:          posixShellProgramConstant,
		CommandFlag:      posixShellCommandFlagConstant,
		ElevationProgram: posixElevationProgramConstant,
	}
}

// WindowsShellStrategy invokes commands through cmd /C. Elevation is not supported.
func WindowsShellStrategy() ShellStrategy {
	return ShellStrategy{
		Program:     windowsShellProgramConstant,
		CommandFlag: windowsShellCommandFlagConstant,
	}
}

// DetectShellStrategy selects the strategy for the named operating system (a runtime.GOOS value).
func DetectShellStrategy(operatingSystem string) ShellStrategy {
	if strings.EqualFold(strings.TrimSpace(operatingSystem), windowsOperatingSystemConstant) {
		return WindowsShellStrategy()
	}
	return POSIXShellStrategy()
}

// WithElevation returns a copy of the strategy with the elevation wrapper toggled.
func (strategy ShellStrategy) WithElevation(elevate bool) ShellStrategy {
	strategy.ElevateExecution = elevate
	return strategy
}

// Invocation returns the executable and arguments used to run the command string.
func (strategy ShellStrategy) Invocation(commandText string) (string, []string) {
	shellArguments := make([]string, 0, 2)
	if len(strategy.CommandFlag) > 0 {
		shellArguments = append(shellArguments, strategy.CommandFlag)
	}
	shellArguments = append(shellArguments, commandText)

	if strategy.ElevateExecution && len(strategy.ElevationProgram) > 0 {
		return strategy.ElevationProgram, append([]string{strategy.Program}, shellArguments...)
	}

	return strategy.Program, shellArguments
}

func (strategy ShellStrategy) configured() bool {
	return len(strings.TrimSpace(strategy.Program)) > 0
}
