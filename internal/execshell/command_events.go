package execshell

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that the shell process is about to start.
	CommandStarted(command ShellCommand)
	// CommandCompleted reports a process that exited, successfully or not.
	CommandCompleted(command ShellCommand, outcome ExecutionOutcome)
	// CommandExecutionFailed reports a spawn, read, or wait fault.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionOutcome) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
