package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	lineTerminatorConstant              = "\n"
	carriageReturnConstant              = "\r"
	logFieldCommandConstant             = "command"
	logFieldModeConstant                = "mode"
	logFieldExitCodeConstant            = "exit_code"
	logFieldProgramConstant             = "program"
	logFieldStageConstant               = "stage"
	logFieldStandardOutputBytesConstant = "stdout_bytes"
	logFieldStandardErrorBytesConstant  = "stderr_bytes"
	outputGracePeriodConstant           = time.Second
)

// TerminalStreams are the caller's standard streams. Nil Input is treated as an empty
// stream; nil Output or Errors discard the data written to them.
type TerminalStreams struct {
	Input  io.Reader
	Output io.Writer
	Errors io.Writer
}

// ProcessTerminalStreams returns the current process standard streams.
func ProcessTerminalStreams() TerminalStreams {
	return TerminalStreams{Input: os.Stdin, Output: os.Stdout, Errors: os.Stderr}
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithTerminalStreams replaces the process standard streams used by the runner.
func WithTerminalStreams(streams TerminalStreams) RunnerOption {
	return func(runner *Runner) {
		runner.terminal = streams
	}
}

// WithCommandEventObserver registers an observer for command lifecycle events.
func WithCommandEventObserver(observer CommandEventObserver) RunnerOption {
	return func(runner *Runner) {
		if observer != nil {
			runner.observer = observer
		}
	}
}

// WithCommandTimeout bounds each command. Zero disables the bound.
func WithCommandTimeout(timeout time.Duration) RunnerOption {
	return func(runner *Runner) {
		if timeout > 0 {
			runner.commandTimeout = timeout
		}
	}
}

// Runner spawns shell subprocesses. A Runner is safe for concurrent use; each call owns
// its own buffers.
type Runner struct {
	logger         *zap.Logger
	strategy       ShellStrategy
	terminal       TerminalStreams
	observer       CommandEventObserver
	formatter      CommandMessageFormatter
	commandTimeout time.Duration
}

// NewRunner constructs a runner for the provided shell strategy.
func NewRunner(logger *zap.Logger, strategy ShellStrategy, options ...RunnerOption) (*Runner, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if !strategy.configured() {
		return nil, ErrShellStrategyNotConfigured
	}

	runner := &Runner{
		logger:   logger,
		strategy: strategy,
		terminal: ProcessTerminalStreams(),
		observer: noopCommandEventObserver{},
		formatter: CommandMessageFormatter{
			Elevated: strategy.ElevateExecution && len(strategy.ElevationProgram) > 0,
		},
	}
	for _, option := range options {
		if option != nil {
			option(runner)
		}
	}

	return runner, nil
}

// Strategy returns the shell strategy the runner was built with.
func (runner *Runner) Strategy() ShellStrategy {
	return runner.strategy
}

// Run dispatches to RunCaptured or RunInherited according to the command mode.
func (runner *Runner) Run(executionContext context.Context, command ShellCommand) (ExecutionOutcome, error) {
	if command.Mode == ExecutionModeInherited {
		return runner.RunInherited(executionContext, command)
	}
	return runner.RunCaptured(executionContext, command)
}

// RunCaptured executes the command with standard input inherited and standard output and
// standard error recorded line by line into the outcome. Every line is stored with a trailing
// newline. When EchoOutput is set each stdout line is written to the terminal output as it
// arrives. Both streams are drained before the outcome is returned.
//
// When the command timeout expires the whole process group is killed, so descendants of the
// shell cannot keep the output streams open. Output still held open by an escaped descendant
// is abandoned after a short grace period.
//
// A non-zero exit yields CommandFailedError; the outcome still carries the captured text.
// Spawn, read, and wait faults yield CommandExecutionError and an outcome with exit code -1.
func (runner *Runner) RunCaptured(executionContext context.Context, command ShellCommand) (ExecutionOutcome, error) {
	command.Mode = ExecutionModeCaptured
	outcome := ExecutionOutcome{Mode: ExecutionModeCaptured, ExitCode: UnavailableExitCode}

	boundedContext, cancel := runner.boundContext(executionContext)
	defer cancel()

	var echoWriter io.Writer
	if command.EchoOutput {
		echoWriter = runner.terminal.Output
	}
	standardOutputRecorder := &lineRecorder{echo: echoWriter}
	standardErrorRecorder := &lineRecorder{}

	executable := runner.buildExecutable(boundedContext, command)
	executable.Stdin = runner.terminal.Input
	executable.Stdout = standardOutputRecorder
	executable.Stderr = standardErrorRecorder

	runner.commandStarted(command, executable)
	if startError := executable.Start(); startError != nil {
		return outcome, runner.executionFailed(command, ExecutionStageStart, startError)
	}

	waitError := executable.Wait()

	outcome.StandardOutput = standardOutputRecorder.finish()
	outcome.StandardError = standardErrorRecorder.finish()

	if errors.Is(waitError, exec.ErrWaitDelay) {
		return outcome, runner.executionFailed(command, ExecutionStageRead, waitError)
	}

	return runner.completeWithWaitResult(command, outcome, waitError)
}

// RunInherited executes the command with all three standard streams connected to the
// terminal. The outcome carries only the exit code.
func (runner *Runner) RunInherited(executionContext context.Context, command ShellCommand) (ExecutionOutcome, error) {
	command.Mode = ExecutionModeInherited
	outcome := ExecutionOutcome{Mode: ExecutionModeInherited, ExitCode: UnavailableExitCode}

	boundedContext, cancel := runner.boundContext(executionContext)
	defer cancel()

	executable := runner.buildExecutable(boundedContext, command)
	executable.Stdin = runner.terminal.Input
	executable.Stdout = runner.terminal.Output
	executable.Stderr = runner.terminal.Errors

	runner.commandStarted(command, executable)
	if startError := executable.Start(); startError != nil {
		return outcome, runner.executionFailed(command, ExecutionStageStart, startError)
	}

	return runner.completeWithWaitResult(command, outcome, executable.Wait())
}

func (runner *Runner) buildExecutable(executionContext context.Context, command ShellCommand) *exec.Cmd {
	program, arguments := runner.strategy.Invocation(command.Text)
	executable := exec.CommandContext(executionContext, program, arguments...)
	executable.WaitDelay = outputGracePeriodConstant
	if runner.commandTimeout > 0 {
		// A child outside the foreground process group stops on terminal reads, so only bounded commands are isolated.
		isolateProcessGroup(executable)
	}
	return executable
}

func (runner *Runner) boundContext(executionContext context.Context) (context.Context, context.CancelFunc) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if runner.commandTimeout > 0 {
		return context.WithTimeout(executionContext, runner.commandTimeout)
	}
	return context.WithCancel(executionContext)
}

func (runner *Runner) completeWithWaitResult(command ShellCommand, outcome ExecutionOutcome, waitError error) (ExecutionOutcome, error) {
	if waitError != nil {
		exitError := &exec.ExitError{}
		if !errors.As(waitError, &exitError) {
			outcome.ExitCode = UnavailableExitCode
			return outcome, runner.executionFailed(command, ExecutionStageWait, waitError)
		}
		outcome.ExitCode = exitError.ExitCode()
	} else {
		outcome.ExitCode = 0
	}

	runner.commandCompleted(command, outcome)

	if !outcome.Succeeded() {
		return outcome, CommandFailedError{Command: command, Outcome: outcome}
	}
	return outcome, nil
}

func (runner *Runner) commandStarted(command ShellCommand, executable *exec.Cmd) {
	runner.logger.Debug(
		runner.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandConstant, command.Text),
		zap.String(logFieldModeConstant, string(command.Mode)),
		zap.String(logFieldProgramConstant, executable.Path),
	)
	runner.observer.CommandStarted(command)
}

func (runner *Runner) commandCompleted(command ShellCommand, outcome ExecutionOutcome) {
	fields := []zap.Field{
		zap.String(logFieldCommandConstant, command.Text),
		zap.String(logFieldModeConstant, string(command.Mode)),
		zap.Int(logFieldExitCodeConstant, outcome.ExitCode),
		zap.Int(logFieldStandardOutputBytesConstant, len(outcome.StandardOutput)),
		zap.Int(logFieldStandardErrorBytesConstant, len(outcome.StandardError)),
	}
	if outcome.Succeeded() {
		runner.logger.Info(runner.formatter.BuildSuccessMessage(command), fields...)
	} else {
		runner.logger.Warn(runner.formatter.BuildFailureMessage(command, outcome), fields...)
	}
	runner.observer.CommandCompleted(command, outcome)
}

func (runner *Runner) executionFailed(command ShellCommand, stage ExecutionStage, cause error) error {
	failure := CommandExecutionError{Command: command, Stage: stage, Cause: cause}
	runner.logger.Error(
		runner.formatter.BuildExecutionFailureMessage(command, failure),
		zap.String(logFieldCommandConstant, command.Text),
		zap.String(logFieldStageConstant, string(stage)),
		zap.Error(cause),
	)
	runner.observer.CommandExecutionFailed(command, failure)
	return failure
}

// lineRecorder accumulates written bytes as newline-terminated lines. A final line without a
// terminator is recorded by finish. Carriage returns preceding the newline are dropped.
type lineRecorder struct {
	pending     []byte
	accumulator strings.Builder
	echo        io.Writer
}

func (recorder *lineRecorder) Write(data []byte) (int, error) {
	recorder.pending = append(recorder.pending, data...)
	for {
		terminatorIndex := bytes.IndexByte(recorder.pending, '\n')
		if terminatorIndex < 0 {
			break
		}
		recorder.record(string(recorder.pending[:terminatorIndex]))
		recorder.pending = recorder.pending[terminatorIndex+1:]
	}
	return len(data), nil
}

func (recorder *lineRecorder) finish() string {
	if len(recorder.pending) > 0 {
		recorder.record(string(recorder.pending))
		recorder.pending = nil
	}
	return recorder.accumulator.String()
}

func (recorder *lineRecorder) record(line string) {
	line = strings.TrimSuffix(line, carriageReturnConstant)
	recorder.accumulator.WriteString(line)
	recorder.accumulator.WriteString(lineTerminatorConstant)
	if recorder.echo != nil {
		_, _ = io.WriteString(recorder.echo, line+lineTerminatorConstant)
	}
}
