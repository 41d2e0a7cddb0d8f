package execshell

import (
	"fmt"
	"strings"
)

const (
	startTemplateConstant               = "Running %s"
	successTemplateConstant             = "Completed %s"
	failureTemplateConstant             = "%s failed with exit code %d%s"
	executionFailureTemplateConstant    = "%s failed: %s"
	commandLabelTemplateConstant        = "%q (%s)"
	elevatedLabelTemplateConstant       = "%q (%s, elevated)"
	standardErrorSuffixTemplateConstant = ": %s"
	unknownFailureMessageConstant       = "unknown error"
	emptyStringConstant                 = ""
	maximumLabelLengthConstant          = 120
	truncationMarkerConstant            = "..."
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct {
	Elevated bool
}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildSuccessMessage formats the message describing a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(successTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildFailureMessage formats the message describing a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, outcome ExecutionOutcome) string {
	return fmt.Sprintf(failureTemplateConstant, formatter.formatCommandLabel(command), outcome.ExitCode, formatter.formatStandardErrorSuffix(outcome.StandardError))
}

// BuildExecutionFailureMessage formats the message describing a spawn, read, or wait fault.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return fmt.Sprintf(executionFailureTemplateConstant, formatter.formatCommandLabel(command), formatter.describeFailure(failure))
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandText := strings.TrimSpace(command.Text)
	if len(commandText) > maximumLabelLengthConstant {
		commandText = commandText[:maximumLabelLengthConstant] + truncationMarkerConstant
	}
	mode := command.Mode
	if len(mode) == 0 {
		mode = ExecutionModeCaptured
	}
	if formatter.Elevated {
		return fmt.Sprintf(elevatedLabelTemplateConstant, commandText, mode)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandText, mode)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
