package commander

import (
	"errors"

	"github.com/temirov/aic/internal/confirmation"
	"github.com/temirov/aic/internal/execshell"
	"github.com/temirov/aic/internal/security"
)

const (
	statusSucceededStringConstant           = "succeeded"
	statusFailedStringConstant              = "failed"
	statusCancelledStringConstant           = "cancelled"
	statusInfrastructureErrorStringConstant = "infrastructure_error"
	taskNotCompletedMessageConstant         = "commander: task did not complete"
)

// Status classifies how a command request ended.
type Status string

// Supported report statuses.
const (
	StatusSucceeded           Status = Status(statusSucceededStringConstant)
	StatusFailed              Status = Status(statusFailedStringConstant)
	StatusCancelled           Status = Status(statusCancelledStringConstant)
	StatusInfrastructureError Status = Status(statusInfrastructureErrorStringConstant)
)

// ErrTaskNotCompleted marks reports whose task was aborted before producing a result.
var ErrTaskNotCompleted = errors.New(taskNotCompletedMessageConstant)

// Request is one command string submitted by a caller. Description is shown in the
// confirmation prompt. EchoOutput streams captured stdout lines as they arrive.
type Request struct {
	Command     string
	Description string
	AutoApprove bool
	EchoOutput  bool
	Mode        execshell.ExecutionMode
}

// Report is the result of handling one Request. Outcome is meaningful only when the
// command was allowed to run; Failure is set for failed and infrastructure_error reports.
type Report struct {
	Identifier int
	Request    Request
	Verdict    security.Verdict
	Decision   confirmation.Decision
	Status     Status
	Outcome    execshell.ExecutionOutcome
	Failure    error
}

// ExitCode returns the shell exit code, or execshell.UnavailableExitCode when no process ran.
func (report Report) ExitCode() int {
	switch report.Status {
	case StatusSucceeded, StatusFailed:
		return report.Outcome.ExitCode
	default:
		return execshell.UnavailableExitCode
	}
}

func abortedTaskReport(identifier int, request Request) Report {
	return Report{
		Identifier: identifier,
		Request:    request,
		Status:     StatusInfrastructureError,
		Outcome:    execshell.ExecutionOutcome{Mode: request.Mode, ExitCode: execshell.UnavailableExitCode},
		Failure:    ErrTaskNotCompleted,
	}
}
