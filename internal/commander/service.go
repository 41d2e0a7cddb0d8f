package commander

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/aic/internal/confirmation"
	"github.com/temirov/aic/internal/execshell"
	"github.com/temirov/aic/internal/security"
	"github.com/temirov/aic/internal/taskpool"
)

const (
	runnerNotConfiguredMessageConstant = "commander: command runner not configured"
	gateNotConfiguredMessageConstant   = "commander: confirmation gate not configured"
	scheduleFailedTemplateConstant     = "unable to schedule command %d: %w"
	commandCancelledMessageConstant    = "Command cancelled by user"
	commandReportedMessageConstant     = "Command finished"
	logFieldCommandConstant            = "command"
	logFieldIdentifierConstant         = "task_id"
	logFieldStatusConstant             = "status"
	logFieldVerdictConstant            = "verdict"
	logFieldExitCodeConstant           = "exit_code"
	logFieldBatchSizeConstant          = "batch_size"
	batchStartedMessageConstant        = "Command batch started"
)

// CommandRunner executes a shell command.
type CommandRunner interface {
	Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionOutcome, error)
}

// ConfirmationGate decides whether a command may run.
type ConfirmationGate interface {
	Confirm(request confirmation.Request) confirmation.Decision
}

// RiskClassifier assigns an advisory verdict to a command string.
type RiskClassifier interface {
	Classify(command string) security.Verdict
}

// ReportHandler receives each report as soon as its command finishes. Calls are serialized.
type ReportHandler func(report Report)

var (
	// ErrRunnerNotConfigured indicates the service was constructed without a command runner.
	ErrRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
	// ErrGateNotConfigured indicates the service was constructed without a confirmation gate.
	ErrGateNotConfigured = errors.New(gateNotConfiguredMessageConstant)
)

// Dependencies enumerates collaborators required by the service. A nil Classifier uses the
// built-in lists and a nil Logger discards output.
type Dependencies struct {
	Classifier         RiskClassifier
	Gate               ConfirmationGate
	Runner             CommandRunner
	Logger             *zap.Logger
	MaximumConcurrency int
}

// Service runs requests through the classifier, the gate, and the runner.
type Service struct {
	classifier         RiskClassifier
	gate               ConfirmationGate
	runner             CommandRunner
	logger             *zap.Logger
	maximumConcurrency int
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Runner == nil {
		return nil, ErrRunnerNotConfigured
	}
	if dependencies.Gate == nil {
		return nil, ErrGateNotConfigured
	}

	classifier := dependencies.Classifier
	if classifier == nil {
		classifier = security.NewClassifier(nil, nil)
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		classifier:         classifier,
		gate:               dependencies.Gate,
		runner:             dependencies.Runner,
		logger:             logger,
		maximumConcurrency: dependencies.MaximumConcurrency,
	}, nil
}

// Execute classifies the request, asks for confirmation when required, and runs the command
// once confirmed. Nothing is spawned when the request is declined.
func (service *Service) Execute(executionContext context.Context, identifier int, request Request) Report {
	if len(request.Mode) == 0 {
		request.Mode = execshell.ExecutionModeCaptured
	}

	report := Report{
		Identifier: identifier,
		Request:    request,
		Verdict:    service.classifier.Classify(request.Command),
		Outcome:    execshell.ExecutionOutcome{Mode: request.Mode, ExitCode: execshell.UnavailableExitCode},
	}

	report.Decision = service.gate.Confirm(confirmation.Request{
		Command:     request.Command,
		Verdict:     report.Verdict,
		AutoApprove: request.AutoApprove,
		Description: request.Description,
	})
	if report.Decision != confirmation.DecisionProceed {
		report.Status = StatusCancelled
		service.logger.Info(commandCancelledMessageConstant, service.reportFields(report)...)
		return report
	}

	outcome, runError := service.runner.Run(executionContext, execshell.ShellCommand{
		Text:       request.Command,
		Mode:       request.Mode,
		EchoOutput: request.EchoOutput,
	})
	report.Outcome = outcome
	report.Failure = runError

	var commandFailure execshell.CommandFailedError
	switch {
	case runError == nil:
		report.Status = StatusSucceeded
	case errors.As(runError, &commandFailure):
		report.Status = StatusFailed
	default:
		report.Status = StatusInfrastructureError
	}

	service.logger.Debug(commandReportedMessageConstant, service.reportFields(report)...)
	return report
}

// ExecuteBatch schedules every request on a fresh task pool, hands each report to the handler
// as it completes, and joins the pool. Reports are returned in submission order. The returned
// error is a scheduling fault; command failures and cancellations are reported, not returned.
func (service *Service) ExecuteBatch(executionContext context.Context, requests []Request, handler ReportHandler) ([]Report, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	service.logger.Debug(batchStartedMessageConstant, zap.Int(logFieldBatchSizeConstant, len(requests)))

	pool := taskpool.NewPool(service.maximumConcurrency, service.logger)
	reports := make([]Report, len(requests))
	for requestIndex, request := range requests {
		reports[requestIndex] = abortedTaskReport(requestIndex, request)
	}
	var handlerMutex sync.Mutex
	var scheduleError error

	for requestIndex, request := range requests {
		identifier := requestIndex
		pendingRequest := request

		scheduleError = pool.Schedule(executionContext, identifier, func(taskContext context.Context) {
			report := service.Execute(taskContext, identifier, pendingRequest)
			reports[identifier] = report
			if handler != nil {
				handlerMutex.Lock()
				defer handlerMutex.Unlock()
				handler(report)
			}
		})
		if scheduleError != nil {
			scheduleError = fmt.Errorf(scheduleFailedTemplateConstant, identifier, scheduleError)
			break
		}
	}

	joinError := pool.Join()
	if scheduleError != nil {
		return reports, scheduleError
	}
	return reports, joinError
}

func (service *Service) reportFields(report Report) []zap.Field {
	return []zap.Field{
		zap.Int(logFieldIdentifierConstant, report.Identifier),
		zap.String(logFieldCommandConstant, report.Request.Command),
		zap.String(logFieldVerdictConstant, report.Verdict.Kind.String()),
		zap.String(logFieldStatusConstant, string(report.Status)),
		zap.Int(logFieldExitCodeConstant, report.ExitCode()),
	}
}
