package run

import (
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/aic/internal/commander"
	"github.com/temirov/aic/internal/confirmation"
	"github.com/temirov/aic/internal/execshell"
	"github.com/temirov/aic/internal/security"
	"github.com/temirov/aic/internal/ui"
	"github.com/temirov/aic/internal/utils"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// SessionOptions describes everything needed to assemble a command service for one CLI invocation.
// ConfirmationInput feeds the confirmation gate; ProcessInput becomes the standard input of spawned
// commands and must be nil or a file so a finished command never waits on it.
type SessionOptions struct {
	Configuration        CommandConfiguration
	Security             SecurityConfiguration
	Logger               *zap.Logger
	HumanReadableLogging bool
	ConfirmationInput    io.Reader
	ProcessInput         io.Reader
	Output               io.Writer
	Errors               io.Writer
	OperatingSystem      string
}

// BuildService wires the classifier, confirmation gate, and runner into a commander.Service.
func BuildService(options SessionOptions) (*commander.Service, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	operatingSystem := options.OperatingSystem
	if len(operatingSystem) == 0 {
		operatingSystem = runtime.GOOS
	}

	output := utils.NewFlushingWriter(options.Output)
	errorsOutput := utils.NewFlushingWriter(options.Errors)

	runnerOptions := []execshell.RunnerOption{
		execshell.WithTerminalStreams(execshell.TerminalStreams{
			Input:  options.ProcessInput,
			Output: output,
			Errors: errorsOutput,
		}),
		execshell.WithCommandTimeout(options.Configuration.CommandTimeout),
	}
	if options.HumanReadableLogging {
		runnerOptions = append(runnerOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger, options.Configuration.Elevate)))
	}

	strategy := execshell.DetectShellStrategy(operatingSystem).WithElevation(options.Configuration.Elevate)
	runner, runnerError := execshell.NewRunner(logger, strategy, runnerOptions...)
	if runnerError != nil {
		return nil, runnerError
	}

	sanitizedSecurity := options.Security.Sanitize()
	classifier := security.NewClassifier(sanitizedSecurity.AdditionalDangerousPatterns, sanitizedSecurity.AdditionalElevationTokens)

	return commander.NewService(commander.Dependencies{
		Classifier:         classifier,
		Gate:               confirmation.NewGate(options.ConfirmationInput, output, logger),
		Runner:             runner,
		Logger:             logger,
		MaximumConcurrency: options.Configuration.MaxConcurrency,
	})
}

// ResolveProcessInput returns the reader when it is a file and nil otherwise.
func ResolveProcessInput(reader io.Reader) io.Reader {
	if file, isFile := reader.(*os.File); isFile && file != nil {
		return file
	}
	return nil
}

// ReportRecord is the serialized form of a commander.Report.
type ReportRecord struct {
	Identifier     int    `yaml:"id"`
	Command        string `yaml:"command"`
	Verdict        string `yaml:"verdict"`
	Reason         string `yaml:"reason,omitempty"`
	Decision       string `yaml:"decision"`
	Status         string `yaml:"status"`
	ExitCode       int    `yaml:"exit_code"`
	StandardOutput string `yaml:"stdout,omitempty"`
	StandardError  string `yaml:"stderr,omitempty"`
	Error          string `yaml:"error,omitempty"`
}

// NewReportRecord converts a report into its serialized form.
func NewReportRecord(report commander.Report) ReportRecord {
	record := ReportRecord{
		Identifier:     report.Identifier,
		Command:        report.Request.Command,
		Verdict:        report.Verdict.Kind.String(),
		Reason:         report.Verdict.Reason,
		Decision:       report.Decision.String(),
		Status:         string(report.Status),
		ExitCode:       report.ExitCode(),
		StandardOutput: report.Outcome.StandardOutput,
		StandardError:  report.Outcome.StandardError,
	}
	if report.Failure != nil {
		record.Error = report.Failure.Error()
	}
	return record
}

// WriteYAMLReports encodes every report as one YAML document.
func WriteYAMLReports(writer io.Writer, reports []commander.Report) error {
	records := make([]ReportRecord, 0, len(reports))
	for _, report := range reports {
		records = append(records, NewReportRecord(report))
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if encodeError := encoder.Encode(records); encodeError != nil {
		return encodeError
	}
	return encoder.Close()
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}
