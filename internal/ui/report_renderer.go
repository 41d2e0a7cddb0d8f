package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/temirov/aic/internal/commander"
)

const (
	failureColorConstant                 = "9"
	subtleColorConstant                  = "241"
	commandFailedTemplateConstant        = "Command failed with exit code %d"
	commandCancelledMessageConstant      = "Command execution cancelled"
	infrastructureErrorTemplateConstant  = "Unable to execute command: %v"
	unknownInfrastructureFailureConstant = "unknown error"
	statusCodeTemplateConstant           = "status code: %d"
	lineTerminatorConstant               = "\n"
	noColorEnvironmentVariableConstant   = "NO_COLOR"
)

// ReportRenderer writes finished command reports for a human reader.
type ReportRenderer struct {
	writer       io.Writer
	failureStyle lipgloss.Style
	faultStyle   lipgloss.Style
	subtleStyle  lipgloss.Style
}

// NewReportRenderer constructs a renderer writing to writer. Colors are used only when terminal
// is a terminal device and NO_COLOR is unset; writer may wrap terminal.
func NewReportRenderer(writer io.Writer, terminal io.Writer) *ReportRenderer {
	if writer == nil {
		writer = io.Discard
	}
	renderer := lipgloss.NewRenderer(io.Discard)
	if ColorSupported(terminal) {
		renderer = lipgloss.NewRenderer(terminal)
	}
	return &ReportRenderer{
		writer:       writer,
		failureStyle: renderer.NewStyle().Foreground(lipgloss.Color(failureColorConstant)),
		faultStyle:   renderer.NewStyle().Foreground(lipgloss.Color(failureColorConstant)).Bold(true),
		subtleStyle:  renderer.NewStyle().Foreground(lipgloss.Color(subtleColorConstant)),
	}
}

// Render writes the report. Captured stdout is repeated only when it was not echoed live.
func (reportRenderer *ReportRenderer) Render(report commander.Report) error {
	_, writeError := io.WriteString(reportRenderer.writer, reportRenderer.Format(report))
	return writeError
}

// Format returns the text Render would write.
func (reportRenderer *ReportRenderer) Format(report commander.Report) string {
	var builder strings.Builder

	switch report.Status {
	case commander.StatusSucceeded:
		if !report.Request.EchoOutput {
			builder.WriteString(report.Outcome.StandardOutput)
		}
		reportRenderer.writeStatusCode(&builder, report)
	case commander.StatusFailed:
		if !report.Request.EchoOutput {
			builder.WriteString(report.Outcome.StandardOutput)
		}
		builder.WriteString(reportRenderer.failureStyle.Render(fmt.Sprintf(commandFailedTemplateConstant, report.Outcome.ExitCode)))
		builder.WriteString(lineTerminatorConstant)
		if standardError := strings.TrimRight(report.Outcome.StandardError, lineTerminatorConstant); len(standardError) > 0 {
			builder.WriteString(reportRenderer.failureStyle.Render(standardError))
			builder.WriteString(lineTerminatorConstant)
		}
		reportRenderer.writeStatusCode(&builder, report)
	case commander.StatusCancelled:
		builder.WriteString(commandCancelledMessageConstant)
		builder.WriteString(lineTerminatorConstant)
	default:
		failureDescription := unknownInfrastructureFailureConstant
		if report.Failure != nil {
			failureDescription = report.Failure.Error()
		}
		builder.WriteString(reportRenderer.faultStyle.Render(fmt.Sprintf(infrastructureErrorTemplateConstant, failureDescription)))
		builder.WriteString(lineTerminatorConstant)
		reportRenderer.writeStatusCode(&builder, report)
	}

	return builder.String()
}

func (reportRenderer *ReportRenderer) writeStatusCode(builder *strings.Builder, report commander.Report) {
	builder.WriteString(reportRenderer.subtleStyle.Render(fmt.Sprintf(statusCodeTemplateConstant, report.ExitCode())))
	builder.WriteString(lineTerminatorConstant)
}

// ColorSupported reports whether colored output should be written to the destination.
func ColorSupported(destination io.Writer) bool {
	if _, disabled := os.LookupEnv(noColorEnvironmentVariableConstant); disabled {
		return false
	}
	file, isFile := destination.(*os.File)
	if !isFile || file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
