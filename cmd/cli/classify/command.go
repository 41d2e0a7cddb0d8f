package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	runcmd "github.com/temirov/aic/cmd/cli/run"
	"github.com/temirov/aic/internal/security"
	"github.com/temirov/aic/internal/utils"
)

const (
	commandUseConstant               = "classify COMMAND [COMMAND...]"
	commandShortDescriptionConstant  = "Print the risk verdict of command strings without running them"
	commandLongDescriptionConstant   = "classify prints one line per command: the verdict, the fragment that triggered it, and the command, separated by tabs."
	verdictLineTemplateConstant      = "%s\t%s\t%s\n"
	missingCommandsMessageConstant   = "at least one command is required"
	commandClassifiedMessageConstant = "Command classified"
	logFieldCommandConstant          = "command"
	logFieldVerdictConstant          = "verdict"
	logFieldReasonConstant           = "reason"
)

var errMissingCommands = errors.New(missingCommandsMessageConstant)

// CommandBuilder assembles the classify command.
type CommandBuilder struct {
	LoggerProvider                runcmd.LoggerProvider
	SecurityConfigurationProvider func() runcmd.SecurityConfiguration
}

// Build constructs the classify command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errMissingCommands
	}

	securityConfiguration := runcmd.SecurityConfiguration{}
	if builder.SecurityConfigurationProvider != nil {
		securityConfiguration = builder.SecurityConfigurationProvider().Sanitize()
	}
	classifier := security.NewClassifier(securityConfiguration.AdditionalDangerousPatterns, securityConfiguration.AdditionalElevationTokens)

	logger := zap.NewNop()
	if builder.LoggerProvider != nil {
		if providedLogger := builder.LoggerProvider(); providedLogger != nil {
			logger = providedLogger
		}
	}

	output := utils.NewFlushingWriter(command.OutOrStdout())
	for _, commandText := range arguments {
		verdict := classifier.Classify(commandText)
		logger.Debug(
			commandClassifiedMessageConstant,
			zap.String(logFieldCommandConstant, commandText),
			zap.String(logFieldVerdictConstant, verdict.Kind.String()),
			zap.String(logFieldReasonConstant, verdict.Reason),
		)
		if _, writeError := fmt.Fprintf(output, verdictLineTemplateConstant, verdict.Kind, strings.TrimSpace(verdict.Reason), commandText); writeError != nil {
			return writeError
		}
	}

	return nil
}
