package run

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/aic/internal/commander"
	"github.com/temirov/aic/internal/execshell"
	"github.com/temirov/aic/internal/ui"
	"github.com/temirov/aic/internal/utils"
	"github.com/temirov/aic/internal/utils/flags"
)

const (
	commandUseConstant                      = "run COMMAND [COMMAND...]"
	commandShortDescriptionConstant         = "Run shell commands after risk classification and confirmation"
	commandLongDescriptionConstant          = "run classifies each command string, asks for confirmation when required, and executes the confirmed commands concurrently through the platform shell."
	infoFlagNameConstant                    = "info"
	infoFlagDescriptionConstant             = "Description shown in the confirmation prompt"
	outputFlagNameConstant                  = "output"
	outputFlagDescriptionConstant           = "Report format"
	maxConcurrencyFlagNameConstant          = "max-concurrency"
	maxConcurrencyFlagDescriptionConstant   = "Maximum number of commands running at once"
	missingCommandsMessageConstant          = "at least one command is required"
	unsupportedOutputFormatTemplateConstant = "unsupported output format %q; expected text or yaml"
	batchFailedTemplateConstant             = "command batch aborted: %w"
	reportOutputErrorTemplateConstant       = "unable to write reports: %w"
	batchStartedMessageConstant             = "Command batch starting"
	logFieldCommandCountConstant            = "command_count"
	logFieldConfigurationFileConstant       = "config_file"
	logFieldMaximumConcurrencyConstant      = "max_concurrency"
)

var errMissingCommands = errors.New(missingCommandsMessageConstant)

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider                LoggerProvider
	HumanReadableLoggingProvider  func() bool
	ConfigurationProvider         func() CommandConfiguration
	SecurityConfigurationProvider func() SecurityConfiguration
	OperatingSystem               string
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	defaults := DefaultCommandConfiguration()
	flags.BindSessionFlags(command.Flags(), flags.SessionDefaults{
		AssumeYes: defaults.AssumeYes,
		Verbose:   defaults.Verbose,
		Elevate:   defaults.Elevate,
	})
	command.Flags().String(infoFlagNameConstant, "", infoFlagDescriptionConstant)
	command.Flags().String(outputFlagNameConstant, defaults.Output, flags.FormatChoiceUsage(defaults.Output, []string{outputFormatTextConstant, outputFormatYAMLConstant}, outputFlagDescriptionConstant))
	command.Flags().Int(maxConcurrencyFlagNameConstant, 0, maxConcurrencyFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	commandTexts := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if len(strings.TrimSpace(argument)) == 0 {
			continue
		}
		commandTexts = append(commandTexts, argument)
	}
	if len(commandTexts) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errMissingCommands
	}

	configuration, configurationError := builder.resolveEffectiveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	description, _ := command.Flags().GetString(infoFlagNameConstant)
	output := utils.NewFlushingWriter(command.OutOrStdout())
	logger := resolveLogger(builder.LoggerProvider)

	configurationFilePath, _ := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context())
	logger.Debug(
		batchStartedMessageConstant,
		zap.Int(logFieldCommandCountConstant, len(commandTexts)),
		zap.Int(logFieldMaximumConcurrencyConstant, configuration.MaxConcurrency),
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
	)

	service, serviceError := BuildService(SessionOptions{
		Configuration:        configuration,
		Security:             builder.resolveSecurityConfiguration(),
		Logger:               logger,
		HumanReadableLogging: builder.humanReadableLogging(),
		ConfirmationInput:    command.InOrStdin(),
		ProcessInput:         ResolveProcessInput(command.InOrStdin()),
		Output:               output,
		Errors:               command.ErrOrStderr(),
		OperatingSystem:      builder.OperatingSystem,
	})
	if serviceError != nil {
		return serviceError
	}

	outputFormat := OutputFormat(configuration.Output)
	requests := make([]commander.Request, 0, len(commandTexts))
	for _, commandText := range commandTexts {
		requests = append(requests, commander.Request{
			Command:     commandText,
			Description: description,
			AutoApprove: configuration.AssumeYes,
			EchoOutput:  configuration.Verbose && outputFormat == OutputFormatText,
			Mode:        execshell.ExecutionMode(configuration.Mode),
		})
	}

	var reportHandler commander.ReportHandler
	if outputFormat == OutputFormatText {
		renderer := ui.NewReportRenderer(output, command.OutOrStdout())
		reportHandler = func(report commander.Report) {
			_ = renderer.Render(report)
		}
	}

	reports, batchError := service.ExecuteBatch(command.Context(), requests, reportHandler)

	if outputFormat == OutputFormatYAML {
		if writeError := WriteYAMLReports(output, reports); writeError != nil {
			return fmt.Errorf(reportOutputErrorTemplateConstant, writeError)
		}
	}

	if batchError != nil {
		return fmt.Errorf(batchFailedTemplateConstant, batchError)
	}
	return nil
}

func (builder *CommandBuilder) resolveEffectiveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := builder.resolveConfiguration().ApplySessionOverrides(flags.ReadSessionOverrides(command.Flags()))

	if command.Flags().Changed(maxConcurrencyFlagNameConstant) {
		configuration.MaxConcurrency, _ = command.Flags().GetInt(maxConcurrencyFlagNameConstant)
	}
	if command.Flags().Changed(outputFlagNameConstant) {
		outputValue, _ := command.Flags().GetString(outputFlagNameConstant)
		outputFormat, known := ParseOutputFormat(outputValue)
		if !known {
			return CommandConfiguration{}, fmt.Errorf(unsupportedOutputFormatTemplateConstant, outputValue)
		}
		configuration.Output = string(outputFormat)
	}

	return configuration.Sanitize(), nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveSecurityConfiguration() SecurityConfiguration {
	if builder.SecurityConfigurationProvider == nil {
		return SecurityConfiguration{}
	}
	return builder.SecurityConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}
