package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	runcmd "github.com/temirov/aic/cmd/cli/run"
	"github.com/temirov/aic/internal/commander"
	"github.com/temirov/aic/internal/execshell"
	"github.com/temirov/aic/internal/ui"
	"github.com/temirov/aic/internal/utils"
	"github.com/temirov/aic/internal/utils/flags"
)

const (
	commandUseConstant                  = "interactive"
	commandShortDescriptionConstant     = "Read and run commands one line at a time"
	commandLongDescriptionConstant      = "interactive reads one command per line from standard input and runs each through classification, confirmation, and execution before reading the next. Enter exit or quit to leave."
	promptConstant                      = "aic> "
	exitCommandConstant                 = "exit"
	quitCommandConstant                 = "quit"
	unexpectedArgumentsMessageConstant  = "interactive does not accept positional arguments"
	readCommandErrorTemplateConstant    = "unable to read command: %w"
	commandAbortedErrorTemplateConstant = "command %q aborted: %w"
	sessionStartedMessageConstant       = "Interactive session started"
	sessionEndedMessageConstant         = "Interactive session ended"
	logFieldCommandCountConstant        = "command_count"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// CommandBuilder assembles the interactive command.
type CommandBuilder struct {
	LoggerProvider                runcmd.LoggerProvider
	HumanReadableLoggingProvider  func() bool
	ConfigurationProvider         func() runcmd.CommandConfiguration
	SecurityConfigurationProvider func() runcmd.SecurityConfiguration
	OperatingSystem               string
}

// Build constructs the interactive command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	defaults := runcmd.DefaultCommandConfiguration()
	flags.BindSessionFlags(command.Flags(), flags.SessionDefaults{
		AssumeYes: defaults.AssumeYes,
		Verbose:   defaults.Verbose,
		Elevate:   defaults.Elevate,
	})

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveEffectiveConfiguration(command)
	logger := builder.resolveLogger()
	output := utils.NewFlushingWriter(command.OutOrStdout())

	sharedInput := bufio.NewReader(command.InOrStdin())
	service, serviceError := runcmd.BuildService(runcmd.SessionOptions{
		Configuration:        configuration,
		Security:             builder.resolveSecurityConfiguration(),
		Logger:               logger,
		HumanReadableLogging: builder.humanReadableLogging(),
		ConfirmationInput:    sharedInput,
		ProcessInput:         runcmd.ResolveProcessInput(command.InOrStdin()),
		Output:               output,
		Errors:               command.ErrOrStderr(),
		OperatingSystem:      builder.OperatingSystem,
	})
	if serviceError != nil {
		return serviceError
	}

	renderer := ui.NewReportRenderer(output, command.OutOrStdout())
	showPrompt := isTerminal(command.InOrStdin())

	logger.Debug(sessionStartedMessageConstant)
	commandCount := 0
	defer func() {
		logger.Debug(sessionEndedMessageConstant, zap.Int(logFieldCommandCountConstant, commandCount))
	}()

	for {
		if showPrompt {
			if _, writeError := io.WriteString(output, promptConstant); writeError != nil {
				return writeError
			}
		}

		line, readError := sharedInput.ReadString('\n')
		if readError != nil && !errors.Is(readError, io.EOF) {
			return fmt.Errorf(readCommandErrorTemplateConstant, readError)
		}

		commandText := strings.TrimSpace(line)
		if isExitCommand(commandText) {
			return nil
		}

		if len(commandText) > 0 {
			request := commander.Request{
				Command:     commandText,
				AutoApprove: configuration.AssumeYes,
				EchoOutput:  configuration.Verbose,
				Mode:        execshell.ExecutionMode(configuration.Mode),
			}
			_, batchError := service.ExecuteBatch(command.Context(), []commander.Request{request}, func(report commander.Report) {
				_ = renderer.Render(report)
			})
			commandCount++
			if batchError != nil {
				return fmt.Errorf(commandAbortedErrorTemplateConstant, commandText, batchError)
			}
		}

		if errors.Is(readError, io.EOF) {
			return nil
		}
	}
}

func (builder *CommandBuilder) resolveEffectiveConfiguration(command *cobra.Command) runcmd.CommandConfiguration {
	configuration := runcmd.DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider().Sanitize()
	}

	return configuration.ApplySessionOverrides(flags.ReadSessionOverrides(command.Flags())).Sanitize()
}

func (builder *CommandBuilder) resolveSecurityConfiguration() runcmd.SecurityConfiguration {
	if builder.SecurityConfigurationProvider == nil {
		return runcmd.SecurityConfiguration{}
	}
	return builder.SecurityConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func isExitCommand(commandText string) bool {
	return strings.EqualFold(commandText, exitCommandConstant) || strings.EqualFold(commandText, quitCommandConstant)
}

func isTerminal(input io.Reader) bool {
	file, isFile := input.(*os.File)
	if !isFile || file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
