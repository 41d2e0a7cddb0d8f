package interactive_test

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/aic/cmd/cli/interactive"
	runcmd "github.com/temirov/aic/cmd/cli/run"
)

const (
	interactiveYesFlagConstant          = "--yes"
	interactiveCancelledMessageConstant = "Command execution cancelled"
	interactivePromptConstant           = "aic> "
)

func skipWithoutPOSIXShell(testInstance *testing.T) {
	testInstance.Helper()
	if runtime.GOOS == "windows" {
		testInstance.Skip("POSIX shell required")
	}
	if _, lookupError := exec.LookPath("sh"); lookupError != nil {
		testInstance.Skip("sh not available")
	}
}

func executeInteractiveCommand(testInstance *testing.T, input string, arguments ...string) (string, error) {
	testInstance.Helper()

	builder := interactive.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return zap.NewNop()
		},
		ConfigurationProvider: runcmd.DefaultCommandConfiguration,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetContext(context.Background())
	command.SetIn(strings.NewReader(input))
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	command.SilenceUsage = true
	command.SilenceErrors = true

	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestInteractiveCommandRunsLinesUntilExit(testInstance *testing.T) {
	skipWithoutPOSIXShell(testInstance)

	input := strings.Join([]string{
		"echo one",
		"",
		"rm -rf /tmp/aic-interactive-never",
		"no",
		"echo two",
		"EXIT",
		"echo never",
	}, "\n") + "\n"

	output, executionError := executeInteractiveCommand(testInstance, input, interactiveYesFlagConstant)

	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "one\n")
	require.Contains(testInstance, output, "two\n")
	require.Contains(testInstance, output, interactiveCancelledMessageConstant)
	require.NotContains(testInstance, output, "never\n")
	require.NotContains(testInstance, output, interactivePromptConstant)
	require.Less(testInstance, strings.Index(output, "one\n"), strings.Index(output, interactiveCancelledMessageConstant))
	require.Less(testInstance, strings.Index(output, interactiveCancelledMessageConstant), strings.Index(output, "two\n"))
}

func TestInteractiveCommandStopsAtEndOfInput(testInstance *testing.T) {
	skipWithoutPOSIXShell(testInstance)

	output, executionError := executeInteractiveCommand(testInstance, "echo last", interactiveYesFlagConstant)

	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "last\n")
	require.Contains(testInstance, output, "status code: 0")
}

func TestInteractiveCommandAsksWithoutAssumeYes(testInstance *testing.T) {
	skipWithoutPOSIXShell(testInstance)

	output, executionError := executeInteractiveCommand(testInstance, "echo asked\ny\nquit\n")

	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "Are you sure you want to execute: \"echo asked\" ?")
	require.Contains(testInstance, output, "asked\n")
}

func TestInteractiveCommandRejectsArguments(testInstance *testing.T) {
	_, executionError := executeInteractiveCommand(testInstance, "", "echo")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "does not accept positional arguments")
}
