package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationInfoMessageConstant                   = "\"msg\":\"aic CLI executed\""
	integrationDebugMessageConstant                  = "\"msg\":\"aic CLI diagnostics\""
	integrationLogLevelEnvKeyConstant                = "AIC_COMMON_LOG_LEVEL"
	integrationConfigFileNameConstant                = "config.yaml"
	integrationConfigTemplateConstant                = "common:\n  log_level: %s\n"
	integrationDebugLevelConstant                    = "debug"
	integrationErrorLevelConstant                    = "error"
	integrationCommandTimeout                        = 2 * time.Minute
	integrationConfigFlagTemplateConstant            = "--config=%s"
	integrationEnvironmentAssignmentTemplateConstant = "%s=%s"
	integrationSubtestNameTemplateConstant           = "%d_%s"
	integrationHelpUsagePrefixConstant               = "Usage:"
	integrationHelpDescriptionSnippetConstant        = "aic classifies command strings as clear, dangerous, or requiring elevated privileges"
	integrationSkipShortMessageConstant              = "integration tests build the binary"
)

func TestCLIIntegrationLogLevels(testInstance *testing.T) {
	if testing.Short() {
		testInstance.Skip(integrationSkipShortMessageConstant)
	}

	testCases := []struct {
		name                 string
		configurationLevel   string
		environmentLevel     string
		expectedInfoVisible  bool
		expectedDebugVisible bool
	}{
		{name: "default_info", expectedInfoVisible: true},
		{name: "config_debug", configurationLevel: integrationDebugLevelConstant, expectedInfoVisible: true, expectedDebugVisible: true},
		{name: "environment_error", environmentLevel: integrationErrorLevelConstant},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(integrationSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			var arguments []string
			var environment []string

			if len(testCase.configurationLevel) > 0 {
				configurationPath := filepath.Join(testInstance.TempDir(), integrationConfigFileNameConstant)
				configurationContent := fmt.Sprintf(integrationConfigTemplateConstant, testCase.configurationLevel)
				require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))
				arguments = append(arguments, fmt.Sprintf(integrationConfigFlagTemplateConstant, configurationPath))
			}
			if len(testCase.environmentLevel) > 0 {
				environment = append(environment, fmt.Sprintf(integrationEnvironmentAssignmentTemplateConstant, integrationLogLevelEnvKeyConstant, testCase.environmentLevel))
			}

			outputText, runError := runApplication(testInstance, "", environment, arguments...)
			require.NoError(testInstance, runError, outputText)

			if testCase.expectedInfoVisible {
				require.Contains(testInstance, outputText, integrationInfoMessageConstant)
			} else {
				require.NotContains(testInstance, outputText, integrationInfoMessageConstant)
			}
			if testCase.expectedDebugVisible {
				require.Contains(testInstance, outputText, integrationDebugMessageConstant)
			} else {
				require.NotContains(testInstance, outputText, integrationDebugMessageConstant)
			}
		})
	}
}

func TestCLIIntegrationDisplaysHelpWhenNoArgumentsProvided(testInstance *testing.T) {
	if testing.Short() {
		testInstance.Skip(integrationSkipShortMessageConstant)
	}

	outputText, runError := runApplication(testInstance, "", nil)
	require.NoError(testInstance, runError, outputText)
	require.Contains(testInstance, outputText, integrationHelpUsagePrefixConstant)
	require.Contains(testInstance, outputText, integrationHelpDescriptionSnippetConstant)
}

func TestCLIIntegrationRunCommands(testInstance *testing.T) {
	if testing.Short() {
		testInstance.Skip(integrationSkipShortMessageConstant)
	}

	testCases := []struct {
		name             string
		input            string
		arguments        []string
		expectedSnippets []string
		absentSnippets   []string
	}{
		{
			name:             "approved_yaml_report",
			arguments:        []string{"--log-level", integrationErrorLevelConstant, "run", "--yes", "--output", "yaml", "echo integration"},
			expectedSnippets: []string{"status: succeeded", "verdict: clear", "integration"},
		},
		{
			name:             "declined_dangerous_command",
			input:            "no\n",
			arguments:        []string{"--log-level", integrationErrorLevelConstant, "run", "--yes", "rm -rf ./aic-integration-missing"},
			expectedSnippets: []string{"WARNING: This command is potentially destructive!", "Command execution cancelled"},
			absentSnippets:   []string{"status code: 0"},
		},
		{
			name:             "classify_only",
			arguments:        []string{"--log-level", integrationErrorLevelConstant, "classify", "sudo reboot", "doas ls"},
			expectedSnippets: []string{"dangerous\treboot\tsudo reboot", "elevated_privileges\tdoas\tdoas ls"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(integrationSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			outputText, runError := runApplication(testInstance, testCase.input, nil, testCase.arguments...)
			require.NoError(testInstance, runError, outputText)
			for _, expectedSnippet := range testCase.expectedSnippets {
				require.Contains(testInstance, outputText, expectedSnippet)
			}
			for _, absentSnippet := range testCase.absentSnippets {
				require.NotContains(testInstance, outputText, absentSnippet)
			}
		})
	}
}

func runApplication(testInstance *testing.T, input string, environment []string, arguments ...string) (string, error) {
	testInstance.Helper()

	executionContext, cancelFunction := context.WithTimeout(context.Background(), integrationCommandTimeout)
	defer cancelFunction()

	command := exec.CommandContext(executionContext, "go", append([]string{"run", "."}, arguments...)...)
	command.Env = append(os.Environ(), environment...)
	command.Stdin = strings.NewReader(input)

	outputBytes, runError := command.CombinedOutput()
	return string(outputBytes), runError
}
