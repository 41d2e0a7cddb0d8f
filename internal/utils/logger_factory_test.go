package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/aic/internal/utils"
)

const (
	testInvalidLogLevelConstant  = "invalid"
	testInvalidLogFormatConstant = "invalid"
	testInfoMessageConstant      = "logger_factory_info_message"
	testDebugMessageConstant     = "logger_factory_debug_message"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		level                utils.LogLevel
		format               utils.LogFormat
		expectStructuredLog  bool
		expectDebugVisible   bool
		expectedLevelSnippet string
	}{
		{
			name:                 "debug_structured",
			level:                utils.LogLevelDebug,
			format:               utils.LogFormatStructured,
			expectStructuredLog:  true,
			expectDebugVisible:   true,
			expectedLevelSnippet: "\"level\":\"info\"",
		},
		{
			name:                 "info_structured_hides_debug",
			level:                utils.LogLevelInfo,
			format:               utils.LogFormatStructured,
			expectStructuredLog:  true,
			expectedLevelSnippet: "\"level\":\"info\"",
		},
		{
			name:                 "info_console",
			level:                utils.LogLevelInfo,
			format:               utils.LogFormatConsole,
			expectedLevelSnippet: "INFO",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			capturedOutput := captureStandardError(testInstance, func() {
				logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.level, testCase.format)
				require.NoError(testInstance, creationError)

				logger.Debug(testDebugMessageConstant)
				logger.Info(testInfoMessageConstant)
				if syncError := logger.Sync(); syncError != nil {
					require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
				}
			})

			require.Contains(testInstance, capturedOutput, testInfoMessageConstant)
			require.Contains(testInstance, capturedOutput, testCase.expectedLevelSnippet)
			if testCase.expectDebugVisible {
				require.Contains(testInstance, capturedOutput, testDebugMessageConstant)
			} else {
				require.NotContains(testInstance, capturedOutput, testDebugMessageConstant)
			}

			lastLine := lastNonEmptyLine(capturedOutput)
			require.Equal(testInstance, testCase.expectStructuredLog, json.Valid([]byte(lastLine)))
		})
	}
}

func TestLoggerFactoryRejectsUnsupportedSettings(testInstance *testing.T) {
	loggerFactory := utils.NewLoggerFactory()

	logger, levelError := loggerFactory.CreateLogger(utils.LogLevel(testInvalidLogLevelConstant), utils.LogFormatStructured)
	require.ErrorContains(testInstance, levelError, "unsupported log level")
	require.Nil(testInstance, logger)

	logger, formatError := loggerFactory.CreateLogger(utils.LogLevelInfo, utils.LogFormat(testInvalidLogFormatConstant))
	require.ErrorContains(testInstance, formatError, "unsupported log format")
	require.Nil(testInstance, logger)
}

func TestParseLoggingSettings(testInstance *testing.T) {
	parsedLevel, levelError := utils.ParseLogLevel("  WARN ")
	require.NoError(testInstance, levelError)
	require.Equal(testInstance, utils.LogLevelWarn, parsedLevel)

	parsedFormat, formatError := utils.ParseLogFormat("Console")
	require.NoError(testInstance, formatError)
	require.Equal(testInstance, utils.LogFormatConsole, parsedFormat)

	_, unknownLevelError := utils.ParseLogLevel(testInvalidLogLevelConstant)
	require.ErrorContains(testInstance, unknownLevelError, "unsupported log level")

	_, unknownFormatError := utils.ParseLogFormat(testInvalidLogFormatConstant)
	require.ErrorContains(testInstance, unknownFormatError, "unsupported log format")
}

func captureStandardError(testInstance *testing.T, action func()) string {
	testInstance.Helper()

	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStandardError := os.Stderr
	os.Stderr = pipeWriter
	defer func() {
		os.Stderr = originalStandardError
	}()

	action()

	require.NoError(testInstance, pipeWriter.Close())
	capturedOutput, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())
	return string(capturedOutput)
}

func lastNonEmptyLine(text string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(text)), []byte("\n"))
	return string(lines[len(lines)-1])
}
