package cli_test

import (
	"bytes"
	"testing"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/aic/cmd/cli"
	runcmd "github.com/temirov/aic/cmd/cli/run"
)

const (
	embeddedConfigurationTypeConstant  = "yaml"
	embeddedRunSectionKeyConstant      = "run"
	embeddedToolsSectionKeyConstant    = "tools"
	embeddedSecuritySectionKeyConstant = "security"
)

func TestEmbeddedDefaultsMatchRunCommandDefaults(testInstance *testing.T) {
	configuration := decodeEmbeddedApplicationConfiguration(testInstance)

	require.Equal(testInstance, runcmd.DefaultCommandConfiguration(), configuration.Tools.Run)
	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
	require.Empty(testInstance, configuration.Security.AdditionalDangerousPatterns)
	require.Empty(testInstance, configuration.Security.AdditionalElevationTokens)
}

func TestEmbeddedDefaultConfigurationType(testInstance *testing.T) {
	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, embeddedConfigurationTypeConstant, configurationType)
	require.NotEmpty(testInstance, configurationData)

	configurationData[0] = '#'
	refreshedData, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(testInstance, byte('#'), refreshedData[0])
}

func TestEmbeddedRunSectionDecodesWithDurationHook(testInstance *testing.T) {
	configurationData, _ := cli.EmbeddedDefaultConfiguration()

	var document map[string]any
	require.NoError(testInstance, yaml.Unmarshal(configurationData, &document))

	toolsSection, toolsSectionFound := document[embeddedToolsSectionKeyConstant].(map[string]any)
	require.True(testInstance, toolsSectionFound)
	runSection, runSectionFound := toolsSection[embeddedRunSectionKeyConstant].(map[string]any)
	require.True(testInstance, runSectionFound)
	_, securitySectionFound := document[embeddedSecuritySectionKeyConstant]
	require.True(testInstance, securitySectionFound)

	runSection["command_timeout"] = "750ms"

	var decoded runcmd.CommandConfiguration
	decodeOptions(testInstance, runSection, &decoded)

	require.Equal(testInstance, 750*time.Millisecond, decoded.CommandTimeout)
	require.True(testInstance, decoded.Verbose)
	require.Equal(testInstance, "captured", decoded.Mode)
}

func decodeEmbeddedApplicationConfiguration(testingInstance testing.TB) cli.ApplicationConfiguration {
	testingInstance.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)

	readError := viperInstance.ReadConfig(bytes.NewReader(configurationData))
	require.NoError(testingInstance, readError)

	var configuration cli.ApplicationConfiguration
	unmarshalError := viperInstance.Unmarshal(&configuration)
	require.NoError(testingInstance, unmarshalError)

	return configuration
}

func decodeOptions(testingInstance testing.TB, options map[string]any, target any) {
	testingInstance.Helper()

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     target,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	require.NoError(testingInstance, decoderError)

	decodeError := decoder.Decode(options)
	require.NoError(testingInstance, decodeError)
}
