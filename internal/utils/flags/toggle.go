package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleTrueValueConstant      = "true"
	toggleFalseValueConstant     = "false"
	toggleTypeConstant           = "bool"
	toggleParseErrorTemplate     = "invalid toggle value %q; expected yes or no"
	toggleEnabledPlaceholder     = "<YES|no>"
	toggleDisabledPlaceholder    = "<yes|NO>"
	placeholderUsageTemplate     = "`%s`"
	placeholderUsageFullTemplate = "`%s` %s"
)

var toggleLiterals = map[string]bool{
	"true":  true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"1":     true,
	"t":     true,
	"false": false,
	"no":    false,
	"n":     false,
	"off":   false,
	"0":     false,
	"f":     false,
}

// ParseToggle converts a yes/no style literal into a boolean. An empty value means true.
func ParseToggle(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	parsedValue, known := toggleLiterals[normalizedValue]
	if !known {
		return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	return parsedValue, nil
}

// AddToggleFlag registers a boolean flag that accepts toggle literals. Naming the flag
// without a value sets it to true. The value is read back with pflag's GetBool.
func AddToggleFlag(flagSet *pflag.FlagSet, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	value := &toggleValue{enabled: defaultValue}
	flag := flagSet.VarPF(value, name, shorthand, formatToggleUsage(defaultValue, usage))
	flag.NoOptDefVal = toggleTrueValueConstant
	flag.DefValue = value.String()
}

type toggleValue struct {
	enabled bool
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, parseError := ParseToggle(rawValue)
	if parseError != nil {
		return parseError
	}
	value.enabled = parsedValue
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.enabled {
		return toggleTrueValueConstant
	}
	return toggleFalseValueConstant
}

func (value *toggleValue) Type() string {
	return toggleTypeConstant
}

func formatToggleUsage(defaultValue bool, description string) string {
	placeholder := toggleDisabledPlaceholder
	if defaultValue {
		placeholder = toggleEnabledPlaceholder
	}
	return formatPlaceholderUsage(placeholder, description)
}

func formatPlaceholderUsage(placeholder string, description string) string {
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(placeholderUsageTemplate, placeholder)
	}
	return fmt.Sprintf(placeholderUsageFullTemplate, placeholder, trimmedDescription)
}
