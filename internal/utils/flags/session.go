package flags

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the run and interactive commands.
const (
	AssumeYesFlagName      = "yes"
	AssumeYesFlagShorthand = "y"
	VerboseFlagName        = "verbose"
	VerboseFlagShorthand   = "v"
	InheritFlagName        = "inherit"
	ElevateFlagName        = "sudo"
)

const (
	assumeYesFlagUsage = "Skip confirmation for commands classified as clear"
	verboseFlagUsage   = "Stream captured output as it arrives"
	inheritFlagUsage   = "Connect commands directly to the terminal instead of capturing output"
	elevateFlagUsage   = "Wrap execution with the elevation program (POSIX only)"
)

// SessionDefaults are the values shown for the session flags before configuration applies.
type SessionDefaults struct {
	AssumeYes bool
	Verbose   bool
	Inherit   bool
	Elevate   bool
}

// SessionOverrides holds the session flags the user set explicitly. Nil fields were not
// given on the command line and leave the configured value in place.
type SessionOverrides struct {
	AssumeYes *bool
	Verbose   *bool
	Inherit   *bool
	Elevate   *bool
}

// BindSessionFlags registers the session toggles on the flag set.
func BindSessionFlags(flagSet *pflag.FlagSet, defaults SessionDefaults) {
	AddToggleFlag(flagSet, AssumeYesFlagName, AssumeYesFlagShorthand, defaults.AssumeYes, assumeYesFlagUsage)
	AddToggleFlag(flagSet, VerboseFlagName, VerboseFlagShorthand, defaults.Verbose, verboseFlagUsage)
	AddToggleFlag(flagSet, InheritFlagName, "", defaults.Inherit, inheritFlagUsage)
	AddToggleFlag(flagSet, ElevateFlagName, "", defaults.Elevate, elevateFlagUsage)
}

// ReadSessionOverrides collects the session toggles that were changed on the command line.
func ReadSessionOverrides(flagSet *pflag.FlagSet) SessionOverrides {
	return SessionOverrides{
		AssumeYes: changedToggle(flagSet, AssumeYesFlagName),
		Verbose:   changedToggle(flagSet, VerboseFlagName),
		Inherit:   changedToggle(flagSet, InheritFlagName),
		Elevate:   changedToggle(flagSet, ElevateFlagName),
	}
}

func changedToggle(flagSet *pflag.FlagSet, name string) *bool {
	if flagSet == nil || !flagSet.Changed(name) {
		return nil
	}
	value, lookupError := flagSet.GetBool(name)
	if lookupError != nil {
		return nil
	}
	return &value
}
