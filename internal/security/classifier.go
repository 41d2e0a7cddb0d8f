package security

import (
	"strings"
)

const (
	verdictKindClearStringConstant              = "clear"
	verdictKindDangerousStringConstant          = "dangerous"
	verdictKindElevatedPrivilegesStringConstant = "elevated_privileges"
	verdictKindUnknownStringConstant            = "unknown"
)

// VerdictKind enumerates the risk classifications a command string can receive.
type VerdictKind int

// Supported verdict kinds.
const (
	VerdictClear VerdictKind = iota
	VerdictDangerous
	VerdictElevatedPrivileges
)

// String returns the stable identifier of the verdict kind.
func (kind VerdictKind) String() string {
	switch kind {
	case VerdictClear:
		return verdictKindClearStringConstant
	case VerdictDangerous:
		return verdictKindDangerousStringConstant
	case VerdictElevatedPrivileges:
		return verdictKindElevatedPrivilegesStringConstant
	default:
		return verdictKindUnknownStringConstant
	}
}

// Verdict is the advisory risk classification of a command string. Reason
// names the fragment or token that triggered a non-clear verdict.
type Verdict struct {
	Kind   VerdictKind
	Reason string
}

// IsClear reports whether the verdict carries no risk signal.
func (verdict Verdict) IsClear() bool {
	return verdict.Kind == VerdictClear
}

// ClearVerdict constructs the verdict for commands without risk signals.
func ClearVerdict() Verdict {
	return Verdict{Kind: VerdictClear}
}

// DangerousVerdict constructs a verdict for a matched destructive fragment.
func DangerousVerdict(reason string) Verdict {
	return Verdict{Kind: VerdictDangerous, Reason: reason}
}

// ElevatedPrivilegesVerdict constructs a verdict for a matched privilege-elevation token.
func ElevatedPrivilegesVerdict(reason string) Verdict {
	return Verdict{Kind: VerdictElevatedPrivileges, Reason: reason}
}

var defaultDangerousFragments = []string{
	"rm -rf",
	"mkfs",
	"dd",
	"chmod",
	"> /dev",
	"mv /",
	"cp /",
	"shutdown",
	"reboot",
	"kill -9",
	"exec",
	":(){:|:&};:",
	"format",
	"fdisk",
	"> /etc",
	"chown root",
	"rm -fr",
	":(){ :|:& };:",
	"poweroff",
	"halt",
}

var defaultElevationTokens = []string{
	"sudo",
	"doas",
}

// DefaultDangerousFragments returns a copy of the built-in destructive fragment denylist.
func DefaultDangerousFragments() []string {
	return append([]string{}, defaultDangerousFragments...)
}

// DefaultElevationTokens returns a copy of the built-in privilege-elevation tokens.
func DefaultElevationTokens() []string {
	return append([]string{}, defaultElevationTokens...)
}

// Classifier applies substring matching against a fixed denylist and elevation tokens.
// Matching is case-insensitive. Destructive fragments take precedence over elevation tokens.
type Classifier struct {
	dangerousFragments []string
	elevationTokens    []string
}

// NewClassifier builds a classifier from the built-in lists extended with the provided entries.
// Blank entries are ignored.
func NewClassifier(additionalDangerousFragments []string, additionalElevationTokens []string) *Classifier {
	return &Classifier{
		dangerousFragments: normalizeFragments(append(DefaultDangerousFragments(), additionalDangerousFragments...)),
		elevationTokens:    normalizeFragments(append(DefaultElevationTokens(), additionalElevationTokens...)),
	}
}

// Classify returns the verdict for the command string. It has no side effects.
func (classifier *Classifier) Classify(command string) Verdict {
	normalizedCommand := strings.ToLower(command)

	for _, fragment := range classifier.dangerousFragments {
		if strings.Contains(normalizedCommand, fragment) {
			return DangerousVerdict(fragment)
		}
	}

	for _, token := range classifier.elevationTokens {
		if strings.Contains(normalizedCommand, token) {
			return ElevatedPrivilegesVerdict(token)
		}
	}

	return ClearVerdict()
}

var defaultClassifier = NewClassifier(nil, nil)

// Classify evaluates the command string against the built-in lists.
func Classify(command string) Verdict {
	return defaultClassifier.Classify(command)
}

func normalizeFragments(fragments []string) []string {
	normalized := make([]string, 0, len(fragments))
	seen := make(map[string]struct{}, len(fragments))
	for _, fragment := range fragments {
		if len(strings.TrimSpace(fragment)) == 0 {
			continue
		}
		lowered := strings.ToLower(fragment)
		if _, duplicate := seen[lowered]; duplicate {
			continue
		}
		seen[lowered] = struct{}{}
		normalized = append(normalized, lowered)
	}
	return normalized
}
