//go:build windows

package execshell

import "os/exec"

// isolateProcessGroup keeps the default cancellation, which kills the shell process only.
func isolateProcessGroup(_ *exec.Cmd) {}
