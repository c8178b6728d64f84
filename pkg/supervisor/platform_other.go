//go:build !windows

package supervisor

import "os/exec"

// configurePlatform is a no-op on platforms without a console-window concept.
func configurePlatform(cmd *exec.Cmd) {}
