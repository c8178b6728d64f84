//go:build windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configurePlatform suppresses the console window Windows would otherwise pop up for a spawned
// console subprocess.
func configurePlatform(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
