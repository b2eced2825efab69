//go:build unix

package runner

import (
	"errors"
	"os/exec"
	"syscall"

	"go.uber.org/zap"
)

// setProcessGroup starts the task as the leader of a new process group so
// processes it detaches can still be found through the group.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup kills every process left in the group led by pid.
func killProcessGroup(pid int) {
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		zap.S().Named("rake").Debugw("failed to kill process group", "pgid", pid, "error", err)
	}
}
