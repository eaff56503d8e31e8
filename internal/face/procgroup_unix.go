//go:build unix

package face

import (
	"os/exec"
	"syscall"
)

// killProcessGroup: エンコーダを別プロセスグループで起動し、打ち切り時はグループごと落とす
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
