//go:build !unix

package face

import "os/exec"

// unix 以外は WaitDelay だけで打ち切る
func killProcessGroup(cmd *exec.Cmd) {}
