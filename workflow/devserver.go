// ABOUTME: Starts the project's dev server detached, after forcibly freeing the target port.
// ABOUTME: Port-kill failures and server start failures surface as distinct error types.

package workflow

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// DevServerInfo describes a started dev server process.
type DevServerInfo struct {
	Host string
	Port int
	PID  int
}

// DevServer frees the configured port and launches the project's start
// command as a detached process group.
type DevServer struct {
	Runner Runner
	Host   string
	Port   int
}

// FreePort kills whatever process currently listens on the configured port.
// No listener is not an error; a listener that survives the kill is.
func (d *DevServer) FreePort(ctx context.Context) error {
	res, err := d.Runner.Run(ctx, fmt.Sprintf("lsof -ti tcp:%d", d.Port), "")
	if err != nil {
		return &PortKillError{Port: d.Port, Message: err.Error()}
	}
	pids := strings.Fields(strings.TrimSpace(res.Stdout))
	if !res.Success || len(pids) == 0 {
		// lsof exits non-zero when nothing listens on the port.
		return nil
	}

	log.Printf("killing process(es) on port %d: %s", d.Port, strings.Join(pids, ", "))
	kill, err := d.Runner.Run(ctx, fmt.Sprintf("kill -9 %s", strings.Join(pids, " ")), "")
	if err != nil {
		return &PortKillError{Port: d.Port, Message: err.Error()}
	}
	if !kill.Success {
		return &PortKillError{Port: d.Port, Message: kill.Stderr}
	}
	return nil
}

// Start launches the start command in dir with HOST and PORT in the
// environment. The process runs in its own group and is not waited on; the
// pipeline finishes while the server keeps serving.
func (d *DevServer) Start(dir, startCommand string) (DevServerInfo, error) {
	if startCommand == "" {
		return DevServerInfo{}, &DevServerError{Message: "no start command available for this project"}
	}

	cmd := exec.Command("sh", "-c", startCommand)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"HOST="+d.Host,
		"PORT="+strconv.Itoa(d.Port),
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return DevServerInfo{}, &DevServerError{Message: fmt.Sprintf("start %q", startCommand), Cause: err}
	}

	info := DevServerInfo{Host: d.Host, Port: d.Port, PID: cmd.Process.Pid}
	log.Printf("dev server started on %s:%d (pid %d)", info.Host, info.Port, info.PID)

	// Reap the child when it eventually exits so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()

	return info, nil
}
