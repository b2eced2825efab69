package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"

	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

const (
	outputTailSize = 2048

	// DefaultOutputDrainDelay is how long Run keeps reading output after the
	// task exited. Helpers the task left behind (browser drivers) may hold the
	// output pipes open long after that.
	DefaultOutputDrainDelay = 3 * time.Second
)

// RakeRunner runs the task as a local process in the work dir.
type RakeRunner struct {
	workDir    string
	drainDelay time.Duration
}

func NewRakeRunner(workDir string) *RakeRunner {
	return &RakeRunner{workDir: workDir, drainDelay: DefaultOutputDrainDelay}
}

// WithOutputDrainDelay overrides DefaultOutputDrainDelay.
func (r *RakeRunner) WithOutputDrainDelay(d time.Duration) *RakeRunner {
	r.drainDelay = d
	return r
}

func (r *RakeRunner) Run(ctx context.Context, jobID string, inv Invocation) error {
	logger := zap.L().Named("rake").With(zap.String("job", jobID))

	out := &zapio.Writer{Log: logger, Level: zapcore.DebugLevel}
	defer out.Close()
	tail := newTailBuffer(outputTailSize)

	argv := inv.Argv()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.workDir
	cmd.Stdout = io.MultiWriter(out, tail)
	cmd.Stderr = io.MultiWriter(out, tail)
	cmd.WaitDelay = r.drainDelay
	setProcessGroup(cmd)

	logger.Sugar().Infow("starting test task", "command", inv.Redacted(), "dir", r.workDir)

	if err := cmd.Start(); err != nil {
		return srvErrors.NewLaunchError(err)
	}
	pid := cmd.Process.Pid

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if errors.Is(err, exec.ErrWaitDelay) {
			logger.Sugar().Warnw("test task exited but its output stayed open, leftover processes are killed", "pid", pid)
			killProcessGroup(pid)
			return nil
		}
		killProcessGroup(pid)
		return waitError(err, tail.String())
	case <-ctx.Done():
		logger.Sugar().Warnw("terminating test task", "pid", pid, "reason", ctx.Err())
		terminateTree(int32(pid))
		killProcessGroup(pid)
		<-done
		return fmt.Errorf("test task interrupted: %w", ctx.Err())
	}
}

func waitError(err error, output string) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return srvErrors.NewRunFailedError(exitErr.ExitCode(), output)
	}
	return err
}

// terminateTree kills pid and every process it spawned. rake forks the actual
// test processes, so killing rake alone would leave them running.
func terminateTree(pid int32) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return
	}

	if children, err := p.Children(); err == nil {
		for _, c := range children {
			terminateTree(c.Pid)
		}
	}

	if err := p.Kill(); err != nil {
		zap.S().Named("rake").Debugw("failed to kill process", "pid", pid, "error", err)
	}
}
