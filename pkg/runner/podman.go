package runner

import (
	"context"
	"fmt"

	"github.com/containers/podman/v5/pkg/bindings"
	"github.com/containers/podman/v5/pkg/bindings/containers"
	"github.com/containers/podman/v5/pkg/specgen"
	"github.com/google/uuid"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"go.uber.org/zap"

	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

const containerWorkDir = "/workspace"

// PodmanRunner runs the task inside a container with the work dir bind
// mounted, so the test toolchain does not need to be installed on the host.
type PodmanRunner struct {
	conn    context.Context
	image   string
	workDir string
}

func NewPodmanRunner(socket, image, workDir string) (*PodmanRunner, error) {
	conn, err := bindings.NewConnection(context.Background(), socket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to podman: %w", err)
	}
	return &PodmanRunner{conn: conn, image: image, workDir: workDir}, nil
}

func (p *PodmanRunner) Run(ctx context.Context, jobID string, inv Invocation) error {
	logger := zap.S().Named("podman").With("job", jobID)

	s := specgen.NewSpecGenerator(p.image, false)
	s.Name = fmt.Sprintf("outpost-%s", uuid.NewString()[:8])
	s.Command = inv.Argv()
	s.WorkDir = containerWorkDir
	s.Mounts = []specs.Mount{
		{
			Type:        "bind",
			Source:      p.workDir,
			Destination: containerWorkDir,
			Options:     []string{"rbind", "rw"},
		},
	}

	createResponse, err := containers.CreateWithSpec(p.conn, s, nil)
	if err != nil {
		return srvErrors.NewLaunchError(fmt.Errorf("failed to create container: %w", err))
	}
	id := createResponse.ID

	defer func() {
		if _, err := containers.Remove(p.conn, id, nil); err != nil {
			logger.Warnw("failed to remove container", "id", id, "error", err)
		}
	}()

	logger.Infow("starting test task", "container", s.Name, "image", p.image, "command", inv.Redacted())

	if err := containers.Start(p.conn, id, nil); err != nil {
		return srvErrors.NewLaunchError(fmt.Errorf("failed to start container: %w", err))
	}

	type waitResult struct {
		code int32
		err  error
	}
	done := make(chan waitResult, 1)
	go func() {
		code, err := containers.Wait(p.conn, id, nil)
		done <- waitResult{code, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("failed to wait for container: %w", r.err)
		}
		if r.code != 0 {
			return srvErrors.NewRunFailedError(int(r.code), "")
		}
		return nil
	case <-ctx.Done():
		logger.Warnw("stopping test container", "id", id, "reason", ctx.Err())
		if err := containers.Stop(p.conn, id, nil); err != nil {
			logger.Errorw("failed to stop container", "id", id, "error", err)
		}
		<-done
		return fmt.Errorf("test task interrupted: %w", ctx.Err())
	}
}
