package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/testcentral/outpost/pkg/errors"
	"github.com/testcentral/outpost/pkg/runner"
)

func writeScript(dir, body string) string {
	path := filepath.Join(dir, "fake-rake")
	Expect(os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)).To(Succeed())
	return path
}

// readPid waits for the pid file a task script writes and returns its content.
func readPid(path string) int32 {
	var pid int
	Eventually(func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
		return err
	}, 5*time.Second, 50*time.Millisecond).Should(Succeed())
	return int32(pid)
}

// alive reports whether pid is running. Killed but unreaped processes count as gone.
func alive(pid int32) bool {
	p, err := process.NewProcess(pid)
	if err != nil {
		return false
	}
	status, err := p.Status()
	if err != nil {
		return false
	}
	for _, s := range status {
		if s == process.Zombie {
			return false
		}
	}
	return true
}

var _ = Describe("RakeRunner", func() {
	var (
		workDir string
		r       *runner.RakeRunner
	)

	BeforeEach(func() {
		workDir = GinkgoT().TempDir()
		r = runner.NewRakeRunner(workDir)
	})

	// Given a task that exits successfully
	// When we run it
	// Then it should receive the task argument verbatim in the work dir
	It("should run the task in the work dir", func() {
		// Arrange
		bin := writeScript(workDir, `printf '%s' "$1" > args.txt`)
		inv := runner.Invocation{Bin: bin, Task: "lf_ws", Params: []string{"a+b", "x,y"}}

		// Act
		err := r.Run(context.Background(), "job-1", inv)

		// Assert
		Expect(err).NotTo(HaveOccurred())
		data, err := os.ReadFile(filepath.Join(workDir, "args.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`lf_ws[a+b,x\,y]`))
	})

	It("should report a non-zero exit as a failed run", func() {
		bin := writeScript(workDir, "echo 'expected login button'; exit 3")

		err := r.Run(context.Background(), "job-1", runner.Invocation{Bin: bin, Task: "lf_ws"})

		Expect(srvErrors.IsRunFailedError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("exit code 3"))
		Expect(err.Error()).To(ContainSubstring("expected login button"))
	})

	It("should report a missing binary as a launch error", func() {
		inv := runner.Invocation{Bin: filepath.Join(workDir, "does-not-exist"), Task: "lf_ws"}

		err := r.Run(context.Background(), "job-1", inv)

		Expect(srvErrors.IsLaunchError(err)).To(BeTrue())
	})

	// Given a task that never ends
	// When the context is cancelled
	// Then the task should be killed and Run should return the context error
	It("should kill the task when the context ends", func() {
		// Arrange
		bin := writeScript(workDir, "sleep 30")
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		// Act
		start := time.Now()
		err := r.Run(ctx, "job-1", runner.Invocation{Bin: bin, Task: "lf_ws"})

		// Assert
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(time.Since(start)).To(BeNumerically("<", 10*time.Second))
	})

	Context("leftover processes", func() {
		BeforeEach(func() {
			r = r.WithOutputDrainDelay(500 * time.Millisecond)
		})

		// Given a task that detaches a helper still holding its output
		// When the task itself exits successfully
		// Then Run should return soon after, without waiting for the helper
		It("should not wait for a detached helper after the task exits", func() {
			// Arrange
			bin := writeScript(workDir, "( sleep 30 & echo $! > helper.pid ) ; echo done; exit 0")

			// Act
			start := time.Now()
			err := r.Run(context.Background(), "job-1", runner.Invocation{Bin: bin, Task: "lf_ws"})

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
			helper := readPid(filepath.Join(workDir, "helper.pid"))
			Eventually(func() bool { return alive(helper) }, 5*time.Second, 50*time.Millisecond).Should(BeFalse())
		})

		It("should still report the exit code when a helper is left behind", func() {
			bin := writeScript(workDir, "( sleep 30 & ) ; echo 'login failed'; exit 2")

			start := time.Now()
			err := r.Run(context.Background(), "job-1", runner.Invocation{Bin: bin, Task: "lf_ws"})

			Expect(srvErrors.IsRunFailedError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("exit code 2"))
			Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
		})

		// Given a long task that detached a helper
		// When the run times out
		// Then the task and the helper should both be killed and Run should return promptly
		It("should kill detached helpers when the context ends", func() {
			// Arrange
			bin := writeScript(workDir, "( sleep 30 & echo $! > helper.pid ) ; sleep 30")
			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()

			// Act
			start := time.Now()
			err := r.Run(ctx, "job-1", runner.Invocation{Bin: bin, Task: "lf_ws"})

			// Assert
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(time.Since(start)).To(BeNumerically("<", 3*time.Second))
			helper := readPid(filepath.Join(workDir, "helper.pid"))
			Eventually(func() bool { return alive(helper) }, 5*time.Second, 50*time.Millisecond).Should(BeFalse())
		})
	})
})
