// Package runner executes untrusted commands as child processes with a
// wall-clock deadline and bounded output capture.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// defaultMaxOutputBytes caps captured stdout and stderr independently.
	defaultMaxOutputBytes = 64 * 1024

	truncationMarker = "\n...[output truncated]"
)

// Spec describes one command execution.
type Spec struct {
	// Args is the argv to execute; Args[0] is the binary.
	Args []string
	// Dir is the working directory for the process.
	Dir string
	// Stdin is fed to the process verbatim.
	Stdin string
	// Timeout is the wall-clock limit. Zero means no limit.
	Timeout time.Duration
	// Env overrides the environment when non-nil.
	Env []string
}

// Output is the captured result of one execution. It is populated even when
// Run returns an error, so callers can surface partial output.
type Output struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// TimeoutError reports that the wall-clock limit elapsed and the process
// group was killed.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("process killed after exceeding %s wall-clock limit", e.Limit)
}

// ExitError reports a process that ran to completion with a non-zero exit
// code (or died from a signal, in which case Code is negative).
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

// SpawnError reports that the process could not be started at all, for
// example a missing interpreter or compiler binary.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start process: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Runner executes commands. The judge engine depends on this interface so
// tests can substitute scripted fakes.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Output, error)
}

// ProcessRunner runs commands as real child processes.
type ProcessRunner struct {
	// MaxOutputBytes caps each of stdout and stderr. Zero means the default.
	MaxOutputBytes int
}

// New creates a process runner with default limits.
func New() *ProcessRunner {
	return &ProcessRunner{MaxOutputBytes: defaultMaxOutputBytes}
}

// Run executes spec and waits for completion, the deadline, or context
// cancellation, whichever comes first. The child gets its own process group
// so the kill reaches any grandchildren it forked.
func (r *ProcessRunner) Run(ctx context.Context, spec Spec) (Output, error) {
	if len(spec.Args) == 0 {
		return Output{}, &SpawnError{Err: errors.New("empty command")}
	}

	maxBytes := r.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxOutputBytes
	}

	cmd := exec.Command(spec.Args[0], spec.Args[1:]...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}
	stdout := newCappedBuffer(maxBytes)
	stderr := newCappedBuffer(maxBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Output{Duration: time.Since(start)}, &SpawnError{Err: err}
	}

	var timedOut atomic.Bool
	var timer *time.Timer
	if spec.Timeout > 0 {
		timer = time.AfterFunc(spec.Timeout, func() {
			timedOut.Store(true)
			killGroup(cmd.Process.Pid)
		})
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		killGroup(cmd.Process.Pid)
		<-waitCh
		if timer != nil {
			timer.Stop()
		}
		out := Output{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}
		return out, ctx.Err()
	}
	if timer != nil {
		timer.Stop()
	}

	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if timedOut.Load() {
		return out, &TimeoutError{Limit: spec.Timeout}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return out, &ExitError{Code: exitErr.ExitCode(), Stderr: out.Stderr}
		}
		return out, &SpawnError{Err: waitErr}
	}
	return out, nil
}

// killGroup kills the whole process group. The negative pid addresses the
// group created by Setpgid.
func killGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// cappedBuffer keeps at most max bytes and discards the rest, recording that
// truncation happened.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.max - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + truncationMarker
	}
	return b.buf.String()
}
