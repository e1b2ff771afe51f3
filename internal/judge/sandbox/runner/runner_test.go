package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesStdout(t *testing.T) {
	t.Parallel()

	r := New()
	out, err := r.Run(context.Background(), Spec{
		Args:    []string{"sh", "-c", "echo hello; echo oops >&2"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "hello\n" {
		t.Errorf("stdout = %q, want %q", out.Stdout, "hello\n")
	}
	if out.Stderr != "oops\n" {
		t.Errorf("stderr = %q, want %q", out.Stderr, "oops\n")
	}
	if out.Duration <= 0 {
		t.Error("duration not measured")
	}
}

func TestRunFeedsStdin(t *testing.T) {
	t.Parallel()

	r := New()
	out, err := r.Run(context.Background(), Spec{
		Args:    []string{"cat"},
		Stdin:   "1 2 3\n",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "1 2 3\n" {
		t.Errorf("stdout = %q", out.Stdout)
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	t.Parallel()

	r := New()
	start := time.Now()
	_, err := r.Run(context.Background(), Spec{
		Args:    []string{"sleep", "30"},
		Timeout: 200 * time.Millisecond,
	})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Run() error = %v, want TimeoutError", err)
	}
	if timeoutErr.Limit != 200*time.Millisecond {
		t.Errorf("Limit = %v", timeoutErr.Limit)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("kill took %v, process was not terminated promptly", elapsed)
	}
}

func TestRunTimeoutKillsChildren(t *testing.T) {
	t.Parallel()

	// The shell forks sleep; the group kill must reach it too, otherwise
	// Wait blocks on the inherited pipe until the grandchild exits.
	r := New()
	start := time.Now()
	_, err := r.Run(context.Background(), Spec{
		Args:    []string{"sh", "-c", "sleep 30 & wait"},
		Timeout: 200 * time.Millisecond,
	})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Run() error = %v, want TimeoutError", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("group kill took %v", elapsed)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	t.Parallel()

	r := New()
	out, err := r.Run(context.Background(), Spec{
		Args:    []string{"sh", "-c", "echo partial; echo broken >&2; exit 3"},
		Timeout: 5 * time.Second,
	})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("exit code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Stderr, "broken") {
		t.Errorf("ExitError.Stderr = %q", exitErr.Stderr)
	}
	if out.Stdout != "partial\n" {
		t.Errorf("partial stdout lost: %q", out.Stdout)
	}
}

func TestRunMissingBinary(t *testing.T) {
	t.Parallel()

	r := New()
	_, err := r.Run(context.Background(), Spec{
		Args:    []string{"/nonexistent/compiler-binary"},
		Timeout: time.Second,
	})

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Run() error = %v, want SpawnError", err)
	}
}

func TestRunEmptyCommand(t *testing.T) {
	t.Parallel()

	r := New()
	_, err := r.Run(context.Background(), Spec{})

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Run() error = %v, want SpawnError", err)
	}
}

func TestRunTruncatesLongOutput(t *testing.T) {
	t.Parallel()

	r := &ProcessRunner{MaxOutputBytes: 16}
	out, err := r.Run(context.Background(), Spec{
		Args:    []string{"sh", "-c", "printf 'aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa'"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasSuffix(out.Stdout, truncationMarker) {
		t.Errorf("stdout missing truncation marker: %q", out.Stdout)
	}
	if !strings.HasPrefix(out.Stdout, strings.Repeat("a", 16)) {
		t.Errorf("stdout prefix = %q", out.Stdout)
	}
	if len(out.Stdout) != 16+len(truncationMarker) {
		t.Errorf("stdout length = %d", len(out.Stdout))
	}
}

func TestRunContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	r := New()
	start := time.Now()
	_, err := r.Run(ctx, Spec{Args: []string{"sleep", "30"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want context deadline", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation kill took %v", elapsed)
	}
}
