//go:build e2e

// cli_harness_test.go provides a test harness for E2E testing of the taskboard
// CLI. The CLIHarness builds the binary once per test and runs commands in an
// isolated board directory.
package integration

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thruflo/taskboard/internal/testutil"
)

// CLIHarness manages a taskboard binary for E2E testing.
type CLIHarness struct {
	// BinaryPath is the path to the built taskboard binary.
	BinaryPath string

	// WorkDir is the working directory where commands will be executed.
	// Boards are stored under its .taskboard directory.
	WorkDir string

	// EnvVars contains environment variables to set for command execution.
	// These are merged with the test's default environment.
	EnvVars map[string]string

	t *testing.T
}

// CLIResult contains the output from a CLI command execution.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success returns true if the command completed with exit code 0.
func (r *CLIResult) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// NewCLIHarness builds the taskboard binary into a temporary directory and
// creates an empty workspace next to it.
func NewCLIHarness(t *testing.T) *CLIHarness {
	t.Helper()

	// Find project root
	projectRoot := testutil.FindProjectRoot(t)
	require.NotEmpty(t, projectRoot, "could not find project root (directory containing go.mod)")

	// Build binary to temp directory
	tmpDir := t.TempDir()
	binaryPath := filepath.Join(tmpDir, "taskboard")

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/taskboard")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build taskboard binary: %s", output)

	workDir := filepath.Join(tmpDir, "workspace")
	require.NoError(t, os.MkdirAll(workDir, 0755))

	h := &CLIHarness{
		BinaryPath: binaryPath,
		WorkDir:    workDir,
		EnvVars:    make(map[string]string),
		t:          t,
	}

	return h
}

// SetEnv sets an environment variable for subsequent command executions.
func (h *CLIHarness) SetEnv(key, value string) {
	h.EnvVars[key] = value
}

// SetEnvMap sets multiple environment variables for subsequent command executions.
func (h *CLIHarness) SetEnvMap(env map[string]string) {
	for k, v := range env {
		h.EnvVars[k] = v
	}
}

// ClearEnv removes all custom environment variables.
func (h *CLIHarness) ClearEnv() {
	h.EnvVars = make(map[string]string)
}

// Run executes a taskboard command with default timeout (30 seconds).
// Returns stdout, stderr, and error.
func (h *CLIHarness) Run(args ...string) *CLIResult {
	return h.RunWithTimeout(30*time.Second, args...)
}

// RunWithTimeout executes a taskboard command with the specified timeout.
// The command is executed in the workspace directory with the configured
// environment variables.
func (h *CLIHarness) RunWithTimeout(timeout time.Duration, args ...string) *CLIResult {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return h.RunWithContext(ctx, args...)
}

// RunWithContext executes a taskboard command with the given context.
// This provides full control over cancellation and deadlines.
func (h *CLIHarness) RunWithContext(ctx context.Context, args ...string) *CLIResult {
	h.t.Helper()

	cmd := exec.CommandContext(ctx, h.BinaryPath, args...)
	cmd.Dir = h.WorkDir

	// Set up environment
	cmd.Env = h.buildEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CLIResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		result.Err = err
		// Try to get exit code
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}

	return result
}

// buildEnv creates the environment variable slice for command execution.
// It includes the current process environment, removes potentially interfering
// variables, and adds the configured custom variables.
func (h *CLIHarness) buildEnv() []string {
	// Start with a filtered set of the current environment
	env := []string{}
	for _, e := range os.Environ() {
		// Skip variables that might interfere with tests
		if shouldIncludeEnvVar(e) {
			env = append(env, e)
		}
	}

	// Add custom environment variables
	for k, v := range h.EnvVars {
		env = append(env, k+"="+v)
	}

	return env
}

// shouldIncludeEnvVar returns true if the environment variable should be
// passed through to the test command. The developer's own TASKBOARD_*
// settings would redirect storage away from the workspace.
func shouldIncludeEnvVar(envVar string) bool {
	return !strings.HasPrefix(envVar, "TASKBOARD_")
}

// RequireSuccess fails the test if the command result indicates failure.
func (h *CLIHarness) RequireSuccess(result *CLIResult, msgAndArgs ...any) {
	h.t.Helper()
	if !result.Success() {
		msg := "command failed"
		if len(msgAndArgs) > 0 {
			if s, ok := msgAndArgs[0].(string); ok {
				msg = s
			}
		}
		h.t.Fatalf("%s: exit=%d err=%v\nstdout: %s\nstderr: %s",
			msg, result.ExitCode, result.Err, result.Stdout, result.Stderr)
	}
}

// RequireFailure fails the test if the command result indicates success.
func (h *CLIHarness) RequireFailure(result *CLIResult, msgAndArgs ...any) {
	h.t.Helper()
	if result.Success() {
		msg := "expected command to fail"
		if len(msgAndArgs) > 0 {
			if s, ok := msgAndArgs[0].(string); ok {
				msg = s
			}
		}
		h.t.Fatalf("%s: command succeeded unexpectedly\nstdout: %s\nstderr: %s",
			msg, result.Stdout, result.Stderr)
	}
}

// Serve starts `taskboard serve` on a free local port and waits until the
// board answers. The process is interrupted when the test completes.
// Returns the base URL.
func (h *CLIHarness) Serve(args ...string) string {
	h.t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(h.t, err)
	addr := l.Addr().String()
	require.NoError(h.t, l.Close())

	cmd := exec.Command(h.BinaryPath, append([]string{"serve", "--addr", addr}, args...)...)
	cmd.Dir = h.WorkDir
	cmd.Env = h.buildEnv()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	require.NoError(h.t, cmd.Start())

	h.t.Cleanup(func() {
		_ = cmd.Process.Signal(os.Interrupt)
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			_ = cmd.Process.Kill()
			<-done
		}
	})

	url := "http://" + addr
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/api/board")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return url
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	h.t.Fatalf("server at %s did not come up\nstderr: %s", url, stderr.String())
	return ""
}
