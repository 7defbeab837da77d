// Package executor runs confirmed commands through the mongosh binary.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "mongosh"

// MongoshExecutor evaluates commands with `mongosh --quiet --eval`.
type MongoshExecutor struct {
	binary string
	uri    string
	stdout io.Writer
	stderr io.Writer
}

// NewMongoshExecutor builds an executor for the deployment at uri. Output of
// the child process goes to stdout and stderr.
func NewMongoshExecutor(binary, uri string, stdout, stderr io.Writer) *MongoshExecutor {
	if binary == "" {
		binary = DefaultBinary
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &MongoshExecutor{binary: binary, uri: uri, stdout: stdout, stderr: stderr}
}

// Binary returns the configured mongosh binary.
func (e *MongoshExecutor) Binary() string {
	return e.binary
}

// Available reports whether the binary can be found.
func (e *MongoshExecutor) Available() error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return fmt.Errorf("%s not found: %w", e.binary, err)
	}
	return nil
}

// Execute implements ports.CommandExecutor.
func (e *MongoshExecutor) Execute(ctx context.Context, database string, command string) (domain.ExecutionResult, error) {
	target, err := ConnectionTarget(e.uri, database)
	if err != nil {
		return domain.ExecutionResult{}, err
	}

	c := exec.CommandContext(ctx, e.binary, target, "--quiet", "--eval", command)
	c.Stdout = e.stdout
	c.Stderr = e.stderr

	start := time.Now()
	err = c.Run()
	result := domain.ExecutionResult{DurationMS: time.Since(start).Milliseconds()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, fmt.Errorf("mongosh exited with code %d: %w", result.ExitCode, err)
	}
	if err != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("run mongosh: %w", err)
	}
	return result, nil
}

// ConnectionTarget points uri at database, keeping its query options.
func ConnectionTarget(uri, database string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid connection string: %w", err)
	}
	if database != "" {
		u.Path = "/" + database
	}
	return u.String(), nil
}

var _ ports.CommandExecutor = (*MongoshExecutor)(nil)
