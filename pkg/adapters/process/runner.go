// Package process implements ports.Runner by delegating execution to an
// external command, typically a Node script wrapping Playwright or
// Puppeteer. The flow definition is written to the child's stdin as JSON;
// the child answers with a JSON array of step results on stdout.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Runner executes flows through a configured external command.
type Runner struct {
	command string
	args    []string
	baseDir string
	env     map[string]string
}

// Option configures the runner.
type Option func(*Runner)

// WithArgs sets extra arguments passed to the command.
func WithArgs(args ...string) Option {
	return func(r *Runner) {
		r.args = args
	}
}

// WithBaseDir sets the working directory for the executed process.
func WithBaseDir(dir string) Option {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv adds environment variables for the executed process.
func WithEnv(env map[string]string) Option {
	return func(r *Runner) {
		r.env = env
	}
}

// NewRunner creates a process-backed runner for the given command.
func NewRunner(command string, opts ...Option) *Runner {
	r := &Runner{command: command}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements ports.Runner. The child is killed when ctx is canceled;
// whatever it printed before dying is discarded and the error reported.
func (r *Runner) Run(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error) {
	payload, err := json.Marshal(flow)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flow: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Dir = r.baseDir
	cmd.Stdin = bytes.NewReader(payload)

	// Flow identity travels in the environment so wrappers can tag their
	// own logs without parsing the payload.
	env := cmd.Environ()
	env = append(env, "CANOPY_FLOW_ID="+flow.ID)
	for k, v := range r.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("runner process failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	var results []domain.StepResult
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &results); err != nil {
		return nil, fmt.Errorf("runner process produced invalid results: %w", err)
	}
	return results, nil
}
