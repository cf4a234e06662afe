package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fentz26/taskmaster/internal/models"
)

// DefaultHookTimeout bounds one hook run.
const DefaultHookTimeout = 30 * time.Second

// Hook runs a local command for each reminder, e.g. a desktop notifier.
// The reminder is passed in the environment:
//
//	TASKMASTER_TASK_ID, TASKMASTER_TASK_NAME, TASKMASTER_TASK_URL,
//	TASKMASTER_FREQUENCY, TASKMASTER_SUBJECT, TASKMASTER_BODY
//
// The command is run directly, not through a shell.
type Hook struct {
	command []string
	workDir string
	timeout time.Duration
}

// HookResult holds the outcome of one hook run.
type HookResult struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// NewHook creates a hook dispatcher. command[0] is the executable.
func NewHook(command []string, workDir string, timeout time.Duration) (*Hook, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("hook command is required")
	}
	if timeout <= 0 {
		timeout = DefaultHookTimeout
	}
	return &Hook{command: command, workDir: workDir, timeout: timeout}, nil
}

// Dispatch implements Dispatcher. A non-zero exit is an error.
func (h *Hook) Dispatch(ctx context.Context, r models.Reminder) error {
	res, err := h.Run(ctx, r)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("hook %s exited %d: %s", res.Command, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Run executes the hook for r and reports what happened.
func (h *Hook) Run(ctx context.Context, r models.Reminder) (*HookResult, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	msg := Compose(r)
	execCmd := exec.CommandContext(ctx, h.command[0], h.command[1:]...)
	if h.workDir != "" {
		execCmd.Dir = h.workDir
	}
	execCmd.Env = append(os.Environ(),
		"TASKMASTER_TASK_ID="+r.TaskID,
		"TASKMASTER_TASK_NAME="+r.Name,
		"TASKMASTER_TASK_URL="+r.URL,
		"TASKMASTER_FREQUENCY="+string(r.Frequency),
		"TASKMASTER_SUBJECT="+msg.Subject,
		"TASKMASTER_BODY="+msg.Body,
	)

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()

	exitCode := 0
	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			return nil, fmt.Errorf("run hook for %q: %w", r.Name, err)
		}
		exitCode = exitError.ExitCode()
	}

	return &HookResult{
		Command:  h.command[0],
		Args:     h.command[1:],
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
