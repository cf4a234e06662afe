package notify

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fentz26/taskmaster/internal/models"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hook tests use /bin/sh")
	}
}

func TestNewHook_RequiresCommand(t *testing.T) {
	if _, err := NewHook(nil, "", 0); err == nil {
		t.Error("Expected error for empty command")
	}
	if _, err := NewHook([]string{"  "}, "", 0); err == nil {
		t.Error("Expected error for blank executable")
	}
}

func TestHookDispatch_PassesReminderInEnv(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()

	h, err := NewHook([]string{"/bin/sh", "-c", `printf '%s|%s|%s' "$TASKMASTER_SUBJECT" "$TASKMASTER_FREQUENCY" "$TASKMASTER_TASK_URL" > out.txt`}, dir, 0)
	if err != nil {
		t.Fatalf("NewHook failed: %v", err)
	}

	r := models.Reminder{TaskID: "t1", Name: "Standup", URL: "https://meet.example/s", Frequency: models.FrequencyWeekdays, FiredAt: firedAt}
	if err := h.Dispatch(context.Background(), r); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatalf("Hook did not write output: %v", err)
	}
	want := "Weekday Reminder: Standup|weekdays|https://meet.example/s"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
}

func TestHookDispatch_NonZeroExit(t *testing.T) {
	requireShell(t)

	h, _ := NewHook([]string{"/bin/sh", "-c", "echo no display >&2; exit 3"}, "", 0)

	res, err := h.Run(context.Background(), models.Reminder{Name: "Stretch"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", res.ExitCode)
	}

	err = h.Dispatch(context.Background(), models.Reminder{Name: "Stretch"})
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("Expected exit error carrying stderr, got %v", err)
	}
}

func TestHookDispatch_MissingExecutable(t *testing.T) {
	h, _ := NewHook([]string{filepath.Join(t.TempDir(), "no-such-notifier")}, "", 0)

	if err := h.Dispatch(context.Background(), models.Reminder{Name: "Stretch"}); err == nil {
		t.Error("Expected error for missing executable")
	}
}
