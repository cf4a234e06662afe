package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/taskmaster/internal/controlplane"
	"github.com/fentz26/taskmaster/internal/csvfile"
	"github.com/fentz26/taskmaster/internal/task"
)

func TestReadImport_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	body := `tasks:
  - name: Standup
    recurring: true
    days_of_week: 1-5
    times_of_day: "09:45"
  - name: Dentist
    days_of_year: "2030-04-02"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	inputs, err := readImport(path, "")
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "Standup", inputs[0].Name)
	assert.True(t, inputs[0].Recurring)
	assert.Equal(t, "1-5", inputs[0].DaysOfWeek)
	assert.Equal(t, "09:45", inputs[0].TimesOfDay)
	assert.Equal(t, "2030-04-02", inputs[1].DaysOfYear)
}

func TestReadImport_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, csvfile.New(path).Replace([]task.Input{
		{Name: "Water plants", Recurring: true, DaysOfWeek: "6"},
	}))

	inputs, err := readImport(path, "")
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Water plants", inputs[0].Name)

	_, err = readImport(filepath.Join(t.TempDir(), "absent.csv"), "")
	assert.Error(t, err, "a missing import file is an error, not an empty catalog")
}

func TestReadImport_UnknownFormat(t *testing.T) {
	_, err := readImport("tasks.json", "")
	assert.Error(t, err)
}

func TestPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTasks(&buf, nil))
	assert.Equal(t, "No tasks found\n", buf.String())

	buf.Reset()
	last := time.Date(2030, 3, 14, 9, 45, 0, 0, time.Local)
	views := []controlplane.TaskView{
		{Input: task.Input{ID: "a1", Name: "Standup", LastReminded: last}, Schedule: "Every Mon-Fri at 09:45"},
		{Input: task.Input{ID: "b2", Name: "Broken"}, Invalid: "task Broken: bad"},
	}
	require.NoError(t, printTasks(&buf, views))

	out := buf.String()
	assert.Contains(t, out, "Every Mon-Fri at 09:45")
	assert.Contains(t, out, "2030-03-14 09:45:00")
	assert.Contains(t, out, "INVALID: task Broken: bad")
	assert.Contains(t, out, "never")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
