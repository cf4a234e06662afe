// Package csvfile stores the task collection in a single CSV file with a fixed
// header row. It is the file-based alternative to the SQLite store.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/taskmaster/internal/models"
	"github.com/fentz26/taskmaster/internal/task"
)

// Headers is the exact first row of every task file.
var Headers = []string{
	"Task name", "Task URL", "Recurring?", "Recur start",
	"Recur end", "Days of year", "Days of month", "Days of week",
	"Times of day", "Last date reminded",
}

// LastRemindedLayout is how the last reminder time is written, in local time.
const LastRemindedLayout = "2006-01-02 15:04:05"

// ErrBadHeaders is returned when the first row is not Headers.
var ErrBadHeaders = errors.New("bad headers")

// File is a task collection backed by one CSV file. Rows are identified by
// task name, which must be unique. A missing file is an empty collection.
type File struct {
	path string
	mu   sync.Mutex
}

// New returns a File for path. Nothing is read until it is used.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads and validates every row. Tasks are returned never-reminded first,
// then oldest reminder first; ties keep file order.
func (f *File) Load(_ context.Context, today time.Time) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inputs, err := f.read(today.Location())
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(inputs))
	for _, in := range inputs {
		t, err := task.New(in, today)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := task.CheckUnique(tasks); err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].LastReminded.Before(tasks[j].LastReminded)
	})
	return tasks, nil
}

// Save writes the last-reminded time of each task into the rows currently on
// disk, matched by id. Rows added or deleted since the tasks were loaded stay
// that way. A task that defaulted its day also gets that day stored.
func (f *File) Save(_ context.Context, tasks []*models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	inputs, err := f.read(time.Local)
	if err != nil {
		return err
	}
	for i := range inputs {
		t, ok := byID[inputs[i].ID]
		if !ok {
			continue
		}
		inputs[i].LastReminded = t.LastReminded
		if t.DefaultedDay && inputs[i].DaysOfYear == "" {
			inputs[i].DaysOfYear = t.DaysOfYear.String()
		}
	}
	return f.write(inputs)
}

// Replace overwrites the file with inputs as given, without validation.
func (f *File) Replace(inputs []task.Input) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(inputs)
}

// CreateTask validates in and appends it to the file.
func (f *File) CreateTask(in task.Input, today time.Time) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	in.LastReminded = time.Time{}
	t, err := task.New(in, today)
	if err != nil {
		return nil, err
	}
	t.ID = t.Name

	inputs, err := f.read(today.Location())
	if err != nil {
		return nil, err
	}
	for _, existing := range inputs {
		if existing.Name == t.Name {
			return nil, fmt.Errorf("%w: %s", task.ErrDuplicateName, t.Name)
		}
	}

	if err := f.write(append(inputs, task.ToInput(t))); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTask returns the row whose name is id.
func (f *File) GetTask(id string) (*task.Input, error) {
	inputs, err := f.readLocked()
	if err != nil {
		return nil, err
	}
	for i := range inputs {
		if inputs[i].ID == id {
			return &inputs[i], nil
		}
	}
	return nil, task.ErrNotFound
}

// ListTasks returns every row ordered by name.
func (f *File) ListTasks() ([]task.Input, error) {
	inputs, err := f.readLocked()
	if err != nil {
		return nil, err
	}
	sortByName(inputs)
	return inputs, nil
}

// SearchTasks returns rows whose name contains term, ignoring case, ordered by name.
func (f *File) SearchTasks(term string) ([]task.Input, error) {
	inputs, err := f.readLocked()
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))

	var out []task.Input
	for _, in := range inputs {
		if strings.Contains(strings.ToLower(in.Name), term) {
			out = append(out, in)
		}
	}
	sortByName(out)
	return out, nil
}

// DeleteTask removes the row whose name is id.
func (f *File) DeleteTask(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	inputs, err := f.read(time.Local)
	if err != nil {
		return err
	}
	for i, in := range inputs {
		if in.ID == id {
			return f.write(append(inputs[:i], inputs[i+1:]...))
		}
	}
	return task.ErrNotFound
}

func (f *File) readLocked() ([]task.Input, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(time.Local)
}

// read parses rows without validating schedules. Fields are trimmed and the
// name's inner whitespace collapsed, so the id matches the validated name.
func (f *File) read(loc *time.Location) ([]task.Input, error) {
	fh, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open task file: %w", err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	if !sameRow(header, Headers) {
		return nil, ErrBadHeaders
	}
	r.FieldsPerRecord = len(Headers)

	var out []task.Input
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read task file: %w", err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}

		name := strings.Join(strings.Fields(rec[0]), " ")
		in := task.Input{
			ID:          name,
			Name:        name,
			URL:         rec[1],
			Recurring:   rec[2] != "" && rec[2] != "0",
			ActiveFrom:  rec[3],
			ActiveUntil: rec[4],
			DaysOfYear:  rec[5],
			DaysOfMonth: rec[6],
			DaysOfWeek:  rec[7],
			TimesOfDay:  rec[8],
		}
		if rec[9] != "" {
			last, err := time.ParseInLocation(LastRemindedLayout, rec[9], loc)
			if err != nil {
				return nil, &task.ValidationError{Task: name, Err: fmt.Errorf("bad last date reminded %q", rec[9])}
			}
			in.LastReminded = last
		}
		out = append(out, in)
	}
	return out, nil
}

// write replaces the file through a temp file in the same directory, so a
// failed save leaves the previous contents in place.
func (f *File) write(inputs []task.Input) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create task file directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Headers); err != nil {
		tmp.Close()
		return fmt.Errorf("write headers: %w", err)
	}
	for _, in := range inputs {
		recurring := "0"
		if in.Recurring {
			recurring = "1"
		}
		last := ""
		if !in.LastReminded.IsZero() {
			last = in.LastReminded.Format(LastRemindedLayout)
		}
		rec := []string{
			in.Name, in.URL, recurring, in.ActiveFrom, in.ActiveUntil,
			in.DaysOfYear, in.DaysOfMonth, in.DaysOfWeek, in.TimesOfDay, last,
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write task %s: %w", in.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush task file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace task file: %w", err)
	}
	return nil
}

func sameRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimPrefix(a[i], "\ufeff") != b[i] {
			return false
		}
	}
	return true
}

func sortByName(inputs []task.Input) {
	sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].Name < inputs[j].Name })
}
