// Package store provides SQLite-backed persistence for TaskMaster.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fentz26/taskmaster/internal/models"
	"github.com/fentz26/taskmaster/internal/task"
)

// Catalog errors are shared with the CSV backend.
var (
	ErrTaskNotFound  = task.ErrNotFound
	ErrDuplicateName = task.ErrDuplicateName
)

// Store provides access to the TaskMaster SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recurring_tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL DEFAULT '',
		recurring INTEGER NOT NULL DEFAULT 0,
		active_from TEXT,
		active_until TEXT,
		days_of_year TEXT,
		days_of_month TEXT,
		days_of_week TEXT,
		times_of_day TEXT,
		last_reminded_at INTEGER,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		title TEXT NOT NULL,
		details TEXT,
		due_date TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (group_id) REFERENCES task_groups(id)
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		tasks INTEGER NOT NULL,
		fired INTEGER NOT NULL,
		changed INTEGER NOT NULL,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS pdr (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		task_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recurring_tasks_last_reminded ON recurring_tasks(last_reminded_at);
	CREATE INDEX IF NOT EXISTS idx_reminders_group_id ON reminders(group_id);
	CREATE INDEX IF NOT EXISTS idx_pdr_task_id ON pdr(task_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Task Operations ---

const taskColumns = `id, name, url, recurring, active_from, active_until, days_of_year, days_of_month, days_of_week, times_of_day, last_reminded_at, created_at`

// CreateTask validates in against today and inserts it. The stored fields are
// the normalized ones, including the date a times-only task defaulted to.
func (s *Store) CreateTask(in task.Input, today time.Time) (*models.Task, error) {
	in.ID = uuid.New().String()
	in.CreatedAt = time.Now().UTC()
	in.LastReminded = time.Time{}

	t, err := task.New(in, today)
	if err != nil {
		return nil, err
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM recurring_tasks WHERE name = ?`, t.Name).Scan(&n); err != nil {
		return nil, fmt.Errorf("check task name: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, t.Name)
	}

	row := task.ToInput(t)
	_, err = s.db.Exec(
		`INSERT INTO recurring_tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		row.ID, row.Name, row.URL, row.Recurring,
		nullString(row.ActiveFrom), nullString(row.ActiveUntil),
		nullString(row.DaysOfYear), nullString(row.DaysOfMonth), nullString(row.DaysOfWeek), nullString(row.TimesOfDay),
		row.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// GetTask retrieves a stored task by ID without validating it.
func (s *Store) GetTask(id string) (*task.Input, error) {
	rows, err := s.db.Query(`SELECT `+taskColumns+` FROM recurring_tasks WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	defer rows.Close()

	inputs, err := scanTasks(rows, time.Local)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrTaskNotFound
	}
	return &inputs[0], nil
}

// ListTasks returns every stored task ordered by name. Rows are returned as
// stored so a broken one can still be shown and deleted.
func (s *Store) ListTasks() ([]task.Input, error) {
	rows, err := s.db.Query(`SELECT ` + taskColumns + ` FROM recurring_tasks ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows, time.Local)
}

// SearchTasks returns tasks whose name contains term, ignoring ASCII case,
// ordered by name.
func (s *Store) SearchTasks(term string) ([]task.Input, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(term)) + "%"
	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM recurring_tasks WHERE name LIKE ? ESCAPE '\' ORDER BY name ASC`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows, time.Local)
}

// DeleteTask removes a task by ID.
func (s *Store) DeleteTask(id string) error {
	res, err := s.db.Exec(`DELETE FROM recurring_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Load returns the validated task collection for a pass, never-reminded tasks
// first, then oldest reminder first, ties broken by id. One invalid row fails
// the whole load.
func (s *Store) Load(ctx context.Context, today time.Time) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM recurring_tasks ORDER BY last_reminded_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	inputs, err := scanTasks(rows, today.Location())
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(inputs))
	for _, in := range inputs {
		t, err := task.New(in, today)
		if err != nil {
			return nil, fmt.Errorf("load task %s: %w", in.ID, err)
		}
		tasks = append(tasks, t)
	}
	if err := task.CheckUnique(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save writes back the last-reminded time of every task in one transaction.
// The only schedule field touched is an empty days of year on a task that
// defaulted it, so the default is fixed from then on.
func (s *Store) Save(ctx context.Context, tasks []*models.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE recurring_tasks SET last_reminded_at = ?, days_of_year = COALESCE(days_of_year, ?) WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		if t.ID == "" {
			continue
		}
		var last sql.NullInt64
		if !t.LastReminded.IsZero() {
			last = sql.NullInt64{Int64: t.LastReminded.Unix(), Valid: true}
		}
		var defaulted sql.NullString
		if t.DefaultedDay {
			defaulted = nullString(t.DaysOfYear.String())
		}
		if _, err := stmt.ExecContext(ctx, last, defaulted, t.ID); err != nil {
			return fmt.Errorf("update task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func scanTasks(rows *sql.Rows, loc *time.Location) ([]task.Input, error) {
	var out []task.Input
	for rows.Next() {
		var (
			in                              task.Input
			from, until, doy, dom, dow, tod sql.NullString
			last                            sql.NullInt64
		)
		if err := rows.Scan(&in.ID, &in.Name, &in.URL, &in.Recurring, &from, &until,
			&doy, &dom, &dow, &tod, &last, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		in.ActiveFrom = from.String
		in.ActiveUntil = until.String
		in.DaysOfYear = doy.String
		in.DaysOfMonth = dom.String
		in.DaysOfWeek = dow.String
		in.TimesOfDay = tod.String
		if last.Valid {
			in.LastReminded = time.Unix(last.Int64, 0).In(loc)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// --- Inbox Operations ---

// EnsureGroup returns the id of the named group, creating it if needed.
func (s *Store) EnsureGroup(name string) (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM task_groups WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("query group: %w", err)
	}

	id = uuid.New().String()
	if _, err := s.db.Exec(
		`INSERT INTO task_groups (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("insert group: %w", err)
	}
	return id, nil
}

// AddReminder stores a fired reminder as an inbox item in group.
func (s *Store) AddReminder(group, title, details, dueDate string) (*models.InboxItem, error) {
	groupID, err := s.EnsureGroup(group)
	if err != nil {
		return nil, err
	}

	item := &models.InboxItem{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		Group:     group,
		Title:     title,
		Details:   details,
		DueDate:   dueDate,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.Exec(
		`INSERT INTO reminders (id, group_id, title, details, due_date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.GroupID, item.Title, item.Details, item.DueDate, item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return item, nil
}

// ListReminders returns inbox items, newest first. An empty group lists all groups.
func (s *Store) ListReminders(group string, limit int) ([]models.InboxItem, error) {
	query := `SELECT r.id, r.group_id, g.name, r.title, r.details, r.due_date, r.created_at
		FROM reminders r JOIN task_groups g ON g.id = r.group_id`
	var args []interface{}
	if group != "" {
		query += ` WHERE g.name = ?`
		args = append(args, group)
	}
	query += ` ORDER BY r.created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var items []models.InboxItem
	for rows.Next() {
		var item models.InboxItem
		var details sql.NullString
		if err := rows.Scan(&item.ID, &item.GroupID, &item.Group, &item.Title, &details, &item.DueDate, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		item.Details = details.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// --- Run Operations ---

// SaveRun records one dispatch pass.
func (s *Store) SaveRun(ctx context.Context, run models.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ended_at, tasks, fired, changed, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.EndedAt.UTC(), run.Tasks, run.Fired, run.Changed, nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent passes, newest first.
func (s *Store) ListRuns(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, ended_at, tasks, fired, changed, error FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var runErr sql.NullString
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.EndedAt, &run.Tasks, &run.Fired, &run.Changed, &runErr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Error = runErr.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- PDR Operations ---

// WritePDR writes a Process Decision Record.
func (s *Store) WritePDR(action, inputsHash, outcome, taskID, details string) (*models.PDREntry, error) {
	now := time.Now().UTC()
	pdr := &models.PDREntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		TaskID:     taskID,
		Details:    details,
		Timestamp:  now,
	}

	_, err := s.db.Exec(
		`INSERT INTO pdr (id, action, inputs_hash, outcome, task_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pdr.ID, pdr.Action, pdr.InputsHash, pdr.Outcome, pdr.TaskID, pdr.Details, pdr.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pdr: %w", err)
	}
	return pdr, nil
}

// ListPDR returns decision records, newest first, optionally for one task.
func (s *Store) ListPDR(taskID string, limit int) ([]models.PDREntry, error) {
	query := `SELECT id, action, inputs_hash, outcome, task_id, details, timestamp FROM pdr`
	var args []interface{}
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY timestamp DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pdr: %w", err)
	}
	defer rows.Close()

	var entries []models.PDREntry
	for rows.Next() {
		var e models.PDREntry
		var tid, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &tid, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pdr: %w", err)
		}
		e.TaskID = tid.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
