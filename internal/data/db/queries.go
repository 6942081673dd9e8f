package db

import (
	"context"
	"database/sql"
)

// DBTX is the minimal query interface satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New returns a Queries bound to the given connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries is the hand-maintained query layer over the schema in
// migrations/. Row structs mirror table columns; timestamps are stored
// as UnixNano integers.
type Queries struct {
	db DBTX
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Task mirrors a row of the tasks table.
type Task struct {
	ID        string
	OwnerID   string
	Title     string
	Subject   sql.NullString
	Priority  string
	Status    string
	Deadline  sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

// PomodoroSession mirrors a row of the pomodoro_sessions table.
type PomodoroSession struct {
	ID              string
	OwnerID         string
	StartedAt       int64
	DurationMinutes int64
	Type            string
	Completed       bool
}

// ChatMessage mirrors a row of the chat_messages table.
type ChatMessage struct {
	ID        string
	OwnerID   string
	Role      string
	Content   string
	CreatedAt int64
}

// KvStore mirrors a row of the kv_store table.
type KvStore struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

type CreateTaskParams struct {
	ID        string
	OwnerID   string
	Title     string
	Subject   sql.NullString
	Priority  string
	Status    string
	Deadline  sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

const createTask = `
INSERT INTO tasks (id, owner_id, title, subject, priority, status, deadline, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) error {
	_, err := q.db.ExecContext(ctx, createTask,
		arg.ID,
		arg.OwnerID,
		arg.Title,
		arg.Subject,
		arg.Priority,
		arg.Status,
		arg.Deadline,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getTask = `
SELECT id, owner_id, title, subject, priority, status, deadline, created_at, updated_at
FROM tasks
WHERE owner_id = ? AND id = ?
`

func (q *Queries) GetTask(ctx context.Context, ownerID, id string) (Task, error) {
	row := q.db.QueryRowContext(ctx, getTask, ownerID, id)
	var t Task
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Subject,
		&t.Priority,
		&t.Status,
		&t.Deadline,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

const listTasks = `
SELECT id, owner_id, title, subject, priority, status, deadline, created_at, updated_at
FROM tasks
WHERE owner_id = ?
ORDER BY created_at, id
`

func (q *Queries) ListTasks(ctx context.Context, ownerID string) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, listTasks, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(
			&t.ID,
			&t.OwnerID,
			&t.Title,
			&t.Subject,
			&t.Priority,
			&t.Status,
			&t.Deadline,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

type UpdateTaskParams struct {
	OwnerID   string
	ID        string
	Title     string
	Subject   sql.NullString
	Priority  string
	Status    string
	Deadline  sql.NullInt64
	UpdatedAt int64
}

const updateTask = `
UPDATE tasks
SET title = ?, subject = ?, priority = ?, status = ?, deadline = ?, updated_at = ?
WHERE owner_id = ? AND id = ?
`

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTask,
		arg.Title,
		arg.Subject,
		arg.Priority,
		arg.Status,
		arg.Deadline,
		arg.UpdatedAt,
		arg.OwnerID,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type UpdateTaskStatusParams struct {
	OwnerID   string
	ID        string
	Status    string
	UpdatedAt int64
}

const updateTaskStatus = `
UPDATE tasks
SET status = ?, updated_at = ?
WHERE owner_id = ? AND id = ?
`

func (q *Queries) UpdateTaskStatus(ctx context.Context, arg UpdateTaskStatusParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTaskStatus,
		arg.Status,
		arg.UpdatedAt,
		arg.OwnerID,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTask = `
DELETE FROM tasks
WHERE owner_id = ? AND id = ?
`

func (q *Queries) DeleteTask(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTask, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type CreateSessionParams struct {
	ID              string
	OwnerID         string
	StartedAt       int64
	DurationMinutes int64
	Type            string
	Completed       bool
}

const createSession = `
INSERT INTO pomodoro_sessions (id, owner_id, started_at, duration_minutes, type, completed)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.ID,
		arg.OwnerID,
		arg.StartedAt,
		arg.DurationMinutes,
		arg.Type,
		arg.Completed,
	)
	return err
}

const getSession = `
SELECT id, owner_id, started_at, duration_minutes, type, completed
FROM pomodoro_sessions
WHERE owner_id = ? AND id = ?
`

func (q *Queries) GetSession(ctx context.Context, ownerID, id string) (PomodoroSession, error) {
	row := q.db.QueryRowContext(ctx, getSession, ownerID, id)
	var s PomodoroSession
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.StartedAt,
		&s.DurationMinutes,
		&s.Type,
		&s.Completed,
	)
	return s, err
}

const completeSession = `
UPDATE pomodoro_sessions
SET completed = 1
WHERE owner_id = ? AND id = ? AND completed = 0
`

func (q *Queries) CompleteSession(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, completeSession, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listSessions = `
SELECT id, owner_id, started_at, duration_minutes, type, completed
FROM pomodoro_sessions
WHERE owner_id = ?
ORDER BY started_at, id
`

func (q *Queries) ListSessions(ctx context.Context, ownerID string) ([]PomodoroSession, error) {
	rows, err := q.db.QueryContext(ctx, listSessions, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []PomodoroSession
	for rows.Next() {
		var s PomodoroSession
		if err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.StartedAt,
			&s.DurationMinutes,
			&s.Type,
			&s.Completed,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type AppendMessageParams struct {
	ID        string
	OwnerID   string
	Role      string
	Content   string
	CreatedAt int64
}

const appendMessage = `
INSERT INTO chat_messages (id, owner_id, role, content, created_at)
VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) AppendMessage(ctx context.Context, arg AppendMessageParams) error {
	_, err := q.db.ExecContext(ctx, appendMessage,
		arg.ID,
		arg.OwnerID,
		arg.Role,
		arg.Content,
		arg.CreatedAt,
	)
	return err
}

const listMessages = `
SELECT id, owner_id, role, content, created_at
FROM chat_messages
WHERE owner_id = ?
ORDER BY created_at, id
`

func (q *Queries) ListMessages(ctx context.Context, ownerID string) ([]ChatMessage, error) {
	rows, err := q.db.QueryContext(ctx, listMessages, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(
			&m.ID,
			&m.OwnerID,
			&m.Role,
			&m.Content,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const kvGet = `
SELECT key, value, expires_at, created_at, updated_at
FROM kv_store
WHERE key = ?
`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	row := q.db.QueryRowContext(ctx, kvGet, key)
	var kv KvStore
	err := row.Scan(
		&kv.Key,
		&kv.Value,
		&kv.ExpiresAt,
		&kv.CreatedAt,
		&kv.UpdatedAt,
	)
	return kv, err
}

type KVSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

const kvSet = `
INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
	value = excluded.value,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at
`

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kvSet,
		arg.Key,
		arg.Value,
		arg.ExpiresAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const kvHas = `
SELECT COUNT(*)
FROM kv_store
WHERE key = ?
`

func (q *Queries) KVHas(ctx context.Context, key string) (int64, error) {
	row := q.db.QueryRowContext(ctx, kvHas, key)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const kvDelete = `
DELETE FROM kv_store
WHERE key = ?
`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kvDelete, key)
	return err
}

const kvSweepExpired = `
DELETE FROM kv_store
WHERE expires_at IS NOT NULL AND expires_at <= ?
`

func (q *Queries) KVSweepExpired(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, kvSweepExpired, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
