package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/internal/todo/store"
)

type tasksRepo struct {
	db dbtx
}

// taskSelect returns every column of a task plus its full owner list as a
// space-delimited string. The JOIN scopes the result to one owner while the
// subquery still yields all owners of each matched task.
const taskSelect = `
	SELECT t.id, t.name, t.description, t.difficulty, t.priority, t.deadline,
	       t.done, t.created_at, t.updated_at,
	       (SELECT group_concat(o2.owner_id, ' ')
	          FROM task_owners o2 WHERE o2.task_id = t.id) AS owners
	FROM tasks t
	JOIN task_owners o ON o.task_id = t.id
	WHERE o.owner_id = ?`

func (r *tasksRepo) GetByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, taskSelect, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *tasksRepo) GetByOwnerAndID(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, taskSelect+` AND t.id = ?`, ownerID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Task{}, err
		}
		return domain.Task{}, store.ErrNotFound
	}
	return scanTask(rows)
}

func (r *tasksRepo) Insert(ctx context.Context, t domain.Task) error {
	var difficulty *string
	if t.Difficulty != nil {
		s := t.Difficulty.String()
		difficulty = &s
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, name, description, difficulty, priority, deadline, done, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, mapOptionalString(difficulty), t.Priority,
		mapOptionalTime(t.Deadline), t.Done, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return mapConstraint(err)
	}

	for _, ownerID := range t.OwnerIDs {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO task_owners (task_id, owner_id) VALUES (?, ?)`,
			t.ID, ownerID,
		); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *tasksRepo) Save(ctx context.Context, t domain.Task) error {
	var difficulty *string
	if t.Difficulty != nil {
		s := t.Difficulty.String()
		difficulty = &s
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET name = ?, description = ?, difficulty = ?, priority = ?, deadline = ?, done = ?, updated_at = ?
		WHERE id = ?`,
		t.Name, t.Description, mapOptionalString(difficulty), t.Priority,
		mapOptionalTime(t.Deadline), t.Done, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *tasksRepo) DeleteByOwnerAndID(ctx context.Context, ownerID, taskID string) error {
	// Owner rows go with the task via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE id = ?
		  AND id IN (SELECT task_id FROM task_owners WHERE owner_id = ?)`,
		taskID, ownerID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanTask(rows *sql.Rows) (domain.Task, error) {
	var t domain.Task
	var difficulty sql.NullString
	var deadline sql.NullTime
	var owners sql.NullString

	err := rows.Scan(
		&t.ID, &t.Name, &t.Description, &difficulty, &t.Priority, &deadline,
		&t.Done, &t.CreatedAt, &t.UpdatedAt, &owners,
	)
	if err != nil {
		return domain.Task{}, err
	}

	if difficulty.Valid {
		d := domain.Difficulty(difficulty.String)
		t.Difficulty = &d
	}
	t.Deadline = mapNullTime(deadline)
	if owners.Valid {
		t.OwnerIDs = strings.Fields(owners.String)
	}
	return t, nil
}
