package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/internal/todo/store"
	"github.com/tasklet-dev/tasklet/pkg/idx"
)

// Sample batch bounds for GenerateSamples.
const (
	minSampleTasks = 100
	maxSampleTasks = 1000
)

// TaskService validates and mutates tasks scoped to an owning user. Every
// lookup it performs is owner-scoped: a task not owned by the caller is
// indistinguishable from a task that does not exist.
//
// Update and Delete are read-then-write without store-level isolation, so
// two sessions racing on the same task resolve last-write-wins. That is the
// accepted consistency target here.
type TaskService struct {
	Store store.Store
	Now   func() time.Time // test hook, defaults to time.Now
}

func (s *TaskService) nowUTC() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// List returns every task owned by ownerID, in store order.
func (s *TaskService) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	return s.Store.Tasks().GetByOwner(ctx, ownerID)
}

// Get returns a single task owned by ownerID.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	task, err := s.Store.Tasks().GetByOwnerAndID(ctx, ownerID, taskID)
	if err != nil {
		return domain.Task{}, mapTaskStoreErr(err, taskID)
	}
	return task, nil
}

// Create validates the draft and persists it as a fresh task owned solely by
// ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID string, draft domain.TaskDraft) (domain.Task, error) {
	now := s.nowUTC()
	task := domain.Task{
		ID:          idx.New().String(),
		Name:        draft.Name,
		Description: draft.Description,
		Difficulty:  draft.Difficulty,
		Priority:    draft.Priority,
		Deadline:    draft.Deadline,
		Done:        draft.Done,
		OwnerIDs:    []string{ownerID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := validateTask(task); err != nil {
		return domain.Task{}, err
	}

	// The task row and its owner rows land together.
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Tasks().Insert(ctx, task)
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Update merges patch over the existing task and re-validates before
// persisting. Nil patch fields keep the existing value; Done always
// overwrites. Ownership is enforced by the same owner-scoped lookup Get
// uses, never by an unscoped fetch.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, patch domain.TaskPatch) (domain.Task, error) {
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Difficulty != nil {
		task.Difficulty = patch.Difficulty
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Deadline != nil {
		task.Deadline = patch.Deadline
	}
	task.Done = patch.Done
	task.UpdatedAt = s.nowUTC()

	if err := validateTask(task); err != nil {
		return domain.Task{}, err
	}

	if err := s.Store.Tasks().Save(ctx, task); err != nil {
		return domain.Task{}, mapTaskStoreErr(err, taskID)
	}
	return task, nil
}

// Delete removes the task and returns what was removed.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	if err := s.Store.Tasks().DeleteByOwnerAndID(ctx, ownerID, taskID); err != nil {
		return domain.Task{}, mapTaskStoreErr(err, taskID)
	}
	return task, nil
}

// DeleteAll removes every task owned by ownerID and returns the removed
// tasks. The sweep is not atomic: a task deleted concurrently yields a
// harmless per-item not-found that is swallowed rather than failing the
// batch, and a task created mid-sweep may survive.
func (s *TaskService) DeleteAll(ctx context.Context, ownerID string) ([]domain.Task, error) {
	tasks, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	deleted := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		err := s.Store.Tasks().DeleteByOwnerAndID(ctx, ownerID, task.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, task)
	}
	return deleted, nil
}

// GenerateSamples inserts a random batch of valid demo tasks owned by
// ownerID and returns them. Batch size is uniform in [100, 1000]; deadlines
// fall within [-5, +25] days of now. Load-testing convenience only.
func (s *TaskService) GenerateSamples(ctx context.Context, ownerID string) ([]domain.Task, error) {
	now := s.nowUTC()
	count := minSampleTasks + rand.IntN(maxSampleTasks-minSampleTasks+1)

	difficulties := []domain.Difficulty{
		domain.DifficultyLow, domain.DifficultyMedium, domain.DifficultyHigh,
	}

	tasks := make([]domain.Task, 0, count)
	for i := range count {
		deadline := now.Add(randomOffset(-5*24*time.Hour, 25*24*time.Hour))
		difficulty := difficulties[rand.IntN(len(difficulties))]

		task := domain.Task{
			ID:          idx.New().String(),
			Name:        fmt.Sprintf("Task: %d", i+1),
			Description: fmt.Sprintf("Description for Task %d", i+1),
			Difficulty:  &difficulty,
			Priority:    rand.IntN(6),
			Deadline:    &deadline,
			Done:        rand.IntN(2) == 0,
			OwnerIDs:    []string{ownerID},
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := validateTask(task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	// One batch: either every sample lands or none do.
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, task := range tasks {
			if err := tx.Tasks().Insert(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// validateTask enforces the task invariants that must hold before any
// persist: name present, priority in [0,5], difficulty a known member when
// set, and updatedAt never before createdAt.
func validateTask(t domain.Task) error {
	if t.Name == "" {
		return fmt.Errorf("task name is required: %w", domain.ErrInvalidInput)
	}
	if t.Priority < 0 || t.Priority > 5 {
		return fmt.Errorf("task priority %d out of range [0,5]: %w", t.Priority, domain.ErrInvalidInput)
	}
	if t.Difficulty != nil && !t.Difficulty.Valid() {
		return fmt.Errorf("task difficulty %q is invalid: %w", *t.Difficulty, domain.ErrInvalidInput)
	}
	if !t.CreatedAt.IsZero() && !t.UpdatedAt.IsZero() && t.UpdatedAt.Before(t.CreatedAt) {
		return fmt.Errorf("task updated before created: %w", domain.ErrInvalidInput)
	}
	return nil
}

func mapTaskStoreErr(err error, taskID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	return err
}

func randomOffset(min, max time.Duration) time.Duration {
	return min + time.Duration(rand.Int64N(int64(max-min)))
}
