package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskapi/internal/model"
)

// TaskStore is the storage the service delegates to. FindByID returns a nil
// task for an unknown id; Replace and Delete report whether a row matched.
type TaskStore interface {
	Insert(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Replace(ctx context.Context, task *model.Task) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Query(ctx context.Context, filter model.TaskFilter, sort model.TaskSort) ([]model.Task, error)
}

// ListParams are the raw list options. An empty SortBy means createdAt and a
// nil SortDesc means descending.
type ListParams struct {
	Filter   model.TaskFilter
	SortBy   string
	SortDesc *bool
}

type TaskService struct {
	store TaskStore
	log   zerolog.Logger
	now   func() time.Time
}

type Option func(*TaskService)

// WithClock replaces the time source used for lifecycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

func NewTaskService(store TaskStore, log zerolog.Logger, opts ...Option) *TaskService {
	s := &TaskService{
		store: store,
		log:   log.With().Str("component", "task_service").Logger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is UTC at microsecond precision so stored and returned values compare equal.
func (s *TaskService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// List returns every task matching all filters in the requested order.
func (s *TaskService) List(ctx context.Context, params ListParams) ([]model.Task, error) {
	sort := model.DefaultTaskSort
	if params.SortBy != "" {
		field, ok := model.ParseSortField(params.SortBy)
		if !ok {
			return nil, fmt.Errorf("%w: sortBy %q is not one of createdAt, title, dueDate, isCompleted", ErrInvalidInput, params.SortBy)
		}
		sort.Field = field
	}
	if params.SortDesc != nil {
		sort.Desc = *params.SortDesc
	}

	f := params.Filter
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, fmt.Errorf("%w: createdFrom must be <= createdTo", ErrInvalidInput)
	}

	tasks, err := s.store.Query(ctx, f, sort)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to query tasks")
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns the task with id.
func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	taskID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	task, err := s.store.FindByID(ctx, taskID)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to find task")
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	return task, nil
}

// Create validates candidate and stores a fresh copy with a new id, open status
// and both timestamps set to now. Caller-supplied id, status and timestamps are ignored.
func (s *TaskService) Create(ctx context.Context, candidate *model.Task) (*model.Task, error) {
	if candidate == nil {
		return nil, fmt.Errorf("%w: task body is required", ErrInvalidInput)
	}
	if violations := model.ValidateTask(candidate); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	now := s.timestamp()
	task := &model.Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(candidate.Title),
		Description: candidate.Description,
		IsCompleted: false,
		DueDate:     utcCopy(candidate.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Insert(ctx, task); err != nil {
		s.log.Error().Err(err).Msg("failed to insert task")
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.log.Info().Str("task_id", task.ID.String()).Msg("created task")
	return task, nil
}

// Update validates candidate before looking the task up, so an invalid body
// is reported even for an unknown id. Only title, description, completion and
// due date are taken from candidate.
func (s *TaskService) Update(ctx context.Context, id string, candidate *model.Task) (*model.Task, error) {
	taskID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, fmt.Errorf("%w: task body is required", ErrInvalidInput)
	}
	if violations := model.ValidateTask(candidate); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	task, err := s.store.FindByID(ctx, taskID)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to find task")
		return nil, fmt.Errorf("update task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}

	task.Title = strings.TrimSpace(candidate.Title)
	task.Description = candidate.Description
	task.IsCompleted = candidate.IsCompleted
	task.DueDate = utcCopy(candidate.DueDate)

	now := s.timestamp()
	if now.Before(task.UpdatedAt) {
		now = task.UpdatedAt
	}
	task.UpdatedAt = now

	ok, err := s.store.Replace(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to replace task")
		return nil, fmt.Errorf("update task: %w", err)
	}
	if !ok {
		// removed between the lookup and the write
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}

	s.log.Info().Str("task_id", id).Msg("updated task")
	return task, nil
}

// Delete removes the task permanently.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	taskID, err := parseID(id)
	if err != nil {
		return err
	}

	ok, err := s.store.Delete(ctx, taskID)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to delete task")
		return fmt.Errorf("delete task: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}

	s.log.Info().Str("task_id", id).Msg("deleted task")
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: task id is required", ErrInvalidInput)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed task id %q", ErrInvalidInput, raw)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: task id must not be empty", ErrInvalidInput)
	}
	return id, nil
}

func utcCopy(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
