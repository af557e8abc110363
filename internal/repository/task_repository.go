package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskapi/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

var sortColumns = map[model.SortField]string{
	model.SortByCreatedAt:   "created_at",
	model.SortByTitle:       "title",
	model.SortByDueDate:     "due_date",
	model.SortByIsCompleted: "is_completed",
}

// Insert adds a new task to the database
func (r *TaskRepository) Insert(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when no task has the id.
func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Replace overwrites the mutable columns of an existing row. ID and created_at are left alone.
// It reports false when the row no longer exists.
func (r *TaskRepository) Replace(ctx context.Context, task *model.Task) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"title":        task.Title,
			"title_folded": model.FoldTitle(task.Title),
			"description":  task.Description,
			"is_completed": task.IsCompleted,
			"due_date":     task.DueDate,
			"updated_at":   task.UpdatedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to replace task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a task permanently and reports whether a row was removed.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Query returns every task matching all filters, ordered by sort.
func (r *TaskRepository) Query(ctx context.Context, filter model.TaskFilter, sort model.TaskSort) ([]model.Task, error) {
	column, ok := sortColumns[sort.Field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortField, sort.Field)
	}

	query := r.db.WithContext(ctx).Model(&model.Task{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`title_folded LIKE ? ESCAPE '\'`, "%"+escapeLike(model.FoldTitle(search))+"%")
	}
	if filter.IsCompleted != nil {
		query = query.Where("is_completed = ?", *filter.IsCompleted)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", filter.CreatedTo.UTC())
	}

	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: sort.Desc})
	if sort.Field != model.SortByCreatedAt {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
	}
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	tasks := []model.Task{}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return tasks, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
