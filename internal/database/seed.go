package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskapi/internal/model"
)

// DemoTasks returns the starter records relative to now.
func DemoTasks(now time.Time) []model.Task {
	now = now.UTC()
	nextWeek := now.AddDate(0, 0, 7)
	yesterday := now.AddDate(0, 0, -1)

	return []model.Task{
		{
			ID:          uuid.New(),
			Title:       "Write complete API documentation",
			Description: "Document every endpoint of the API with examples",
			IsCompleted: false,
			DueDate:     &nextWeek,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.New(),
			Title:       "Implement unit tests",
			Description: "Add unit tests for every service method",
			IsCompleted: true,
			DueDate:     &yesterday,
			CreatedAt:   now.AddDate(0, 0, -5),
			UpdatedAt:   yesterday,
		},
	}
}

// Seed inserts DemoTasks when the table is empty and reports how many rows it wrote.
func Seed(ctx context.Context, db *gorm.DB, now time.Time) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.Task{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tasks := DemoTasks(now)
	if err := db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return 0, fmt.Errorf("insert demo tasks: %w", err)
	}
	return len(tasks), nil
}
