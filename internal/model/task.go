package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is the single tracked record. ID and CreatedAt never change after insert.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:100;not null;index" json:"title"`
	TitleFolded string     `gorm:"not null;index" json:"-"`
	Description string     `gorm:"size:500" json:"description,omitempty"`
	IsCompleted bool       `gorm:"not null;index" json:"isCompleted"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `gorm:"not null;index;autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`
}

// FoldTitle is the lower-cased form title searches match against. It is computed
// here rather than by the database because sqlite's LOWER only folds ASCII.
func FoldTitle(title string) string {
	return strings.ToLower(title)
}

// BeforeCreate keeps TitleFolded in step with Title on insert.
func (t *Task) BeforeCreate(*gorm.DB) error {
	t.TitleFolded = FoldTitle(t.Title)
	return nil
}

// TableName pins the table name used by the migrations.
func (Task) TableName() string {
	return "tasks"
}

// TaskFilter holds the optional, conjunctive list filters. Nil/empty means "no filter".
type TaskFilter struct {
	Search      string
	IsCompleted *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type SortField string

const (
	SortByCreatedAt   SortField = "createdAt"
	SortByTitle       SortField = "title"
	SortByDueDate     SortField = "dueDate"
	SortByIsCompleted SortField = "isCompleted"
)

var sortFields = []SortField{SortByCreatedAt, SortByTitle, SortByDueDate, SortByIsCompleted}

// ParseSortField matches name case-insensitively against the sortable fields.
func ParseSortField(name string) (SortField, bool) {
	name = strings.TrimSpace(name)
	for _, f := range sortFields {
		if strings.EqualFold(name, string(f)) {
			return f, true
		}
	}
	return "", false
}

// TaskSort is a validated ordering request.
type TaskSort struct {
	Field SortField
	Desc  bool
}

// DefaultTaskSort is newest first.
var DefaultTaskSort = TaskSort{Field: SortByCreatedAt, Desc: true}
