package model

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Violation is one broken domain rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateTask checks every rule independently and returns the violations in
// rule order. An empty result means the task may be persisted.
func ValidateTask(t *Task) []Violation {
	var violations []Violation

	title := strings.TrimSpace(t.Title)
	if title == "" {
		violations = append(violations, Violation{Field: "title", Message: "title required"})
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		violations = append(violations, Violation{Field: "title", Message: "title too long"})
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		violations = append(violations, Violation{Field: "description", Message: "description too long"})
	}
	if t.DueDate == nil {
		violations = append(violations, Violation{Field: "dueDate", Message: "due date required"})
	}

	return violations
}
