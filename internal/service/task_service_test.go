package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"taskapi/internal/model"
	"taskapi/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Insert(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskStore) Replace(ctx context.Context, task *model.Task) (bool, error) {
	args := m.Called(ctx, task)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) Query(ctx context.Context, filter model.TaskFilter, sort model.TaskSort) ([]model.Task, error) {
	args := m.Called(ctx, filter, sort)
	tasks := args.Get(0)
	if tasks == nil {
		return nil, args.Error(1)
	}
	return tasks.([]model.Task), args.Error(1)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupService() (*service.TaskService, *MockTaskStore) {
	store := new(MockTaskStore)
	svc := service.NewTaskService(store, zerolog.Nop(), service.WithClock(func() time.Time { return fixedNow }))
	return svc, store
}

func dueDate() *time.Time {
	d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func boolPtr(b bool) *bool { return &b }

func TestCreate_AssignsDefaults(t *testing.T) {
	// Arrange
	svc, store := setupService()
	callerID := uuid.New()
	candidate := &model.Task{
		ID:          callerID,
		Title:       "  Buy milk  ",
		IsCompleted: true,
		DueDate:     dueDate(),
		CreatedAt:   fixedNow.Add(-time.Hour),
	}
	store.On("Insert", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	// Act
	task, err := svc.Create(context.Background(), candidate)

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.NotEqual(t, callerID, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.False(t, task.IsCompleted)
	assert.Equal(t, fixedNow, task.CreatedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	assert.True(t, task.DueDate.Equal(*dueDate()))

	stored := store.Calls[0].Arguments.Get(1).(*model.Task)
	assert.Same(t, task, stored)
	store.AssertExpectations(t)
}

func TestCreate_NilCandidate(t *testing.T) {
	svc, store := setupService()

	_, err := svc.Create(context.Background(), nil)

	assert.ErrorIs(t, err, service.ErrInvalidInput)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreate_ValidationFailureIsNeverPersisted(t *testing.T) {
	svc, store := setupService()

	_, err := svc.Create(context.Background(), &model.Task{Title: "", Description: strings.Repeat("x", 501)})

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3)
	assert.Equal(t, "title required; description too long; due date required", verr.Messages())
	assert.Contains(t, err.Error(), "title required")
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreate_StoreFailureIsUnexpected(t *testing.T) {
	svc, store := setupService()
	store.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Create(context.Background(), &model.Task{Title: "Buy milk", DueDate: dueDate()})

	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, service.ErrInvalidInput)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}

func TestMalformedIDs_AreInvalidInputNotNotFound(t *testing.T) {
	svc, store := setupService()
	ctx := context.Background()
	body := &model.Task{Title: "Buy milk", DueDate: dueDate()}

	for _, id := range []string{"", "   ", "not-a-uuid", "12345", uuid.Nil.String()} {
		t.Run(id, func(t *testing.T) {
			_, err := svc.Get(ctx, id)
			assert.ErrorIs(t, err, service.ErrInvalidInput)

			_, err = svc.Update(ctx, id, body)
			assert.ErrorIs(t, err, service.ErrInvalidInput)

			err = svc.Delete(ctx, id)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
	assert.Empty(t, store.Calls)
}

func TestGet(t *testing.T) {
	svc, store := setupService()
	id := uuid.New()
	stored := &model.Task{ID: id, Title: "Buy milk"}
	store.On("FindByID", mock.Anything, id).Return(stored, nil)

	task, err := svc.Get(context.Background(), id.String())

	require.NoError(t, err)
	assert.Same(t, stored, task)
}

func TestGet_NotFound(t *testing.T) {
	svc, store := setupService()
	id := uuid.New()
	store.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := svc.Get(context.Background(), id.String())

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGet_StoreFailure(t *testing.T) {
	svc, store := setupService()
	store.On("FindByID", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := svc.Get(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}

func TestUpdate_ReplacesMutableFieldsOnly(t *testing.T) {
	svc, store := setupService()
	id := uuid.New()
	created := fixedNow.Add(-48 * time.Hour)
	existing := &model.Task{ID: id, Title: "Buy milk", DueDate: dueDate(), CreatedAt: created, UpdatedAt: created}
	store.On("FindByID", mock.Anything, id).Return(existing, nil)
	store.On("Replace", mock.Anything, mock.AnythingOfType("*model.Task")).Return(true, nil)

	newDue := fixedNow.Add(24 * time.Hour)
	candidate := &model.Task{
		ID:          uuid.New(),
		Title:       "Buy oat milk",
		Description: "barista edition",
		IsCompleted: true,
		DueDate:     &newDue,
		CreatedAt:   fixedNow,
	}

	task, err := svc.Update(context.Background(), id.String(), candidate)

	require.NoError(t, err)
	assert.Equal(t, id, task.ID)
	assert.Equal(t, created, task.CreatedAt)
	assert.Equal(t, fixedNow, task.UpdatedAt)
	assert.Equal(t, "Buy oat milk", task.Title)
	assert.Equal(t, "barista edition", task.Description)
	assert.True(t, task.IsCompleted)
	assert.True(t, task.DueDate.Equal(newDue))
	store.AssertExpectations(t)
}

func TestUpdate_NeverMovesUpdatedAtBackwards(t *testing.T) {
	svc, store := setupService()
	id := uuid.New()
	future := fixedNow.Add(time.Hour)
	existing := &model.Task{ID: id, Title: "Buy milk", DueDate: dueDate(), CreatedAt: fixedNow, UpdatedAt: future}
	store.On("FindByID", mock.Anything, id).Return(existing, nil)
	store.On("Replace", mock.Anything, mock.Anything).Return(true, nil)

	task, err := svc.Update(context.Background(), id.String(), &model.Task{Title: "Buy milk", DueDate: dueDate()})

	require.NoError(t, err)
	assert.Equal(t, future, task.UpdatedAt)
	assert.False(t, task.UpdatedAt.Before(task.CreatedAt))
}

func TestUpdate_ValidatesBeforeLookup(t *testing.T) {
	svc, store := setupService()

	_, err := svc.Update(context.Background(), uuid.NewString(), &model.Task{Title: ""})

	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.NotErrorIs(t, err, service.ErrNotFound)
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdate_NilCandidate(t *testing.T) {
	svc, _ := setupService()

	_, err := svc.Update(context.Background(), uuid.NewString(), nil)

	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, store := setupService()
	id := uuid.New()
	store.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := svc.Update(context.Background(), id.String(), &model.Task{Title: "Buy milk", DueDate: dueDate()})

	assert.ErrorIs(t, err, service.ErrNotFound)
	store.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestUpdate_RowVanishedBeforeWrite(t *testing.T) {
	svc, store := setupService()
	id := uuid.New()
	store.On("FindByID", mock.Anything, id).Return(&model.Task{ID: id, CreatedAt: fixedNow, UpdatedAt: fixedNow}, nil)
	store.On("Replace", mock.Anything, mock.Anything).Return(false, nil)

	_, err := svc.Update(context.Background(), id.String(), &model.Task{Title: "Buy milk", DueDate: dueDate()})

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, store := setupService()
	id := uuid.New()
	store.On("Delete", mock.Anything, id).Return(true, nil).Once()
	store.On("Delete", mock.Anything, id).Return(false, nil).Once()

	assert.NoError(t, svc.Delete(context.Background(), id.String()))
	assert.ErrorIs(t, svc.Delete(context.Background(), id.String()), service.ErrNotFound)
	store.AssertExpectations(t)
}

func TestDelete_StoreFailure(t *testing.T) {
	svc, store := setupService()
	store.On("Delete", mock.Anything, mock.Anything).Return(false, assert.AnError)

	err := svc.Delete(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, assert.AnError)
}

func TestList_DefaultsToNewestFirst(t *testing.T) {
	svc, store := setupService()
	want := []model.Task{{Title: "a"}}
	store.On("Query", mock.Anything, model.TaskFilter{}, model.DefaultTaskSort).Return(want, nil)

	tasks, err := svc.List(context.Background(), service.ListParams{})

	require.NoError(t, err)
	assert.Equal(t, want, tasks)
	store.AssertExpectations(t)
}

func TestList_ParsesSort(t *testing.T) {
	tests := []struct {
		params service.ListParams
		want   model.TaskSort
	}{
		{service.ListParams{SortBy: "title"}, model.TaskSort{Field: model.SortByTitle, Desc: true}},
		{service.ListParams{SortBy: "DUEDATE", SortDesc: boolPtr(false)}, model.TaskSort{Field: model.SortByDueDate}},
		{service.ListParams{SortDesc: boolPtr(false)}, model.TaskSort{Field: model.SortByCreatedAt}},
		{service.ListParams{SortBy: "isCompleted", SortDesc: boolPtr(true)}, model.TaskSort{Field: model.SortByIsCompleted, Desc: true}},
	}

	for _, tt := range tests {
		svc, store := setupService()
		store.On("Query", mock.Anything, mock.Anything, tt.want).Return([]model.Task{}, nil)

		_, err := svc.List(context.Background(), tt.params)

		require.NoError(t, err)
		store.AssertExpectations(t)
	}
}

func TestList_UnknownSortField(t *testing.T) {
	svc, store := setupService()

	_, err := svc.List(context.Background(), service.ListParams{SortBy: "unknownField"})

	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Contains(t, err.Error(), "unknownField")
	store.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_InvertedDateRange(t *testing.T) {
	svc, store := setupService()
	from := fixedNow
	to := fixedNow.Add(-time.Second)

	_, err := svc.List(context.Background(), service.ListParams{
		Filter: model.TaskFilter{CreatedFrom: &from, CreatedTo: &to},
	})

	assert.ErrorIs(t, err, service.ErrInvalidInput)
	store.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_EqualBoundsAllowed(t *testing.T) {
	svc, store := setupService()
	at := fixedNow
	filter := model.TaskFilter{CreatedFrom: &at, CreatedTo: &at}
	store.On("Query", mock.Anything, filter, model.DefaultTaskSort).Return([]model.Task{}, nil)

	_, err := svc.List(context.Background(), service.ListParams{Filter: filter})

	assert.NoError(t, err)
}

func TestList_StoreFailure(t *testing.T) {
	svc, store := setupService()
	store.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := svc.List(context.Background(), service.ListParams{})

	assert.ErrorIs(t, err, assert.AnError)
}
