package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/issuetracker/internal/domain"
	"github.com/sumire/issuetracker/internal/repository"
)

func newTestService(t *testing.T) *IssueService {
	t.Helper()
	return NewIssueService(repository.NewMemoryStore())
}

func TestIssueService_Scenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, domain.IssueInput{Title: "Fix bug"})
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusOpen, a.Status)
	assert.Equal(t, domain.IssuePriorityLow, a.Priority)

	b, err := svc.Create(ctx, domain.IssueInput{Title: "Add feature", Status: domain.IssueStatusClosed})
	require.NoError(t, err)

	list, err := svc.List(ctx, ListParams{Status: "open"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Issues, 1)
	assert.Equal(t, a.ID, list.Issues[0].ID)

	list, err = svc.List(ctx, ListParams{Search: "Fix"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Issues, 1)
	assert.Equal(t, a.ID, list.Issues[0].ID)

	require.NoError(t, svc.Delete(ctx, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIssueService_CreateValidates(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), domain.IssueInput{Title: "  "})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)

	_, err = svc.Create(context.Background(), domain.IssueInput{Title: "ok", Status: "archived"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "status", verr.Field)

	list, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Zero(t, list.Total, "rejected input is not stored")
}

func TestIssueService_UpdateIsFullReplace(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.IssueInput{
		Title:       "Fix bug",
		Description: "details",
		Status:      domain.IssueStatusInProgress,
		Priority:    domain.IssuePriorityHigh,
		Assignee:    "alice",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, domain.IssueInput{Title: "Fix bug v2"})
	require.NoError(t, err)
	assert.Equal(t, "Fix bug v2", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Empty(t, updated.Assignee)
	assert.Equal(t, domain.IssueStatusOpen, updated.Status)
	assert.Equal(t, domain.IssuePriorityLow, updated.Priority)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = svc.Update(ctx, "missing", domain.IssueInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, created.ID, domain.IssueInput{})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestIssueService_ListOutOfRangePage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, domain.IssueInput{Title: title})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, ListParams{Page: "9", PageSize: "2"})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.NotNil(t, list.Issues)
	assert.Empty(t, list.Issues)
	assert.Equal(t, 9, list.Page)
	assert.Equal(t, 2, list.PageSize)
}

func TestIssueService_UnknownSortColumnOrdersByCreatedAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, title := range []string{"b", "c", "a"} {
		_, err := svc.Create(ctx, domain.IssueInput{Title: title})
		require.NoError(t, err)
	}

	fallback, err := svc.List(ctx, ListParams{SortColumn: "doesNotExist"})
	require.NoError(t, err)
	explicit, err := svc.List(ctx, ListParams{SortColumn: "createdAt"})
	require.NoError(t, err)

	assert.Equal(t, explicit.Issues, fallback.Issues)
}

type failingStore struct {
	IssueStore
	err error
}

func (f failingStore) Query(context.Context, domain.QuerySpec) ([]domain.Issue, int, error) {
	return nil, 0, f.err
}

func (f failingStore) Ping(context.Context) error {
	return f.err
}

func TestIssueService_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewIssueService(failingStore{err: boom})

	_, err := svc.List(context.Background(), ListParams{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Health(context.Background()), boom)
}
