package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueInput_Normalize(t *testing.T) {
	got := IssueInput{Title: "  Fix bug  ", Assignee: " bob "}.Normalize()
	assert.Equal(t, IssueInput{
		Title:    "Fix bug",
		Status:   IssueStatusOpen,
		Priority: IssuePriorityLow,
		Assignee: "bob",
	}, got)

	got = IssueInput{Title: "x", Status: IssueStatusClosed, Priority: IssuePriorityCritical}.Normalize()
	assert.Equal(t, IssueStatusClosed, got.Status)
	assert.Equal(t, IssuePriorityCritical, got.Priority)
}

func TestIssueInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		in    IssueInput
		field string
	}{
		{"valid", IssueInput{Title: "ok"}, ""},
		{"blank title", IssueInput{Title: "   "}, "title"},
		{"long title", IssueInput{Title: strings.Repeat("a", MaxTitleLength+1)}, "title"},
		{"long assignee", IssueInput{Title: "ok", Assignee: strings.Repeat("a", MaxAssigneeLength+1)}, "assignee"},
		{"unknown status", IssueInput{Title: "ok", Status: "done"}, "status"},
		{"unknown priority", IssueInput{Title: "ok", Priority: "urgent"}, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Normalize().Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestIssue_Apply(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := Issue{
		ID:          "01ABC",
		Title:       "old",
		Description: "desc",
		Status:      IssueStatusOpen,
		Priority:    IssuePriorityLow,
		Assignee:    "alice",
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	now := created.Add(time.Hour)
	got := orig.Apply(IssueInput{Title: "new", Status: IssueStatusResolved, Priority: IssuePriorityMedium}, now)

	assert.Equal(t, "01ABC", got.ID)
	assert.Equal(t, "new", got.Title)
	assert.Empty(t, got.Description)
	assert.Empty(t, got.Assignee)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)
	assert.Equal(t, "old", orig.Title, "receiver is not modified")

	backwards := orig.Apply(IssueInput{Title: "x"}, created.Add(-time.Minute))
	assert.Equal(t, created, backwards.UpdatedAt, "updatedAt never precedes createdAt")
}

func TestNewIssueID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		id := NewIssueID()
		assert.False(t, seen[id])
		assert.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}
