package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSortKey(t *testing.T) {
	for _, name := range []string{"id", "title", "description", "status", "priority", "assignee", "createdAt", "updatedAt"} {
		k, ok := ParseSortKey(name)
		assert.True(t, ok, name)
		assert.Equal(t, SortKey(name), k)
	}

	k, ok := ParseSortKey("doesNotExist")
	assert.False(t, ok)
	assert.Equal(t, SortByCreatedAt, k)

	k, ok = ParseSortKey("created_at")
	assert.False(t, ok, "column names are not sort keys")
	assert.Equal(t, SortByCreatedAt, k)
}

func TestSortKey_Column(t *testing.T) {
	assert.Equal(t, "created_at", SortByCreatedAt.Column())
	assert.Equal(t, "updated_at", SortByUpdatedAt.Column())
	assert.Equal(t, "title", SortByTitle.Column())
	assert.Equal(t, "created_at", SortKey("title; DROP TABLE issues").Column())
}

func TestSortOrder_Compare(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Issue{ID: "01A", Title: "same", CreatedAt: t0}
	b := Issue{ID: "01B", Title: "same", CreatedAt: t0.Add(time.Minute)}

	asc := SortOrder{Key: SortByCreatedAt}
	assert.Negative(t, asc.Compare(a, b))
	assert.Positive(t, asc.Compare(b, a))

	desc := SortOrder{Key: SortByCreatedAt, Desc: true}
	assert.Positive(t, desc.Compare(a, b))

	byTitle := SortOrder{Key: SortByTitle}
	assert.Negative(t, byTitle.Compare(a, b), "ties fall back to id")
	assert.Positive(t, SortOrder{Key: SortByTitle, Desc: true}.Compare(a, b))
	assert.Zero(t, byTitle.Compare(a, a))

	assert.Equal(t, "ASC", asc.Direction())
	assert.Equal(t, "DESC", desc.Direction())
}

func TestIssueFilter_Matches(t *testing.T) {
	issue := Issue{
		Title:       "Fix login bug",
		Description: "Users cannot SIGN in after the éclair release",
		Status:      IssueStatusOpen,
		Priority:    IssuePriorityHigh,
		Assignee:    "alice",
	}

	tests := []struct {
		name   string
		filter IssueFilter
		want   bool
	}{
		{"empty filter", IssueFilter{}, true},
		{"title substring", IssueFilter{Search: "LOGIN"}, true},
		{"description substring", IssueFilter{Search: "sign in"}, true},
		{"search miss", IssueFilter{Search: "logout"}, false},
		{"non-ascii folds", IssueFilter{Search: "ÉCLAIR"}, true},
		{"status match", IssueFilter{Status: "open"}, true},
		{"status miss", IssueFilter{Status: "closed"}, false},
		{"priority miss", IssueFilter{Priority: "low"}, false},
		{"assignee exact", IssueFilter{Assignee: "alice"}, true},
		{"assignee is not substring", IssueFilter{Assignee: "ali"}, false},
		{"all match", IssueFilter{Search: "bug", Status: "open", Priority: "high", Assignee: "alice"}, true},
		{"one miss fails conjunction", IssueFilter{Search: "bug", Status: "open", Priority: "high", Assignee: "bob"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(issue))
		})
	}
}

func TestQuerySpec_Window(t *testing.T) {
	assert.Equal(t, PageWindow{Offset: 0, Limit: 10}, QuerySpec{Page: 1, PageSize: 10}.Window())
	assert.Equal(t, PageWindow{Offset: 40, Limit: 20}, QuerySpec{Page: 3, PageSize: 20}.Window())
	assert.Equal(t, PageWindow{Offset: 0, Limit: DefaultPageSize}, QuerySpec{}.Window())

	// Offsets that would overflow saturate instead of wrapping negative.
	assert.Equal(t, PageWindow{Offset: math.MaxInt, Limit: MaxPageSize},
		QuerySpec{Page: 2 * MaxPage, PageSize: MaxPageSize}.Window())
	assert.Equal(t, PageWindow{Offset: math.MaxInt, Limit: 7}, QuerySpec{Page: math.MaxInt, PageSize: 7}.Window())
	assert.Equal(t, PageWindow{Offset: (MaxPage - 1) * MaxPageSize, Limit: MaxPageSize},
		QuerySpec{Page: MaxPage, PageSize: MaxPageSize}.Window())
}

func TestFoldSearch(t *testing.T) {
	assert.Equal(t, "éclair recipe", FoldSearch("Éclair RECIPE"))
	assert.Equal(t, "straße", FoldSearch("STRAßE"))
}
