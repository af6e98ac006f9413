package domain

import (
	"cmp"
	"math"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*MaxPageSize within int.
	MaxPage = math.MaxInt / MaxPageSize
)

// SortKey names an issue attribute that list queries may order by.
type SortKey string

const (
	SortByID          SortKey = "id"
	SortByTitle       SortKey = "title"
	SortByDescription SortKey = "description"
	SortByStatus      SortKey = "status"
	SortByPriority    SortKey = "priority"
	SortByAssignee    SortKey = "assignee"
	SortByCreatedAt   SortKey = "createdAt"
	SortByUpdatedAt   SortKey = "updatedAt"

	DefaultSortKey = SortByCreatedAt
)

type sortField struct {
	column  string
	compare func(a, b Issue) int
}

var sortFields = map[SortKey]sortField{
	SortByID:          {"id", func(a, b Issue) int { return strings.Compare(a.ID, b.ID) }},
	SortByTitle:       {"title", func(a, b Issue) int { return strings.Compare(a.Title, b.Title) }},
	SortByDescription: {"description", func(a, b Issue) int { return strings.Compare(a.Description, b.Description) }},
	SortByStatus:      {"status", func(a, b Issue) int { return cmp.Compare(a.Status, b.Status) }},
	SortByPriority:    {"priority", func(a, b Issue) int { return cmp.Compare(a.Priority, b.Priority) }},
	SortByAssignee:    {"assignee", func(a, b Issue) int { return strings.Compare(a.Assignee, b.Assignee) }},
	SortByCreatedAt:   {"created_at", func(a, b Issue) int { return a.CreatedAt.Compare(b.CreatedAt) }},
	SortByUpdatedAt:   {"updated_at", func(a, b Issue) int { return a.UpdatedAt.Compare(b.UpdatedAt) }},
}

// ParseSortKey resolves name against the allow-list. Unknown names yield
// DefaultSortKey and false.
func ParseSortKey(name string) (SortKey, bool) {
	k := SortKey(name)
	if _, ok := sortFields[k]; ok {
		return k, true
	}
	return DefaultSortKey, false
}

// Column returns the storage column backing k.
func (k SortKey) Column() string {
	if f, ok := sortFields[k]; ok {
		return f.column
	}
	return sortFields[DefaultSortKey].column
}

// Compare orders a and b by the attribute k names, ascending.
func (k SortKey) Compare(a, b Issue) int {
	f, ok := sortFields[k]
	if !ok {
		f = sortFields[DefaultSortKey]
	}
	return f.compare(a, b)
}

// IssueFilter is the conjunction of list predicates. Empty fields do not filter.
type IssueFilter struct {
	Search   string
	Status   string
	Priority string
	Assignee string
}

// FoldSearch is the case folding applied to search text and to the needle by
// every store. It folds full Unicode, not just ASCII.
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

// Matches reports whether issue satisfies every non-empty predicate.
// Search is a case-insensitive substring match on title or description.
func (f IssueFilter) Matches(issue Issue) bool {
	if f.Search != "" {
		needle := FoldSearch(f.Search)
		if !strings.Contains(FoldSearch(issue.Title), needle) &&
			!strings.Contains(FoldSearch(issue.Description), needle) {
			return false
		}
	}
	if f.Status != "" && string(issue.Status) != f.Status {
		return false
	}
	if f.Priority != "" && string(issue.Priority) != f.Priority {
		return false
	}
	if f.Assignee != "" && issue.Assignee != f.Assignee {
		return false
	}
	return true
}

// SortOrder selects the sort key and direction. Ties are broken by ID in the
// same direction so page boundaries are stable.
type SortOrder struct {
	Key  SortKey
	Desc bool
}

// Compare orders a and b according to s.
func (s SortOrder) Compare(a, b Issue) int {
	c := s.Key.Compare(a, b)
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if s.Desc {
		return -c
	}
	return c
}

// Direction returns the SQL keyword for s.
func (s SortOrder) Direction() string {
	if s.Desc {
		return "DESC"
	}
	return "ASC"
}

// PageWindow is the offset/limit pair derived from a page number and size.
type PageWindow struct {
	Offset int
	Limit  int
}

// QuerySpec is the validated, normalized form of a list query.
type QuerySpec struct {
	Filter   IssueFilter
	Sort     SortOrder
	Page     int
	PageSize int
}

// Window returns the page window for q. A zero page or size is read as the
// default. An offset that would overflow int saturates at math.MaxInt, which
// is past the end of any result set.
func (q QuerySpec) Window() PageWindow {
	page := max(q.Page, 1)
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	offset := math.MaxInt
	if page-1 <= math.MaxInt/size {
		offset = (page - 1) * size
	}
	return PageWindow{
		Offset: offset,
		Limit:  size,
	}
}
