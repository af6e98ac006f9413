package service

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sumire/issuetracker/internal/domain"
)

// ListParams holds the raw, untrusted list parameters as received from the client.
type ListParams struct {
	Page          string
	PageSize      string
	Search        string
	Status        string
	Priority      string
	Assignee      string
	SortColumn    string
	SortDirection string
}

// IssueList is the response shape of a list query.
type IssueList struct {
	Total    int            `json:"total"`
	Issues   []domain.Issue `json:"issues"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// NewQuerySpec resolves raw parameters into a QuerySpec. It never fails:
// unparseable numbers take their defaults, out-of-range numbers are clamped,
// and an unknown sort column falls back to createdAt.
func NewQuerySpec(p ListParams) domain.QuerySpec {
	page := parseInt(p.Page, domain.DefaultPage)
	page = min(max(page, 1), domain.MaxPage)

	pageSize := parseInt(p.PageSize, domain.DefaultPageSize)
	pageSize = min(max(pageSize, 1), domain.MaxPageSize)

	sortKey, _ := domain.ParseSortKey(strings.TrimSpace(p.SortColumn))

	return domain.QuerySpec{
		Filter: domain.IssueFilter{
			Search:   strings.TrimSpace(p.Search),
			Status:   strings.TrimSpace(p.Status),
			Priority: strings.TrimSpace(p.Priority),
			Assignee: strings.TrimSpace(p.Assignee),
		},
		Sort: domain.SortOrder{
			Key:  sortKey,
			Desc: isDescending(p.SortDirection),
		},
		Page:     page,
		PageSize: pageSize,
	}
}

// isDescending treats an absent direction as "desc" and any other value as ascending.
func isDescending(direction string) bool {
	direction = strings.TrimSpace(direction)
	return direction == "" || strings.EqualFold(direction, "desc")
}

func parseInt(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		// Atoi saturates at the int bounds; the caller clamps.
		return n
	}
	if err != nil {
		return fallback
	}
	return n
}
