package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sumire/issuetracker/internal/domain"
)

// MemoryStore keeps issues in process memory. It implements the same
// contract as IssueRepository and is selected with a memory:// database URL.
type MemoryStore struct {
	mu     sync.RWMutex
	issues map[string]domain.Issue
	now    func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		issues: make(map[string]domain.Issue),
		now:    time.Now,
	}
}

func (m *MemoryStore) timestamp() time.Time {
	return m.now().UTC().Truncate(time.Microsecond)
}

func (m *MemoryStore) Create(_ context.Context, in domain.IssueInput) (*domain.Issue, error) {
	now := m.timestamp()
	issue := domain.Issue{
		ID:          domain.NewIssueID(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Assignee:    in.Assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	m.issues[issue.ID] = issue
	m.mu.Unlock()

	return &issue, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*domain.Issue, error) {
	m.mu.RLock()
	issue, ok := m.issues[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &issue, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, in domain.IssueInput) (*domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.issues[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	updated := current.Apply(in, m.timestamp())
	m.issues[id] = updated
	return &updated, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.issues[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.issues, id)
	return nil
}

func (m *MemoryStore) Query(_ context.Context, q domain.QuerySpec) ([]domain.Issue, int, error) {
	m.mu.RLock()
	matched := make([]domain.Issue, 0, len(m.issues))
	for _, issue := range m.issues {
		if q.Filter.Matches(issue) {
			matched = append(matched, issue)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, q.Sort.Compare)

	total := len(matched)
	window := q.Window()
	if window.Offset < 0 || window.Offset >= total {
		return []domain.Issue{}, total, nil
	}
	end := min(window.Offset+window.Limit, total)
	return slices.Clone(matched[window.Offset:end]), total, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
