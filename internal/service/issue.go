package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sumire/issuetracker/internal/domain"
)

// IssueStore defines the issue data access interface consumed by IssueService.
type IssueStore interface {
	Create(ctx context.Context, in domain.IssueInput) (*domain.Issue, error)
	FindByID(ctx context.Context, id string) (*domain.Issue, error)
	Update(ctx context.Context, id string, in domain.IssueInput) (*domain.Issue, error)
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, q domain.QuerySpec) ([]domain.Issue, int, error)
	Ping(ctx context.Context) error
}

// IssueService applies input policy on top of an IssueStore.
type IssueService struct {
	issues IssueStore
}

// NewIssueService creates a new IssueService.
func NewIssueService(issues IssueStore) *IssueService {
	return &IssueService{issues: issues}
}

// List runs a filtered, sorted, paginated query built from raw parameters.
func (s *IssueService) List(ctx context.Context, params ListParams) (*IssueList, error) {
	q := NewQuerySpec(params)

	issues, total, err := s.issues.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	if issues == nil {
		issues = []domain.Issue{}
	}

	slog.DebugContext(ctx, "issues listed",
		"total", total,
		"returned", len(issues),
		"page", q.Page,
		"page_size", q.PageSize,
		"sort", q.Sort.Key,
	)

	return &IssueList{
		Total:    total,
		Issues:   issues,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

// Get retrieves a single issue.
func (s *IssueService) Get(ctx context.Context, id string) (*domain.Issue, error) {
	return s.issues.FindByID(ctx, id)
}

// Create validates the input, applies defaults, and stores a new issue.
func (s *IssueService) Create(ctx context.Context, in domain.IssueInput) (*domain.Issue, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	issue, err := s.issues.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "issue created", "issue_id", issue.ID)
	return issue, nil
}

// Update replaces every mutable field of an issue. Omitted fields revert to
// their defaults rather than keeping prior values.
func (s *IssueService) Update(ctx context.Context, id string, in domain.IssueInput) (*domain.Issue, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	issue, err := s.issues.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "issue updated", "issue_id", issue.ID)
	return issue, nil
}

// Delete permanently removes an issue.
func (s *IssueService) Delete(ctx context.Context, id string) error {
	if err := s.issues.Delete(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "issue deleted", "issue_id", id)
	return nil
}

// Health reports whether the underlying store is reachable.
func (s *IssueService) Health(ctx context.Context) error {
	return s.issues.Ping(ctx)
}
