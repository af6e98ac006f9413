package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// IssueStatus represents the lifecycle state of an issue.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

// IssuePriority represents the urgency of an issue.
type IssuePriority string

const (
	IssuePriorityLow      IssuePriority = "low"
	IssuePriorityMedium   IssuePriority = "medium"
	IssuePriorityHigh     IssuePriority = "high"
	IssuePriorityCritical IssuePriority = "critical"
)

// Valid reports whether p is one of the known priorities.
func (p IssuePriority) Valid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityCritical:
		return true
	}
	return false
}

const (
	DefaultIssueStatus   = IssueStatusOpen
	DefaultIssuePriority = IssuePriorityLow

	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
	MaxAssigneeLength    = 200
)

// Issue represents a trackable unit of work.
type Issue struct {
	ID          string        `json:"id" db:"id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Status      IssueStatus   `json:"status" db:"status"`
	Priority    IssuePriority `json:"priority" db:"priority"`
	Assignee    string        `json:"assignee" db:"assignee"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// Apply returns a new Issue with every mutable field replaced by in and
// UpdatedAt set to now. ID and CreatedAt are carried over unchanged.
func (i Issue) Apply(in IssueInput, now time.Time) Issue {
	if now.Before(i.CreatedAt) {
		now = i.CreatedAt
	}
	return Issue{
		ID:          i.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Assignee:    in.Assignee,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   now,
	}
}

// IssueInput is the mutable field set accepted by create and update.
// Update is a full replace: omitted fields fall back to their defaults.
type IssueInput struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=10000"`
	Status      IssueStatus   `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	Priority    IssuePriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Assignee    string        `json:"assignee" validate:"max=200"`
}

// Normalize trims surrounding whitespace and fills in default status and priority.
func (in IssueInput) Normalize() IssueInput {
	out := IssueInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      IssueStatus(strings.TrimSpace(string(in.Status))),
		Priority:    IssuePriority(strings.TrimSpace(string(in.Priority))),
		Assignee:    strings.TrimSpace(in.Assignee),
	}
	if out.Status == "" {
		out.Status = DefaultIssueStatus
	}
	if out.Priority == "" {
		out.Priority = DefaultIssuePriority
	}
	return out
}

// Validate checks a normalized input and reports the first offending field.
func (in IssueInput) Validate() error {
	switch {
	case in.Title == "":
		return &ValidationError{Field: "title", Message: "must not be empty"}
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		return &ValidationError{Field: "title", Message: "must be at most 200 characters"}
	case utf8.RuneCountInString(in.Description) > MaxDescriptionLength:
		return &ValidationError{Field: "description", Message: "must be at most 10000 characters"}
	case utf8.RuneCountInString(in.Assignee) > MaxAssigneeLength:
		return &ValidationError{Field: "assignee", Message: "must be at most 200 characters"}
	case !in.Status.Valid():
		return &ValidationError{Field: "status", Message: "must be one of open, in_progress, resolved, closed"}
	case !in.Priority.Valid():
		return &ValidationError{Field: "priority", Message: "must be one of low, medium, high, critical"}
	}
	return nil
}
