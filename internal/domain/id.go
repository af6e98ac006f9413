package domain

import "github.com/oklog/ulid/v2"

// NewIssueID returns a fresh, lexically sortable issue identifier.
func NewIssueID() string {
	return ulid.Make().String()
}
