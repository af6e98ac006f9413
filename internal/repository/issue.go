package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/issuetracker/internal/domain"
)

const issueColumns = `id, title, description, status, priority, assignee, created_at, updated_at`

// title_fold and description_fold hold domain.FoldSearch of their columns so
// search folds case the same way on every database and in MemoryStore.
const foldColumns = `title_fold, description_fold`

// IssueRepository handles issue data access over a SQL database.
type IssueRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewIssueRepository creates a new IssueRepository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db, now: time.Now}
}

// timestamp returns the current time at the precision every supported
// database round-trips without loss.
func (r *IssueRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// Create inserts a new issue with a fresh ID and timestamps.
func (r *IssueRepository) Create(ctx context.Context, in domain.IssueInput) (*domain.Issue, error) {
	now := r.timestamp()
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

	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO issues (`+issueColumns+`, `+foldColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		issue.ID, issue.Title, issue.Description, string(issue.Status), string(issue.Priority),
		issue.Assignee, issue.CreatedAt, issue.UpdatedAt,
		domain.FoldSearch(issue.Title), domain.FoldSearch(issue.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	return &issue, nil
}

// FindByID retrieves an issue by its ID.
func (r *IssueRepository) FindByID(ctx context.Context, id string) (*domain.Issue, error) {
	var issue domain.Issue
	err := r.db.GetContext(ctx, &issue, r.db.Rebind(
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find issue by id %s: %w", id, err)
	}
	return &issue, nil
}

// Update replaces every mutable field of the issue and refreshes updated_at.
// Concurrent updates to the same issue are last-writer-wins.
func (r *IssueRepository) Update(ctx context.Context, id string, in domain.IssueInput) (*domain.Issue, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update issue %s: begin: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	var current domain.Issue
	err = tx.GetContext(ctx, &current, tx.Rebind(
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update issue %s: load: %w", id, err)
	}

	issue := current.Apply(in, r.timestamp())
	res, err := tx.ExecContext(ctx, tx.Rebind(
		`UPDATE issues
		 SET title = ?, description = ?, status = ?, priority = ?, assignee = ?, updated_at = ?,
		     title_fold = ?, description_fold = ?
		 WHERE id = ?`),
		issue.Title, issue.Description, string(issue.Status), string(issue.Priority), issue.Assignee,
		issue.UpdatedAt, domain.FoldSearch(issue.Title), domain.FoldSearch(issue.Description), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update issue %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update issue %s: %w", id, err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update issue %s: commit: %w", id, err)
	}
	return &issue, nil
}

// Delete permanently removes an issue.
func (r *IssueRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM issues WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete issue %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete issue %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Query returns one page of issues matching q and the number of issues
// matching the filter before pagination.
func (r *IssueRepository) Query(ctx context.Context, q domain.QuerySpec) ([]domain.Issue, int, error) {
	where, args := buildIssueWhere(q.Filter)
	window := q.Window()

	tx, err := r.db.BeginTxx(ctx, snapshotTxOptions(r.db.DriverName()))
	if err != nil {
		return nil, 0, fmt.Errorf("query issues: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.GetContext(ctx, &total, tx.Rebind(`SELECT COUNT(*) FROM issues`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("query issues: count: %w", err)
	}

	issues := []domain.Issue{}
	if window.Offset >= 0 && total > window.Offset {
		dir := q.Sort.Direction()
		// #nosec G201 - column and direction come from the sort allow-list
		query := fmt.Sprintf(`SELECT %s FROM issues%s ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
			issueColumns, where, q.Sort.Key.Column(), dir, dir)
		pageArgs := append(append([]any{}, args...), window.Limit, window.Offset)
		if err := tx.SelectContext(ctx, &issues, tx.Rebind(query), pageArgs...); err != nil {
			return nil, 0, fmt.Errorf("query issues: select: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("query issues: commit: %w", err)
	}
	return issues, total, nil
}

// snapshotTxOptions returns options under which the count and the page read
// the same snapshot. Postgres needs REPEATABLE READ for that; SQLite
// transactions are already serializable and run on a single connection.
func snapshotTxOptions(driver string) *sql.TxOptions {
	if driver == driverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

// buildIssueWhere renders the filter as a WHERE clause with ? placeholders.
func buildIssueWhere(f domain.IssueFilter) (string, []any) {
	var conditions []string
	var args []any

	if f.Search != "" {
		pattern := "%" + escapeLike(domain.FoldSearch(f.Search)) + "%"
		conditions = append(conditions,
			`(title_fold LIKE ? ESCAPE '\' OR description_fold LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.Assignee != "" {
		conditions = append(conditions, "assignee = ?")
		args = append(args, f.Assignee)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
