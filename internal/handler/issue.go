package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
	"github.com/sumire/issuetracker/internal/service"
)

var errStoreUnavailable = errors.New("store unavailable")

// IssueHandler handles issue endpoints.
type IssueHandler struct {
	issues *service.IssueService
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(issues *service.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

// List returns a filtered, sorted page of issues.
func (h *IssueHandler) List(c echo.Context) error {
	list, err := h.issues.List(c.Request().Context(), service.ListParams{
		Page:          c.QueryParam("page"),
		PageSize:      c.QueryParam("pageSize"),
		Search:        c.QueryParam("search"),
		Status:        c.QueryParam("status"),
		Priority:      c.QueryParam("priority"),
		Assignee:      c.QueryParam("assignee"),
		SortColumn:    c.QueryParam("sortColumn"),
		SortDirection: c.QueryParam("sortDirection"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns a single issue.
func (h *IssueHandler) Get(c echo.Context) error {
	issue, err := h.issues.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issue)
}

// Create stores a new issue.
func (h *IssueHandler) Create(c echo.Context) error {
	in, err := bindIssueInput(c)
	if err != nil {
		return err
	}

	issue, err := h.issues.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, issue)
}

// Update replaces an existing issue.
func (h *IssueHandler) Update(c echo.Context) error {
	in, err := bindIssueInput(c)
	if err != nil {
		return err
	}

	issue, err := h.issues.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issue)
}

// Delete removes an issue.
func (h *IssueHandler) Delete(c echo.Context) error {
	if err := h.issues.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DeleteResponse{Detail: "Issue deleted successfully"})
}

// Health reports service and store liveness.
func (h *IssueHandler) Health(c echo.Context) error {
	if err := h.issues.Health(c.Request().Context()); err != nil {
		return fmt.Errorf("%w: %v", errStoreUnavailable, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func bindIssueInput(c echo.Context) (domain.IssueInput, error) {
	var in domain.IssueInput
	if err := (&echo.DefaultBinder{}).BindBody(c, &in); err != nil {
		return domain.IssueInput{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	// Validate what will be stored: trimmed, with defaults filled in.
	in = in.Normalize()
	if err := c.Validate(&in); err != nil {
		return domain.IssueInput{}, err
	}
	return in, nil
}
