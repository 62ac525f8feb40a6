package orchestrators

import (
	"context"
	"log/slog"

	"memberadmin/internal/application/workspace"
)

// SearchInput carries input for the search orchestrator.
type SearchInput struct {
	Query string
}

// SearchDeps holds dependencies for Search.
type SearchDeps struct {
	Workspace *workspace.Workspace
}

// ExecuteSearch applies a new search query.
// PRE: caller holds the workspace lock
// POST: Query is stored verbatim, page is 1 (even for an unchanged query), selection is empty
// INVARIANT: The store and any edit session are untouched
func ExecuteSearch(ctx context.Context, input SearchInput, deps SearchDeps) error {
	ws := deps.Workspace
	ws.Query = input.Query
	ws.Page = 1
	ws.Selection.Clear()

	slog.DebugContext(ctx, "member_event", "event", "members_searched", "workspace_id", ws.ID, "query", input.Query)
	return nil
}

// GoToPageInput carries input for the go-to-page orchestrator.
type GoToPageInput struct {
	Page int
}

// GoToPageDeps holds dependencies for GoToPage.
type GoToPageDeps struct {
	Workspace *workspace.Workspace
}

// ExecuteGoToPage moves to another page.
// PRE: caller holds the workspace lock; Page has already been clamped by the caller
// POST: Page is stored; selection is cleared when the page changed
func ExecuteGoToPage(ctx context.Context, input GoToPageInput, deps GoToPageDeps) error {
	ws := deps.Workspace
	if ws.Page != input.Page {
		ws.Selection.Clear()
	}
	ws.Page = input.Page

	slog.DebugContext(ctx, "member_event", "event", "page_changed", "workspace_id", ws.ID, "page", input.Page)
	return nil
}
