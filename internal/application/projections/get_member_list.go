package projections

import (
	"context"

	"memberadmin/internal/application/listutil"
	"memberadmin/internal/application/workspace"
	domainMember "memberadmin/internal/domain/member"
)

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	Sort listutil.SortParams
}

// MemberRow is one rendered table row.
type MemberRow struct {
	domainMember.Member
	Selected bool
	Editing  bool
	// Draft holds the in-progress values when Editing is set.
	Draft domainMember.Fields
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Rows     []MemberRow
	PageInfo listutil.PageInfo
	Query    string
	Sort     listutil.SortParams

	// EditingID is the id of the row in edit mode, empty when idle.
	EditingID string
	// EditingDraft holds the in-progress values while EditingID is set.
	EditingDraft domainMember.Fields
	// EditingHidden is set when the row in edit mode is not among Rows,
	// after a search or page change moved it out of view.
	EditingHidden bool
	SelectedCount int
	// AllSelected is set when every visible row is selected.
	AllSelected bool

	Error      string
	LoadFailed bool
	// StoreTotal counts every record regardless of the query.
	StoreTotal int
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	Workspace *workspace.Workspace
}

// QueryGetMemberList builds the visible page of the member table.
// PRE: caller holds the workspace lock
// POST: Rows are the current page of the filtered store, sorted within the page only
// INVARIANT: Workspace state is not mutated
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	ws := deps.Workspace

	all, err := ws.Members.List(ctx)
	if err != nil {
		return GetMemberListResult{}, err
	}
	filtered := listutil.Filter(all, ws.Query)
	info := listutil.NewPageInfo(ws.Page, len(filtered))
	page := listutil.SortMembers(listutil.Slice(filtered, info.Page), query.Sort)

	editingID, editing := ws.Edit.Active()
	var draft domainMember.Fields
	if editing {
		draft = ws.Edit.Drafts()
	}
	rows := make([]MemberRow, 0, len(page))
	selectedVisible, editingVisible := 0, false
	for _, m := range page {
		row := MemberRow{
			Member:   m,
			Selected: ws.Selection.Contains(m.ID),
			Editing:  editing && m.ID == editingID,
		}
		if row.Editing {
			row.Draft = draft
			editingVisible = true
		}
		if row.Selected {
			selectedVisible++
		}
		rows = append(rows, row)
	}

	return GetMemberListResult{
		Rows:          rows,
		PageInfo:      info,
		Query:         ws.Query,
		Sort:          query.Sort,
		EditingID:     editingID,
		EditingDraft:  draft,
		EditingHidden: editing && !editingVisible,
		SelectedCount: ws.Selection.Len(),
		AllSelected:   len(rows) > 0 && selectedVisible == len(rows),
		Error:         ws.Error,
		LoadFailed:    ws.LoadFailed,
		StoreTotal:    len(all),
	}, nil
}
