package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"memberadmin/internal/application/listutil"
	"memberadmin/internal/application/orchestrators"
	"memberadmin/internal/application/projections"
	"memberadmin/internal/application/workspace"
	"memberadmin/internal/domain/edit"
	domainMember "memberadmin/internal/domain/member"
)

// The JSON API mirrors the HTML form routes. Every mutation answers with the
// refreshed member list so clients never need a second round trip.
// Requests must carry Content-Type: application/json, including bodiless ones;
// that header is what exempts them from the CSRF token check.

type memberJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Selected bool   `json:"selected"`
}

type editingJSON struct {
	ID     string              `json:"id"`
	Drafts domainMember.Fields `json:"drafts"`
	// Hidden is set when the row is not among members.
	Hidden bool `json:"hidden,omitempty"`
}

// memberListResponse is the JSON shape of the visible table.
type memberListResponse struct {
	Members    []memberJSON `json:"members"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
	Total      int          `json:"total"`
	Query      string       `json:"query"`
	Editing    *editingJSON `json:"editing,omitempty"`
	Selected   []string     `json:"selected"`
	Error      string       `json:"error,omitempty"`
	LoadFailed bool         `json:"load_failed"`
}

func newMemberListResponse(result projections.GetMemberListResult) memberListResponse {
	resp := memberListResponse{
		Members:    make([]memberJSON, 0, len(result.Rows)),
		Page:       result.PageInfo.Page,
		TotalPages: result.PageInfo.TotalPages,
		Total:      result.PageInfo.Total,
		Query:      result.Query,
		Selected:   []string{},
		Error:      result.Error,
		LoadFailed: result.LoadFailed,
	}
	for _, row := range result.Rows {
		resp.Members = append(resp.Members, memberJSON{
			ID:       row.ID,
			Name:     row.Name,
			Email:    row.Email,
			Role:     row.Role,
			Selected: row.Selected,
		})
		if row.Selected {
			resp.Selected = append(resp.Selected, row.ID)
		}
	}
	if result.EditingID != "" {
		resp.Editing = &editingJSON{ID: result.EditingID, Drafts: result.EditingDraft, Hidden: result.EditingHidden}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// apiStatus maps domain errors to HTTP status codes.
// POST: returns 0 for errors that are not expected refusals
func apiStatus(err error) int {
	switch {
	case errors.Is(err, edit.ErrAnotherRowEditing), errors.Is(err, edit.ErrNotEditing):
		return http.StatusConflict
	case errors.Is(err, domainMember.ErrFieldsRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainMember.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, edit.ErrUnknownField), errors.Is(err, orchestrators.ErrMemberIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, orchestrators.ErrLoadFailed):
		return http.StatusBadGateway
	}
	return 0
}

// apiError writes a JSON error body for a domain error, or a generic 500.
func apiError(w http.ResponseWriter, err error) {
	status := apiStatus(err)
	if status == 0 {
		internalError(w, err)
		return
	}
	slog.Info("member_event", "event", "api_refused", "status", status, "reason", err.Error())
	message := err.Error()
	if status == http.StatusBadGateway {
		message = orchestrators.ErrLoadFailed.Error()
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func badRequest(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
}

// respondWithList answers a mutation: the error if it failed, otherwise the refreshed list.
func respondWithList(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, err error) {
	if err != nil {
		apiError(w, err)
		return
	}
	result, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{
		Sort: listutil.ParseSortParams(r.URL.Query()),
	}, projections.GetMemberListDeps{Workspace: ws})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberListResponse(result))
}

// handleAPIMembers handles GET /api/members[?sort=&dir=]
func handleAPIMembers(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	respondWithList(w, r, ws, nil)
}

// handleAPISearch handles POST /api/search {"query": "..."}
func handleAPISearch(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	var body struct {
		Query string `json:"query"`
	}
	if err := strictDecode(r, &body); err != nil {
		badRequest(w)
		return
	}
	input := orchestrators.SearchInput{Query: body.Query}
	err := orchestrators.ExecuteSearch(r.Context(), input, orchestrators.SearchDeps{Workspace: ws})
	respondWithList(w, r, ws, err)
}

// handleAPIPage handles POST /api/page {"page": n}
// Out-of-range pages are clamped.
func handleAPIPage(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	var body struct {
		Page int `json:"page"`
	}
	if err := strictDecode(r, &body); err != nil {
		badRequest(w)
		return
	}
	respondWithList(w, r, ws, goToPage(r, ws, body.Page))
}

// handleAPIBeginEdit handles POST /api/edit/begin {"id": "..."}
func handleAPIBeginEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := strictDecode(r, &body); err != nil {
		badRequest(w)
		return
	}
	input := orchestrators.BeginEditInput{MemberID: body.ID}
	err := orchestrators.ExecuteBeginEdit(r.Context(), input, orchestrators.BeginEditDeps{Workspace: ws})
	respondWithList(w, r, ws, err)
}

// handleAPISetDraft handles PATCH /api/edit/draft {"field": "name|email|role", "value": "..."}
func handleAPISetDraft(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := strictDecode(r, &body); err != nil {
		badRequest(w)
		return
	}
	input := orchestrators.SetDraftFieldInput{Field: body.Field, Value: body.Value}
	err := orchestrators.ExecuteSetDraftField(r.Context(), input, orchestrators.SetDraftFieldDeps{Workspace: ws})
	respondWithList(w, r, ws, err)
}

// handleAPICommitEdit handles POST /api/edit/commit
// An optional body {"name","email","role"} overrides the named drafts before validating.
func handleAPICommitEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	var body struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Role  *string `json:"role"`
	}
	if err := strictDecode(r, &body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w)
		return
	}
	input := orchestrators.CommitEditInput{}
	if body.Name != nil || body.Email != nil || body.Role != nil {
		drafts := ws.Edit.Drafts()
		if body.Name != nil {
			drafts.Name = *body.Name
		}
		if body.Email != nil {
			drafts.Email = *body.Email
		}
		if body.Role != nil {
			drafts.Role = *body.Role
		}
		input.Drafts = &drafts
	}
	deps := orchestrators.CommitEditDeps{Workspace: ws, Metrics: mutations()}
	err := orchestrators.ExecuteCommitEdit(r.Context(), input, deps)
	respondWithList(w, r, ws, err)
}

// handleAPICancelEdit handles POST /api/edit/cancel
func handleAPICancelEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	err := orchestrators.ExecuteCancelEdit(r.Context(), orchestrators.CancelEditInput{}, orchestrators.CancelEditDeps{Workspace: ws})
	respondWithList(w, r, ws, err)
}

// handleAPIDeleteMember handles DELETE /api/members/{id}
func handleAPIDeleteMember(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	input := orchestrators.DeleteMemberInput{MemberID: r.PathValue("id")}
	deps := orchestrators.DeleteMemberDeps{Workspace: ws, Metrics: mutations()}
	err := orchestrators.ExecuteDeleteMember(r.Context(), input, deps)
	respondWithList(w, r, ws, err)
}

// handleAPISetSelection handles PUT /api/selection {"ids": [...]}
func handleAPISetSelection(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := strictDecode(r, &body); err != nil {
		badRequest(w)
		return
	}
	input := orchestrators.SetSelectionInput{IDs: body.IDs}
	err := orchestrators.ExecuteSetSelection(r.Context(), input, orchestrators.SetSelectionDeps{Workspace: ws})
	respondWithList(w, r, ws, err)
}

// handleAPIDeleteSelected handles POST /api/selection/delete
func handleAPIDeleteSelected(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	deps := orchestrators.DeleteSelectedDeps{Workspace: ws, Metrics: mutations()}
	_, err := orchestrators.ExecuteDeleteSelected(r.Context(), orchestrators.DeleteSelectedInput{}, deps)
	respondWithList(w, r, ws, err)
}

// handleAPIReload handles POST /api/reload
func handleAPIReload(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	_, err := orchestrators.ExecuteLoadMembers(r.Context(), orchestrators.LoadMembersInput{Reload: true}, loadDeps(ws))
	respondWithList(w, r, ws, err)
}
