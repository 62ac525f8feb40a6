package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"memberadmin/internal/adapters/http/middleware"
	"memberadmin/internal/application/listutil"
	"memberadmin/internal/application/orchestrators"
	"memberadmin/internal/application/projections"
	"memberadmin/internal/application/workspace"
	"memberadmin/internal/domain/edit"
	domainMember "memberadmin/internal/domain/member"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

// isDomainError reports whether err is an expected refusal rather than a fault.
func isDomainError(err error) bool {
	return errors.Is(err, edit.ErrAnotherRowEditing) ||
		errors.Is(err, edit.ErrNotEditing) ||
		errors.Is(err, edit.ErrUnknownField) ||
		errors.Is(err, domainMember.ErrFieldsRequired) ||
		errors.Is(err, domainMember.ErrNotFound) ||
		errors.Is(err, orchestrators.ErrMemberIDRequired) ||
		errors.Is(err, orchestrators.ErrLoadFailed)
}

// currentWorkspace returns the workspace attached by the workspace middleware.
func currentWorkspace(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws, ok := middleware.GetWorkspaceFromContext(r.Context())
	if !ok {
		internalError(w, errors.New("request has no workspace"))
		return nil, false
	}
	return ws, true
}

// mutations returns the mutation recorder, or nil when metrics are off.
func mutations() orchestrators.MutationRecorder {
	if appMetrics == nil {
		return nil
	}
	return appMetrics
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"sortHeaderArgs": func(col, label string, active listutil.SortParams) map[string]string {
			nextDir := "asc"
			if col == active.Sort && active.Dir == "asc" {
				nextDir = "desc"
			}
			return map[string]string{
				"Col": col, "Label": label,
				"ActiveSort": active.Sort, "ActiveDir": active.Dir, "NextDir": nextDir,
			}
		},
		"paginationQuery": func(page int, sp listutil.SortParams) template.URL {
			q := fmt.Sprintf("page=%d", page)
			if sp.Sort != "" {
				q += "&sort=" + url.QueryEscape(sp.Sort) + "&dir=" + url.QueryEscape(sp.Dir)
			}
			return template.URL(q)
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// redirectToMembers sends the browser back to the table, keeping the column sort.
func redirectToMembers(w http.ResponseWriter, r *http.Request) {
	target := "/members"
	if sp := listutil.ParseSortParams(r.Form); sp.Sort != "" {
		target += "?" + url.Values{"sort": {sp.Sort}, "dir": {sp.Dir}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// finishForm completes a form post: expected refusals are logged and the table is shown again.
func finishForm(w http.ResponseWriter, r *http.Request, action string, err error) {
	if err != nil && !isDomainError(err) {
		internalError(w, err)
		return
	}
	if err != nil {
		slog.Info("member_event", "event", "action_refused", "action", action, "reason", err.Error())
	}
	redirectToMembers(w, r)
}

// handleRoot handles GET /
func handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/members", http.StatusSeeOther)
}

// handleHealthz handles GET /healthz
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"workspaces": workspaces.Len(),
	})
}

// handlePerfSnapshot handles GET /debug/perf
// Query params: since (Go duration, default 15m), top (default 10)
func handlePerfSnapshot(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	window := 15 * time.Minute
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		window = d
	}
	top := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid top", http.StatusBadRequest)
			return
		}
		top = n
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(perfCollector.Snapshot(time.Now().Add(-window), top))
}

// handleMembers handles GET /members.
// A q parameter applies a search (page 1, selection cleared); a page parameter navigates.
func handleMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	params := r.URL.Query()

	if params.Has("q") {
		input := orchestrators.SearchInput{Query: params.Get("q")}
		if err := orchestrators.ExecuteSearch(ctx, input, orchestrators.SearchDeps{Workspace: ws}); err != nil {
			internalError(w, err)
			return
		}
	}
	if page, ok := listutil.ParsePage(params); ok {
		if err := goToPage(r, ws, page); err != nil {
			internalError(w, err)
			return
		}
	}

	query := projections.GetMemberListQuery{Sort: listutil.ParseSortParams(params)}
	result, err := projections.QueryGetMemberList(ctx, query, projections.GetMemberListDeps{Workspace: ws})
	if err != nil {
		internalError(w, err)
		return
	}

	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, newMemberListResponse(result))
		return
	}
	renderTemplate(w, r, "members.html", map[string]any{
		"Result":      result,
		"Banner":      banner,
		"SortColumns": sortColumns,
	})
}

// sortColumns are the sortable table headers, in display order.
var sortColumns = []struct{ Col, Label string }{
	{domainMember.FieldName, "Name"},
	{domainMember.FieldEmail, "Email"},
	{domainMember.FieldRole, "Role"},
}

// goToPage clamps an untrusted page number to the filtered set and navigates.
func goToPage(r *http.Request, ws *workspace.Workspace, page int) error {
	ctx := r.Context()
	filtered, err := ws.Filtered(ctx)
	if err != nil {
		return err
	}
	input := orchestrators.GoToPageInput{Page: listutil.ClampPage(page, len(filtered))}
	return orchestrators.ExecuteGoToPage(ctx, input, orchestrators.GoToPageDeps{Workspace: ws})
}

// handleBeginEdit handles POST /members/{id}/edit
func handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.BeginEditInput{MemberID: r.PathValue("id")}
	err := orchestrators.ExecuteBeginEdit(r.Context(), input, orchestrators.BeginEditDeps{Workspace: ws})
	finishForm(w, r, "begin_edit", err)
}

// handleSaveEdit handles POST /members/{id}/save
// Form fields: name, email, role
func handleSaveEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	if !ws.Edit.IsEditing(r.PathValue("id")) {
		finishForm(w, r, "commit_edit", edit.ErrNotEditing)
		return
	}
	input := orchestrators.CommitEditInput{Drafts: &domainMember.Fields{
		Name:  r.FormValue(domainMember.FieldName),
		Email: r.FormValue(domainMember.FieldEmail),
		Role:  r.FormValue(domainMember.FieldRole),
	}}
	deps := orchestrators.CommitEditDeps{Workspace: ws, Metrics: mutations()}
	err := orchestrators.ExecuteCommitEdit(r.Context(), input, deps)
	finishForm(w, r, "commit_edit", err)
}

// handleCancelEdit handles POST /members/{id}/cancel
func handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	if !ws.Edit.IsEditing(r.PathValue("id")) {
		finishForm(w, r, "cancel_edit", edit.ErrNotEditing)
		return
	}
	err := orchestrators.ExecuteCancelEdit(r.Context(), orchestrators.CancelEditInput{}, orchestrators.CancelEditDeps{Workspace: ws})
	finishForm(w, r, "cancel_edit", err)
}

// handleDeleteMember handles POST /members/{id}/delete
func handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.DeleteMemberInput{MemberID: r.PathValue("id")}
	deps := orchestrators.DeleteMemberDeps{Workspace: ws, Metrics: mutations()}
	err := orchestrators.ExecuteDeleteMember(r.Context(), input, deps)
	finishForm(w, r, "delete_member", err)
}

// handleSetSelection handles POST /members/selection
// Form fields: id (repeated, one per checked row)
func handleSetSelection(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.SetSelectionInput{IDs: r.PostForm["id"]}
	err := orchestrators.ExecuteSetSelection(r.Context(), input, orchestrators.SetSelectionDeps{Workspace: ws})
	finishForm(w, r, "set_selection", err)
}

// handleDeleteSelected handles POST /members/selection/delete
// The checked ids in the form become the selection before it is deleted.
func handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.SetSelectionInput{IDs: r.PostForm["id"]}
	if err := orchestrators.ExecuteSetSelection(ctx, input, orchestrators.SetSelectionDeps{Workspace: ws}); err != nil {
		internalError(w, err)
		return
	}
	deps := orchestrators.DeleteSelectedDeps{Workspace: ws, Metrics: mutations()}
	_, err := orchestrators.ExecuteDeleteSelected(ctx, orchestrators.DeleteSelectedInput{}, deps)
	finishForm(w, r, "delete_selected", err)
}

// handleReload handles POST /members/reload
func handleReload(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	_, err := orchestrators.ExecuteLoadMembers(r.Context(), orchestrators.LoadMembersInput{Reload: true}, loadDeps(ws))
	finishForm(w, r, "reload", err)
}
