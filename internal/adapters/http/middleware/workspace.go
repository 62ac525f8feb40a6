package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	memberStore "memberadmin/internal/adapters/storage/member"
	"memberadmin/internal/application/workspace"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const workspaceContextKey contextKey = "workspace"

// DefaultWorkspaceTTL is how long a workspace lives after it is created.
const DefaultWorkspaceTTL = 24 * time.Hour

const workspaceCookieName = "memberadmin_workspace"

// SecureCookies marks the workspace cookie Secure. Set in production.
var SecureCookies = false

// StoreFactory returns an empty record store for a new workspace.
type StoreFactory func(workspaceID string) memberStore.Store

// Loader populates a freshly created workspace. It runs with the workspace locked.
type Loader func(ctx context.Context, ws *workspace.Workspace)

// WorkspaceStore is an in-memory registry of workspaces keyed by cookie token.
type WorkspaceStore struct {
	mu         sync.Mutex
	workspaces map[string]*workspace.Workspace
	newStore   StoreFactory
	ttl        time.Duration
	now        func() time.Time
}

// NewWorkspaceStore creates an empty registry.
// PRE: newStore is non-nil
// POST: ttl <= 0 falls back to DefaultWorkspaceTTL
func NewWorkspaceStore(newStore StoreFactory, ttl time.Duration) *WorkspaceStore {
	if ttl <= 0 {
		ttl = DefaultWorkspaceTTL
	}
	return &WorkspaceStore{
		workspaces: make(map[string]*workspace.Workspace),
		newStore:   newStore,
		ttl:        ttl,
		now:        time.Now,
	}
}

// TTL returns the workspace lifetime.
func (s *WorkspaceStore) TTL() time.Duration { return s.ttl }

// Create registers a new workspace and returns its token.
// POST: Workspace is stored with an empty record store, token is returned
func (s *WorkspaceStore) Create() (string, *workspace.Workspace, error) {
	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}
	id := uuid.New().String()
	ws := workspace.New(id, s.newStore(id), s.now())

	s.mu.Lock()
	s.workspaces[token] = ws
	s.mu.Unlock()

	slog.Info("workspace_event", "event", "workspace_created", "workspace_id", id)
	return token, ws, nil
}

// Get retrieves a workspace by token.
// PRE: none
// POST: Returns the workspace if present and not expired; expired entries stay
// registered until Sweep clears their stores
func (s *WorkspaceStore) Get(token string) (*workspace.Workspace, bool) {
	if token == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[token]
	if !ok {
		return nil, false
	}
	if s.expired(ws) {
		return nil, false
	}
	return ws, true
}

// Delete removes a workspace by token.
// POST: Workspace with given token is removed; its store is not cleared
func (s *WorkspaceStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, token)
}

// Len returns the number of registered workspaces.
func (s *WorkspaceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

// Sweep removes expired workspaces and clears their record stores.
// POST: Returns the number of workspaces removed
func (s *WorkspaceStore) Sweep(ctx context.Context) int {
	s.mu.Lock()
	var stale []*workspace.Workspace
	for token, ws := range s.workspaces {
		if s.expired(ws) {
			stale = append(stale, ws)
			delete(s.workspaces, token)
		}
	}
	s.mu.Unlock()

	for _, ws := range stale {
		ws.Lock()
		if err := ws.Members.Clear(ctx); err != nil {
			slog.Warn("workspace_event", "event", "workspace_clear_failed", "workspace_id", ws.ID, "error", err)
		}
		ws.Unlock()
	}
	if len(stale) > 0 {
		slog.Info("workspace_event", "event", "workspaces_swept", "count", len(stale))
	}
	return len(stale)
}

// Run sweeps on every tick until ctx is cancelled.
// POST: Returns nil once ctx is done
func (s *WorkspaceStore) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *WorkspaceStore) expired(ws *workspace.Workspace) bool {
	return s.now().Sub(ws.CreatedAt) > s.ttl
}

// Workspaces returns middleware that attaches the caller's workspace to the request.
// A workspace is created (and populated by load) when the cookie is missing or stale.
// The workspace stays locked for the whole request so actions never interleave.
func Workspaces(store *WorkspaceStore, load Loader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ws *workspace.Workspace
			fresh := false
			if cookie, err := r.Cookie(workspaceCookieName); err == nil {
				ws, _ = store.Get(cookie.Value)
			}
			if ws == nil {
				token, created, err := store.Create()
				if err != nil {
					slog.Error("workspace_event", "event", "workspace_create_failed", "error", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				SetWorkspaceCookie(w, token, store.TTL())
				ws, fresh = created, true
			}

			ws.Lock()
			defer ws.Unlock()
			if fresh && load != nil {
				load(r.Context(), ws)
			}
			next.ServeHTTP(w, r.WithContext(ContextWithWorkspace(r.Context(), ws)))
		})
	}
}

// GetWorkspaceFromContext extracts the workspace from the request context.
func GetWorkspaceFromContext(ctx context.Context) (*workspace.Workspace, bool) {
	ws, ok := ctx.Value(workspaceContextKey).(*workspace.Workspace)
	return ws, ok && ws != nil
}

// ContextWithWorkspace returns a context with the given workspace set.
func ContextWithWorkspace(ctx context.Context, ws *workspace.Workspace) context.Context {
	return context.WithValue(ctx, workspaceContextKey, ws)
}

// SetWorkspaceCookie sets the workspace cookie on the response.
func SetWorkspaceCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     workspaceCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
