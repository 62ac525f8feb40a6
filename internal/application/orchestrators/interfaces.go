package orchestrators

import (
	"context"
	"time"

	domain "memberadmin/internal/domain/member"
)

// MemberSource fetches the full member list.
type MemberSource interface {
	Fetch(ctx context.Context) ([]domain.Member, error)
}

// MemberRefresher is implemented by sources that serve a cached list.
// Refresh skips the cache and replaces it with a fresh fetch.
type MemberRefresher interface {
	Refresh(ctx context.Context) ([]domain.Member, error)
}

// FetchRecorder observes fetch outcomes.
type FetchRecorder interface {
	ObserveFetch(ok bool, records int, d time.Duration)
}

// MutationRecorder counts applied table mutations.
type MutationRecorder interface {
	RecordMutation(action string, deleted int)
}
