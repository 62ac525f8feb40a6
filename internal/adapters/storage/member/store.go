package member

import (
	"context"

	domain "memberadmin/internal/domain/member"
)

// Store holds the ordered Member records of one workspace.
// Order is the order of the last Load; mutations never reorder.
type Store interface {
	Load(ctx context.Context, records []domain.Member) error
	List(ctx context.Context) ([]domain.Member, error)
	GetByID(ctx context.Context, id string) (domain.Member, error)
	Update(ctx context.Context, id string, fields domain.Fields) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// dedupe keeps the first record for each id, preserving order.
func dedupe(records []domain.Member) []domain.Member {
	seen := make(map[string]bool, len(records))
	out := make([]domain.Member, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
