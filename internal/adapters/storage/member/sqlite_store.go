package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"memberadmin/internal/adapters/storage"
	domain "memberadmin/internal/domain/member"
)

// SQLiteStore implements Store on a shared in-memory SQLite database.
// Rows are scoped by workspace id; position preserves load order.
type SQLiteStore struct {
	db          storage.SQLDB
	workspaceID string
}

// Compile-time check that *SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a Store over the rows of one workspace.
// PRE: workspaceID is non-empty; the schema from storage.InitDB exists
func NewSQLiteStore(db storage.SQLDB, workspaceID string) *SQLiteStore {
	return &SQLiteStore{db: db, workspaceID: workspaceID}
}

// Load replaces the workspace's rows in one transaction.
// PRE: none
// POST: List returns records in input order, first occurrence of an id wins
func (s *SQLiteStore) Load(ctx context.Context, records []domain.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM member WHERE workspace_id = ?", s.workspaceID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO member (workspace_id, id, position, name, email, role) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range dedupe(records) {
		if _, err := stmt.ExecContext(ctx, s.workspaceID, r.ID, i, r.Name, r.Email, r.Role); err != nil {
			return fmt.Errorf("insert member %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// List returns the workspace's rows ordered by load position.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, role FROM member WHERE workspace_id = ? ORDER BY position",
		s.workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Member{}
	for rows.Next() {
		var entity domain.Member
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Email, &entity.Role); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// GetByID retrieves a Member by its ID.
// PRE: none
// POST: Returns domain.ErrNotFound if missing
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, role FROM member WHERE workspace_id = ? AND id = ?",
		s.workspaceID, id,
	)

	var entity domain.Member
	err := row.Scan(&entity.ID, &entity.Name, &entity.Email, &entity.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, domain.ErrNotFound
	}
	return entity, err
}

// Update replaces name, email and role of one row.
// PRE: fields have been validated
// POST: Row updated; unknown id affects nothing
func (s *SQLiteStore) Update(ctx context.Context, id string, fields domain.Fields) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE member SET name = ?, email = ?, role = ? WHERE workspace_id = ? AND id = ?",
		fields.Name, fields.Email, fields.Role, s.workspaceID, id,
	)
	return err
}

// Delete removes one row. Unknown id is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM member WHERE workspace_id = ? AND id = ?", s.workspaceID, id)
	return err
}

// DeleteMany removes every listed row in a single statement.
// POST: Observers see either all or none of the removals
func (s *SQLiteStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids)+1)
	args = append(args, s.workspaceID)
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf("DELETE FROM member WHERE workspace_id = ? AND id IN (%s)", placeholders)
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Count returns the number of rows in the workspace.
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member WHERE workspace_id = ?", s.workspaceID).Scan(&count)
	return count, err
}

// Clear removes every row of the workspace.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM member WHERE workspace_id = ?", s.workspaceID)
	return err
}
