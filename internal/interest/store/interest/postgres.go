package interest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rentmeroom/internal/interest/models"
	"rentmeroom/internal/platform/postgres"
	id "rentmeroom/pkg/domain"
	"rentmeroom/pkg/platform/sentinel"
	"rentmeroom/pkg/platform/tx"
)

const interestColumns = `id, tenant_id, room_id, message, status, created_at, updated_at`

// PostgresStore persists interests. The (tenant_id, room_id) unique index is
// the duplicate guard; concurrent inserts of one pair yield one row.
type PostgresStore struct {
	db *sql.DB
	tx *postgres.Transactor
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: postgres.NewTransactor(db)}
}

func (s *PostgresStore) Create(ctx context.Context, i *models.Interest) error {
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO interests (`+interestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, i.ID.String(), i.TenantID.String(), i.RoomID.String(), i.Message, string(i.Status), i.CreatedAt, i.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert interest: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, interestID id.InterestID) (*models.Interest, error) {
	return s.findOne(ctx, tx.Pick(ctx, s.db), `SELECT `+interestColumns+` FROM interests WHERE id = $1`, interestID.String())
}

// Execute locks the row with FOR UPDATE, applies fn and writes status back.
func (s *PostgresStore) Execute(ctx context.Context, interestID id.InterestID, fn func(*models.Interest) error) (*models.Interest, error) {
	var out *models.Interest
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := tx.Pick(ctx, s.db)
		i, err := s.findOne(ctx, q, `SELECT `+interestColumns+` FROM interests WHERE id = $1 FOR UPDATE`, interestID.String())
		if err != nil {
			return err
		}
		if err := fn(i); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE interests SET message = $2, status = $3, updated_at = $4 WHERE id = $1
		`, i.ID.String(), i.Message, string(i.Status), i.UpdatedAt); err != nil {
			return fmt.Errorf("update interest: %w", err)
		}
		out = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, interestID id.InterestID) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM interests WHERE id = $1`, interestID.String())
	if err != nil {
		return fmt.Errorf("delete interest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete interest: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.Interest, error) {
	return s.query(ctx, `
		SELECT `+interestColumns+` FROM interests
		WHERE tenant_id = $1
		ORDER BY created_at, id
	`, tenantID.String())
}

func (s *PostgresStore) ListByRooms(ctx context.Context, roomIDs []id.RoomID) ([]*models.Interest, error) {
	if len(roomIDs) == 0 {
		return []*models.Interest{}, nil
	}
	raw := make([]string, len(roomIDs))
	for n, roomID := range roomIDs {
		raw[n] = roomID.String()
	}
	return s.query(ctx, `
		SELECT `+interestColumns+` FROM interests
		WHERE room_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`, pq.Array(raw))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Interest, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interests: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Interest, 0)
	for rows.Next() {
		i, err := scanInterest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *PostgresStore) findOne(ctx context.Context, q tx.Querier, query string, args ...any) (*models.Interest, error) {
	i, err := scanInterest(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return i, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterest(row rowScanner) (*models.Interest, error) {
	var (
		i                      models.Interest
		rawID, tenant, roomRaw uuid.UUID
		status                 string
	)
	if err := row.Scan(&rawID, &tenant, &roomRaw, &i.Message, &status, &i.CreatedAt, &i.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan interest: %w", err)
	}
	i.ID = id.InterestID(rawID)
	i.TenantID = id.UserID(tenant)
	i.RoomID = id.RoomID(roomRaw)
	i.Status = models.Status(status)
	return &i, nil
}
