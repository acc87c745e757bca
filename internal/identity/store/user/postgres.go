package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rentmeroom/internal/access"
	"rentmeroom/internal/blob"
	"rentmeroom/internal/identity/models"
	"rentmeroom/internal/platform/postgres"
	id "rentmeroom/pkg/domain"
	"rentmeroom/pkg/platform/sentinel"
	"rentmeroom/pkg/platform/tx"
)

const selectUser = `
	SELECT u.id, u.name, u.email, u.password_hash, u.role, u.created_at, u.updated_at,
		p.user_id IS NOT NULL,
		COALESCE(p.phone, ''), COALESCE(p.address, ''), COALESCE(p.gov_id_type, ''), COALESCE(p.gov_id_number, ''),
		p.gov_id_image, p.profile_image,
		COALESCE(p.bio, ''), COALESCE(p.facebook, ''), COALESCE(p.whatsapp, ''),
		COALESCE(p.property_count, 0), COALESCE(p.verified, false)
	FROM users u
	LEFT JOIN owner_profiles p ON p.user_id = u.id`

// PostgresStore persists users and owner_profiles. Email uniqueness is the
// lower(email) unique index.
type PostgresStore struct {
	db *sql.DB
	tx *postgres.Transactor
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: postgres.NewTransactor(db)}
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := tx.Pick(ctx, s.db)
		_, err := q.ExecContext(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, u.ID.String(), u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if u.Owner != nil {
			return saveOwner(ctx, q, u.ID, u.Owner)
		}
		return nil
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, tx.Pick(ctx, s.db), selectUser+` WHERE u.id = $1`, userID.String())
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, tx.Pick(ctx, s.db), selectUser+` WHERE lower(u.email) = lower($1)`, email)
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*models.User, error) {
	out := make(map[id.UserID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, len(ids))
	for i, userID := range ids {
		raw[i] = userID.String()
	}
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, selectUser+` WHERE u.id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]*models.User, int, error) {
	q := tx.Pick(ctx, s.db)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	rows, err := q.QueryContext(ctx, selectUser+` ORDER BY u.created_at DESC, u.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	users := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Execute locks the row with FOR UPDATE, applies fn and writes the result back.
func (s *PostgresStore) Execute(ctx context.Context, userID id.UserID, fn func(*models.User) error) (*models.User, error) {
	var out *models.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := tx.Pick(ctx, s.db)
		u, err := s.findOne(ctx, q, selectUser+` WHERE u.id = $1 FOR UPDATE OF u`, userID.String())
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE users SET name = $2, role = $3, updated_at = $4 WHERE id = $1
		`, u.ID.String(), u.Name, string(u.Role), u.UpdatedAt); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if u.Owner != nil {
			if err := saveOwner(ctx, q, u.ID, u.Owner); err != nil {
				return err
			}
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID.String())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, q tx.Querier, query string, args ...any) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return u, err
}

func saveOwner(ctx context.Context, q tx.Querier, userID id.UserID, o *models.OwnerProfile) error {
	govImage, err := json.Marshal(o.GovIDImage)
	if err != nil {
		return fmt.Errorf("encode gov id image: %w", err)
	}
	var profileImage []byte
	if o.ProfileImage != nil {
		if profileImage, err = json.Marshal(o.ProfileImage); err != nil {
			return fmt.Errorf("encode profile image: %w", err)
		}
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO owner_profiles (user_id, phone, address, gov_id_type, gov_id_number, gov_id_image,
			profile_image, bio, facebook, whatsapp, property_count, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			gov_id_type = EXCLUDED.gov_id_type,
			gov_id_number = EXCLUDED.gov_id_number,
			gov_id_image = EXCLUDED.gov_id_image,
			profile_image = EXCLUDED.profile_image,
			bio = EXCLUDED.bio,
			facebook = EXCLUDED.facebook,
			whatsapp = EXCLUDED.whatsapp,
			property_count = EXCLUDED.property_count,
			verified = EXCLUDED.verified
	`, userID.String(), o.Phone, o.Address, o.GovIDType, o.GovIDNumber, govImage,
		nullableJSON(profileImage), o.Bio, o.Facebook, o.WhatsApp, o.PropertyCount, o.Verified)
	if err != nil {
		return fmt.Errorf("save owner profile: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u            models.User
		rawID        uuid.UUID
		role         string
		hasOwner     bool
		o            models.OwnerProfile
		govImage     []byte
		profileImage []byte
	)
	if err := row.Scan(&rawID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt,
		&hasOwner, &o.Phone, &o.Address, &o.GovIDType, &o.GovIDNumber, &govImage, &profileImage,
		&o.Bio, &o.Facebook, &o.WhatsApp, &o.PropertyCount, &o.Verified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(rawID)
	u.Role = access.Role(role)
	if hasOwner {
		if len(govImage) > 0 {
			if err := json.Unmarshal(govImage, &o.GovIDImage); err != nil {
				return nil, fmt.Errorf("decode gov id image: %w", err)
			}
		}
		if len(profileImage) > 0 {
			var img blob.Image
			if err := json.Unmarshal(profileImage, &img); err != nil {
				return nil, fmt.Errorf("decode profile image: %w", err)
			}
			o.ProfileImage = &img
		}
		u.Owner = &o
	}
	return &u, nil
}
