package room

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rentmeroom/internal/listing/models"
	"rentmeroom/internal/platform/postgres"
	id "rentmeroom/pkg/domain"
	"rentmeroom/pkg/platform/sentinel"
	"rentmeroom/pkg/platform/tx"
)

const roomColumns = `
	r.id, r.owner_id, r.title, r.rent, r.address,
	r.country, r.province, r.district, r.municipality, r.ward, r.street, r.house_no, r.landmark,
	ST_X(r.location::geometry), ST_Y(r.location::geometry),
	r.contact, r.features, r.description, r.is_verified, r.images, r.created_at, r.updated_at`

const newestFirst = ` ORDER BY r.created_at DESC, r.id`

// PostgresStore keeps rooms in a PostGIS geography column so radius search
// runs on the GiST index.
type PostgresStore struct {
	db *sql.DB
	tx *postgres.Transactor
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: postgres.NewTransactor(db)}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Room) error {
	images, err := json.Marshal(r.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	lon, lat := pointArgs(r.Location)
	_, err = tx.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO rooms (id, owner_id, title, rent, address,
			country, province, district, municipality, ward, street, house_no, landmark,
			location, contact, features, description, is_verified, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			CASE WHEN $14::float8 IS NULL THEN NULL
				ELSE ST_SetSRID(ST_MakePoint($14::float8, $15::float8), 4326)::geography END,
			$16, $17, $18, $19, $20, $21, $22)
	`, r.ID.String(), r.OwnerID.String(), r.Title, r.Rent, r.AddressText,
		r.Address.Country, r.Address.Province, r.Address.District, r.Address.Municipality,
		r.Address.Ward, r.Address.Street, r.Address.HouseNo, r.Address.Landmark,
		lon, lat, r.Contact, pq.Array(r.Features), r.Description, r.IsVerified, string(images),
		r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, roomID id.RoomID) (*models.Room, error) {
	return s.findOne(ctx, tx.Pick(ctx, s.db), `SELECT `+roomColumns+` FROM rooms r WHERE r.id = $1`, roomID.String())
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.RoomID) (map[id.RoomID]*models.Room, error) {
	out := make(map[id.RoomID]*models.Room, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, len(ids))
	for i, roomID := range ids {
		raw[i] = roomID.String()
	}
	rooms, err := s.query(ctx, `SELECT `+roomColumns+` FROM rooms r WHERE r.id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		out[r.ID] = r
	}
	return out, nil
}

// Execute locks the row with FOR UPDATE, applies fn and writes every mutable
// column back.
func (s *PostgresStore) Execute(ctx context.Context, roomID id.RoomID, fn func(*models.Room) error) (*models.Room, error) {
	var out *models.Room
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := tx.Pick(ctx, s.db)
		r, err := s.findOne(ctx, q, `SELECT `+roomColumns+` FROM rooms r WHERE r.id = $1 FOR UPDATE`, roomID.String())
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		images, err := json.Marshal(r.Images)
		if err != nil {
			return fmt.Errorf("encode images: %w", err)
		}
		lon, lat := pointArgs(r.Location)
		if _, err := q.ExecContext(ctx, `
			UPDATE rooms SET title = $2, rent = $3, address = $4,
				country = $5, province = $6, district = $7, municipality = $8, ward = $9,
				street = $10, house_no = $11, landmark = $12,
				location = CASE WHEN $13::float8 IS NULL THEN NULL
					ELSE ST_SetSRID(ST_MakePoint($13::float8, $14::float8), 4326)::geography END,
				contact = $15, features = $16, description = $17, is_verified = $18,
				images = $19, updated_at = $20
			WHERE id = $1
		`, r.ID.String(), r.Title, r.Rent, r.AddressText,
			r.Address.Country, r.Address.Province, r.Address.District, r.Address.Municipality, r.Address.Ward,
			r.Address.Street, r.Address.HouseNo, r.Address.Landmark,
			lon, lat, r.Contact, pq.Array(r.Features), r.Description, r.IsVerified,
			string(images), r.UpdatedAt); err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, roomID id.RoomID) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, roomID.String())
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListVerified(ctx context.Context, offset, limit int) ([]*models.Room, int, error) {
	return s.listCounted(ctx, `WHERE r.is_verified`, nil, offset, limit)
}

func (s *PostgresStore) ListAdmin(ctx context.Context, f models.AdminFilter) ([]*models.Room, int, error) {
	if f.Verified == nil {
		return s.listCounted(ctx, ``, nil, f.Offset(), f.Limit)
	}
	return s.listCounted(ctx, `WHERE r.is_verified = $1`, []any{*f.Verified}, f.Offset(), f.Limit)
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Room, error) {
	return s.query(ctx, `SELECT `+roomColumns+` FROM rooms r WHERE r.owner_id = $1`+newestFirst, ownerID.String())
}

// Search builds one statement from the filter. The window count carries the
// total so a page costs a single round trip.
func (s *PostgresStore) Search(ctx context.Context, f models.SearchFilter) ([]models.SearchHit, int, error) {
	var (
		where = []string{"r.is_verified"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Keywords != "" {
		p := arg("%" + escapeLike(f.Keywords) + "%")
		cols := []string{"r.title", "r.description", "r.address", "r.country", "r.province",
			"r.district", "r.municipality", "r.street", "r.landmark"}
		ors := make([]string, len(cols))
		for i, c := range cols {
			ors[i] = c + " ILIKE " + p
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if f.MinRent != nil {
		where = append(where, "r.rent >= "+arg(*f.MinRent))
	}
	if f.MaxRent != nil {
		where = append(where, "r.rent <= "+arg(*f.MaxRent))
	}
	if len(f.Features) > 0 {
		lowered := make([]string, len(f.Features))
		for i, feat := range f.Features {
			lowered[i] = strings.ToLower(feat)
		}
		where = append(where, "ARRAY(SELECT lower(f) FROM unnest(r.features) f) @> "+arg(pq.Array(lowered))+"::text[]")
	}

	distance := "NULL::float8"
	order := newestFirst
	if f.Near != nil {
		point := "ST_SetSRID(ST_MakePoint(" + arg(f.Near.Point.Lon) + "::float8, " + arg(f.Near.Point.Lat) + "::float8), 4326)::geography"
		distance = "ST_Distance(r.location, " + point + ")"
		where = append(where, "ST_DWithin(r.location, "+point+", "+arg(f.Near.RadiusMeters)+")")
		order = ` ORDER BY 2 ASC, r.created_at DESC`
	}

	query := `SELECT count(*) OVER (), ` + distance + `, ` + roomColumns +
		` FROM rooms r WHERE ` + strings.Join(where, " AND ") + order +
		` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset())

	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search rooms: %w", err)
	}
	defer rows.Close()

	var (
		hits  = []models.SearchHit{}
		total int
	)
	for rows.Next() {
		var d sql.NullFloat64
		r, err := scanRoom(rows, &total, &d)
		if err != nil {
			return nil, 0, err
		}
		hit := models.SearchHit{Room: r}
		if d.Valid {
			hit.DistanceM = &d.Float64
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("search rooms: %w", err)
	}
	if len(hits) == 0 && f.Offset() > 0 {
		// Past the last page the window count has no row to ride on.
		total, err = s.count(ctx, strings.Join(where, " AND "), args[:len(args)-2])
		if err != nil {
			return nil, 0, err
		}
	}
	return hits, total, nil
}

func (s *PostgresStore) count(ctx context.Context, where string, args []any) (int, error) {
	var total int
	if err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `SELECT count(*) FROM rooms r WHERE `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rooms: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) listCounted(ctx context.Context, where string, args []any, offset, limit int) ([]*models.Room, int, error) {
	var total int
	if err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `SELECT count(*) FROM rooms r `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	n := len(args)
	query := `SELECT ` + roomColumns + ` FROM rooms r ` + where + newestFirst +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rooms, err := s.query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Room, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()
	rooms := []*models.Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (s *PostgresStore) findOne(ctx context.Context, q tx.Querier, query string, args ...any) (*models.Room, error) {
	r, err := scanRoom(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return r, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRoom reads roomColumns, preceded by any extra destinations.
func scanRoom(row rowScanner, extra ...any) (*models.Room, error) {
	var (
		r        models.Room
		rawID    uuid.UUID
		rawOwner uuid.UUID
		ward     sql.NullInt64
		lon, lat sql.NullFloat64
		features pq.StringArray
		images   []byte
	)
	dest := append(extra,
		&rawID, &rawOwner, &r.Title, &r.Rent, &r.AddressText,
		&r.Address.Country, &r.Address.Province, &r.Address.District, &r.Address.Municipality,
		&ward, &r.Address.Street, &r.Address.HouseNo, &r.Address.Landmark,
		&lon, &lat, &r.Contact, &features, &r.Description, &r.IsVerified, &images,
		&r.CreatedAt, &r.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan room: %w", err)
	}
	r.ID = id.RoomID(rawID)
	r.OwnerID = id.UserID(rawOwner)
	if ward.Valid {
		w := int(ward.Int64)
		r.Address.Ward = &w
	}
	if lon.Valid && lat.Valid {
		r.Location = &models.GeoPoint{Lon: lon.Float64, Lat: lat.Float64}
	}
	r.Features = []string(features)
	if r.Features == nil {
		r.Features = []string{}
	}
	if err := json.Unmarshal(images, &r.Images); err != nil {
		return nil, fmt.Errorf("decode room images: %w", err)
	}
	return &r, nil
}

func pointArgs(p *models.GeoPoint) (lon, lat any) {
	if p == nil {
		return nil, nil
	}
	return p.Lon, p.Lat
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
