package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/equipment-control/internal/model"
)

// EquipmentRepo encapsulates all queries against the equipment table.
type EquipmentRepo struct {
	db *sql.DB
}

// NewEquipmentRepo constructs an EquipmentRepo with the provided DB handle.
func NewEquipmentRepo(db *sql.DB) *EquipmentRepo {
	return &EquipmentRepo{db: db}
}

const equipmentColumns = "id, model, brand, active, `condition`, building, room, esp_address"

// nullable maps an empty address to SQL NULL so "no device" has a single
// stored representation.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(s rowScanner) (*model.Equipment, error) {
	var (
		e    model.Equipment
		addr sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Model, &e.Brand, &e.Active, &e.Condition, &e.Building, &e.Room, &addr); err != nil {
		return nil, err
	}
	e.ESPAddress = addr.String
	return &e, nil
}

// Create inserts a new equipment row and populates e.ID.  Active defaults
// to true and Condition to "ok" when left empty.
func (r *EquipmentRepo) Create(ctx context.Context, e *model.Equipment) error {
	if e.Condition == "" {
		e.Condition = model.ConditionOK
	}
	const q = "INSERT INTO equipment (model, brand, active, `condition`, building, room, esp_address) VALUES (?, ?, ?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, e.Model, e.Brand, e.Active, e.Condition, e.Building, e.Room, nullable(e.ESPAddress))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID fetches one equipment row.  It returns ErrEquipmentNotFound if no
// row matches.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (*model.Equipment, error) {
	e, err := scanEquipment(r.db.QueryRowContext(ctx, "SELECT "+equipmentColumns+" FROM equipment WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	return e, nil
}

// Update overwrites the editable fields (brand, model, building, room and
// ESP address).  Active and Condition are left untouched.
func (r *EquipmentRepo) Update(ctx context.Context, e *model.Equipment) error {
	const q = `UPDATE equipment
	           SET brand = ?, model = ?, building = ?, room = ?, esp_address = ?
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, e.Brand, e.Model, e.Building, e.Room, nullable(e.ESPAddress), e.ID); err != nil {
		return err
	}
	return nil
}

// SetActive records the power state reported by a successful dispatch.
func (r *EquipmentRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE equipment SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEquipmentNotFound
	}
	return nil
}

// ListAll returns every equipment row ordered by building, room and id.
func (r *EquipmentRepo) ListAll(ctx context.Context) ([]*model.Equipment, error) {
	return r.list(ctx, "SELECT "+equipmentColumns+" FROM equipment ORDER BY building, room, id")
}

// ListByBuilding returns the equipment installed in one building.
func (r *EquipmentRepo) ListByBuilding(ctx context.Context, building string) ([]*model.Equipment, error) {
	return r.list(ctx, "SELECT "+equipmentColumns+" FROM equipment WHERE building = ? ORDER BY room, id", building)
}

func (r *EquipmentRepo) list(ctx context.Context, q string, args ...any) ([]*model.Equipment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Buildings returns the distinct building names in ascending order.
func (r *EquipmentRepo) Buildings(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT building FROM equipment ORDER BY building")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
