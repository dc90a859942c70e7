package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/equipment-control/internal/model"
)

// IRCommandRepo encapsulates all queries against the ir_commands table.
type IRCommandRepo struct {
	db *sql.DB
}

func NewIRCommandRepo(db *sql.DB) *IRCommandRepo {
	return &IRCommandRepo{db: db}
}

// Create inserts a command after checking that its model is unused.  The
// unique index backs the check up against concurrent inserts.
func (r *IRCommandRepo) Create(ctx context.Context, c *model.IRCommand) error {
	var exists int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ir_commands WHERE model = ?", c.Model).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return ErrDuplicateModel
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO ir_commands (model, raw_on, raw_off) VALUES (?, ?, ?)", c.Model, c.RawOn, c.RawOff)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateModel
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID fetches a command by id or returns ErrIRCommandNotFound.
func (r *IRCommandRepo) GetByID(ctx context.Context, id uint64) (*model.IRCommand, error) {
	return r.get(ctx, "SELECT id, model, raw_on, raw_off FROM ir_commands WHERE id = ?", id)
}

// GetByModel fetches the command registered for an exact model name.
func (r *IRCommandRepo) GetByModel(ctx context.Context, modelName string) (*model.IRCommand, error) {
	return r.get(ctx, "SELECT id, model, raw_on, raw_off FROM ir_commands WHERE model = ? LIMIT 1", modelName)
}

func (r *IRCommandRepo) get(ctx context.Context, q string, arg any) (*model.IRCommand, error) {
	var c model.IRCommand
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&c.ID, &c.Model, &c.RawOn, &c.RawOff); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIRCommandNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Update overwrites model and payloads.  Renaming onto an existing model
// yields ErrDuplicateModel.
func (r *IRCommandRepo) Update(ctx context.Context, c *model.IRCommand) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE ir_commands SET model = ?, raw_on = ?, raw_off = ? WHERE id = ?",
		c.Model, c.RawOn, c.RawOff, c.ID)
	if isDuplicate(err) {
		return ErrDuplicateModel
	}
	return err
}

// ListAll returns every command ordered by model name.
func (r *IRCommandRepo) ListAll(ctx context.Context) ([]*model.IRCommand, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, model, raw_on, raw_off FROM ir_commands ORDER BY model")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.IRCommand
	for rows.Next() {
		c := new(model.IRCommand)
		if err := rows.Scan(&c.ID, &c.Model, &c.RawOn, &c.RawOff); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
