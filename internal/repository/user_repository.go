package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/equipment-control/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u and assigns its role: admin when the table is empty,
// user otherwise.  The uniqueness check, the count and the insert share one
// transaction so two concurrent first registrations cannot both become
// admin.  u.Role is set on success.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var taken int
	if err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ?", u.Username).Scan(&taken); err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken > 0 {
		err = ErrDuplicateUsername
		return err
	}

	var total int
	if err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users FOR UPDATE").Scan(&total); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	role := model.RoleUser
	if total == 0 {
		role = model.RoleAdmin
	}

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, role) VALUES (?,?,?,?)",
		u.ID, u.Username, u.PasswordHash, role); err != nil {
		if isDuplicate(err) {
			err = ErrDuplicateUsername
			return err
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	u.Role = role
	return nil
}

// GetByUsername fetches a user by exact (case-sensitive) username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}
