package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/equipment-control/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectUsernameCount(mock sqlmock.Sqlmock, username string, n int) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE username = \?`).
		WithArgs(username).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func expectTotalCount(mock sqlmock.Sqlmock, n int) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func TestUserCreate_FirstUserIsAdmin(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	expectUsernameCount(mock, "alice", 0)
	expectTotalCount(mock, 0)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("id-1", "alice", "hash", model.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u := &model.User{ID: "id-1", Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_LaterUsersAreUsers(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	expectUsernameCount(mock, "bob", 0)
	expectTotalCount(mock, 3)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("id-2", "bob", "hash", model.RoleUser).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u := &model.User{ID: "id-2", Username: "bob", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, model.RoleUser, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_DuplicateUsernameWritesNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	expectUsernameCount(mock, "alice", 1)
	mock.ExpectRollback()

	u := &model.User{ID: "id-3", Username: "alice", PasswordHash: "hash"}
	err := repo.Create(context.Background(), u)
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Empty(t, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_UniqueIndexRace(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	expectUsernameCount(mock, "alice", 0)
	expectTotalCount(mock, 1)
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.User{ID: "id-4", Username: "alice", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT id,username,password_hash,role FROM users WHERE username=\?`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).
			AddRow("id-1", "alice", "hash", "admin"))

	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", u.ID)
	assert.True(t, u.IsAdmin())

	mock.ExpectQuery(`SELECT id,username,password_hash,role FROM users WHERE username=\?`).
		WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}))

	_, err = repo.GetByUsername(context.Background(), "Alice")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
