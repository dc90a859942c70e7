package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/equipment-control/internal/model"
)

func TestIRCommandCreate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewIRCommandRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ir_commands WHERE model = \?`).
		WithArgs("AC-100").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO ir_commands`).
		WithArgs("AC-100", "A1", "A0").
		WillReturnResult(sqlmock.NewResult(4, 1))

	c := &model.IRCommand{Model: "AC-100", RawOn: "A1", RawOff: "A0"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, uint64(4), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIRCommandCreate_DuplicateModel(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewIRCommandRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ir_commands WHERE model = \?`).
		WithArgs("AC-100").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.Create(context.Background(), &model.IRCommand{Model: "AC-100"})
	assert.ErrorIs(t, err, ErrDuplicateModel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIRCommandUpdate_RenameOntoExisting(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewIRCommandRepo(db)

	mock.ExpectExec(`UPDATE ir_commands SET model = \?, raw_on = \?, raw_off = \? WHERE id = \?`).
		WithArgs("AC-200", "B1", "B0", 1).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err := repo.Update(context.Background(), &model.IRCommand{ID: 1, Model: "AC-200", RawOn: "B1", RawOff: "B0"})
	assert.ErrorIs(t, err, ErrDuplicateModel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIRCommandGetByModel_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewIRCommandRepo(db)

	mock.ExpectQuery(`SELECT id, model, raw_on, raw_off FROM ir_commands WHERE model = \?`).
		WithArgs("AC-999").
		WillReturnRows(sqlmock.NewRows([]string{"id", "model", "raw_on", "raw_off"}))

	_, err := repo.GetByModel(context.Background(), "AC-999")
	assert.ErrorIs(t, err, ErrIRCommandNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
