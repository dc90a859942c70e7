// Package repository holds the data access layer.  Sentinel errors defined
// here let handlers and services tell expected outcomes (missing rows,
// uniqueness violations) apart from infrastructure failures.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateUsername is returned when registering a username that already
// exists.  No row is written.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateModel is returned when an IR command would reuse a model name.
var ErrDuplicateModel = errors.New("ir command model already exists")

// ErrIRCommandNotFound is returned when no IR command matches the lookup.
var ErrIRCommandNotFound = errors.New("ir command not found")

// ErrEquipmentNotFound is returned when no equipment matches the lookup.
var ErrEquipmentNotFound = errors.New("equipment not found")

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
