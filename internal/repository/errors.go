package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateContact is returned when an insert or update would violate the
// unique keys on email or phone. The HTTP layer translates it into a 409.
var ErrDuplicateContact = errors.New("contact with this email or phone already exists")

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL unique key violation.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
