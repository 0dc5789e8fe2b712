// Package repository mediates all reads and writes of contacts on the
// database. Absence of a record is an ordinary nil result, never an error;
// the HTTP layer decides what status code that becomes.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"gitlab.com/iryna.kovalenko/contacts-api/internal/model"
)

// insertContact is the statement for creating a contact on the database.
const insertContact = `
	INSERT INTO contacts (first_name, last_name, email, phone, birthday, additional_data)
	VALUES (:first_name, :last_name, :email, :phone, :birthday, :additional_data)
`

// selectContactByID is the statement for loading a contact with a given id.
const selectContactByID = `
	SELECT * FROM contacts WHERE id = ?
`

// ContactRepository executes contact queries and mutations against an
// injected database handle. Each mutating operation runs inside its own
// transaction; on any failure the transaction is rolled back.
type ContactRepository struct {
	db *sqlx.DB

	// Prepared statements offer a significant speed increase if executed
	// many times.
	selectWhereId    *sqlx.Stmt
	selectWhereEmail *sqlx.Stmt
}

// NewContactRepository wraps the given database handle and prepares the
// statements for the frequent single-row lookups. The handle can be a real
// database for production use or a mock database within unit tests.
func NewContactRepository(db *sqlx.DB) (*ContactRepository, error) {
	r := &ContactRepository{db: db}
	var err error
	r.selectWhereId, err = db.Preparex(selectContactByID)
	if err != nil {
		return nil, fmt.Errorf("prepare select by id: %w", err)
	}
	r.selectWhereEmail, err = db.Preparex(`
		SELECT * FROM contacts WHERE email = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by email: %w", err)
	}
	return r, nil
}

// Create inserts a new contact and returns the persisted record including
// its assigned id. A unique key violation on email or phone is reported as
// ErrDuplicateContact; the caller may pre-check, but the unique key on the
// table remains the authoritative guard.
func (r *ContactRepository) Create(ctx context.Context, input model.ContactInput) (*model.Contact, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.NamedExecContext(ctx, insertContact, input)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateContact
		}
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var contacts []model.Contact
	if err := tx.SelectContext(ctx, &contacts, selectContactByID, id); err != nil {
		return nil, fmt.Errorf("reload contact %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &contacts[0], nil
}

// GetByID returns the contact with the given id, or nil if there is none.
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*model.Contact, error) {
	var contacts []model.Contact
	if err := r.selectWhereId.SelectContext(ctx, &contacts, id); err != nil {
		return nil, fmt.Errorf("select contact %d: %w", id, err)
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// GetByEmail returns the contact with exactly this email, or nil if there is
// none. The comparison is case-sensitive: the email column carries a binary
// collation, so both the equality and the unique key distinguish case.
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	var contacts []model.Contact
	if err := r.selectWhereEmail.SelectContext(ctx, &contacts, email); err != nil {
		return nil, fmt.Errorf("select contact by email: %w", err)
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// List returns contacts ordered by ascending id, skipping the first skip
// records and returning at most limit.
func (r *ContactRepository) List(ctx context.Context, skip, limit int) ([]model.Contact, error) {
	var contacts []model.Contact
	err := r.db.SelectContext(ctx, &contacts, `
		SELECT * FROM contacts
		ORDER BY id
		LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Update loads the contact with the given id and assigns only the non-nil
// fields of changes. It returns the refreshed record, or nil if no contact
// with that id exists; in that case nothing is written.
func (r *ContactRepository) Update(ctx context.Context, id int64, changes model.ContactUpdate) (*model.Contact, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var contacts []model.Contact
	if err := tx.SelectContext(ctx, &contacts, selectContactByID, id); err != nil {
		return nil, fmt.Errorf("select contact %d: %w", id, err)
	}
	if len(contacts) == 0 {
		return nil, nil
	}

	var assignments []string
	var args []interface{}
	if changes.FirstName != nil {
		assignments = append(assignments, "first_name=?")
		args = append(args, *changes.FirstName)
	}
	if changes.LastName != nil {
		assignments = append(assignments, "last_name=?")
		args = append(args, *changes.LastName)
	}
	if changes.Email != nil {
		assignments = append(assignments, "email=?")
		args = append(args, *changes.Email)
	}
	if changes.Phone != nil {
		assignments = append(assignments, "phone=?")
		args = append(args, *changes.Phone)
	}
	if changes.Birthday != nil {
		assignments = append(assignments, "birthday=?")
		args = append(args, *changes.Birthday)
	}
	if changes.AdditionalData != nil {
		assignments = append(assignments, "additional_data=?")
		args = append(args, *changes.AdditionalData)
	}
	if len(assignments) == 0 {
		// Nothing to assign; return the record as it is.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return &contacts[0], nil
	}
	args = append(args, id)

	query := "UPDATE contacts SET " + strings.Join(assignments, ", ") + " WHERE id=?"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateContact
		}
		return nil, fmt.Errorf("update contact %d: %w", id, err)
	}

	contacts = contacts[:0]
	if err := tx.SelectContext(ctx, &contacts, selectContactByID, id); err != nil {
		return nil, fmt.Errorf("reload contact %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &contacts[0], nil
}

// Delete permanently removes the contact with the given id and returns the
// record as it was immediately before removal, or nil if no such contact
// exists.
func (r *ContactRepository) Delete(ctx context.Context, id int64) (*model.Contact, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var contacts []model.Contact
	if err := tx.SelectContext(ctx, &contacts, selectContactByID, id); err != nil {
		return nil, fmt.Errorf("select contact %d: %w", id, err)
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete contact %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &contacts[0], nil
}

// Search returns contacts where the query appears as a case-insensitive
// substring of the first name, the last name, or the email. Results are
// ordered by ascending id; skip and limit behave as in List.
func (r *ContactRepository) Search(ctx context.Context, query string, skip, limit int) ([]model.Contact, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var contacts []model.Contact
	err := r.db.SelectContext(ctx, &contacts, `
		SELECT * FROM contacts
		WHERE LOWER(first_name) LIKE ?
			OR LOWER(last_name) LIKE ?
			OR LOWER(email) LIKE ?
		ORDER BY id
		LIMIT ? OFFSET ?`, pattern, pattern, pattern, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return contacts, nil
}

// UpcomingBirthdays returns the contacts whose birthday's day of year falls
// within the inclusive 7-day window starting at today, comparing month and
// day only. The window wraps across the year boundary, in which case the
// BETWEEN predicate turns into an OR over both ends of the year. Contacts
// born in a year whose leap status differs from the queried year can be off
// by one day; this approximation is intentional.
//
// Results are ordered by ascending day of year of the birthday, then last
// name, then first name.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, today time.Time) ([]model.Contact, error) {
	start := today.YearDay()
	end := today.AddDate(0, 0, 6).YearDay()

	var contacts []model.Contact
	var err error
	if start <= end {
		err = r.db.SelectContext(ctx, &contacts, `
			SELECT * FROM contacts
			WHERE DAYOFYEAR(birthday) BETWEEN ? AND ?
			ORDER BY DAYOFYEAR(birthday), last_name, first_name`, start, end)
	} else {
		err = r.db.SelectContext(ctx, &contacts, `
			SELECT * FROM contacts
			WHERE DAYOFYEAR(birthday) >= ? OR DAYOFYEAR(birthday) <= ?
			ORDER BY DAYOFYEAR(birthday), last_name, first_name`, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("upcoming birthdays: %w", err)
	}
	return contacts, nil
}
