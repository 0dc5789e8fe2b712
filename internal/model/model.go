package model

import "time"

// Contact is the data structure for a person that we know, as stored on the
// database. AdditionalData is the only nullable column.
type Contact struct {
	Id             int64     `json:"id"                        db:"id"`
	FirstName      string    `json:"first_name"                db:"first_name"`
	LastName       string    `json:"last_name"                 db:"last_name"`
	Email          string    `json:"email"                     db:"email"`
	Phone          string    `json:"phone"                     db:"phone"`
	Birthday       time.Time `json:"birthday"                  db:"birthday"`
	AdditionalData *string   `json:"additional_data,omitempty" db:"additional_data"`
}

// ContactInput carries the payload for creating a contact or replacing one
// via PUT. Every field except AdditionalData is mandatory.
type ContactInput struct {
	FirstName      string    `json:"first_name"                db:"first_name"      binding:"required,max=50"`
	LastName       string    `json:"last_name"                 db:"last_name"       binding:"required,max=50"`
	Email          string    `json:"email"                     db:"email"           binding:"required,email,max=255"`
	Phone          string    `json:"phone"                     db:"phone"           binding:"required,max=50"`
	Birthday       time.Time `json:"birthday"                  db:"birthday"        binding:"required"`
	AdditionalData *string   `json:"additional_data,omitempty" db:"additional_data" binding:"omitempty,max=255"`
}

// ContactUpdate carries a partial update. A nil field means "leave the stored
// value untouched"; only non-nil fields end up in the UPDATE statement.
type ContactUpdate struct {
	FirstName      *string    `json:"first_name,omitempty"      binding:"omitempty,max=50"`
	LastName       *string    `json:"last_name,omitempty"       binding:"omitempty,max=50"`
	Email          *string    `json:"email,omitempty"           binding:"omitempty,email,max=255"`
	Phone          *string    `json:"phone,omitempty"           binding:"omitempty,max=50"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	AdditionalData *string    `json:"additional_data,omitempty" binding:"omitempty,max=255"`
}

// Empty returns true if the update would not change a single field.
func (u ContactUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.Phone == nil && u.Birthday == nil && u.AdditionalData == nil
}

// FullUpdate converts a complete input into an update that assigns every
// field. Used by the PUT handler so that full and partial updates share one
// repository code path.
func FullUpdate(in ContactInput) ContactUpdate {
	return ContactUpdate{
		FirstName:      &in.FirstName,
		LastName:       &in.LastName,
		Email:          &in.Email,
		Phone:          &in.Phone,
		Birthday:       &in.Birthday,
		AdditionalData: in.AdditionalData,
	}
}
