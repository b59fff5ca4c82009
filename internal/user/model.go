package user

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Address      string     `json:"address" db:"address"`
	Phone        string     `json:"phone" db:"phone"`
	BirthDate    *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	IsAdmin      bool       `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Profile holds the fields a customer may edit themselves.
type Profile struct {
	Name      string
	Address   string
	Phone     string
	BirthDate *time.Time
}
