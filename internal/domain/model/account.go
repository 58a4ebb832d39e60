package model

import "time"

// Account is a local user account that a CAS identity can be bridged into.
type Account struct {
	ID           int64
	Login        string
	Email        string
	FirstName    string
	LastName     string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
