// Package models holds the records of the development API. Their JSON form
// is the wire format the marketplace client expects.
package models

import "time"

const (
	RoleBuyer  = "BUYER"
	RoleSeller = "SELLER"
)

// User is a registered account. Salt and PasswordHash never leave the server.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Salt         []byte    `json:"-"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PendingRegistration is a signup waiting for its emailed code.
type PendingRegistration struct {
	Email        string
	Name         string
	Role         string
	Salt         []byte
	PasswordHash []byte
	Code         string
	ExpiresAt    time.Time
	Attempts     int
}
