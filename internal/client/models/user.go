// Package models defines the client-side data model of the bidding
// marketplace: the persisted session, the authenticated user projection, and
// the projects and bids returned by the REST API.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bidmarket/internal/common"
)

// Role is the side of the marketplace a user committed to at registration.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts any letter case ("buyer", "Seller").
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// UnmarshalJSON normalizes the letter case; validity is checked by callers.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = Role(strings.ToUpper(strings.TrimSpace(s)))
	return nil
}

// UserSummary is the read-only projection of the authenticated user. It has
// no credential fields, so anything decoded into it is credential-free.
type UserSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// UserDetails is the payload of the profile endpoint.
type UserDetails struct {
	UserSummary
	ProjectsCreated []Project `json:"projectsCreated"`
	ProjectsTaken   []Project `json:"projectsTaken"`
	Bids            []Bid     `json:"bids"`
}

// Session is the persisted authentication state. The zero value is the
// absent session.
type Session struct {
	Token   string
	Role    Role
	Profile *UserSummary
}

// Present reports whether the session carries both a token and a profile.
func (s Session) Present() bool {
	return s.Token != "" && s.Profile != nil
}

// AuthResult is the success body of the login and OTP verification endpoints.
type AuthResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// Validate rejects bodies that cannot become a session.
func (a *AuthResult) Validate() error {
	if a.Token == "" {
		return fmt.Errorf("%w: missing token", common.ErrParse)
	}
	if a.User.ID == "" {
		return fmt.Errorf("%w: missing user id", common.ErrParse)
	}
	if !a.User.Role.Valid() {
		return fmt.Errorf("%w: user role %q", common.ErrParse, a.User.Role)
	}
	return nil
}

// Registration carries the identity fields sent to request a signup OTP.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Validate requires all four fields.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: please enter your name", common.ErrValidation)
	case strings.TrimSpace(r.Email) == "", r.Password == "":
		return fmt.Errorf("%w: please fill in all required fields", common.ErrValidation)
	case !r.Role.Valid():
		return fmt.Errorf("%w: please choose buyer or seller", common.ErrValidation)
	}
	return nil
}
