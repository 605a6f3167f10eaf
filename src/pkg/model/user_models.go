package model

import "time"

// User is an account that owns mind maps.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Active       bool      `json:"active"`
	Created      time.Time `json:"createdAt"`
	Updated      time.Time `json:"updatedAt"`
}

// UserInfo contains the writable fields of a user.
type UserInfo struct {
	ID       string
	Email    string
	Password string
	Active   bool
}

// UserFilter selects which UserInfo fields participate in a query or update.
type UserFilter struct {
	ID       bool
	Email    bool
	Password bool
	Active   bool
}
