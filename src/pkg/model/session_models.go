package model

import "time"

// Session is an authenticated server-side session addressed by its bearer token.
type Session struct {
	ID           string
	User         *User
	Created      time.Time
	LastActivity time.Time
	Expires      time.Time
}
