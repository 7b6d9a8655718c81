package models

import "time"

// RefreshToken is a server-stored refresh token. Subject is the DID the
// token was issued to.
type RefreshToken struct {
	ID        string
	Subject   string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
