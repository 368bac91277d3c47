package domain

import "time"

// User is the persistence record for a registered account.
// PasswordHash never leaves the service; handlers render dto.PublicUser instead.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
