package model

import "time"

// User is an authenticated principal. Only the identifier leaks into the
// archive domain; everything else stays in the auth layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
