package core

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

// Account is a sign-in identity with its password hash.
type Account struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Profile is the per-user document created on first sign-in.
type Profile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	PhotoURL  string `json:"photoURL"`
	CreatedAt string `json:"createdAt"`
}
