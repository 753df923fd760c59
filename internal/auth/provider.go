// Package auth signs users in and tracks the signed-in user of a session.
package auth

import "context"

// User is the identity the auth provider reports.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// Provider is the session-level auth collaborator. OnAuthStateChanged
// calls fn with the current user right away and again on every change;
// a nil user means signed out.
type Provider interface {
	OnAuthStateChanged(fn func(*User)) (unsubscribe func())
	SignOut(ctx context.Context) error
}
