// Package model defines the data structures shared by the repository,
// service, and handler layers.
package model

import "time"

// User represents a registered account.
//
// PasswordHash is tagged `json:"-"` so it can never leak into a response,
// no matter which handler serializes the struct. Repository methods that
// don't need the hash leave it empty.
type User struct {
	ID           string    `json:"-"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	Image        string    `json:"image"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public view of a user, as seen by a (possibly anonymous)
// viewer. It deliberately carries no email and no credential material.
// Following is computed per viewer: false for anonymous requests.
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

// ProfileOf builds the public profile view for a user.
func ProfileOf(u *User, following bool) *Profile {
	return &Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}
