package model

import "time"

// Article is a published piece of content.
//
// Slug is the public identifier (unique, derived from the title plus a
// random suffix); ID and AuthorID are internal keys and never serialized.
// TagList is always non-nil — an article without tags carries an empty
// slice so the JSON field is [] rather than null.
//
// Favorited is viewer-specific: it is annotated by the service layer for
// authenticated viewers and stays false for anonymous ones. FavoritesCount
// is denormalized and maintained by the favorites repository; the invariant
// is that it always equals the number of favorite edges for the article.
type Article struct {
	ID             string    `json:"-"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	AuthorID       string    `json:"-"`
	Author         Profile   `json:"author"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
