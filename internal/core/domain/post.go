package domain

import "time"

// Post is a piece of content published by an identity.
type Post struct {
	ID            int64     `json:"id"`
	AuthorID      int64     `json:"author_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ImageURL      string    `json:"image_url,omitempty"`
	LikesCount    int       `json:"likes_count"`
	DislikesCount int       `json:"dislikes_count"`
	ViewsCount    int       `json:"views_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PostPatch is a sparse post update; nil fields are left untouched.
type PostPatch struct {
	Title    *string
	Content  *string
	ImageURL *string
}

// Empty reports whether the patch sets nothing.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.ImageURL == nil
}
