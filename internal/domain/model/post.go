package model

import "time"

// Post is a published content item. Access gating metadata lives in the
// post meta store, keyed by post ID, and is never mutated at request time.
type Post struct {
	ID        int64
	Slug      string
	Title     string
	Content   string
	PostType  string
	CreatedAt time.Time
}
