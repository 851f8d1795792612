package board

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Field length limits, counted in runes after trimming surrounding whitespace.
const (
	MaxTitleLen   = 100
	MaxAuthorLen  = 50
	MaxContentLen = 140
)

// Post is the single entity served by the board. The id is opaque: the
// durable store assigns its native document id, the in-memory fallback
// assigns an incrementing integer rendered as a string.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	OwnerID   string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostDraft carries the caller-supplied fields for a new post. The id and
// timestamps are assigned by whichever store performs the create.
type PostDraft struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Content string `json:"content"`
	OwnerID string `json:"userId,omitempty"`
}

// Validate checks the draft against the required-field and length
// constraints. It must be called before handing the draft to a store that
// has no schema of its own.
func (d PostDraft) Validate() error {
	if err := requireField("title", d.Title, MaxTitleLen); err != nil {
		return err
	}
	if err := requireField("author", d.Author, MaxAuthorLen); err != nil {
		return err
	}
	return requireField("content", d.Content, MaxContentLen)
}

// PostPatch is a partial update. Nil fields are left untouched by the store;
// set fields replace the stored value. CreatedAt and OwnerID are immutable.
type PostPatch struct {
	Title   *string `json:"title,omitempty"`
	Author  *string `json:"author,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Validate checks every specified field of the patch. A field that is
// present must still satisfy the creation-time constraints; clearing a
// required field through an update is rejected.
func (p PostPatch) Validate() error {
	if p.Title != nil {
		if err := requireField("title", *p.Title, MaxTitleLen); err != nil {
			return err
		}
	}
	if p.Author != nil {
		if err := requireField("author", *p.Author, MaxAuthorLen); err != nil {
			return err
		}
	}
	if p.Content != nil {
		if err := requireField("content", *p.Content, MaxContentLen); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the patch onto a copy of the post without touching
// timestamps. Stores own the updatedAt refresh.
func (p PostPatch) Apply(post Post) Post {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Author != nil {
		post.Author = *p.Author
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	return post
}

func requireField(field, value string, max int) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	if utf8.RuneCountInString(trimmed) > max {
		return &ValidationError{Field: field, Message: field + " exceeds maximum length"}
	}
	return nil
}
