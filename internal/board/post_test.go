package board

import (
	"errors"
	"strings"
	"testing"
)

func TestPostDraftValidate(t *testing.T) {
	valid := PostDraft{Title: "t", Author: "a", Content: "c"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	cases := []struct {
		name  string
		draft PostDraft
		field string
	}{
		{"missing title", PostDraft{Author: "a", Content: "c"}, "title"},
		{"whitespace title", PostDraft{Title: "   ", Author: "a", Content: "c"}, "title"},
		{"missing author", PostDraft{Title: "t", Content: "c"}, "author"},
		{"missing content", PostDraft{Title: "t", Author: "a"}, "content"},
		{"title too long", PostDraft{Title: strings.Repeat("x", MaxTitleLen+1), Author: "a", Content: "c"}, "title"},
		{"author too long", PostDraft{Title: "t", Author: strings.Repeat("x", MaxAuthorLen+1), Content: "c"}, "author"},
		{"content too long", PostDraft{Title: "t", Author: "a", Content: strings.Repeat("x", MaxContentLen+1)}, "content"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestPostDraftValidateCountsRunes(t *testing.T) {
	// 140 multibyte characters are within the limit; the constraint counts
	// characters, not bytes.
	draft := PostDraft{
		Title:   "タイトル",
		Author:  "投稿者",
		Content: strings.Repeat("あ", MaxContentLen),
	}
	if err := draft.Validate(); err != nil {
		t.Fatalf("rune-length content rejected: %v", err)
	}

	draft.Content = strings.Repeat("あ", MaxContentLen+1)
	if err := draft.Validate(); err == nil {
		t.Fatal("content over the rune limit accepted")
	}
}

func TestPostPatchValidate(t *testing.T) {
	title := "new title"
	empty := "  "

	if err := (PostPatch{}).Validate(); err != nil {
		t.Fatalf("empty patch rejected: %v", err)
	}
	if err := (PostPatch{Title: &title}).Validate(); err != nil {
		t.Fatalf("valid patch rejected: %v", err)
	}
	if err := (PostPatch{Title: &empty}).Validate(); err == nil {
		t.Fatal("patch clearing a required field accepted")
	}
}

func TestPostPatchApply(t *testing.T) {
	content := "c2"
	post := Post{Title: "t", Author: "a", Content: "c"}

	updated := PostPatch{Content: &content}.Apply(post)

	if updated.Content != "c2" || updated.Title != "t" || updated.Author != "a" {
		t.Fatalf("unexpected merge result: %+v", updated)
	}
	if post.Content != "c" {
		t.Fatal("Apply mutated its input")
	}
}

func TestUnavailableErrorMatchesClass(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &UnavailableError{Op: "connect", Err: cause}

	if !errors.Is(err, ErrUnavailable) {
		t.Fatal("UnavailableError did not match ErrUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Fatal("UnavailableError lost its cause")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("UnavailableError matched ErrNotFound")
	}
}
