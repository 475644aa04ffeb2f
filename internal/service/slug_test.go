package service

import (
	"regexp"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation collapsed", "How to train your dragon?!", "how-to-train-your-dragon"},
		{"multiple separators", "a -- b__c", "a-b-c"},
		{"leading and trailing junk", "  !Hello!  ", "hello"},
		{"digits kept", "Top 10 Go tips", "top-10-go-tips"},
		{"already kebab", "already-kebab", "already-kebab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slugify(tt.title); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNewSlug_Format(t *testing.T) {
	slug := newSlug("How to train your dragon")

	if !strings.HasPrefix(slug, "how-to-train-your-dragon-") {
		t.Errorf("slug %q does not start with the kebab title", slug)
	}

	suffix := slug[strings.LastIndex(slug, "-")+1:]
	if !regexp.MustCompile(`^[0-9a-z]{6}$`).MatchString(suffix) {
		t.Errorf("suffix %q is not 6 base36 characters", suffix)
	}
}

func TestNewSlug_DuplicateTitlesDiffer(t *testing.T) {
	a := newSlug("Same Title")
	b := newSlug("Same Title")
	if a == b {
		t.Errorf("two slugs for the same title collided: %q", a)
	}
}

func TestRandomSlugSuffix_AlwaysPadded(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if s := randomSlugSuffix(); len(s) != slugSuffixLen {
			t.Fatalf("suffix %q has length %d, want %d", s, len(s), slugSuffixLen)
		}
	}
}
