package sqlite

import (
	"context"
	"testing"
)

func favoritesCount(t *testing.T, db *DB, slug string) int {
	t.Helper()
	article, err := db.GetBySlug(context.Background(), slug)
	if err != nil {
		t.Fatalf("GetBySlug(%s) error = %v", slug, err)
	}
	return article.FavoritesCount
}

func TestAddFavorite_IdempotentCount(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "jake", "jake@example.com")
	reader := createTestUser(t, db, "anna", "anna@example.com")
	article := createTestArticle(t, db, author.ID, "dragons-abc", "Dragons")

	ctx := context.Background()
	added, err := db.AddFavorite(ctx, reader.ID, article.ID)
	if err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	if !added {
		t.Error("AddFavorite() = false on first favorite")
	}
	if got := favoritesCount(t, db, "dragons-abc"); got != 1 {
		t.Errorf("favoritesCount = %d after first favorite, want 1", got)
	}

	// The second favorite is a no-op: count must stay at 1.
	added, err = db.AddFavorite(ctx, reader.ID, article.ID)
	if err != nil {
		t.Fatalf("AddFavorite() second call error = %v", err)
	}
	if added {
		t.Error("AddFavorite() = true on repeat favorite")
	}
	if got := favoritesCount(t, db, "dragons-abc"); got != 1 {
		t.Errorf("favoritesCount = %d after repeat favorite, want 1", got)
	}
}

func TestRemoveFavorite_IdempotentCount(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "jake", "jake@example.com")
	reader := createTestUser(t, db, "anna", "anna@example.com")
	article := createTestArticle(t, db, author.ID, "dragons-abc", "Dragons")

	ctx := context.Background()
	if _, err := db.AddFavorite(ctx, reader.ID, article.ID); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}

	removed, err := db.RemoveFavorite(ctx, reader.ID, article.ID)
	if err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if !removed {
		t.Error("RemoveFavorite() = false on first unfavorite")
	}
	if got := favoritesCount(t, db, "dragons-abc"); got != 0 {
		t.Errorf("favoritesCount = %d after unfavorite, want 0", got)
	}

	// Unfavoriting again must not drive the count negative.
	removed, err = db.RemoveFavorite(ctx, reader.ID, article.ID)
	if err != nil {
		t.Fatalf("RemoveFavorite() second call error = %v", err)
	}
	if removed {
		t.Error("RemoveFavorite() = true on repeat unfavorite")
	}
	if got := favoritesCount(t, db, "dragons-abc"); got != 0 {
		t.Errorf("favoritesCount = %d after repeat unfavorite, want 0", got)
	}
}

func TestRemoveFavorite_NeverFavorited(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "jake", "jake@example.com")
	reader := createTestUser(t, db, "anna", "anna@example.com")
	article := createTestArticle(t, db, author.ID, "dragons-abc", "Dragons")

	removed, err := db.RemoveFavorite(context.Background(), reader.ID, article.ID)
	if err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if removed {
		t.Error("RemoveFavorite() = true for an article never favorited")
	}
}

func TestFavoritedIDs(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "jake", "jake@example.com")
	reader := createTestUser(t, db, "anna", "anna@example.com")
	a1 := createTestArticle(t, db, author.ID, "one-abc", "One")
	a2 := createTestArticle(t, db, author.ID, "two-abc", "Two")
	createTestArticle(t, db, author.ID, "three-abc", "Three")

	ctx := context.Background()
	if _, err := db.AddFavorite(ctx, reader.ID, a1.ID); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	if _, err := db.AddFavorite(ctx, reader.ID, a2.ID); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}

	ids, err := db.FavoritedIDs(ctx, reader.ID)
	if err != nil {
		t.Fatalf("FavoritedIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("FavoritedIDs() = %v, want 2 entries", ids)
	}
	got := map[string]bool{ids[0]: true, ids[1]: true}
	if !got[a1.ID] || !got[a2.ID] {
		t.Errorf("FavoritedIDs() = %v, want {%s, %s}", ids, a1.ID, a2.ID)
	}
}
