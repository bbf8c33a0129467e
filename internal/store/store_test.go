package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return st
}

func TestCreateUser(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateUser(ctx, "Alice@Example.com", "hash1")
	if err != nil {
		t.Fatal(err)
	}
	if id <= 0 {
		t.Fatalf("id = %d", id)
	}

	user, err := st.UserByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not lowercased: %q", user.Email)
	}
	if user.PasswordHash != "hash1" {
		t.Fatalf("hash = %q", user.PasswordHash)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateUser(ctx, "alice@example.com", "hash1"); err != nil {
		t.Fatal(err)
	}
	_, err := st.CreateUser(ctx, "ALICE@example.com", "hash2")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestUserByEmail(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateUser(ctx, "alice@example.com", "hash1")
	if err != nil {
		t.Fatal(err)
	}

	user, err := st.UserByEmail(ctx, "Alice@Example.com")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != id {
		t.Fatalf("id = %d, want %d", user.ID, id)
	}

	_, err = st.UserByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want ErrNoRows", err)
	}
}

func TestFavorites(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	userID, err := st.CreateUser(ctx, "alice@example.com", "hash1")
	if err != nil {
		t.Fatal(err)
	}

	ids, err := st.ListFavoriteIDs(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("fresh user has favorites: %v", ids)
	}

	if err := st.AddFavorite(ctx, userID, 603); err != nil {
		t.Fatal(err)
	}
	if err := st.AddFavorite(ctx, userID, 550); err != nil {
		t.Fatal(err)
	}
	// Adding again is a no-op, not an error.
	if err := st.AddFavorite(ctx, userID, 603); err != nil {
		t.Fatal(err)
	}

	ids, err = st.ListFavoriteIDs(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("favorites = %v", ids)
	}

	ok, err := st.IsFavorite(ctx, userID, 603)
	if err != nil || !ok {
		t.Fatalf("IsFavorite(603) = %v, %v", ok, err)
	}
	ok, err = st.IsFavorite(ctx, userID, 1)
	if err != nil || ok {
		t.Fatalf("IsFavorite(1) = %v, %v", ok, err)
	}

	if err := st.RemoveFavorite(ctx, userID, 603); err != nil {
		t.Fatal(err)
	}
	if err := st.RemoveFavorite(ctx, userID, 603); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("removing a missing favorite: %v", err)
	}

	ids, err = st.ListFavoriteIDs(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 550 {
		t.Fatalf("favorites = %v", ids)
	}
}

func TestFavoritesAreScopedPerUser(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	alice, err := st.CreateUser(ctx, "alice@example.com", "hash1")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := st.CreateUser(ctx, "bob@example.com", "hash2")
	if err != nil {
		t.Fatal(err)
	}

	if err := st.AddFavorite(ctx, alice, 603); err != nil {
		t.Fatal(err)
	}

	ids, err := st.ListFavoriteIDs(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("bob sees alice's favorites: %v", ids)
	}
	if err := st.RemoveFavorite(ctx, bob, 603); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("bob removed alice's favorite: %v", err)
	}
}
