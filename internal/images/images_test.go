package images

import "testing"

func TestURL(t *testing.T) {
	t.Parallel()
	r := NewResolver(DefaultBase)

	if got := r.URL("/poster.jpg", SizeW500); got != "https://image.tmdb.org/t/p/w500/poster.jpg" {
		t.Fatalf("got %q", got)
	}
	if got := r.URL("/poster.jpg", SizeW200); got != "https://image.tmdb.org/t/p/w200/poster.jpg" {
		t.Fatalf("got %q", got)
	}
}

func TestURLEmptyPathIsPlaceholder(t *testing.T) {
	t.Parallel()
	r := NewResolver(DefaultBase)
	if got := r.URL("", SizeW500); got != Placeholder {
		t.Fatalf("got %q", got)
	}
}

func TestURLUnknownSizeFallsBack(t *testing.T) {
	t.Parallel()
	r := NewResolver(DefaultBase)
	if got := r.URL("/poster.jpg", Size("w9000")); got != "https://image.tmdb.org/t/p/w500/poster.jpg" {
		t.Fatalf("got %q", got)
	}
}

func TestResolverTrimsTrailingSlash(t *testing.T) {
	t.Parallel()
	r := NewResolver("https://image.tmdb.org/t/p/")
	if got := r.URL("/poster.jpg", SizeW500); got != "https://image.tmdb.org/t/p/w500/poster.jpg" {
		t.Fatalf("double slash in %q", got)
	}
}

func TestBackdropURL(t *testing.T) {
	t.Parallel()
	r := NewResolver(DefaultBase)
	if got := r.BackdropURL("/backdrop.jpg"); got != "https://image.tmdb.org/t/p/original/backdrop.jpg" {
		t.Fatalf("got %q", got)
	}
	if got := r.BackdropURL(""); got != "" {
		t.Fatalf("got %q for empty backdrop", got)
	}
}
