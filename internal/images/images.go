// Package images resolves TMDB image path fragments into display URLs.
// Resolution is a pure function: no network, no state.
package images

import "strings"

const (
	DefaultBase = "https://image.tmdb.org/t/p"

	// Placeholder is served when an item has no image fragment at all.
	Placeholder = "/placeholder.svg"
)

type Size string

const (
	SizeW200     Size = "w200"
	SizeW300     Size = "w300"
	SizeW500     Size = "w500"
	SizeW780     Size = "w780"
	SizeOriginal Size = "original"
)

func (s Size) Valid() bool {
	switch s {
	case SizeW200, SizeW300, SizeW500, SizeW780, SizeOriginal:
		return true
	}
	return false
}

type Resolver struct {
	base string
}

func NewResolver(base string) Resolver {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBase
	}
	return Resolver{base: base}
}

// URL composes base, size token and path fragment exactly once.
// An absent fragment always yields the fixed placeholder; an unknown size
// falls back to w500.
func (r Resolver) URL(path string, size Size) string {
	if strings.TrimSpace(path) == "" {
		return Placeholder
	}
	if !size.Valid() {
		size = SizeW500
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return r.base + "/" + string(size) + path
}

// BackdropURL resolves a backdrop fragment at original size, or empty when
// the fragment is absent (backdrops have no placeholder).
func (r Resolver) BackdropURL(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return r.URL(path, SizeOriginal)
}
