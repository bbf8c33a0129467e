package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/handsomefox/cinemax/internal/genres"
	"github.com/handsomefox/cinemax/internal/images"
	"github.com/handsomefox/cinemax/internal/proxy"
	"github.com/handsomefox/cinemax/internal/tmdb"
)

// Dispatcher is the slice of the proxy aggregator the backend needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req proxy.Request) (int, map[string]any)
}

// ProxyBackend drives the aggregator's search action and normalizes the raw
// passthrough results into Items. Genre ids resolve through the injected
// static table, never a remote call.
type ProxyBackend struct {
	proxy  Dispatcher
	genres genres.Table
}

func NewProxyBackend(p Dispatcher, table genres.Table) *ProxyBackend {
	return &ProxyBackend{proxy: p, genres: table}
}

func (b *ProxyBackend) Search(ctx context.Context, query string, contentType ContentType, page int) (ResultPage, error) {
	params := map[string]any{
		"query":      query,
		"searchPage": page,
	}
	if contentType == TypeShow {
		params["mediaType"] = "tv"
	}

	status, envelope := b.proxy.Dispatch(ctx, proxy.Request{Action: "search", Params: params})
	if ok, _ := envelope["success"].(bool); !ok {
		msg, _ := envelope["error"].(string)
		return ResultPage{}, fmt.Errorf("search action failed: status %d: %s", status, msg)
	}

	movies, err := decodeMovies(envelope["results"])
	if err != nil {
		return ResultPage{}, err
	}

	// The envelope tells us where images live; paths resolve against it.
	base, _ := envelope["image_base"].(string)
	resolver := images.NewResolver(base)

	items := make([]Item, 0, len(movies))
	for _, m := range movies {
		items = append(items, Item{
			ID:          m.ID,
			Title:       m.DisplayTitle(),
			PosterURL:   resolver.URL(m.PosterPath, images.SizeW500),
			BackdropURL: resolver.BackdropURL(m.BackdropPath),
			Rating:      m.VoteAverage,
			Year:        releaseYear(m),
			Genres:      b.genres.Names(m.GenreIDs),
		})
	}

	return ResultPage{
		Items:      items,
		TotalPages: intField(envelope, "total_pages"),
	}, nil
}

// decodeMovies round-trips the passthrough result list into typed movies.
func decodeMovies(raw any) ([]tmdb.Movie, error) {
	if raw == nil {
		return nil, nil
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var movies []tmdb.Movie
	if err := json.Unmarshal(buf, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func releaseYear(m tmdb.Movie) int {
	if y := tmdb.ParseYear(tmdb.Year(m.Date())); y != nil {
		return *y
	}
	return 0
}

func intField(envelope map[string]any, key string) int {
	switch val := envelope[key].(type) {
	case float64:
		return int(val)
	case int:
		return val
	case json.Number:
		parsed, err := val.Int64()
		if err != nil {
			return 0
		}
		return int(parsed)
	}
	return 0
}
