// Package proxy implements the stateless action dispatcher that translates
// the frontend's closed action vocabulary into upstream TMDB calls and
// normalizes the response envelope.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/handsomefox/cinemax/internal/logger"
	"github.com/handsomefox/cinemax/internal/metrics"
	"github.com/handsomefox/cinemax/internal/tmdb"
)

// bulk_movies never fetches past this page, whatever the caller asks for.
const maxBulkPages = 15

// Request is the action envelope posted by the client.
type Request struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Error is a dispatch failure with the HTTP status it maps to.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message + " code=" + strconv.Itoa(e.Status)
}

var ErrInvalidAction = &Error{Status: http.StatusBadRequest, Message: "Invalid action"}

type Aggregator struct {
	client *tmdb.Client
}

func New(client *tmdb.Client) *Aggregator {
	return &Aggregator{client: client}
}

// Dispatch runs one action and returns the HTTP status plus the response
// envelope. Success envelopes carry the upstream fields unmodified plus
// success=true and the image base URL; failures carry success=false and an
// error string, never partial upstream data.
func (a *Aggregator) Dispatch(ctx context.Context, req Request) (int, map[string]any) {
	slog.Info("tmdb action",
		slog.String("action", req.Action),
		slog.Any("params", req.Params),
	)

	payload, err := a.run(ctx, req)
	if err != nil {
		status, msg := classify(err)
		metrics.ProxyActionsTotal.WithLabelValues(actionLabel(req.Action), "error").Inc()
		slog.Warn("tmdb action failed", slog.String("action", req.Action), logger.Error(err))
		return status, Failure(msg)
	}

	metrics.ProxyActionsTotal.WithLabelValues(req.Action, "ok").Inc()
	payload["success"] = true
	payload["image_base"] = tmdb.ImageBase
	return http.StatusOK, payload
}

func (a *Aggregator) run(ctx context.Context, req Request) (map[string]any, error) {
	params := req.Params

	switch req.Action {
	case "discover":
		q := url.Values{}
		q.Set("sort_by", paramStringOr(params, "sortBy", "popularity.desc"))
		q.Set("include_adult", "false")
		q.Set("include_video", "true")
		q.Set("page", strconv.Itoa(paramIntOr(params, "page", 1)))
		if genre, ok := paramInt(params, "genre"); ok {
			q.Set("with_genres", strconv.Itoa(genre))
		}
		return a.client.Fetch(ctx, "/discover/movie", q)

	case "trending":
		return a.client.Fetch(ctx, "/trending/movie/week", nil)

	case "popular", "top_rated", "now_playing", "upcoming":
		q := url.Values{}
		q.Set("page", strconv.Itoa(paramIntOr(params, "page", 1)))
		return a.client.Fetch(ctx, "/movie/"+req.Action, q)

	case "movie_details":
		movieID, ok := paramInt(params, "movieId")
		if !ok {
			return nil, &Error{Status: http.StatusBadRequest, Message: "movieId required"}
		}
		q := url.Values{}
		q.Set("append_to_response", "videos,credits,similar")
		return a.client.Fetch(ctx, "/movie/"+strconv.Itoa(movieID), q)

	case "search":
		query, ok := paramString(params, "query")
		if !ok || strings.TrimSpace(query) == "" {
			return nil, &Error{Status: http.StatusBadRequest, Message: "query required"}
		}
		mediaType := paramStringOr(params, "mediaType", "movie")
		if mediaType != "movie" && mediaType != "tv" {
			return nil, &Error{Status: http.StatusBadRequest, Message: "invalid mediaType"}
		}
		q := url.Values{}
		q.Set("query", query)
		q.Set("page", strconv.Itoa(paramIntOr(params, "searchPage", 1)))
		q.Set("include_adult", "false")
		return a.client.Fetch(ctx, "/search/"+mediaType, q)

	case "genres":
		return a.client.Fetch(ctx, "/genre/movie/list", nil)

	case "by_genre":
		genreID, ok := paramInt(params, "genreId")
		if !ok {
			return nil, &Error{Status: http.StatusBadRequest, Message: "genreId required"}
		}
		q := url.Values{}
		q.Set("with_genres", strconv.Itoa(genreID))
		q.Set("sort_by", "popularity.desc")
		q.Set("page", strconv.Itoa(paramIntOr(params, "genrePage", 1)))
		return a.client.Fetch(ctx, "/discover/movie", q)

	case "bulk_movies":
		return a.bulkMovies(ctx, paramIntOr(params, "pages", maxBulkPages))

	default:
		return nil, ErrInvalidAction
	}
}

// bulkMovies fetches popular pages 1..n one at a time, concatenating result
// lists in page order. Any page failure aborts the whole action; there is
// no partial-success path.
func (a *Aggregator) bulkMovies(ctx context.Context, pages int) (map[string]any, error) {
	if pages < 1 {
		pages = 1
	}
	if pages > maxBulkPages {
		pages = maxBulkPages
	}

	all := make([]any, 0, pages*20)
	for page := 1; page <= pages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		payload, err := a.client.Fetch(ctx, "/movie/popular", q)
		if err != nil {
			return nil, err
		}
		if results, ok := payload["results"].([]any); ok {
			all = append(all, results...)
		}
	}

	return map[string]any{
		"results": all,
		"total":   len(all),
	}, nil
}

// Failure builds the uniform error envelope.
func Failure(msg string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   msg,
	}
}

func classify(err error) (int, string) {
	if errors.Is(err, tmdb.ErrNoAPIKey) {
		return http.StatusInternalServerError, tmdb.ErrNoAPIKey.Error()
	}
	var actionErr *Error
	if errors.As(err, &actionErr) {
		return actionErr.Status, actionErr.Message
	}
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, statusErr.Message
	}
	return http.StatusInternalServerError, "Failed to fetch from TMDB"
}

func actionLabel(action string) string {
	switch action {
	case "discover", "trending", "popular", "top_rated", "now_playing",
		"upcoming", "movie_details", "search", "genres", "by_genre", "bulk_movies":
		return action
	}
	return "invalid"
}

func paramString(params map[string]any, key string) (string, bool) {
	if params == nil {
		return "", false
	}
	val, ok := params[key].(string)
	return val, ok
}

func paramStringOr(params map[string]any, key, fallback string) string {
	if val, ok := paramString(params, key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
}

// paramInt reads a numeric param. JSON numbers decode as float64; strings
// holding digits are accepted too since query builders often send them.
func paramInt(params map[string]any, key string) (int, bool) {
	if params == nil {
		return 0, false
	}
	switch val := params[key].(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case int64:
		return int(val), true
	case json.Number:
		parsed, err := val.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func paramIntOr(params map[string]any, key string, fallback int) int {
	if val, ok := paramInt(params, key); ok && val > 0 {
		return val
	}
	return fallback
}
