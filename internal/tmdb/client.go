// Package tmdb wraps the TMDB API for the proxy aggregator. It owns the
// upstream base URL and is the only component that ever sees the credential.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/handsomefox/cinemax/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	ImageBase      = "https://image.tmdb.org/t/p"

	// Every upstream call carries the same locale; the frontend is pt-BR only.
	language = "pt-BR"
)

// ErrNoAPIKey is returned before any upstream call is attempted when the
// credential is missing from configuration.
var ErrNoAPIKey = errors.New("TMDB API key not configured")

// StatusError carries a non-2xx upstream response: the status is forwarded
// and the message comes from the upstream body when it has one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: %s (status %d)", e.Message, e.Code)
}

type Client struct {
	baseURL string
	apiKey  func() string
	http    *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a client. The credential is a function so it is re-read from
// configuration on every invocation rather than captured at startup.
func New(apiKey func() string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs one upstream GET and decodes the body into a map so the
// caller can pass the fields through unmodified. The credential never
// appears in logs.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	key := strings.TrimSpace(c.apiKey())
	if key == "" {
		return nil, ErrNoAPIKey
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", key)
	query.Set("language", language)
	endpoint := c.baseURL + path + "?" + query.Encode()

	slog.Info("fetching tmdb url", slog.String("url", Redact(endpoint, key)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	metrics.UpstreamRequestDuration.WithLabelValues(metricPath(path)).Observe(time.Since(start).Seconds())

	var payload map[string]any
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
	if cerr := resp.Body.Close(); cerr != nil {
		return nil, errors.Join(decodeErr, cerr)
	}

	if resp.StatusCode >= 400 {
		msg := "TMDB API error"
		if m, ok := payload["status_message"].(string); ok && strings.TrimSpace(m) != "" {
			msg = m
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	// A bare `null` body decodes into a nil map without an error.
	if payload == nil {
		return nil, errors.New("tmdb: empty response body")
	}
	return payload, nil
}

// Redact replaces the credential in a URL destined for a log line.
func Redact(endpoint, key string) string {
	if strings.TrimSpace(key) == "" {
		return endpoint
	}
	return strings.ReplaceAll(endpoint, key, "[HIDDEN]")
}

// metricPath collapses numeric path segments so per-id URLs do not explode
// the metric label cardinality.
func metricPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// Movie is the subset of an upstream result item the backend normalizes
// from. Movies carry title/release_date, TV results name/first_air_date.
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	GenreIDs     []int   `json:"genre_ids"`
}

func (m Movie) DisplayTitle() string {
	if strings.TrimSpace(m.Title) != "" {
		return m.Title
	}
	return m.Name
}

func (m Movie) Date() string {
	if strings.TrimSpace(m.ReleaseDate) != "" {
		return m.ReleaseDate
	}
	return m.FirstAirDate
}

func Year(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

func ParseYear(year string) *int {
	year = strings.TrimSpace(year)
	if year == "" {
		return nil
	}
	val, err := strconv.Atoi(year)
	if err != nil {
		return nil
	}
	return &val
}
