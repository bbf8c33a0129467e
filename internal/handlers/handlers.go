// Package handlers wires the HTTP surface: the TMDB aggregator endpoint,
// account and session management, and per-user favorites.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/handsomefox/cinemax/internal/proxy"
	"github.com/handsomefox/cinemax/internal/store"
)

type Handler struct {
	store  *store.Store
	proxy  *proxy.Aggregator
	secret []byte
}

type Config struct {
	Store  *store.Store
	Proxy  *proxy.Aggregator
	Secret string
}

func New(cfg Config) (*Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("handlers: store is required")
	}
	if cfg.Proxy == nil {
		return nil, errors.New("handlers: proxy is required")
	}
	if cfg.Secret == "" {
		return nil, errors.New("handlers: secret is required")
	}
	return &Handler{
		store:  cfg.Store,
		proxy:  cfg.Proxy,
		secret: []byte(cfg.Secret),
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Method(http.MethodPost, "/tmdb", Adapt(h.postTMDB))

	r.Method(http.MethodPost, "/signup", Adapt(h.postSignup))
	r.Method(http.MethodPost, "/login", Adapt(h.postLogin))
	r.Method(http.MethodPost, "/logout", Adapt(h.postLogout))
	r.Method(http.MethodGet, "/session", Adapt(h.getSession))

	r.Group(func(r chi.Router) {
		r.Use(h.MiddlewareRequireAuth)
		r.Method(http.MethodGet, "/favorites", Adapt(h.getFavorites))
		r.Method(http.MethodPut, "/favorites/{movieID:[0-9]+}", Adapt(h.putFavorite))
		r.Method(http.MethodDelete, "/favorites/{movieID:[0-9]+}", Adapt(h.deleteFavorite))
	})
}

// postTMDB forwards an action request to the aggregator. The aggregator owns
// the response envelope, including the error shape, so the response is
// written verbatim at whatever status it decided. Decoding is deliberately
// lax: clients may send fields beyond action/params and only the body being
// unparseable (which leaves no action to dispatch) is rejected here.
func (h *Handler) postTMDB(w http.ResponseWriter, r *http.Request) error {
	var req proxy.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, proxy.Failure("Invalid action"))
		return nil
	}
	status, envelope := h.proxy.Dispatch(r.Context(), req)
	writeJSON(w, status, envelope)
	return nil
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        int64  `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
}

func (h *Handler) postSignup(w http.ResponseWriter, r *http.Request) error {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("invalid request body")
	}
	email := strings.TrimSpace(req.Email)
	if !strings.Contains(email, "@") {
		return badRequest("invalid email")
	}
	if len(req.Password) < 8 {
		return badRequest("password must be at least 8 characters")
	}

	id, err := h.store.CreateUser(r.Context(), email, hashPassword(req.Password))
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return conflict("email already registered")
		}
		return internal(err)
	}

	slog.Info("user signed up", slog.Int64("user_id", id))
	h.setSessionCookie(w, id)
	writeJSON(w, http.StatusCreated, &SessionResponse{Authenticated: true, UserID: id, Email: strings.ToLower(email)})
	return nil
}

func (h *Handler) postLogin(w http.ResponseWriter, r *http.Request) error {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("invalid request body")
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if isNoRows(err) {
			return unauthorized("invalid credentials")
		}
		return internal(err)
	}
	if hashPassword(req.Password) != user.PasswordHash {
		return unauthorized("invalid credentials")
	}

	h.setSessionCookie(w, user.ID)
	writeJSON(w, http.StatusOK, &SessionResponse{Authenticated: true, UserID: user.ID, Email: user.Email})
	return nil
}

func (h *Handler) postLogout(w http.ResponseWriter, r *http.Request) error {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, &SessionResponse{Authenticated: false})
	return nil
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) error {
	id, ok := h.sessionUserID(r)
	if !ok {
		writeJSON(w, http.StatusOK, &SessionResponse{Authenticated: false})
		return nil
	}

	user, err := h.store.UserByID(r.Context(), id)
	if err != nil {
		if isNoRows(err) {
			// Cookie signed for a user that no longer exists.
			h.clearSessionCookie(w)
			writeJSON(w, http.StatusOK, &SessionResponse{Authenticated: false})
			return nil
		}
		return internal(err)
	}

	writeJSON(w, http.StatusOK, &SessionResponse{Authenticated: true, UserID: user.ID, Email: user.Email})
	return nil
}

type FavoritesResponse struct {
	MovieIDs []int64 `json:"movie_ids"`
}

func (h *Handler) getFavorites(w http.ResponseWriter, r *http.Request) error {
	userID, ok := currentUserID(r)
	if !ok {
		return unauthorized("authentication required")
	}

	ids, err := h.store.ListFavoriteIDs(r.Context(), userID)
	if err != nil {
		return internal(err)
	}
	writeJSON(w, http.StatusOK, &FavoritesResponse{MovieIDs: ids})
	return nil
}

func (h *Handler) putFavorite(w http.ResponseWriter, r *http.Request) error {
	userID, ok := currentUserID(r)
	if !ok {
		return unauthorized("authentication required")
	}
	movieID, err := idParam(r, "movieID")
	if err != nil {
		return badRequest("invalid movie id")
	}

	if err := h.store.AddFavorite(r.Context(), userID, movieID); err != nil {
		return internal(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) deleteFavorite(w http.ResponseWriter, r *http.Request) error {
	userID, ok := currentUserID(r)
	if !ok {
		return unauthorized("authentication required")
	}
	movieID, err := idParam(r, "movieID")
	if err != nil {
		return badRequest("invalid movie id")
	}

	if err := h.store.RemoveFavorite(r.Context(), userID, movieID); err != nil {
		if isNoRows(err) {
			return notFound("favorite not found")
		}
		return internal(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
