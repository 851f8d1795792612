package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/openboard/board-backend/internal/board"
	"github.com/openboard/board-backend/internal/config"
	"github.com/openboard/board-backend/internal/store"
)

// userIDHeader carries the requester's opaque identity, generated client-side.
const userIDHeader = "X-User-Id"

// PostService is the storage coordinator surface the handlers depend on.
type PostService interface {
	CreatePost(ctx context.Context, draft board.PostDraft) (store.Result[*board.Post], error)
	ListPosts(ctx context.Context) (store.Result[[]board.Post], error)
	GetPost(ctx context.Context, id string) (store.Result[*board.Post], error)
	UpdatePost(ctx context.Context, id string, patch board.PostPatch) (store.Result[*board.Post], error)
	DeletePost(ctx context.Context, id string) (store.Result[*board.Post], error)
	DurableReady(ctx context.Context) bool
}

type Handler struct {
	posts  PostService
	cache  *store.Cache
	config *config.Config
	logger *zap.SugaredLogger
}

func NewHandler(posts PostService, cache *store.Cache, config *config.Config, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		posts:  posts,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// Health endpoints

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthDTO{Status: "ok"})
}

// Readyz reports "degraded" while requests are being served by the fallback
// store. The service stays ready either way.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	if !h.posts.DurableReady(r.Context()) {
		status = "degraded"
	}
	h.writeJSON(w, http.StatusOK, HealthDTO{Status: status})
}

// Post endpoints

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if posts, ok := h.cache.GetPosts(ctx); ok {
		h.writeResult(w, http.StatusOK, posts, false, "")
		return
	}

	res, err := h.posts.ListPosts(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load posts", err)
		return
	}
	if !res.UsedFallback {
		h.cache.SetPosts(ctx, res.Value)
	}
	if res.Value == nil {
		res.Value = []board.Post{}
	}
	h.writeResult(w, http.StatusOK, res.Value, res.UsedFallback, res.Advisory)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft board.PostDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if draft.OwnerID == "" {
		draft.OwnerID = r.Header.Get(userIDHeader)
	}

	res, err := h.posts.CreatePost(ctx, draft)
	if err != nil {
		if board.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to create post", err)
		return
	}

	h.cache.Invalidate(ctx)
	h.writeResult(w, http.StatusCreated, res.Value, res.UsedFallback, res.Advisory)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "Post id is required", nil)
		return
	}

	res, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, board.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Post not found", nil)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to load post", err)
		return
	}
	h.writeResult(w, http.StatusOK, res.Value, res.UsedFallback, res.Advisory)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	identity := r.Header.Get(userIDHeader)
	if identity == "" {
		h.writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var patch board.PostPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if !h.authorize(w, ctx, id, identity, "edit") {
		return
	}

	res, err := h.posts.UpdatePost(ctx, id, patch)
	if err != nil {
		switch {
		case board.IsValidation(err):
			h.writeError(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, board.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "Post not found", nil)
		default:
			h.writeError(w, http.StatusInternalServerError, "Failed to update post", err)
		}
		return
	}

	h.cache.Invalidate(ctx)
	h.writeResult(w, http.StatusOK, res.Value, res.UsedFallback, res.Advisory)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	identity := r.Header.Get(userIDHeader)
	if identity == "" {
		h.writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	if !h.authorize(w, ctx, id, identity, "delete") {
		return
	}

	res, err := h.posts.DeletePost(ctx, id)
	if err != nil {
		if errors.Is(err, board.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Post not found", nil)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to delete post", err)
		return
	}

	h.cache.Invalidate(ctx)
	h.writeResult(w, http.StatusOK, struct{}{}, res.UsedFallback, res.Advisory)
}

// authorize loads the post and checks ownership. Posts created without an
// owner id remain editable by any identified requester. Writes the error
// response and returns false when the request must not proceed.
func (h *Handler) authorize(w http.ResponseWriter, ctx context.Context, id, identity, action string) bool {
	res, err := h.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, board.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Post not found", nil)
		} else {
			h.writeError(w, http.StatusInternalServerError, "Failed to load post", err)
		}
		return false
	}
	if res.Value.OwnerID != "" && res.Value.OwnerID != identity {
		h.writeError(w, http.StatusForbidden, "You do not have permission to "+action+" this post", nil)
		return false
	}
	return true
}

// Response helpers

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && h.logger != nil {
		h.logger.Errorw("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeResult(w http.ResponseWriter, status int, data any, usedFallback bool, advisory string) {
	h.writeJSON(w, status, Response{
		Success: true,
		Data:    data,
		Mock:    &usedFallback,
		Warning: advisory,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string, cause error) {
	resp := Response{Success: false, Error: msg}
	if cause != nil {
		if h.logger != nil {
			h.logger.Errorw("Request failed", "status", status, "error", cause)
		}
		if h.config != nil && !h.config.IsProd() {
			resp.Details = cause.Error()
		}
	}
	h.writeJSON(w, status, resp)
}
