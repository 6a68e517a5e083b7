package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/Guarrdon/portfolioplanner-sub001/pkg/collab"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/store"
)

// api serves the instance's local routes. These are the same routes other
// participants hit during the pull phase of a share, so they must stay up
// even when the relay connection is degraded.
type api struct {
	participantID string
	items         store.IItemStore
	shared        store.ISharedStore
	svc           *collab.Service
	logger        *slog.Logger
	validate      *validator.Validate
	mux           *http.ServeMux
}

func newAPI(participantID string, items store.IItemStore, shared store.ISharedStore, svc *collab.Service, logger *slog.Logger) *api {
	a := &api{
		participantID: participantID,
		items:         items,
		shared:        shared,
		svc:           svc,
		logger:        logger.With(slog.String("component", "instance_api")),
		validate:      validator.New(),
		mux:           http.NewServeMux(),
	}
	a.mux.HandleFunc("GET /items/{id}", a.handleGetItem)
	a.mux.HandleFunc("POST /items", a.handleCreateItem)
	a.mux.HandleFunc("POST /items/{id}/share", a.handleShareItem)
	a.mux.HandleFunc("POST /items/{id}/comments", a.handleAddComment)
	a.mux.HandleFunc("POST /items/{id}/revoke", a.handleRevokeShare)
	a.mux.HandleFunc("GET /shared", a.handleListShared)
	return a
}

func (a *api) handler() http.Handler { return a.mux }

func (a *api) serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: a.mux}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("instance API listening", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type createItemRequest struct {
	ID   string          `json:"id" validate:"required"`
	Name string          `json:"name" validate:"required"`
	Data json.RawMessage `json:"data"`
}

type shareRequest struct {
	ToParticipants []string `json:"to_participants" validate:"required,min=1,dive,required"`
	AccessLevel    string   `json:"access_level" validate:"omitempty,oneof=read comment edit"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required"`
}

type revokeRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

func (a *api) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := a.items.Get(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, itemResponse(item))
}

func (a *api) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var body createItemRequest
	if !a.decodeAndValidate(w, r, &body) {
		return
	}
	item := store.Item{ID: body.ID, Name: body.Name, OwnerID: a.participantID, Data: body.Data}
	if err := a.svc.UpdateItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse(item))
}

func (a *api) handleShareItem(w http.ResponseWriter, r *http.Request) {
	var body shareRequest
	if !a.decodeAndValidate(w, r, &body) {
		return
	}
	if body.AccessLevel == "" {
		body.AccessLevel = "read"
	}
	err := a.svc.ShareItem(r.Context(), r.PathValue("id"), body.ToParticipants, body.AccessLevel)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shared": true, "recipients": body.ToParticipants})
}

func (a *api) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var body commentRequest
	if !a.decodeAndValidate(w, r, &body) {
		return
	}
	comment, err := a.svc.CommentOnItem(r.Context(), r.PathValue("id"), body.Text)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"comment_id": comment.ID,
		"author_id":  comment.AuthorID,
		"text":       comment.Text,
		"at":         comment.At,
	})
}

func (a *api) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	var body revokeRequest
	if !a.decodeAndValidate(w, r, &body) {
		return
	}
	err := a.svc.RevokeShare(r.Context(), r.PathValue("id"), body.ParticipantID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revoked": true})
}

func (a *api) handleListShared(w http.ResponseWriter, r *http.Request) {
	items, err := a.shared.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": lo.Map(items, func(item store.SharedItem, _ int) map[string]any {
			return map[string]any{
				"id":               item.ID,
				"from_participant": item.FromParticipant,
				"access_level":     item.AccessLevel,
				"data":             json.RawMessage(item.Data),
				"fetched_at":       item.FetchedAt,
			}
		}),
		"count": len(items),
	})
}

func (a *api) decodeAndValidate(w http.ResponseWriter, r *http.Request, body any) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := a.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func itemResponse(item store.Item) map[string]any {
	return map[string]any{
		"id":       item.ID,
		"name":     item.Name,
		"owner_id": item.OwnerID,
		"data":     json.RawMessage(item.Data),
		"comments": lo.Map(item.Comments, func(c store.Comment, _ int) map[string]any {
			return map[string]any{"id": c.ID, "author_id": c.AuthorID, "text": c.Text, "at": c.At}
		}),
		"updated_at": item.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
