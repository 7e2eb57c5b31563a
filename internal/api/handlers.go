package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LeventeLantos/direct-messaging/internal/auth"
	"github.com/LeventeLantos/direct-messaging/internal/health"
	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/LeventeLantos/direct-messaging/internal/repo"
	"github.com/LeventeLantos/direct-messaging/internal/service"
)

const maxRequestBytes = 64 << 10

type MessageService interface {
	FetchForUser(ctx context.Context, requester model.Requester, id int64) (model.Message, error)
	Send(ctx context.Context, requester model.Requester, toUsername, body string) (model.SentMessage, error)
	MarkReadForUser(ctx context.Context, requester model.Requester, id int64) (model.ReadReceipt, error)
}

type Handler struct {
	messages MessageService
	health   *health.Checker
}

func NewHandler(messages MessageService, checker *health.Checker) *Handler {
	return &Handler{messages: messages, health: checker}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	ok, checks := h.health.Status()
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ok": ok, "checks": checks})
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	m, err := h.messages.FetchForUser(r.Context(), requester, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": toMessageResponse(m)})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}

	var req sendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	m, err := h.messages.Send(r.Context(), requester, req.ToUsername, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": toSentMessageResponse(m)})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rr, err := h.messages.MarkReadForUser(r.Context(), requester, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": toReadReceiptResponse(rr)})
}

func requireRequester(w http.ResponseWriter, r *http.Request) (model.Requester, bool) {
	requester, ok := auth.RequesterFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("authentication required"))
	}
	return requester, ok
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid message id"))
		return 0, false
	}
	return id, true
}

// writeError maps service and store errors onto HTTP statuses. Only
// unexpected errors are logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		forbidden  *service.ForbiddenError
		validation *service.ValidationError
	)
	switch {
	case errors.As(err, &forbidden):
		writeJSON(w, http.StatusForbidden, errorBody(forbidden.Reason))
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody(err.Error()))
	case errors.Is(err, repo.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("message not found"))
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "invalid message",
			"problems": validation.Problems,
		})
	case errors.Is(err, repo.ErrInvalidReference):
		writeJSON(w, http.StatusBadRequest, errorBody("unknown recipient"))
	case errors.Is(err, service.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody("authentication required"))
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
