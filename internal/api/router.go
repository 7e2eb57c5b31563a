package api

import (
	"net/http"

	"github.com/LeventeLantos/direct-messaging/internal/auth"
)

func Router(h *Handler, v auth.Verifier) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	authed := func(fn http.HandlerFunc) http.Handler {
		return auth.RequireUser(v, fn)
	}
	mux.Handle("GET /v1/messages/{id}", authed(h.GetMessage))
	mux.Handle("POST /v1/messages", authed(h.SendMessage))
	mux.Handle("POST /v1/messages/{id}/read", authed(h.MarkRead))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("direct-messaging"))
	})

	return mux
}
