package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/LeventeLantos/direct-messaging/internal/model"
)

type contextKey string

const requesterKey contextKey = "requester"

type Verifier interface {
	Verify(token string) (string, error)
}

// RequireUser rejects requests without a valid bearer token and stores
// the verified requester on the request context.
func RequireUser(v Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w, "missing bearer token")
			return
		}
		username, err := v.Verify(token)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		ctx := WithRequester(r.Context(), model.Requester{Username: username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithRequester(ctx context.Context, r model.Requester) context.Context {
	return context.WithValue(ctx, requesterKey, r)
}

func RequesterFromContext(ctx context.Context) (model.Requester, bool) {
	r, ok := ctx.Value(requesterKey).(model.Requester)
	return r, ok && r.Username != ""
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="direct-messaging"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
