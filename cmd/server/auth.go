package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const bearerPrefix = "Bearer "

type actorKey struct{}

// authService signs and checks per-actor bearer tokens. A token is the
// base64 actor id followed by its HMAC-SHA256 signature.
type authService struct {
	sessionSecret []byte
}

func newAuthService(sessionSecret string) *authService {
	return &authService{sessionSecret: []byte(sessionSecret)}
}

func (a *authService) issueToken(actorID int64) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(actorID, 10)))
	return payload + "." + a.sign(payload)
}

func (a *authService) sign(payload string) string {
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *authService) verifyToken(value string) (int64, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok || payload == "" {
		return 0, false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return 0, false
	}
	expected, _ := hex.DecodeString(a.sign(payload))
	if !hmac.Equal(provided, expected) {
		return 0, false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return 0, false
	}
	actorID, err := strconv.ParseInt(string(decoded), 10, 64)
	if err != nil {
		return 0, false
	}
	return actorID, true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}

// requireActor admits requests whose bearer token was issued for the actor
// named in the URL.
func (s *server) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID, err := strconv.ParseInt(chi.URLParam(r, "actorID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid actor id", http.StatusBadRequest)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		tokenActor, ok := s.auth.verifyToken(token)
		if !ok {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}
		if tokenActor != actorID {
			http.Error(w, "token does not belong to this actor", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(actorKey{}).(int64)
	return id
}
