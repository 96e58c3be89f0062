package utils

import (
	"context"
	"encoding/json"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/pathfinderai/pathfinder-api/models"
)

type contextKey string

const userKey contextKey = "user"

func GetAuth0ID(r *http.Request) (string, bool) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

// WithUser attaches the synced database user to ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser returns the user attached by WithUser.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(userKey).(*models.User)
	return u, ok && u != nil
}

// WriteJSON encodes v as the response body with the given status. When v
// cannot be encoded nothing partial is sent; the client gets a 500 instead.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}
