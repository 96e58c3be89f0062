package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/pathfinderai/pathfinder-api/models"
	"github.com/pathfinderai/pathfinder-api/srs"
	"github.com/pathfinderai/pathfinder-api/store"
	"github.com/pathfinderai/pathfinder-api/utils"
)

// setForReader loads a set by public ID and checks that the caller may read
// it: public sets are readable by anyone, private ones only by the owner.
// It writes the error response and returns false on failure.
func (db *DBHandler) setForReader(w http.ResponseWriter, r *http.Request, publicID string) (models.FlashcardSet, bool, bool) {
	var set models.FlashcardSet
	if err := db.WithContext(r.Context()).Preload("User").Where("public_id = ?", publicID).First(&set).Error; err != nil {
		http.Error(w, "Set not found", http.StatusNotFound)
		return set, false, false
	}

	auth0ID, ok := utils.GetAuth0ID(r)
	isOwner := ok && set.User.Auth0ID == auth0ID
	if !set.IsPublic && !isOwner {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return set, false, false
	}
	return set, isOwner, true
}

// setForOwner loads a set by public ID and requires the caller to own it.
func (db *DBHandler) setForOwner(w http.ResponseWriter, r *http.Request, publicID string) (models.FlashcardSet, bool) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return models.FlashcardSet{}, false
	}

	var set models.FlashcardSet
	if err := db.WithContext(r.Context()).Preload("User").Where("public_id = ?", publicID).First(&set).Error; err != nil {
		http.Error(w, "Set not found", http.StatusNotFound)
		return set, false
	}
	if set.User.Auth0ID != auth0ID {
		http.Error(w, "Forbidden: You do not own this set", http.StatusForbidden)
		return set, false
	}
	return set, true
}

// parseNow reads the optional RFC 3339 "now" query parameter.
func parseNow(r *http.Request, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// reviewError maps review-layer errors to an HTTP status and a fixed
// client message.
func reviewError(err error) (int, string) {
	switch {
	case errors.Is(err, srs.ErrInvalidArgument):
		return http.StatusBadRequest, "Invalid review request"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Review item not found"
	default:
		return http.StatusInternalServerError, "Failed to process review"
	}
}
