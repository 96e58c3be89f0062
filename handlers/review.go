package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pathfinderai/pathfinder-api/models"
	"github.com/pathfinderai/pathfinder-api/srs"
	"github.com/pathfinderai/pathfinder-api/store"
	"github.com/pathfinderai/pathfinder-api/utils"
)

// reviewTarget resolves the caller's review owner for the flashcard in the
// path. The set must be readable by the caller.
func (db *DBHandler) reviewTarget(w http.ResponseWriter, r *http.Request) (store.Owner, bool) {
	user, ok := utils.CurrentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return store.Owner{}, false
	}
	set, _, ok := db.setForReader(w, r, r.PathValue("setID"))
	if !ok {
		return store.Owner{}, false
	}

	var flashcard models.Flashcard
	if err := db.WithContext(r.Context()).Where("public_id = ? AND set_id = ?", r.PathValue("flashcardID"), set.ID).First(&flashcard).Error; err != nil {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return store.Owner{}, false
	}
	return store.Owner{UserID: user.ID, SetID: set.ID, FlashcardID: flashcard.ID, FlashcardPublicID: flashcard.PublicID}, true
}

// POST /api/sets/{setID}/flashcards/{flashcardID}/reviews
func (db *DBHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	owner, ok := db.reviewTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		Quality *int `json:"quality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quality == nil {
		http.Error(w, "Request body must contain a quality between 0 and 5", http.StatusBadRequest)
		return
	}

	item, err := db.Reviews.Submit(r.Context(), owner, srs.Quality(*req.Quality))
	if err != nil {
		status, msg := reviewError(err)
		if status == http.StatusInternalServerError {
			db.Log.Error("failed to record review", "handler", "SubmitReview", "item_id", owner.ItemID(), "error", err)
		} else {
			db.Log.Warn("review rejected", "handler", "SubmitReview", "item_id", owner.ItemID(), "error", err)
		}
		http.Error(w, msg, status)
		return
	}

	if err := db.WithContext(r.Context()).Model(&models.FlashcardSet{}).Where("id = ?", owner.SetID).Update("last_studied", item.LastReview).Error; err != nil {
		db.Log.Warn("failed to stamp last studied", "handler", "SubmitReview", "error", err)
	}

	utils.WriteJSON(w, http.StatusOK, item)
}

// GET /api/sets/{setID}/flashcards/{flashcardID}/reviews
func (db *DBHandler) GetReviewHistory(w http.ResponseWriter, r *http.Request) {
	owner, ok := db.reviewTarget(w, r)
	if !ok {
		return
	}

	logs, err := db.Reviews.History(r.Context(), owner)
	if err != nil {
		db.Log.Error("failed to load history", "handler", "GetReviewHistory", "error", err)
		http.Error(w, "Failed to load review history", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, logs)
}

// GET /api/sets/{setID}/flashcards/{flashcardID}/reviews/preview
func (db *DBHandler) PreviewReview(w http.ResponseWriter, r *http.Request) {
	owner, ok := db.reviewTarget(w, r)
	if !ok {
		return
	}
	now, err := parseNow(r, db.Reviews.Now())
	if err != nil {
		http.Error(w, "now must be an RFC 3339 timestamp", http.StatusBadRequest)
		return
	}

	preview, err := db.Reviews.Preview(r.Context(), owner, now)
	if err != nil {
		status, msg := reviewError(err)
		db.Log.Error("failed to preview review", "handler", "PreviewReview", "item_id", owner.ItemID(), "error", err)
		http.Error(w, msg, status)
		return
	}

	out := make(map[string]srs.ReviewItem, len(preview))
	for q, it := range preview {
		out[strconv.Itoa(int(q))] = it
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// GET /api/sets/{setID}/reviews/due
//
// Every card of the set is enrolled for the caller before the due query, so
// cards the caller has never studied show up as new.
func (db *DBHandler) GetDueForSet(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.CurrentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	set, _, ok := db.setForReader(w, r, r.PathValue("setID"))
	if !ok {
		return
	}
	now, err := parseNow(r, db.Reviews.Now())
	if err != nil {
		http.Error(w, "now must be an RFC 3339 timestamp", http.StatusBadRequest)
		return
	}

	var cards []models.Flashcard
	if err := db.WithContext(r.Context()).Where("set_id = ?", set.ID).Find(&cards).Error; err != nil {
		http.Error(w, "Failed to fetch flashcards", http.StatusInternalServerError)
		return
	}
	owners := make([]store.Owner, 0, len(cards))
	for _, c := range cards {
		owners = append(owners, store.Owner{UserID: user.ID, SetID: set.ID, FlashcardID: c.ID, FlashcardPublicID: c.PublicID})
	}
	if err := db.Reviews.Enroll(r.Context(), owners...); err != nil {
		db.Log.Error("failed to enroll set", "handler", "GetDueForSet", "error", err)
		http.Error(w, "Failed to enroll flashcards", http.StatusInternalServerError)
		return
	}

	due, err := db.Reviews.Due(r.Context(), user.ID, &set.ID, now)
	if err != nil {
		db.Log.Error("failed to list due cards", "handler", "GetDueForSet", "error", err)
		http.Error(w, "Failed to list due cards", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, due)
}

// GET /api/reviews/due
func (db *DBHandler) GetDue(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.CurrentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	now, err := parseNow(r, db.Reviews.Now())
	if err != nil {
		http.Error(w, "now must be an RFC 3339 timestamp", http.StatusBadRequest)
		return
	}

	due, err := db.Reviews.Due(r.Context(), user.ID, nil, now)
	if err != nil {
		db.Log.Error("failed to list due cards", "handler", "GetDue", "error", err)
		http.Error(w, "Failed to list due cards", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, due)
}

// GET /api/reviews/stats[?setID=...]
func (db *DBHandler) GetReviewStats(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.CurrentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	now, err := parseNow(r, db.Reviews.Now())
	if err != nil {
		http.Error(w, "now must be an RFC 3339 timestamp", http.StatusBadRequest)
		return
	}

	var setID *uint
	if publicID := r.URL.Query().Get("setID"); publicID != "" {
		set, _, ok := db.setForReader(w, r, publicID)
		if !ok {
			return
		}
		setID = &set.ID
	}

	summary, err := db.Reviews.Stats(r.Context(), user.ID, setID, now)
	if err != nil {
		db.Log.Error("failed to summarize reviews", "handler", "GetReviewStats", "error", err)
		http.Error(w, "Failed to summarize reviews", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}
