package handlers

import (
	"encoding/json"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pathfinderai/pathfinder-api/models"
	"github.com/pathfinderai/pathfinder-api/store"
	"github.com/pathfinderai/pathfinder-api/utils"
)

func (db *DBHandler) GetFlashcardByID(w http.ResponseWriter, r *http.Request) {
	set, _, ok := db.setForReader(w, r, r.PathValue("setID"))
	if !ok {
		return
	}

	var flashcard models.Flashcard
	result := db.WithContext(r.Context()).Where("public_id = ? AND set_id = ?", r.PathValue("flashcardID"), set.ID).First(&flashcard)
	if result.Error != nil {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, http.StatusOK, flashcard)
}

func (db *DBHandler) CreateFlashCard(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.CurrentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	set, ok := db.setForOwner(w, r, r.PathValue("setID"))
	if !ok {
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	type FlashcardRequestData struct {
		Term         string
		Solution     string
		LearningGoal string `json:"concept"`
	}
	var req FlashcardRequestData
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "Could not decode request", http.StatusBadRequest)
		return
	}
	if req.Term == "" || req.Solution == "" {
		http.Error(w, "Each flashcard must have a term and solution", http.StatusBadRequest)
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Failed to generate ID", http.StatusInternalServerError)
		return
	}

	flashcard := models.Flashcard{
		Term:     req.Term,
		Solution: req.Solution,
		Concept:  req.LearningGoal,
		PublicID: publicID,
		SetID:    set.ID,
	}
	if err := db.WithContext(r.Context()).Create(&flashcard).Error; err != nil {
		db.Log.Error("failed to create flashcard", "handler", "CreateFlashCard", "error", err)
		http.Error(w, "Failed to create flashcard", http.StatusInternalServerError)
		return
	}

	// New cards enter the owner's review queue right away.
	owner := store.Owner{UserID: user.ID, SetID: set.ID, FlashcardID: flashcard.ID, FlashcardPublicID: flashcard.PublicID}
	if err := db.Reviews.Enroll(r.Context(), owner); err != nil {
		db.Log.Warn("failed to enroll flashcard", "handler", "CreateFlashCard", "flashcard", publicID, "error", err)
	}

	utils.WriteJSON(w, http.StatusCreated, flashcard)
}

func (db *DBHandler) UpdateFlashCardByID(w http.ResponseWriter, r *http.Request) {
	set, ok := db.setForOwner(w, r, r.PathValue("setID"))
	if !ok {
		return
	}

	var flashcard models.Flashcard
	if err := db.WithContext(r.Context()).Where("public_id = ? AND set_id = ?", r.PathValue("flashcardID"), set.ID).First(&flashcard).Error; err != nil {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}

	type FlashcardUpdateRequest struct {
		Term     *string `json:"term,omitempty"`
		Solution *string `json:"solution,omitempty"`
		Concept  *string `json:"concept,omitempty"`
	}
	var req FlashcardUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Term != nil {
		flashcard.Term = *req.Term
	}
	if req.Solution != nil {
		flashcard.Solution = *req.Solution
	}
	if req.Concept != nil {
		flashcard.Concept = *req.Concept
	}

	if err := db.WithContext(r.Context()).Save(&flashcard).Error; err != nil {
		db.Log.Error("failed to update flashcard", "handler", "UpdateFlashCardByID", "error", err)
		http.Error(w, "Failed to update flashcard", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, flashcard)
}

func (db *DBHandler) DeleteFlashCardByID(w http.ResponseWriter, r *http.Request) {
	set, ok := db.setForOwner(w, r, r.PathValue("setID"))
	if !ok {
		return
	}

	result := db.WithContext(r.Context()).Where("public_id = ? AND set_id = ?", r.PathValue("flashcardID"), set.ID).Delete(&models.Flashcard{})
	if result.Error != nil {
		db.Log.Error("failed to delete flashcard", "handler", "DeleteFlashCardByID", "error", result.Error)
		http.Error(w, "Failed to delete flashcard", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (db *DBHandler) GetFlashcardsForSet(w http.ResponseWriter, r *http.Request) {
	set, _, ok := db.setForReader(w, r, r.PathValue("setID"))
	if !ok {
		return
	}

	flashcards := []models.Flashcard{}
	if err := db.WithContext(r.Context()).Where("set_id = ?", set.ID).Order("id").Find(&flashcards).Error; err != nil {
		http.Error(w, "Failed to fetch flashcards", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, flashcards)
}
