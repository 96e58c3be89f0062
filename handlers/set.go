package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/pathfinderai/pathfinder-api/models"
	"github.com/pathfinderai/pathfinder-api/store"
	"github.com/pathfinderai/pathfinder-api/utils"
)

// /api/sets/{setID}

func (db *DBHandler) GetSetByID(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("setID")
	var set models.FlashcardSet
	// Preload the User to access Auth0ID without a separate query
	if err := db.WithContext(r.Context()).Preload("User").Preload("Flashcards").Where("public_id = ?", setID).First(&set).Error; err != nil {
		db.Log.Info("set not found", "handler", "GetSetByID", "set_id", setID, "error", err)
		http.Error(w, fmt.Sprintf("Set with ID %s not found", setID), http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)
	isOwner := ok && set.User.Auth0ID == auth0ID

	if !set.IsPublic && !isOwner {
		db.Log.Warn("forbidden set access", "handler", "GetSetByID", "set_id", setID)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	type SetResponse struct {
		models.FlashcardSet
		IsOwner bool `json:"IsOwner"`
	}
	utils.WriteJSON(w, http.StatusOK, SetResponse{FlashcardSet: set, IsOwner: isOwner})
}

// POST /api/sets
func (db *DBHandler) CreateFlashCardSet(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.CurrentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type CreateSetRequest struct {
		Title    string `json:"Title"`
		IsPublic bool   `json:"IsPublic"`
	}
	var req CreateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		db.Log.Error("failed to generate public id", "handler", "CreateFlashCardSet", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	set := models.FlashcardSet{
		Title:    req.Title,
		UserID:   user.ID,
		IsPublic: req.IsPublic,
		PublicID: publicID,
	}
	if err := db.WithContext(r.Context()).Create(&set).Error; err != nil {
		db.Log.Error("failed to create set", "handler", "CreateFlashCardSet", "error", err)
		http.Error(w, "Failed to create set", http.StatusInternalServerError)
		return
	}

	db.Log.Info("created set", "handler", "CreateFlashCardSet", "set_id", publicID, "owner", user.ID)
	utils.WriteJSON(w, http.StatusCreated, set)
}

func (db *DBHandler) UpdateSetByID(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("setID")
	set, ok := db.setForOwner(w, r, setID)
	if !ok {
		return
	}

	type FlashcardUpdate struct {
		ID           uint   `json:"ID"`
		Term         string `json:"Term"`
		Solution     string `json:"Solution"`
		Concept      string `json:"Concept"`
		ShouldDelete bool   `json:"shouldDelete"`
		ShouldUpdate bool   `json:"shouldUpdate"`
		ShouldCreate bool   `json:"shouldCreate"`
	}
	type UpdateSetRequest struct {
		Title      *string            `json:"title,omitempty"`
		IsPublic   *bool              `json:"isPublic,omitempty"`
		Flashcards *[]FlashcardUpdate `json:"Flashcards,omitempty"`
	}

	var req UpdateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	log := db.Log.With("handler", "UpdateSetByID", "set_id", setID)
	tx := db.WithContext(r.Context())

	updated := false
	if req.Title != nil && set.Title != *req.Title {
		set.Title = *req.Title
		updated = true
	}
	if req.IsPublic != nil && set.IsPublic != *req.IsPublic {
		set.IsPublic = *req.IsPublic
		updated = true
	}

	// shouldDelete, shouldUpdate and shouldCreate act on individual flashcards
	if req.Flashcards != nil {
		for _, fc := range *req.Flashcards {
			switch {
			case fc.ID != 0 && fc.ShouldDelete:
				if err := tx.Where("id = ? AND set_id = ?", fc.ID, set.ID).Delete(&models.Flashcard{}).Error; err != nil {
					log.Warn("failed to delete flashcard", "flashcard", fc.ID, "error", err)
				}
			case fc.ID != 0 && fc.ShouldUpdate:
				var flashcard models.Flashcard
				if err := tx.Where("id = ? AND set_id = ?", fc.ID, set.ID).First(&flashcard).Error; err != nil {
					log.Warn("flashcard not found", "flashcard", fc.ID)
					continue
				}
				flashcard.Term = fc.Term
				flashcard.Solution = fc.Solution
				flashcard.Concept = fc.Concept
				if err := tx.Save(&flashcard).Error; err != nil {
					log.Warn("failed to update flashcard", "flashcard", fc.ID, "error", err)
				}
			case fc.ID == 0 && fc.ShouldCreate:
				publicID, err := gonanoid.New()
				if err != nil {
					log.Warn("failed to generate public id", "error", err)
					continue
				}
				newFlashcard := models.Flashcard{
					Term:     fc.Term,
					Solution: fc.Solution,
					Concept:  fc.Concept,
					SetID:    set.ID,
					PublicID: publicID,
				}
				if err := tx.Create(&newFlashcard).Error; err != nil {
					log.Warn("failed to create flashcard", "error", err)
					continue
				}
				owner := store.Owner{UserID: set.UserID, SetID: set.ID, FlashcardID: newFlashcard.ID, FlashcardPublicID: newFlashcard.PublicID}
				if err := db.Reviews.Enroll(r.Context(), owner); err != nil {
					log.Warn("failed to enroll flashcard", "flashcard", publicID, "error", err)
				}
			}
		}
	}

	if updated {
		if err := tx.Save(&set).Error; err != nil {
			log.Error("failed to update set", "error", err)
			http.Error(w, fmt.Sprintf("Failed to update set with ID %s", setID), http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Preload("Flashcards").First(&set, set.ID).Error; err != nil {
		log.Error("failed to reload set", "error", err)
		http.Error(w, "Failed to load set", http.StatusInternalServerError)
		return
	}
	log.Info("updated set")
	utils.WriteJSON(w, http.StatusOK, set)
}

func (db *DBHandler) DeleteSetByID(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("setID")
	set, ok := db.setForOwner(w, r, setID)
	if !ok {
		return
	}

	// Review history goes with the set; the cards and the set are soft-deleted.
	err := db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		states := tx.Model(&models.ReviewState{}).Select("id").Where("set_id = ?", set.ID)
		if err := tx.Where("review_state_id IN (?)", states).Delete(&models.ReviewLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("set_id = ?", set.ID).Delete(&models.ReviewState{}).Error; err != nil {
			return err
		}
		if err := tx.Where("set_id = ?", set.ID).Delete(&models.Flashcard{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&set)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, fmt.Sprintf("Set not found for public_id=%s", setID), http.StatusNotFound)
		return
	}
	if err != nil {
		db.Log.Error("failed to delete set", "handler", "DeleteSetByID", "set_id", setID, "error", err)
		http.Error(w, fmt.Sprintf("Failed to delete set with ID %s", setID), http.StatusInternalServerError)
		return
	}

	db.Log.Info("deleted set", "handler", "DeleteSetByID", "set_id", setID)
	w.WriteHeader(http.StatusNoContent)
}

func (db *DBHandler) GetSetsForUser(w http.ResponseWriter, r *http.Request) {
	nickname := r.PathValue("nickname")
	if nickname == "" {
		http.Error(w, "Nickname is required", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.WithContext(r.Context()).Where("nickname = ?", nickname).First(&user).Error; err != nil {
		http.Error(w, fmt.Sprintf("User not found for nickname=%s", nickname), http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)

	query := db.WithContext(r.Context()).Preload("Flashcards").Where("user_id = ?", user.ID)
	if !ok || user.Auth0ID != auth0ID {
		query = query.Where("is_public = ?", true)
	}

	sets := []models.FlashcardSet{}
	if err := query.Order("id").Find(&sets).Error; err != nil {
		db.Log.Error("failed to fetch sets", "handler", "GetSetsForUser", "owner", user.ID, "error", err)
		http.Error(w, fmt.Sprintf("Failed to fetch sets for user %s", nickname), http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, sets)
}
