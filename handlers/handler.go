package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/pathfinderai/pathfinder-api/logger"
	"github.com/pathfinderai/pathfinder-api/review"
)

type DBHandler struct {
	*gorm.DB
	Reviews *review.Service
	Log     *logger.Logger
}

// Routes registers every API route on a new mux. syncUser wraps routes that
// need a database user for the caller.
func Routes(h *DBHandler, syncUser func(http.HandlerFunc) http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()

	// Set
	mux.HandleFunc("GET /api/sets/{setID}", h.GetSetByID)
	mux.HandleFunc("POST /api/sets", syncUser(h.CreateFlashCardSet))
	mux.HandleFunc("PUT /api/sets/{setID}", syncUser(h.UpdateSetByID))
	mux.HandleFunc("DELETE /api/sets/{setID}", syncUser(h.DeleteSetByID))

	// User sets
	mux.HandleFunc("GET /api/users/{nickname}/sets", h.GetSetsForUser)

	// Flashcard
	mux.HandleFunc("POST /api/sets/{setID}/flashcards", syncUser(h.CreateFlashCard))
	mux.HandleFunc("GET /api/sets/{setID}/flashcards/{flashcardID}", h.GetFlashcardByID)
	mux.HandleFunc("GET /api/sets/{setID}/flashcards", h.GetFlashcardsForSet)
	mux.HandleFunc("PUT /api/sets/{setID}/flashcards/{flashcardID}", syncUser(h.UpdateFlashCardByID))
	mux.HandleFunc("DELETE /api/sets/{setID}/flashcards/{flashcardID}", syncUser(h.DeleteFlashCardByID))

	// Reviews
	mux.HandleFunc("POST /api/sets/{setID}/flashcards/{flashcardID}/reviews", syncUser(h.SubmitReview))
	mux.HandleFunc("GET /api/sets/{setID}/flashcards/{flashcardID}/reviews", syncUser(h.GetReviewHistory))
	mux.HandleFunc("GET /api/sets/{setID}/flashcards/{flashcardID}/reviews/preview", syncUser(h.PreviewReview))
	mux.HandleFunc("GET /api/sets/{setID}/reviews/due", syncUser(h.GetDueForSet))
	mux.HandleFunc("GET /api/reviews/due", syncUser(h.GetDue))
	mux.HandleFunc("GET /api/reviews/stats", syncUser(h.GetReviewStats))

	return mux
}
