package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pathfinderai/pathfinder-api/auth"
	"github.com/pathfinderai/pathfinder-api/config"
	"github.com/pathfinderai/pathfinder-api/handlers"
	"github.com/pathfinderai/pathfinder-api/logger"
	"github.com/pathfinderai/pathfinder-api/middleware"
	"github.com/pathfinderai/pathfinder-api/models"
	"github.com/pathfinderai/pathfinder-api/review"
	"github.com/pathfinderai/pathfinder-api/srs"
	"github.com/pathfinderai/pathfinder-api/store"
	"github.com/pathfinderai/pathfinder-api/testutil"
)

const secret = "handler-secret"

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type server struct {
	t   *testing.T
	db  *gorm.DB
	h   http.Handler
	now *time.Time
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.DB(t)
	now := t0
	log := logger.Nop()
	sched := srs.NewScheduler(srs.ClockFunc(func() time.Time { return now }))

	h := &handlers.DBHandler{
		DB:      db,
		Reviews: review.NewService(store.NewGormReviewStore(db), sched, log),
		Log:     log,
	}
	authMW, err := middleware.EnsureValidToken(config.Environment{JWTSecret: secret}, log)
	require.NoError(t, err)
	mux := handlers.Routes(h, middleware.SyncUserMiddleware(db, log))
	return &server{t: t, db: db, h: authMW(mux), now: &now}
}

func (s *server) token(sub, nickname string) string {
	tok, err := auth.CreateToken(secret, sub, nickname, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *server) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createDeck creates a set with n cards owned by tok's user.
func (s *server) createDeck(tok string, public bool, n int) (models.FlashcardSet, []models.Flashcard) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/sets", tok, map[string]interface{}{"Title": "Data analyst prep", "IsPublic": public})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	set := decode[models.FlashcardSet](s.t, rec)

	var cards []models.Flashcard
	for i := 0; i < n; i++ {
		rec := s.do(http.MethodPost, "/api/sets/"+set.PublicID+"/flashcards", tok,
			map[string]string{"Term": "SQL JOIN", "Solution": "combines rows", "concept": "sql"})
		require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
		cards = append(cards, decode[models.Flashcard](s.t, rec))
	}
	return set, cards
}

func TestSetLifecycle(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	other := s.token("auth0|tunde", "tunde")

	set, cards := s.createDeck(owner, false, 2)
	require.Len(t, cards, 2)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/sets/"+set.PublicID, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/sets/"+set.PublicID, other, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/sets/"+set.PublicID+"/flashcards", "", nil).Code)

	rec := s.do(http.MethodPut, "/api/sets/"+set.PublicID, owner, map[string]interface{}{"isPublic": true, "title": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decode[models.FlashcardSet](t, rec).Title)

	rec = s.do(http.MethodGet, "/api/sets/"+set.PublicID+"/flashcards", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Flashcard](t, rec), 2)

	rec = s.do(http.MethodGet, "/api/users/ngozi/sets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.FlashcardSet](t, rec), 1)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/sets/"+set.PublicID, other, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/sets/"+set.PublicID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/sets/"+set.PublicID, owner, nil).Code)
}

func TestFlashcardEdits(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	set, cards := s.createDeck(owner, false, 1)
	path := "/api/sets/" + set.PublicID + "/flashcards/" + cards[0].PublicID

	rec := s.do(http.MethodPut, path, owner, map[string]string{"solution": "merges rows"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "merges rows", decode[models.Flashcard](t, rec).Solution)

	rec = s.do(http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SQL JOIN", decode[models.Flashcard](t, rec).Term)

	rec = s.do(http.MethodPost, "/api/sets/"+set.PublicID+"/flashcards", owner, map[string]string{"Term": "only term"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, owner, nil).Code)
}

func TestReviewFlow(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	set, cards := s.createDeck(owner, false, 2)
	reviews := "/api/sets/" + set.PublicID + "/flashcards/" + cards[0].PublicID + "/reviews"

	// New cards are enrolled on creation and due immediately.
	rec := s.do(http.MethodGet, "/api/reviews/due", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]store.Entry](t, rec), 2)

	rec = s.do(http.MethodPost, reviews, owner, map[string]int{"quality": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decode[srs.ReviewItem](t, rec)
	assert.Equal(t, 1, item.Interval)
	assert.Equal(t, 1, item.Repetitions)
	assert.InDelta(t, 2.6, item.EaseFactor, 1e-9)
	assert.True(t, item.NextReview.Equal(t0.Add(24*time.Hour)))

	rec = s.do(http.MethodGet, "/api/sets/"+set.PublicID+"/reviews/due", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[[]store.Entry](t, rec)
	require.Len(t, due, 1)
	assert.Equal(t, cards[1].PublicID, due[0].Flashcard.PublicID)

	rec = s.do(http.MethodGet, "/api/reviews/due?now="+t0.Add(25*time.Hour).Format(time.RFC3339), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]store.Entry](t, rec), 2)

	*s.now = t0.Add(24 * time.Hour)
	rec = s.do(http.MethodPost, reviews, owner, map[string]int{"quality": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decode[srs.ReviewItem](t, rec).Interval)

	rec = s.do(http.MethodGet, reviews, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]srs.ReviewLog](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, srs.Perfect, history[1].Quality)

	rec = s.do(http.MethodGet, reviews+"/preview", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[map[string]srs.ReviewItem](t, rec)
	assert.Equal(t, 17, preview["5"].Interval)
	assert.Equal(t, 1, preview["0"].Interval)

	rec = s.do(http.MethodGet, "/api/reviews/stats?setID="+set.PublicID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]interface{}](t, rec)
	assert.EqualValues(t, 2, stats["total"])
	byStage := stats["byStage"].(map[string]interface{})
	assert.EqualValues(t, 1, byStage["Learning"])
	assert.EqualValues(t, 1, byStage["New"])

	var studied models.FlashcardSet
	require.NoError(t, s.db.First(&studied, set.ID).Error)
	require.NotNil(t, studied.LastStudied)
	assert.True(t, studied.LastStudied.Equal(t0.Add(24*time.Hour)))
}

func TestReviewRejectsBadInput(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	set, cards := s.createDeck(owner, false, 1)
	reviews := "/api/sets/" + set.PublicID + "/flashcards/" + cards[0].PublicID + "/reviews"

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, reviews, owner, map[string]int{"quality": 6}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, reviews, owner, map[string]int{"quality": -1}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, reviews, owner, map[string]string{}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/reviews/due?now=yesterday", owner, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, reviews, "", map[string]int{"quality": 5}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost,
		"/api/sets/"+set.PublicID+"/flashcards/missing/reviews", owner, map[string]int{"quality": 5}).Code)
}

func TestReviewPublicSetByAnotherUser(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	learner := s.token("auth0|tunde", "tunde")
	public, pubCards := s.createDeck(owner, true, 1)
	private, privCards := s.createDeck(owner, false, 1)

	rec := s.do(http.MethodGet, "/api/sets/"+public.PublicID+"/reviews/due", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]store.Entry](t, rec), 1)

	rec = s.do(http.MethodPost, "/api/sets/"+public.PublicID+"/flashcards/"+pubCards[0].PublicID+"/reviews", learner, map[string]int{"quality": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	lapsed := decode[srs.ReviewItem](t, rec)
	assert.Equal(t, 0, lapsed.Repetitions)
	assert.Equal(t, 1, lapsed.Interval)

	// The owner's own schedule for the same card is untouched.
	rec = s.do(http.MethodGet, "/api/reviews/due", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]store.Entry](t, rec), 2)

	rec = s.do(http.MethodPost, "/api/sets/"+private.PublicID+"/flashcards/"+privCards[0].PublicID+"/reviews", learner, map[string]int{"quality": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDueHidesSetsMadePrivate(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	learner := s.token("auth0|tunde", "tunde")
	set, _ := s.createDeck(owner, true, 1)

	rec := s.do(http.MethodGet, "/api/sets/"+set.PublicID+"/reviews/due", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]store.Entry](t, rec), 1)

	rec = s.do(http.MethodPut, "/api/sets/"+set.PublicID, owner, map[string]interface{}{"isPublic": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/reviews/due", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]store.Entry](t, rec))

	rec = s.do(http.MethodGet, "/api/reviews/stats", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]interface{}](t, rec)["total"])

	// The owner keeps studying their own private set.
	rec = s.do(http.MethodGet, "/api/reviews/due", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]store.Entry](t, rec), 1)
}

func TestBulkCreatedCardsAreEnrolled(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	set, _ := s.createDeck(owner, false, 1)

	rec := s.do(http.MethodPut, "/api/sets/"+set.PublicID, owner, map[string]interface{}{
		"Flashcards": []map[string]interface{}{
			{"ID": 0, "Term": "GROUP BY", "Solution": "aggregates rows", "shouldCreate": true},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, decode[models.FlashcardSet](t, rec).Flashcards, 2)

	rec = s.do(http.MethodGet, "/api/reviews/due", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[[]store.Entry](t, rec)
	require.Len(t, due, 2)
	assert.Equal(t, "GROUP BY", due[1].Flashcard.Term)
}

func TestReviewErrorsUseFixedMessages(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	set, cards := s.createDeck(owner, false, 1)
	reviews := "/api/sets/" + set.PublicID + "/flashcards/" + cards[0].PublicID + "/reviews"

	rec := s.do(http.MethodPost, reviews, owner, map[string]int{"quality": 9})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid review request")
	assert.NotContains(t, body, "srs:")
	assert.NotContains(t, body, cards[0].PublicID)
}

func TestLongPerfectStreakStaysScheduled(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	set, cards := s.createDeck(owner, false, 1)
	reviews := "/api/sets/" + set.PublicID + "/flashcards/" + cards[0].PublicID + "/reviews"

	var item srs.ReviewItem
	for i := 0; i < 15; i++ {
		rec := s.do(http.MethodPost, reviews, owner, map[string]int{"quality": 5})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		item = decode[srs.ReviewItem](t, rec)
		require.NotNil(t, item.LastReview)
		require.True(t, item.NextReview.After(*item.LastReview), "review %d", i+1)
	}
	assert.Equal(t, srs.MaxInterval, item.Interval)

	rec := s.do(http.MethodGet, "/api/reviews/due", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]store.Entry](t, rec))
}

func TestDeleteSetRemovesReviewData(t *testing.T) {
	s := newServer(t)
	owner := s.token("auth0|ngozi", "ngozi")
	set, cards := s.createDeck(owner, false, 2)

	rec := s.do(http.MethodPost, "/api/sets/"+set.PublicID+"/flashcards/"+cards[0].PublicID+"/reviews", owner, map[string]int{"quality": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var states, logs int64
	require.NoError(t, s.db.Model(&models.ReviewState{}).Where("set_id = ?", set.ID).Count(&states).Error)
	require.EqualValues(t, 2, states)

	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/sets/"+set.PublicID, owner, nil).Code)

	require.NoError(t, s.db.Model(&models.ReviewState{}).Where("set_id = ?", set.ID).Count(&states).Error)
	require.NoError(t, s.db.Model(&models.ReviewLog{}).Count(&logs).Error)
	assert.Zero(t, states)
	assert.Zero(t, logs)

	var remaining int64
	require.NoError(t, s.db.Model(&models.Flashcard{}).Where("set_id = ?", set.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestDevTokenAuthenticates(t *testing.T) {
	s := newServer(t)
	issue := handlers.DevToken(secret, logger.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/dev/token", bytes.NewBufferString(`{"subject":"auth0|amara","nickname":"amara"}`))
	rec := httptest.NewRecorder()
	issue(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[map[string]string](t, rec)["token"]
	require.NotEmpty(t, tok)

	set, _ := s.createDeck(tok, false, 1)
	assert.NotEmpty(t, set.PublicID)

	rec = httptest.NewRecorder()
	issue(rec, httptest.NewRequest(http.MethodPost, "/api/dev/token", bytes.NewBufferString(`{"subject":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
