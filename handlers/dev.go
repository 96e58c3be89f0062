package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pathfinderai/pathfinder-api/auth"
	"github.com/pathfinderai/pathfinder-api/logger"
	"github.com/pathfinderai/pathfinder-api/utils"
)

const devTokenTTL = 24 * time.Hour

// DevToken issues HS256 bearer tokens for local development, where no Auth0
// tenant is configured. Only register it in that mode.
//
// POST /api/dev/token {"subject": "...", "nickname": "..."}
func DevToken(secret string, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Subject  string `json:"subject"`
			Nickname string `json:"nickname"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" || req.Nickname == "" {
			http.Error(w, "Request body must contain subject and nickname", http.StatusBadRequest)
			return
		}

		token, err := auth.CreateToken(secret, req.Subject, req.Nickname, devTokenTTL)
		if err != nil {
			log.Error("failed to issue dev token", "handler", "DevToken", "error", err)
			http.Error(w, "Failed to issue token", http.StatusInternalServerError)
			return
		}
		log.Info("issued dev token", "handler", "DevToken", "subject", req.Subject)
		utils.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
