package middleware

import (
	"errors"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"gorm.io/gorm"

	"github.com/pathfinderai/pathfinder-api/logger"
	"github.com/pathfinderai/pathfinder-api/models"
	"github.com/pathfinderai/pathfinder-api/utils"
)

// SyncUserMiddleware ensures the token's user exists in the DB and attaches
// it to the request context. Requests without validated claims get a 401.
func SyncUserMiddleware(db *gorm.DB, log *logger.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			if !ok || claims.RegisteredClaims.Subject == "" {
				http.Error(w, "No Auth0 subject found", http.StatusUnauthorized)
				return
			}

			auth0ID := claims.RegisteredClaims.Subject
			nickname := ""
			if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok && customClaims != nil {
				nickname = customClaims.Nickname
			}

			var user models.User
			err := db.WithContext(r.Context()).Where("auth0_id = ?", auth0ID).First(&user).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				user = models.User{Auth0ID: auth0ID, Nickname: nickname}
				if err := db.WithContext(r.Context()).Create(&user).Error; err != nil {
					log.Error("failed to create user", "error", err)
					http.Error(w, "Failed to create user", http.StatusInternalServerError)
					return
				}
				log.Info("created user", "nickname", user.Nickname)
			case err != nil:
				log.Error("failed to load user", "error", err)
				http.Error(w, "Failed to load user", http.StatusInternalServerError)
				return
			case nickname != "" && user.Nickname != nickname:
				// Update nickname only if non-empty and changed
				user.Nickname = nickname
				if err := db.WithContext(r.Context()).Save(&user).Error; err != nil {
					log.Error("failed to update user", "error", err)
					http.Error(w, "Failed to update user", http.StatusInternalServerError)
					return
				}
				log.Info("updated user nickname", "nickname", user.Nickname)
			}

			next.ServeHTTP(w, r.WithContext(utils.WithUser(r.Context(), &user)))
		}
	}
}
