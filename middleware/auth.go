package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/pathfinderai/pathfinder-api/auth"
	"github.com/pathfinderai/pathfinder-api/config"
	"github.com/pathfinderai/pathfinder-api/logger"
)

// EnsureValidToken validates bearer tokens and stores the validated claims
// under jwtmiddleware.ContextKey{}. Requests without a token pass through
// anonymously; handlers decide whether they need a user.
//
// With AUTH0_DOMAIN set, tokens are RS256 tokens checked against the tenant's
// JWKS. Otherwise they are HS256 tokens signed with JWT_SECRET_KEY.
func EnsureValidToken(env config.Environment, log *logger.Logger) (func(http.Handler) http.Handler, error) {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("rejected token", "path", r.URL.Path, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Failed to validate JWT."}`))
	}

	if env.Auth0Domain == "" {
		if env.JWTSecret == "" {
			return nil, fmt.Errorf("middleware: set AUTH0_DOMAIN or JWT_SECRET_KEY")
		}
		return localTokens(env.JWTSecret, errorHandler), nil
	}

	issuerURL, err := url.Parse("https://" + env.Auth0Domain + "/")
	if err != nil {
		return nil, fmt.Errorf("middleware: parse issuer url: %w", err)
	}
	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{env.Auth0Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("middleware: set up jwt validator: %w", err)
	}

	mw := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithCredentialsOptional(true),
	)
	return mw.CheckJWT, nil
}

func localTokens(secret string, onError jwtmiddleware.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := jwtmiddleware.AuthHeaderTokenExtractor(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.VerifyToken(secret, token)
			if err != nil {
				onError(w, r, err)
				return
			}

			validated := &validator.ValidatedClaims{
				RegisteredClaims: validator.RegisteredClaims{
					Subject: claims.Subject,
					Issuer:  claims.Issuer,
				},
				CustomClaims: &CustomClaims{Nickname: claims.Nickname},
			}
			if claims.ExpiresAt != nil {
				validated.RegisteredClaims.Expiry = claims.ExpiresAt.Unix()
			}
			ctx := context.WithValue(r.Context(), jwtmiddleware.ContextKey{}, validated)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
