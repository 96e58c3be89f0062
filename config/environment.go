package config

import (
	"os"
	"strings"
)

type Environment struct {
	IsDevelopment bool
	Domain        string
	CookieSecure  bool

	Port           string
	DBDriver       string
	DBURL          string
	LogMode        string
	Auth0Domain    string
	Auth0Audience  string
	JWTSecret      string
	AllowedOrigins []string
}

var defaultOrigins = []string{"http://localhost:3000"}

// Load reads the environment. Call after any .env file has been loaded.
func Load() Environment {
	// Get domain from environment variable
	domain := os.Getenv("COOKIE_DOMAIN")

	// If no domain is set, we're in development
	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	env := Environment{
		IsDevelopment: isDev,
		Domain:        domain,
		CookieSecure:  !isDev,

		Port:          getenv("PORT", "8080"),
		DBDriver:      strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DBURL:         os.Getenv("DB_URL"),
		LogMode:       getenv("LOG_MODE", "development"),
		Auth0Domain:   os.Getenv("AUTH0_DOMAIN"),
		Auth0Audience: os.Getenv("AUTH0_AUDIENCE"),
		JWTSecret:     os.Getenv("JWT_SECRET_KEY"),
	}
	if !isDev && os.Getenv("LOG_MODE") == "" {
		env.LogMode = "production"
	}

	env.AllowedOrigins = defaultOrigins
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		env.AllowedOrigins = origins
	}
	return env
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
