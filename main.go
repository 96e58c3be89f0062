package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/pathfinderai/pathfinder-api/config"
	"github.com/pathfinderai/pathfinder-api/handlers"
	"github.com/pathfinderai/pathfinder-api/logger"
	"github.com/pathfinderai/pathfinder-api/middleware"
	"github.com/pathfinderai/pathfinder-api/review"
	"github.com/pathfinderai/pathfinder-api/srs"
	"github.com/pathfinderai/pathfinder-api/store"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	env := config.Load()

	logg, err := logger.New(env.LogMode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logg.Sync()

	db, err := config.Connect(env)
	if err != nil {
		logg.Fatal("failed to connect database", "error", err)
	}

	authMiddleware, err := middleware.EnsureValidToken(env, logg)
	if err != nil {
		logg.Fatal("failed to configure auth", "error", err)
	}

	scheduler := srs.NewScheduler(srs.SystemClock{})
	h := &handlers.DBHandler{
		DB:      db,
		Reviews: review.NewService(store.NewGormReviewStore(db), scheduler, logg),
		Log:     logg,
	}
	mux := handlers.Routes(h, middleware.SyncUserMiddleware(db, logg))
	if env.IsDevelopment && env.Auth0Domain == "" {
		mux.HandleFunc("POST /api/dev/token", handlers.DevToken(env.JWTSecret, logg))
		logg.Warn("dev token route enabled", "route", "/api/dev/token")
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   env.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(authMiddleware(mux))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + env.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logg.Info("server stopped")
}
