package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewhub/internal/auth"
	"reviewhub/internal/domain/storage"
	"reviewhub/internal/helpers"
	"reviewhub/internal/ratelimiter"
	"reviewhub/internal/service/review"
	"reviewhub/internal/service/steward"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         storage.UnitOfWork
	logger        *zap.SugaredLogger
	reviews       *review.Lifecycle
	stewards      *steward.Service
	authenticator auth.Authenticator
	refs          *helpers.RefCodec
	rateLimiter   ratelimiter.Limiter
	metrics       http.Handler
	// background is drained on shutdown so queued notifications finish.
	background interface{ Wait() }
	now        func() time.Time
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.notFoundResponse(w, r, errors.New("no route"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		if app.metrics != nil {
			r.With(app.BasicAuthMiddleware()).Handle("/metrics", app.metrics)
		}

		r.Route("/venues/{venueID}", func(r chi.Router) {
			r.Get("/rating", app.getVenueRatingHandler)
			r.With(app.OptionalAuthMiddleware).Get("/reviews", app.getVenueReviewsHandler)
			r.With(app.AuthTokenMiddleware, app.RateLimiterMiddleware).Post("/events/{eventID}/reviews", app.createVenueReviewHandler)
		})

		r.Route("/reviews/{reviewID}", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RateLimiterMiddleware)
			r.Patch("/", app.editVenueReviewHandler)
			r.Delete("/", app.deleteVenueReviewHandler)
			r.Put("/visibility", app.setReviewVisibilityHandler)
			r.Delete("/moderation", app.moderatorDeleteReviewHandler)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/stewardships", app.getMyStewardshipsHandler)
		})

		r.Route("/admin/venues/{venueID}/stewards", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireAdmin)
			r.Get("/", app.listVenueStewardsHandler)
			r.Post("/", app.assignStewardHandler)
			r.Delete("/{userID}", app.revokeStewardHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		err := srv.Shutdown(ctx)
		if app.background != nil {
			app.logger.Infow("waiting for background notifications")
			app.background.Wait()
		}
		shutdown <- err
	}()

	app.logger.Infow("server has started", "addr", app.config.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.Addr, "env", app.config.Env)

	return nil
}
