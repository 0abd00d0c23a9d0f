package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/filmfriends/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Friends     FriendService
	Likes       LikeService
	Events      EventService
	Recommender Recommender
	Films       FilmFinder
	Health      HealthChecker
	RateLimiter middleware.RateLimiter
	Validator   *validator.Validate
}

// NewRouter wires HTTP handlers into a chi router.
func NewRouter(deps Dependencies, logger *slog.Logger) http.Handler {
	health := HealthHandler{DB: deps.Health}
	friends := FriendHandler{Friends: deps.Friends}
	likes := LikeHandler{Likes: deps.Likes}
	events := EventHandler{Events: deps.Events, Validator: deps.Validator}
	recommendations := RecommendationHandler{Recommender: deps.Recommender, Films: deps.Films}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	r.Get("/healthz", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	limitFriends := middleware.RateLimit(deps.RateLimiter, "friends")
	limitLikes := middleware.RateLimit(deps.RateLimiter, "likes")
	limitEvents := middleware.RateLimit(deps.RateLimiter, "events")

	r.Route("/users/{id}", func(r chi.Router) {
		r.Get("/friends", friends.List)
		r.Get("/friends/common/{otherId}", friends.Common)
		r.With(limitFriends).Put("/friends/{friendId}", friends.Add)
		r.With(limitFriends).Delete("/friends/{friendId}", friends.Remove)
		r.Get("/feed", events.Feed)
		r.Get("/recommendations", recommendations.List)
	})

	r.Route("/films/{id}", func(r chi.Router) {
		r.With(limitLikes).Put("/like/{userId}", likes.Add)
		r.With(limitLikes).Delete("/like/{userId}", likes.Remove)
	})

	r.With(limitEvents).Post("/events", events.Append)

	return r
}
