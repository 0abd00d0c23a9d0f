package handlers

import (
	"context"
	"net/http"
	"reflect"
	"testing"

	"github.com/filmfriends/backend/internal/models"
)

func TestLikeHandler(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPut, "/films/1/like/2", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("like #%d status = %d body=%s", i+1, rec.Code, rec.Body.String())
		}
		if got := decode[likeResponse](t, rec); !got.Liked || got.FilmID != 1 || got.UserID != 2 {
			t.Fatalf("unexpected response: %+v", got)
		}
	}

	likes, _ := env.service.AllUserLikes(context.Background())
	if len(likes[2]) != 1 || !likes.Has(2, 1) {
		t.Fatalf("likes = %v", likes)
	}

	events, _ := env.service.UserEvents(context.Background(), 2)
	if len(events) != 2 {
		t.Fatalf("every like emits an event, got %d", len(events))
	}

	rec := env.do(t, http.MethodDelete, "/films/1/like/2", "")
	if got := decode[likeResponse](t, rec); got.Liked {
		t.Fatalf("unexpected response: %+v", got)
	}

	rec = env.do(t, http.MethodDelete, "/films/42/like/42", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("removing an unknown like status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/films/42/like/2", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown film status = %d", rec.Code)
	}
}

func TestRecommendationHandler(t *testing.T) {
	env := newTestEnv(t)
	for _, target := range []string{
		"/films/1/like/1", "/films/2/like/1",
		"/films/1/like/2", "/films/2/like/2", "/films/3/like/2",
		"/films/4/like/3",
	} {
		if rec := env.do(t, http.MethodPut, target, ""); rec.Code != http.StatusOK {
			t.Fatalf("PUT %s status = %d", target, rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/users/1/recommendations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	films := decode[[]models.Film](t, rec)
	if len(films) != 1 || films[0].ID != 3 || films[0].Name != "The Terminator" {
		t.Fatalf("recommendations = %+v", films)
	}

	rec = env.do(t, http.MethodGet, "/users/3/recommendations", "")
	if films := decode[[]models.Film](t, rec); films == nil || len(films) != 0 {
		t.Fatalf("expected empty list, got %+v", films)
	}

	rec = env.do(t, http.MethodGet, "/users/77/recommendations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown user status = %d", rec.Code)
	}
	if films := decode[[]models.Film](t, rec); !reflect.DeepEqual(films, []models.Film{}) {
		t.Fatalf("unknown user recommendations = %+v", films)
	}
}
