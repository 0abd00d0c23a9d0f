package handlers

import (
	"net/http"

	"github.com/filmfriends/backend/internal/models"
)

// RecommendationHandler serves film recommendations.
type RecommendationHandler struct {
	Recommender Recommender
	Films       FilmFinder
}

// List handles GET /users/{id}/recommendations. Users without any signal get
// an empty list.
func (h RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := h.Recommender.Recommend(ctx, userID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	films := []models.Film{}
	if len(ids) > 0 {
		films, err = h.Films.FindByIDs(ctx, ids)
		if err != nil {
			respondServiceError(ctx, w, err)
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, films)
}
