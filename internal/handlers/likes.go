package handlers

import "net/http"

// LikeHandler provides film like endpoints.
type LikeHandler struct {
	Likes LikeService
}

type likeResponse struct {
	FilmID int64 `json:"filmId"`
	UserID int64 `json:"userId"`
	Liked  bool  `json:"liked"`
}

// Add handles PUT /films/{id}/like/{userId}.
func (h LikeHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "userId")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Likes.AddLike(ctx, ids[1], ids[0]); err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, likeResponse{FilmID: ids[0], UserID: ids[1], Liked: true})
}

// Remove handles DELETE /films/{id}/like/{userId}. Removing a like that does
// not exist succeeds.
func (h LikeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "userId")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Likes.RemoveLike(ctx, ids[1], ids[0]); err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, likeResponse{FilmID: ids[0], UserID: ids[1], Liked: false})
}
