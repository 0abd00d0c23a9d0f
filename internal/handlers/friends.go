package handlers

import (
	"context"
	"net/http"

	"github.com/filmfriends/backend/internal/social"
)

// FriendHandler provides friendship endpoints.
type FriendHandler struct {
	Friends FriendService
}

type friendshipResponse struct {
	UserID    int64  `json:"userId"`
	FriendID  int64  `json:"friendId"`
	State     string `json:"state"`
	Requester int64  `json:"requesterId,omitempty"`
}

type friendListResponse struct {
	UserID  int64   `json:"userId"`
	Friends []int64 `json:"friends"`
}

// Add handles PUT /users/{id}/friends/{friendId}.
func (h FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Friends.AddFriend)
}

// Remove handles DELETE /users/{id}/friends/{friendId}.
func (h FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Friends.RemoveFriend)
}

func (h FriendHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, friendID int64) error) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "friendId")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	userID, friendID := ids[0], ids[1]

	if err := op(ctx, userID, friendID); err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	state, err := h.Friends.FriendshipState(ctx, userID, friendID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newFriendshipResponse(userID, friendID, state))
}

// List handles GET /users/{id}/friends.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	friends, err := h.Friends.Friends(ctx, userID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendListResponse{UserID: userID, Friends: nonNil(friends)})
}

// Common handles GET /users/{id}/friends/common/{otherId}.
func (h FriendHandler) Common(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "otherId")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	common, err := h.Friends.CommonFriends(ctx, ids[0], ids[1])
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendListResponse{UserID: ids[0], Friends: nonNil(common)})
}

func newFriendshipResponse(userID, friendID int64, state social.FriendshipState) friendshipResponse {
	return friendshipResponse{
		UserID:    userID,
		FriendID:  friendID,
		State:     state.Kind.String(),
		Requester: state.Requester,
	}
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
