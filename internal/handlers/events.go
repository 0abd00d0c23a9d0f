package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/filmfriends/backend/internal/logging"
	"github.com/filmfriends/backend/internal/models"
)

// EventHandler exposes the activity log.
type EventHandler struct {
	Events    EventService
	Validator *validator.Validate
}

// appendEventRequest is posted by the review subsystem. FRIEND and LIKE
// events are produced by their own endpoints and are refused here.
type appendEventRequest struct {
	UserID    int64  `json:"userId"    validate:"required,gt=0"`
	EventType string `json:"eventType" validate:"required,eq=REVIEW"`
	Operation string `json:"operation" validate:"required,oneof=ADD UPDATE REMOVE"`
	EntityID  int64  `json:"entityId"  validate:"required,gt=0"`
}

type appendEventResponse struct {
	EventID int64 `json:"eventId"`
}

// NewValidator returns the validator shared by request handlers.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Append handles POST /events.
func (h EventHandler) Append(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req appendEventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.Warn("invalid event payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.EventType = strings.ToUpper(strings.TrimSpace(req.EventType))
	req.Operation = strings.ToUpper(strings.TrimSpace(req.Operation))

	if err := h.validator().Struct(req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, describeValidation(err))
		return
	}

	id, err := h.Events.AppendEvent(ctx, models.Event{
		UserID:    req.UserID,
		Type:      models.EventType(req.EventType),
		Operation: models.Operation(req.Operation),
		EntityID:  req.EntityID,
	})
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, appendEventResponse{EventID: id})
}

// Feed handles GET /users/{id}/feed.
func (h EventHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.Events.UserEvents(ctx, userID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	respondJSON(ctx, w, http.StatusOK, events)
}

func (h EventHandler) validator() *validator.Validate {
	if h.Validator != nil {
		return h.Validator
	}
	return NewValidator()
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(fields, "; ")
}
