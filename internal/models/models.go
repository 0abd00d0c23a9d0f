package models

import "time"

// User represents an account within the filmfriends catalogue.
type User struct {
	ID        int64
	Email     string
	Login     string
	Name      string
	Birthday  time.Time
	CreatedAt time.Time
}

// Film is the subset of catalogue data returned alongside recommendations.
type Film struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ReleaseDate time.Time `json:"releaseDate"`
	Duration    int       `json:"duration"`
}

// FriendshipEdge is a stored friendship row between two users. At most one
// edge exists for any unordered pair of users.
type FriendshipEdge struct {
	RequesterID int64
	RecipientID int64
	Confirmed   bool
	CreatedAt   time.Time
}

// EventType classifies the entity an event refers to.
type EventType string

const (
	EventTypeFriend EventType = "FRIEND"
	EventTypeLike   EventType = "LIKE"
	EventTypeReview EventType = "REVIEW"
)

// Operation describes what happened to the entity.
type Operation string

const (
	OperationAdd    Operation = "ADD"
	OperationRemove Operation = "REMOVE"
	OperationUpdate Operation = "UPDATE"
)

// Event is an immutable activity record. ID and Timestamp are assigned by the
// event log on append.
type Event struct {
	ID        int64     `json:"eventId"`
	UserID    int64     `json:"userId"`
	Type      EventType `json:"eventType"`
	Operation Operation `json:"operation"`
	EntityID  int64     `json:"entityId"`
	Timestamp time.Time `json:"timestamp"`
}

// LikeRelation maps a user id to the set of film ids that user likes.
type LikeRelation map[int64]map[int64]struct{}

// Add records filmID as liked by userID.
func (r LikeRelation) Add(userID, filmID int64) {
	films, ok := r[userID]
	if !ok {
		films = make(map[int64]struct{})
		r[userID] = films
	}
	films[filmID] = struct{}{}
}

// Has reports whether userID likes filmID.
func (r LikeRelation) Has(userID, filmID int64) bool {
	_, ok := r[userID][filmID]
	return ok
}
