package social

import (
	"fmt"
	"time"

	"github.com/filmfriends/backend/internal/models"
)

// Pair identifies an unordered pair of users. Low is always <= High so both
// orderings of the same two users map to the same key.
type Pair struct {
	Low  int64
	High int64
}

// NewPair normalizes a and b into a Pair.
func NewPair(a, b int64) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

// Other returns the member of the pair that is not id.
func (p Pair) Other(id int64) int64 {
	if id == p.Low {
		return p.High
	}
	return p.Low
}

// StateKind tags a FriendshipState.
type StateKind int

const (
	StateNone StateKind = iota
	StatePending
	StateConfirmed
)

func (k StateKind) String() string {
	switch k {
	case StateNone:
		return "none"
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// FriendshipState is the relationship between the two members of a Pair.
// Requester is zero for StateNone. A confirmed friendship keeps the id of the
// user who originally sent the request.
type FriendshipState struct {
	Kind      StateKind
	Requester int64
}

// NoFriendship is the state of a pair with no stored edge.
func NoFriendship() FriendshipState { return FriendshipState{Kind: StateNone} }

// PendingFrom is an unconfirmed request sent by requester.
func PendingFrom(requester int64) FriendshipState {
	return FriendshipState{Kind: StatePending, Requester: requester}
}

// ConfirmedFrom is a confirmed friendship originally requested by requester.
func ConfirmedFrom(requester int64) FriendshipState {
	return FriendshipState{Kind: StateConfirmed, Requester: requester}
}

func (s FriendshipState) String() string {
	if s.Kind == StateNone {
		return "none"
	}
	return fmt.Sprintf("%s(requester=%d)", s.Kind, s.Requester)
}

// StateOf derives the state from a stored edge. ok reports whether an edge exists.
func StateOf(edge models.FriendshipEdge, ok bool) FriendshipState {
	switch {
	case !ok:
		return NoFriendship()
	case edge.Confirmed:
		return ConfirmedFrom(edge.RequesterID)
	default:
		return PendingFrom(edge.RequesterID)
	}
}

// Edge materializes the state as a stored edge for pair.
func (s FriendshipState) Edge(pair Pair, createdAt time.Time) models.FriendshipEdge {
	return models.FriendshipEdge{
		RequesterID: s.Requester,
		RecipientID: pair.Other(s.Requester),
		Confirmed:   s.Kind == StateConfirmed,
		CreatedAt:   createdAt,
	}
}

// EdgeOp is the storage write a Transition requires.
type EdgeOp int

const (
	// EdgeKeep leaves storage untouched.
	EdgeKeep EdgeOp = iota
	// EdgeInsert creates a new edge from Transition.To.
	EdgeInsert
	// EdgeConfirm flips the existing edge to confirmed in place.
	EdgeConfirm
	// EdgeDelete removes the existing edge.
	EdgeDelete
	// EdgeReplace removes the existing edge and inserts a new one from Transition.To.
	EdgeReplace
)

func (op EdgeOp) String() string {
	switch op {
	case EdgeKeep:
		return "keep"
	case EdgeInsert:
		return "insert"
	case EdgeConfirm:
		return "confirm"
	case EdgeDelete:
		return "delete"
	case EdgeReplace:
		return "replace"
	default:
		return fmt.Sprintf("EdgeOp(%d)", int(op))
	}
}

// Transition describes how a friendship mutation changes a pair.
type Transition struct {
	From FriendshipState
	To   FriendshipState
	Op   EdgeOp
	// Emit reports whether the mutation appends a FRIEND event.
	Emit bool
}

// PlanAdd computes the effect of actor calling addFriend on target.
func PlanAdd(from FriendshipState, actor, target int64) Transition {
	switch {
	case from.Kind == StateNone:
		return Transition{From: from, To: PendingFrom(actor), Op: EdgeInsert, Emit: true}
	case from.Kind == StatePending && from.Requester == target:
		return Transition{From: from, To: ConfirmedFrom(target), Op: EdgeConfirm, Emit: true}
	default:
		return Transition{From: from, To: from, Op: EdgeKeep}
	}
}

// PlanRemove computes the effect of actor calling removeFriend on target.
//
// Only the original requester of an unconfirmed edge removes it cleanly. In
// every other case the edge is deleted and recreated as an unconfirmed request
// from target to actor.
func PlanRemove(from FriendshipState, actor, target int64) Transition {
	switch {
	case from.Kind == StateNone:
		return Transition{From: from, To: from, Op: EdgeKeep}
	case from.Kind == StatePending && from.Requester == actor:
		return Transition{From: from, To: NoFriendship(), Op: EdgeDelete, Emit: true}
	default:
		return Transition{From: from, To: PendingFrom(target), Op: EdgeReplace, Emit: true}
	}
}

// LikeOp is the storage write a LikeTransition requires.
type LikeOp int

const (
	LikeKeep LikeOp = iota
	LikeInsert
	LikeDelete
)

// LikeTransition describes how a like mutation changes a (user, film) row.
type LikeTransition struct {
	Op   LikeOp
	Emit bool
}

// PlanAddLike inserts the like when absent and always emits LIKE/ADD.
func PlanAddLike(liked bool) LikeTransition {
	if liked {
		return LikeTransition{Op: LikeKeep, Emit: true}
	}
	return LikeTransition{Op: LikeInsert, Emit: true}
}

// PlanRemoveLike deletes the like and emits LIKE/REMOVE only when it existed.
func PlanRemoveLike(liked bool) LikeTransition {
	if !liked {
		return LikeTransition{Op: LikeKeep}
	}
	return LikeTransition{Op: LikeDelete, Emit: true}
}
