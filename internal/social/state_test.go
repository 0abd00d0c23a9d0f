package social

import (
	"testing"
	"time"

	"github.com/filmfriends/backend/internal/models"
)

func TestPlanAdd(t *testing.T) {
	const actor, target int64 = 1, 2

	tests := []struct {
		name     string
		from     FriendshipState
		wantTo   FriendshipState
		wantOp   EdgeOp
		wantEmit bool
	}{
		{name: "none sends request", from: NoFriendship(), wantTo: PendingFrom(actor), wantOp: EdgeInsert, wantEmit: true},
		{name: "repeat request is a no-op", from: PendingFrom(actor), wantTo: PendingFrom(actor), wantOp: EdgeKeep},
		{name: "incoming request is confirmed", from: PendingFrom(target), wantTo: ConfirmedFrom(target), wantOp: EdgeConfirm, wantEmit: true},
		{name: "confirmed by actor stays", from: ConfirmedFrom(actor), wantTo: ConfirmedFrom(actor), wantOp: EdgeKeep},
		{name: "confirmed by target stays", from: ConfirmedFrom(target), wantTo: ConfirmedFrom(target), wantOp: EdgeKeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanAdd(tt.from, actor, target)
			if got.From != tt.from {
				t.Fatalf("from = %v, want %v", got.From, tt.from)
			}
			if got.To != tt.wantTo {
				t.Fatalf("to = %v, want %v", got.To, tt.wantTo)
			}
			if got.Op != tt.wantOp {
				t.Fatalf("op = %v, want %v", got.Op, tt.wantOp)
			}
			if got.Emit != tt.wantEmit {
				t.Fatalf("emit = %v, want %v", got.Emit, tt.wantEmit)
			}
		})
	}
}

func TestPlanRemove(t *testing.T) {
	const actor, target int64 = 1, 2

	tests := []struct {
		name     string
		from     FriendshipState
		wantTo   FriendshipState
		wantOp   EdgeOp
		wantEmit bool
	}{
		{name: "nothing to remove", from: NoFriendship(), wantTo: NoFriendship(), wantOp: EdgeKeep},
		{name: "requester withdraws", from: PendingFrom(actor), wantTo: NoFriendship(), wantOp: EdgeDelete, wantEmit: true},
		{name: "recipient declines", from: PendingFrom(target), wantTo: PendingFrom(target), wantOp: EdgeReplace, wantEmit: true},
		{name: "requester unfriends", from: ConfirmedFrom(actor), wantTo: PendingFrom(target), wantOp: EdgeReplace, wantEmit: true},
		{name: "recipient unfriends", from: ConfirmedFrom(target), wantTo: PendingFrom(target), wantOp: EdgeReplace, wantEmit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanRemove(tt.from, actor, target)
			if got.To != tt.wantTo {
				t.Fatalf("to = %v, want %v", got.To, tt.wantTo)
			}
			if got.Op != tt.wantOp {
				t.Fatalf("op = %v, want %v", got.Op, tt.wantOp)
			}
			if got.Emit != tt.wantEmit {
				t.Fatalf("emit = %v, want %v", got.Emit, tt.wantEmit)
			}
		})
	}
}

func TestPlanLikes(t *testing.T) {
	if got := PlanAddLike(false); got != (LikeTransition{Op: LikeInsert, Emit: true}) {
		t.Fatalf("add absent = %+v", got)
	}
	if got := PlanAddLike(true); got != (LikeTransition{Op: LikeKeep, Emit: true}) {
		t.Fatalf("add present = %+v", got)
	}
	if got := PlanRemoveLike(true); got != (LikeTransition{Op: LikeDelete, Emit: true}) {
		t.Fatalf("remove present = %+v", got)
	}
	if got := PlanRemoveLike(false); got != (LikeTransition{Op: LikeKeep}) {
		t.Fatalf("remove absent = %+v", got)
	}
}

func TestStateEdgeRoundTrip(t *testing.T) {
	pair := NewPair(9, 4)
	if pair.Low != 4 || pair.High != 9 {
		t.Fatalf("pair not normalized: %+v", pair)
	}

	createdAt := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	for _, state := range []FriendshipState{PendingFrom(9), ConfirmedFrom(4)} {
		edge := state.Edge(pair, createdAt)
		if edge.RecipientID != pair.Other(state.Requester) {
			t.Fatalf("recipient = %d for %v", edge.RecipientID, state)
		}
		if got := StateOf(edge, true); got != state {
			t.Fatalf("StateOf(Edge(%v)) = %v", state, got)
		}
	}

	if got := StateOf(models.FriendshipEdge{}, false); got != NoFriendship() {
		t.Fatalf("StateOf(absent) = %v", got)
	}
}
