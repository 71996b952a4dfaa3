package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestTripService_Membership(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register("Alice", "alice@example.com")
	bob := env.register("Bob", "bob@example.com")
	mallory := env.register("Mallory", "mallory@example.com")
	ctx := context.Background()

	bobRef := alice.addFriend(t, "Bob", "bob@example.com")
	carol := alice.addFriend(t, "Carol", "")

	created, err := alice.trips.CreateTrip.CallUnary(ctx, connect.NewRequest(&api.CreateTripRequest{
		Name: "Goa", MemberIDs: []string{bobRef.ID},
	}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	trip := created.Msg.Trip
	if len(trip.Members) != 1 {
		t.Fatalf("members = %d, want 1", len(trip.Members))
	}

	t.Run("linked member can read", func(t *testing.T) {
		resp, err := bob.trips.GetTrip.CallUnary(ctx, connect.NewRequest(&api.IDRequest{ID: trip.ID}))
		if err != nil {
			t.Fatalf("GetTrip as member failed: %v", err)
		}
		if resp.Msg.Trip.Name != "Goa" {
			t.Errorf("name = %s, want Goa", resp.Msg.Trip.Name)
		}
		list, err := bob.trips.ListTrips.CallUnary(ctx, connect.NewRequest(&api.Empty{}))
		if err != nil {
			t.Fatalf("ListTrips failed: %v", err)
		}
		if len(list.Msg.Trips) != 1 {
			t.Errorf("bob sees %d trips, want 1", len(list.Msg.Trips))
		}
	})

	t.Run("stranger is denied", func(t *testing.T) {
		_, err := mallory.trips.GetTrip.CallUnary(ctx, connect.NewRequest(&api.IDRequest{ID: trip.ID}))
		expectCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("add and remove member", func(t *testing.T) {
		resp, err := alice.trips.AddTripMember.CallUnary(ctx, connect.NewRequest(&api.TripMemberRequest{TripID: trip.ID, FriendID: carol.ID}))
		if err != nil {
			t.Fatalf("AddTripMember failed: %v", err)
		}
		if len(resp.Msg.Trip.Members) != 2 {
			t.Errorf("members = %d, want 2", len(resp.Msg.Trip.Members))
		}
		resp, err = alice.trips.RemoveTripMember.CallUnary(ctx, connect.NewRequest(&api.TripMemberRequest{TripID: trip.ID, FriendID: carol.ID}))
		if err != nil {
			t.Fatalf("RemoveTripMember failed: %v", err)
		}
		if len(resp.Msg.Trip.Members) != 1 {
			t.Errorf("members = %d, want 1", len(resp.Msg.Trip.Members))
		}
	})

	t.Run("members must be the owner's friends", func(t *testing.T) {
		bobsFriend := bob.addFriend(t, "Eve", "")
		_, err := alice.trips.AddTripMember.CallUnary(ctx, connect.NewRequest(&api.TripMemberRequest{TripID: trip.ID, FriendID: bobsFriend.ID}))
		if err == nil {
			t.Fatal("expected adding another user's friend to fail")
		}
	})

	t.Run("only the owner deletes", func(t *testing.T) {
		_, err := bob.trips.DeleteTrip.CallUnary(ctx, connect.NewRequest(&api.IDRequest{ID: trip.ID}))
		expectCode(t, err, connect.CodePermissionDenied)
		if _, err := alice.trips.DeleteTrip.CallUnary(ctx, connect.NewRequest(&api.IDRequest{ID: trip.ID})); err != nil {
			t.Fatalf("DeleteTrip failed: %v", err)
		}
		_, err = alice.trips.GetTrip.CallUnary(ctx, connect.NewRequest(&api.IDRequest{ID: trip.ID}))
		expectCode(t, err, connect.CodeNotFound)
	})
}
