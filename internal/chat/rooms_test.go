package chat

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCreateRoomCreatorIsSoleAdmin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	carol := env.newUser(t, "carol")

	room, err := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob, carol, alice})
	if err != nil {
		t.Fatal(err)
	}

	if len(room.Members) != 3 {
		t.Fatalf("members = %d, want 3", len(room.Members))
	}
	if len(room.Admins) != 1 || !room.IsAdmin(alice) {
		t.Fatalf("creator must be the sole admin, admins = %v", room.Admins)
	}
	if room.IsAdmin(bob) || room.IsAdmin(carol) {
		t.Fatal("plain members must not be admins")
	}
}

func TestCreateRoomRollsBackOnUnknownMember(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	if _, err := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob, uuid.New()}); err == nil {
		t.Fatal("creating a room with an unknown member must fail")
	}

	// The failure must not leave a half-built room behind, in particular one
	// with participants and no admin.
	rooms, err := env.db.GetUserRooms(alice.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 0 {
		t.Fatalf("found %d rooms after failed creation, want 0", len(rooms))
	}
	rooms, err = env.db.GetUserRooms(bob.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 0 {
		t.Fatalf("bob is enrolled in %d rooms after failed creation", len(rooms))
	}
}

func TestAddMembersIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	carol := env.newUser(t, "carol")

	room, _ := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob})

	if _, err := env.rooms.AddMembers(bob, room.ID, []uuid.UUID{carol}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member invites: got %v, want ErrForbidden", err)
	}

	full, err := env.rooms.AddMembers(alice, room.ID, []uuid.UUID{carol, bob})
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Members) != 3 {
		t.Fatalf("members = %d, want 3 (re-adding bob is a no-op)", len(full.Members))
	}
}

func TestPromoteAdmin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	carol := env.newUser(t, "carol")

	room, _ := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob})

	if err := env.rooms.PromoteAdmin(bob, room.ID, bob); !errors.Is(err, ErrForbidden) {
		t.Fatalf("self promotion by member: got %v, want ErrForbidden", err)
	}
	if err := env.rooms.PromoteAdmin(alice, room.ID, carol); !errors.Is(err, ErrNotMember) {
		t.Fatalf("promote non-member: got %v, want ErrNotMember", err)
	}

	if err := env.rooms.PromoteAdmin(alice, room.ID, bob); err != nil {
		t.Fatal(err)
	}
	// Promoting an existing admin is a no-op.
	if err := env.rooms.PromoteAdmin(alice, room.ID, bob); err != nil {
		t.Fatal(err)
	}

	full, err := env.db.GetRoom(room.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Admins) != 2 || !full.IsAdmin(bob) {
		t.Fatalf("admins = %v", full.Admins)
	}
}

func TestRemoveMemberProtectsLastAdmin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	room, _ := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob})

	if err := env.rooms.RemoveMember(bob, room.ID, alice); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member removes admin: got %v, want ErrForbidden", err)
	}
	if err := env.rooms.RemoveMember(alice, room.ID, alice); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("removing the only admin: got %v, want ErrLastAdmin", err)
	}
	if err := env.rooms.RemoveMember(alice, room.ID, uuid.New()); !errors.Is(err, ErrNotMember) {
		t.Fatalf("removing a stranger: got %v, want ErrNotMember", err)
	}

	if err := env.rooms.RemoveMember(alice, room.ID, bob); err != nil {
		t.Fatal(err)
	}
	full, _ := env.db.GetRoom(room.ID.String())
	if full.IsMember(bob) {
		t.Fatal("bob is still a member")
	}
}

func TestRemovedAdminLosesRole(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	room, _ := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob})
	if err := env.rooms.PromoteAdmin(alice, room.ID, bob); err != nil {
		t.Fatal(err)
	}

	if err := env.rooms.RemoveMember(alice, room.ID, bob); err != nil {
		t.Fatal(err)
	}

	full, _ := env.db.GetRoom(room.ID.String())
	if full.IsAdmin(bob) {
		t.Fatal("removed member kept the admin role")
	}
	if len(full.Admins) != 1 {
		t.Fatalf("admins = %v, want only alice", full.Admins)
	}
}

func TestRenameAndDeleteAreAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	room, _ := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob})

	if _, err := env.rooms.RenameRoom(bob, room.ID, "bob's den"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member rename: got %v, want ErrForbidden", err)
	}
	renamed, err := env.rooms.RenameRoom(alice, room.ID, "the den")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.Name != "the den" {
		t.Fatalf("name = %q", renamed.Name)
	}

	if _, err := env.pipe.SendRoom(bob, room.ID, "soon gone"); err != nil {
		t.Fatal(err)
	}

	if err := env.rooms.DeleteRoom(bob, room.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member delete: got %v, want ErrForbidden", err)
	}
	if err := env.rooms.DeleteRoom(alice, room.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := env.db.GetRoom(room.ID.String()); err == nil {
		t.Fatal("room survived deletion")
	}
}

func TestLeaveRoom(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	room, _ := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob})

	// The sole admin cannot walk out on the remaining members.
	if err := env.rooms.LeaveRoom(alice, room.ID); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("sole admin leaves: got %v, want ErrLastAdmin", err)
	}

	if err := env.rooms.PromoteAdmin(alice, room.ID, bob); err != nil {
		t.Fatal(err)
	}
	if err := env.rooms.LeaveRoom(alice, room.ID); err != nil {
		t.Fatalf("leave after handover: %v", err)
	}

	full, _ := env.db.GetRoom(room.ID.String())
	if full.IsMember(alice) {
		t.Fatal("alice is still a member")
	}

	// The last participant leaving dissolves the room.
	if err := env.rooms.LeaveRoom(bob, room.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.db.GetRoom(room.ID.String()); err == nil {
		t.Fatal("empty room survived")
	}
}

func TestRoomMessagesEnforcesMembership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	mallory := env.newUser(t, "mallory")

	room, _ := env.rooms.CreateRoom(alice, "den", []uuid.UUID{bob})
	if _, err := env.pipe.SendRoom(alice, room.ID, "minutes"); err != nil {
		t.Fatal(err)
	}

	msgs, err := env.rooms.RoomMessages(bob, room.ID, 50, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("member sees %d messages, want 1", len(msgs))
	}

	if _, err := env.rooms.RoomMessages(mallory, room.ID, 50, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider history: got %v, want ErrForbidden", err)
	}

	// Removal revokes access to the history as well.
	if err := env.rooms.RemoveMember(alice, room.ID, bob); err != nil {
		t.Fatal(err)
	}
	if _, err := env.rooms.RoomMessages(bob, room.ID, 50, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("removed member history: got %v, want ErrForbidden", err)
	}
}
