package chat

import (
	"errors"
	"testing"
)

func TestFlagsReflectBothDirections(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	f, err := env.guard.Flags(alice, bob)
	if err != nil {
		t.Fatal(err)
	}
	if f.Any() {
		t.Fatalf("no blocks yet, got %+v", f)
	}

	if err := env.guard.Block(alice, bob); err != nil {
		t.Fatal(err)
	}

	f, _ = env.guard.Flags(alice, bob)
	if !f.IBlockedThem || f.TheyBlockedMe {
		t.Fatalf("from alice's side: %+v", f)
	}
	f, _ = env.guard.Flags(bob, alice)
	if f.IBlockedThem || !f.TheyBlockedMe {
		t.Fatalf("from bob's side: %+v", f)
	}
}

func TestBlockStopsNewMessagesBothWays(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	env.seedMessage(t, alice, bob, "before the block")

	if err := env.guard.Block(alice, bob); err != nil {
		t.Fatal(err)
	}

	if _, err := env.pipe.SendDirect(alice, bob, "from blocker"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("blocker send: got %v, want ErrBlocked", err)
	}
	if _, err := env.pipe.SendDirect(bob, alice, "from blocked"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("blocked send: got %v, want ErrBlocked", err)
	}

	// Prior history stays visible to both.
	if n := env.directCount(t, alice, bob); n != 1 {
		t.Fatalf("history after block = %d messages, want 1", n)
	}
}

func TestUnblockRestoresMessaging(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	env.seedMessage(t, alice, bob, "hello")

	if err := env.guard.Block(alice, bob); err != nil {
		t.Fatal(err)
	}
	if err := env.guard.Unblock(alice, bob); err != nil {
		t.Fatal(err)
	}

	res, err := env.pipe.SendDirect(bob, alice, "we are back")
	if err != nil {
		t.Fatalf("send after unblock: %v", err)
	}
	if res.IsRequest {
		t.Fatal("unblocking an unlocked pair must not re-gate it")
	}
}

func TestBlockWhileOtherSideAlsoBlocks(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	if err := env.guard.Block(alice, bob); err != nil {
		t.Fatal(err)
	}
	// The edges are directed; bob blocking back is a distinct edge.
	if err := env.guard.Block(bob, alice); err != nil {
		t.Fatal(err)
	}

	// Alice lifting her block leaves bob's in place.
	if err := env.guard.Unblock(alice, bob); err != nil {
		t.Fatal(err)
	}
	f, _ := env.guard.Flags(alice, bob)
	if f.IBlockedThem || !f.TheyBlockedMe {
		t.Fatalf("after one-sided unblock: %+v", f)
	}
	if _, err := env.pipe.SendDirect(alice, bob, "still blocked"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("got %v, want ErrBlocked while any edge remains", err)
	}
}

func TestBlockValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")

	if err := env.guard.Block(alice, alice); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("self block: got %v, want ErrSelfTarget", err)
	}

	if err := env.guard.Block(alice, bob); err != nil {
		t.Fatal(err)
	}
	if err := env.guard.Block(alice, bob); !errors.Is(err, ErrAlreadyBlocked) {
		t.Fatalf("double block: got %v, want ErrAlreadyBlocked", err)
	}

	if err := env.guard.Unblock(bob, alice); !errors.Is(err, ErrNotBlocked) {
		t.Fatalf("unblock without edge: got %v, want ErrNotBlocked", err)
	}
}
