package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mzhurov/commune/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDatabase(gdb)
}

func seedUser(t *testing.T, db *Database, username string) uuid.UUID {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	if err := db.SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return u.ID
}

func TestDirectMessagesPagination(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		sender, receiver := alice, bob
		if i%2 == 1 {
			sender, receiver = bob, alice
		}
		msg := &models.Message{
			SenderID:   sender,
			ReceiverID: &receiver,
			Content:    fmt.Sprintf("msg-%d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.SaveMessage(msg); err != nil {
			t.Fatal(err)
		}
	}

	// The default page holds the newest messages, oldest first within the page.
	page, err := db.GetDirectMessages(alice, bob, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 4 {
		t.Fatalf("page length = %d, want 4", len(page))
	}
	for i, want := range []string{"msg-6", "msg-7", "msg-8", "msg-9"} {
		if page[i].Content != want {
			t.Fatalf("page[%d] = %q, want %q", i, page[i].Content, want)
		}
	}

	// Paging before the oldest message of the page walks backwards.
	older, err := db.GetDirectMessages(alice, bob, 4, &page[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"msg-2", "msg-3", "msg-4", "msg-5"} {
		if older[i].Content != want {
			t.Fatalf("older[%d] = %q, want %q", i, older[i].Content, want)
		}
	}
}

func TestDirectMessagesExcludeRoomTraffic(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	roomID := uuid.New()
	if err := db.SaveMessage(&models.Message{SenderID: alice, RoomID: &roomID, Content: "room talk", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMessage(&models.Message{SenderID: alice, ReceiverID: &bob, Content: "direct talk", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.GetDirectMessages(alice, bob, 50, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Content != "direct talk" {
		t.Fatalf("msgs = %+v", msgs)
	}

	exists, err := db.DirectMessageExists(bob, alice)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("direct history must be visible in either argument order")
	}
}

func TestMarkDirectMessagesRead(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	for i := 0; i < 3; i++ {
		if err := db.SaveMessage(&models.Message{SenderID: bob, ReceiverID: &alice, Content: "unread", CreatedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	outgoing := &models.Message{SenderID: alice, ReceiverID: &bob, Content: "mine", CreatedAt: time.Now()}
	if err := db.SaveMessage(outgoing); err != nil {
		t.Fatal(err)
	}

	changed, err := db.MarkDirectMessagesRead(alice, bob)
	if err != nil {
		t.Fatal(err)
	}
	if changed != 3 {
		t.Fatalf("changed = %d rows, want 3", changed)
	}

	msgs, err := db.GetDirectMessages(alice, bob, 50, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range msgs {
		if m.SenderID == bob && !m.IsRead {
			t.Fatalf("incoming message %s still unread", m.ID)
		}
		// Only the viewer's incoming messages flip.
		if m.ID == outgoing.ID && m.IsRead {
			t.Fatal("marking read must not touch the viewer's own messages")
		}
	}

	// Nothing left to flip; callers use the zero count to skip invalidation.
	changed, err = db.MarkDirectMessagesRead(alice, bob)
	if err != nil {
		t.Fatal(err)
	}
	if changed != 0 {
		t.Fatalf("changed = %d rows on second pass, want 0", changed)
	}
}

func TestDeleteMessageCascadesReactions(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	msg := &models.Message{SenderID: alice, ReceiverID: &bob, Content: "to go", CreatedAt: time.Now()}
	if err := db.SaveMessage(msg); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateReaction(&models.Reaction{MessageID: msg.ID, UserID: bob, Type: "like", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteMessage(msg.ID.String()); err != nil {
		t.Fatal(err)
	}

	r, err := db.GetReaction(msg.ID, bob)
	if err != nil {
		t.Fatal(err)
	}
	if r != nil {
		t.Fatalf("reaction survived message deletion: %+v", r)
	}
}
