package chat

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/models"
	"github.com/mzhurov/commune/internal/realtime"
)

type testEnv struct {
	db     *database.Database
	caches *cache.Registry
	gate   *AccessGate
	guard  *BlockGuard
	pipe   *Pipeline
	rooms  *RoomService
	pub    *capturePublisher
}

// capturePublisher records every push instead of delivering it.
type capturePublisher struct {
	events     []realtime.Event
	recipients [][]uuid.UUID
}

func (p *capturePublisher) Publish(ev realtime.Event, recipients []uuid.UUID) {
	p.events = append(p.events, ev)
	p.recipients = append(p.recipients, recipients)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db := database.NewDatabase(gdb)
	caches := cache.NewRegistry()
	gate := NewAccessGate(db, caches, nil)
	guard := NewBlockGuard(db, caches)
	pub := &capturePublisher{}

	return &testEnv{
		db:     db,
		caches: caches,
		gate:   gate,
		guard:  guard,
		pipe:   NewPipeline(db, caches, gate, guard, pub),
		rooms:  NewRoomService(db, caches),
		pub:    pub,
	}
}

func (e *testEnv) newUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	if err := e.db.SaveUser(u); err != nil {
		t.Fatalf("save user %s: %v", username, err)
	}
	return u.ID
}

// seedMessage plants a delivered direct message, putting the pair past the
// first-contact gate.
func (e *testEnv) seedMessage(t *testing.T, sender, receiver uuid.UUID, content string) *models.Message {
	t.Helper()
	msg := &models.Message{
		SenderID:   sender,
		ReceiverID: &receiver,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := e.db.SaveMessage(msg); err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return msg
}

func (e *testEnv) directCount(t *testing.T, a, b uuid.UUID) int {
	t.Helper()
	msgs, err := e.db.GetDirectMessages(a, b, 100, nil)
	if err != nil {
		t.Fatalf("get direct messages: %v", err)
	}
	return len(msgs)
}
