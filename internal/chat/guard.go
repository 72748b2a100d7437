package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/models"
)

// Flags describes the block relationship from one user's point of view.
type Flags struct {
	IBlockedThem  bool `json:"i_blocked_them"`
	TheyBlockedMe bool `json:"they_blocked_me"`
}

func (f Flags) Any() bool {
	return f.IBlockedThem || f.TheyBlockedMe
}

// BlockGuard tracks directed block edges between users. While an edge exists
// in either direction, no new message may be created in the pair's
// conversation; prior messages stay visible.
type BlockGuard struct {
	db     *database.Database
	caches *cache.Registry
}

func NewBlockGuard(db *database.Database, caches *cache.Registry) *BlockGuard {
	return &BlockGuard{db: db, caches: caches}
}

// Flags returns the visibility of the other user from the viewer's side.
func (g *BlockGuard) Flags(viewer, other uuid.UUID) (Flags, error) {
	blocks, err := g.db.GetBlocksBetween(viewer, other)
	if err != nil {
		return Flags{}, err
	}

	var f Flags
	for _, b := range blocks {
		if b.BlockerID == viewer {
			f.IBlockedThem = true
		} else {
			f.TheyBlockedMe = true
		}
	}
	return f, nil
}

func (g *BlockGuard) Block(blocker, blocked uuid.UUID) error {
	if blocker == blocked {
		return ErrSelfTarget
	}

	f, err := g.Flags(blocker, blocked)
	if err != nil {
		return err
	}
	if f.IBlockedThem {
		return ErrAlreadyBlocked
	}

	block := &models.BlockRelationship{
		BlockerID: blocker,
		BlockedID: blocked,
		CreatedAt: time.Now(),
	}
	if err := g.db.CreateBlock(block); err != nil {
		return err
	}

	g.invalidate(blocker, blocked)

	return nil
}

func (g *BlockGuard) Unblock(blocker, blocked uuid.UUID) error {
	f, err := g.Flags(blocker, blocked)
	if err != nil {
		return err
	}
	if !f.IBlockedThem {
		return ErrNotBlocked
	}

	if err := g.db.DeleteBlock(blocker, blocked); err != nil {
		return err
	}

	g.invalidate(blocker, blocked)

	return nil
}

// Blocking or unblocking touches both users' chat-user lists and
// conversation lists, the shared conversation tag and the blocker's
// blocked-users list.
func (g *BlockGuard) invalidate(blocker, blocked uuid.UUID) {
	g.caches.Invalidate(blocker,
		cache.TagChatUsers,
		cache.TagConversations,
		cache.TagBlockedUsers,
		cache.MessagesTag(blocked),
	)
	g.caches.Invalidate(blocked,
		cache.TagChatUsers,
		cache.TagConversations,
		cache.MessagesTag(blocker),
	)
}
