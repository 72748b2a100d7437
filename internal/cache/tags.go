package cache

import "github.com/google/uuid"

// Tag identifies one cached view of server data.
type Tag string

const (
	TagConversations   Tag = "Conversations"
	TagChatRooms       Tag = "ChatRooms"
	TagChatUsers       Tag = "ChatUsers"
	TagBlockedUsers    Tag = "BlockedUsers"
	TagMessageRequests Tag = "MessageRequests"
	TagUserReports     Tag = "UserReports"
)

// MessagesTag is the per-conversation tag: the id is the peer for direct
// conversations or the room for group conversations.
func MessagesTag(id uuid.UUID) Tag {
	return Tag("Messages:" + id.String())
}
