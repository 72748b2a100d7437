package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/models"
)

// RoomService manages group-room rosters and admin roles. The admin set is
// never empty while participants remain; deleting the room is the only path
// to zero admins.
type RoomService struct {
	db     *database.Database
	caches *cache.Registry
}

func NewRoomService(db *database.Database, caches *cache.Registry) *RoomService {
	return &RoomService{db: db, caches: caches}
}

// CreateRoom creates a group room; the creator becomes its sole initial
// admin.
func (s *RoomService) CreateRoom(creator uuid.UUID, name string, members []uuid.UUID) (*models.Room, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyContent
	}

	room := &models.Room{
		Name:      name,
		CreatedBy: creator,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateRoomWithMembers(room, creator, members); err != nil {
		return nil, err
	}

	full, err := s.db.GetRoom(room.ID.String())
	if err != nil {
		return nil, err
	}

	for _, id := range memberIDs(full) {
		s.caches.Invalidate(id, cache.TagChatRooms)
	}

	return full, nil
}

// AddMembers adds users to the roster. Admin-only.
func (s *RoomService) AddMembers(actor, roomID uuid.UUID, newMemberIDs []uuid.UUID) (*models.Room, error) {
	room, err := s.adminRoom(actor, roomID)
	if err != nil {
		return nil, err
	}

	for _, id := range newMemberIDs {
		if room.IsMember(id) {
			continue
		}
		if err := s.db.AddUserToRoom(id.String(), roomID.String()); err != nil {
			return nil, err
		}
	}

	full, err := s.db.GetRoom(roomID.String())
	if err != nil {
		return nil, err
	}

	for _, id := range memberIDs(full) {
		s.caches.Invalidate(id, cache.TagChatRooms)
	}

	return full, nil
}

// RemoveMember removes a user from the roster. Admin-only; the last
// remaining admin cannot be removed.
func (s *RoomService) RemoveMember(actor, roomID, target uuid.UUID) error {
	room, err := s.adminRoom(actor, roomID)
	if err != nil {
		return err
	}

	if !room.IsMember(target) {
		return ErrNotMember
	}
	if room.IsAdmin(target) && len(room.Admins) == 1 {
		return ErrLastAdmin
	}

	if err := s.db.RemoveUserFromRoom(target.String(), roomID.String()); err != nil {
		return err
	}

	s.caches.Invalidate(target, cache.TagChatRooms, cache.MessagesTag(roomID))
	for _, id := range memberIDs(room) {
		if id != target {
			s.caches.Invalidate(id, cache.TagChatRooms)
		}
	}

	return nil
}

// PromoteAdmin grants admin to an existing member. Admin-only.
func (s *RoomService) PromoteAdmin(actor, roomID, target uuid.UUID) error {
	room, err := s.adminRoom(actor, roomID)
	if err != nil {
		return err
	}

	if !room.IsMember(target) {
		return ErrNotMember
	}
	if room.IsAdmin(target) {
		return nil
	}

	if err := s.db.AddRoomAdmin(target.String(), roomID.String()); err != nil {
		return err
	}

	for _, id := range memberIDs(room) {
		s.caches.Invalidate(id, cache.TagChatRooms)
	}

	return nil
}

// RenameRoom renames the room. Admin-only.
func (s *RoomService) RenameRoom(actor, roomID uuid.UUID, name string) (*models.Room, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyContent
	}

	room, err := s.adminRoom(actor, roomID)
	if err != nil {
		return nil, err
	}

	room.Name = name
	if err := s.db.UpdateRoom(room); err != nil {
		return nil, err
	}

	for _, id := range memberIDs(room) {
		s.caches.Invalidate(id, cache.TagChatRooms)
	}

	return room, nil
}

// DeleteRoom deletes the room and cascades its messages. Admin-only.
func (s *RoomService) DeleteRoom(actor, roomID uuid.UUID) error {
	room, err := s.adminRoom(actor, roomID)
	if err != nil {
		return err
	}

	if err := s.db.DeleteRoom(roomID.String()); err != nil {
		return err
	}

	for _, id := range memberIDs(room) {
		s.caches.Invalidate(id, cache.TagChatRooms, cache.MessagesTag(roomID))
	}

	return nil
}

// LeaveRoom is self-removal and needs no admin privilege. The last admin
// cannot leave while other participants remain; the last participant leaving
// deletes the room.
func (s *RoomService) LeaveRoom(actor, roomID uuid.UUID) error {
	room, err := s.getRoom(roomID)
	if err != nil {
		return err
	}

	if !room.IsMember(actor) {
		return ErrNotMember
	}

	if len(room.Members) == 1 {
		if err := s.db.DeleteRoom(roomID.String()); err != nil {
			return err
		}
		s.caches.Invalidate(actor, cache.TagChatRooms, cache.MessagesTag(roomID))
		return nil
	}

	if room.IsAdmin(actor) && len(room.Admins) == 1 {
		return ErrLastAdmin
	}

	if err := s.db.RemoveUserFromRoom(actor.String(), roomID.String()); err != nil {
		return err
	}

	s.caches.Invalidate(actor, cache.TagChatRooms, cache.MessagesTag(roomID))
	for _, id := range memberIDs(room) {
		if id != actor {
			s.caches.Invalidate(id, cache.TagChatRooms)
		}
	}

	return nil
}

// RoomMessages fetches the room history after enforcing membership.
func (s *RoomService) RoomMessages(viewer, roomID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(viewer) {
		return nil, ErrForbidden
	}
	return s.db.GetRoomMessages(roomID.String(), limit, beforeID)
}

func (s *RoomService) getRoom(roomID uuid.UUID) (*models.Room, error) {
	room, err := s.db.GetRoom(roomID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *RoomService) adminRoom(actor, roomID uuid.UUID) (*models.Room, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	return room, nil
}
