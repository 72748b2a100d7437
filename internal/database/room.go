package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mzhurov/commune/internal/models"
)

// CreateRoomWithMembers creates the room, enrolls the creator as member and
// admin, and adds the initial roster, all in one transaction. A failure on
// any step rolls the whole room back, so no room is ever persisted with
// participants and an empty admin set.
func (d *Database) CreateRoomWithMembers(room *models.Room, creator uuid.UUID, members []uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}

		var creatorUser models.User
		if err := tx.First(&creatorUser, "id = ?", creator).Error; err != nil {
			return err
		}
		if err := tx.Model(room).Association("Members").Append(&creatorUser); err != nil {
			return err
		}
		if err := tx.Model(room).Association("Admins").Append(&creatorUser); err != nil {
			return err
		}

		for _, id := range members {
			if id == creator {
				continue
			}
			var user models.User
			if err := tx.First(&user, "id = ?", id).Error; err != nil {
				return err
			}
			if err := tx.Model(room).Association("Members").Append(&user); err != nil {
				return err
			}
		}

		return nil
	})
}

func (d *Database) GetRoom(id string) (*models.Room, error) {
	var room models.Room
	err := d.db.
		Preload("Members").
		Preload("Admins").
		First(&room, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *Database) GetUserRooms(userID string) ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.
		Joins("JOIN room_members rm ON rm.room_id = rooms.id").
		Where("rm.user_id = ?", userID).
		Preload("Members").
		Preload("Admins").
		Find(&rooms).Error
	return rooms, err
}

func (d *Database) AddUserToRoom(userID, roomID string) error {
	var user models.User
	var room models.Room

	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if err := d.db.First(&room, "id = ?", roomID).Error; err != nil {
		return err
	}

	return d.db.Model(&room).Association("Members").Append(&user)
}

func (d *Database) RemoveUserFromRoom(userID, roomID string) error {
	var user models.User
	var room models.Room

	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if err := d.db.First(&room, "id = ?", roomID).Error; err != nil {
		return err
	}

	if err := d.db.Model(&room).Association("Admins").Delete(&user); err != nil {
		return err
	}

	return d.db.Model(&room).Association("Members").Delete(&user)
}

func (d *Database) AddRoomAdmin(userID, roomID string) error {
	var user models.User
	var room models.Room

	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if err := d.db.First(&room, "id = ?", roomID).Error; err != nil {
		return err
	}

	return d.db.Model(&room).Association("Admins").Append(&user)
}

func (d *Database) UpdateRoom(room *models.Room) error {
	return d.db.Model(room).Update("name", room.Name).Error
}

// DeleteRoom removes the room, its membership rows and every room message.
func (d *Database) DeleteRoom(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var msgIDs []uuid.UUID
		if err := tx.Model(&models.Message{}).Where("room_id = ?", id).Pluck("id", &msgIDs).Error; err != nil {
			return err
		}
		if len(msgIDs) > 0 {
			if err := tx.Delete(&models.Reaction{}, "message_id IN ?", msgIDs).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Message{}, "room_id = ?", id).Error; err != nil {
			return err
		}

		var room models.Room
		if err := tx.First(&room, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Model(&room).Association("Members").Clear(); err != nil {
			return err
		}

		if err := tx.Model(&room).Association("Admins").Clear(); err != nil {
			return err
		}

		return tx.Delete(&room).Error
	})
}
