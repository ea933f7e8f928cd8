package services

import (
	"errors"
	"fmt"
	"time"

	"roombooking-backend/models"

	"gorm.io/gorm"
)

type RoomService struct {
	DB *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{DB: db}
}

// RoomFilter narrows the availability search. Zero values mean "no filter".
type RoomFilter struct {
	Capacity     int
	HasProjector bool
	HasComputers bool
}

func (s *RoomService) Create(room models.Room) (models.Room, error) {
	if err := s.DB.Create(&room).Error; err != nil {
		return models.Room{}, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

func (s *RoomService) GetAll() ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.Order("name ASC").Find(&rooms).Error
	return rooms, err
}

func (s *RoomService) GetCathedral() ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.Where("is_cathedral = ?", true).Order("name ASC").Find(&rooms).Error
	return rooms, err
}

func (s *RoomService) GetByID(id uint) (models.Room, error) {
	var room models.Room
	if err := s.DB.First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, fmt.Errorf("db error loading room %d: %w", id, err)
	}
	return room, nil
}

func (s *RoomService) Update(room models.Room) (models.Room, error) {
	if _, err := s.GetByID(room.ID); err != nil {
		return models.Room{}, err
	}
	if err := s.DB.Model(&models.Room{}).Where("id = ?", room.ID).Updates(room).Error; err != nil {
		return models.Room{}, fmt.Errorf("failed to update room %d: %w", room.ID, err)
	}
	return s.GetByID(room.ID)
}

func (s *RoomService) Delete(id uint) error {
	return s.DB.Delete(&models.Room{}, id).Error
}

// GetAvailable lists rooms matching the filter that have no booking touching
// [start, end]. Uses the same inclusive overlap test as the conflict checker,
// so a room whose booking ends exactly at `start` is not available.
func (s *RoomService) GetAvailable(start, end time.Time, filter RoomFilter) ([]models.Room, error) {
	busy := s.DB.Model(&models.Booking{}).
		Select("room_id").
		Where("end_time >= ? AND start_time <= ?", start, end)

	q := s.DB.Where("id NOT IN (?)", busy)
	if filter.Capacity > 0 {
		q = q.Where("capacity >= ?", filter.Capacity)
	}
	if filter.HasProjector {
		q = q.Where("has_projector = ?", true)
	}
	if filter.HasComputers {
		q = q.Where("has_computers = ?", true)
	}

	var rooms []models.Room
	if err := q.Order("name ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to query available rooms: %w", err)
	}
	return rooms, nil
}
