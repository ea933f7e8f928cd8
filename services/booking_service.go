// services/booking_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"roombooking-backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingService wraps *gorm.DB and owns the reservation rules: admissibility
// of a proposed slot, expansion of recurrence rules into booking groups, and
// the group lifecycle (create/update/delete, single and recurring).
type BookingService struct {
	DB *gorm.DB
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{DB: db}
}

// Frequency of a recurrence rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// recurringRules maps a frequency to its date increment. Immutable after
// init; a rule advances an occurrence by `interval` units of its frequency.
var recurringRules = map[Frequency]func(t time.Time, interval int) time.Time{
	FrequencyDaily:   func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) },
	FrequencyWeekly:  func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) },
	FrequencyMonthly: func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) },
	FrequencyYearly:  func(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) },
}

// RecurrenceRule is the transient rule attached to a recurring request.
// Until is an exclusive upper bound on the end time of generated occurrences.
type RecurrenceRule struct {
	Frequency Frequency
	Interval  int
	Until     time.Time
}

// BookingRequest carries everything needed to build one booking (or the
// template of a recurring series). Room and owner are resolved by id, never
// constructed here.
type BookingRequest struct {
	ID             uint
	BookingGroupID string

	RoomID  uint
	OwnerID uint

	StartTime time.Time
	EndTime   time.Time

	Description string
	Title       string
	StaffIDs    []uint
	GroupIDs    []uint
	Tag         string

	Recurrence *RecurrenceRule
}

// RoomBookings is one (room, bookings) pair of the grouped range query.
type RoomBookings struct {
	Room     string           `json:"room"`
	Bookings []models.Booking `json:"bookings"`
}

// ---------------------------
// Conflict checker
// ---------------------------

// isAdmissible decides whether [start, end) may be booked for roomID.
// A slot is rejected when it is empty or inverted, when it crosses midnight,
// or when any persisted booking for the room touches it. The overlap test is
// deliberately inclusive (end_time >= start AND start_time <= end): two
// bookings meeting exactly at a boundary instant conflict.
// excludeID, when non-zero, leaves that booking out of the count so an update
// can keep its own slot.
func (s *BookingService) isAdmissible(tx *gorm.DB, start, end time.Time, roomID, excludeID uint) (bool, error) {
	if !start.Before(end) {
		return false, nil
	}
	if start.Year() != end.Year() || start.YearDay() != end.YearDay() {
		// Bookings never span midnight.
		return false, nil
	}

	q := tx.Model(&models.Booking{}).
		Where("end_time >= ? AND start_time <= ? AND room_id = ?", start, end, roomID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if tx.Dialector.Name() == "mysql" {
		// Lock the scanned rows for the rest of the transaction so two
		// concurrent creations cannot both pass validation for the same slot.
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return count == 0, nil
}

// buildBooking resolves the owner and room references and assembles a booking
// row from the request. Missing references surface as typed not-found errors.
func (s *BookingService) buildBooking(tx *gorm.DB, req BookingRequest) (models.Booking, error) {
	if strings.TrimSpace(req.Description) == "" {
		return models.Booking{}, ErrDescriptionRequired
	}

	var owner models.User
	if err := tx.First(&owner, req.OwnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Booking{}, ErrUserNotFound
		}
		return models.Booking{}, fmt.Errorf("db error checking owner %d: %w", req.OwnerID, err)
	}

	var room models.Room
	if err := tx.First(&room, req.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Booking{}, ErrRoomNotFound
		}
		return models.Booking{}, fmt.Errorf("db error checking room %d: %w", req.RoomID, err)
	}

	booking := models.Booking{
		ID:             req.ID,
		BookingGroupID: req.BookingGroupID,
		RoomID:         room.ID,
		OwnerID:        owner.ID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Description:    req.Description,
		Title:          req.Title,
		Tag:            req.Tag,
	}

	if len(req.StaffIDs) > 0 {
		raw, _ := json.Marshal(req.StaffIDs)
		booking.StaffIDs = datatypes.JSON(raw)
	}
	if len(req.GroupIDs) > 0 {
		raw, _ := json.Marshal(req.GroupIDs)
		booking.GroupIDs = datatypes.JSON(raw)
	}

	return booking, nil
}

// ---------------------------
// Booking group lifecycle
// ---------------------------

// CreateBooking validates and persists a standalone booking. The booking
// becomes a group of one: its group id is a fresh UUID.
func (s *BookingService) CreateBooking(req BookingRequest) (models.Booking, error) {
	var out models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		booking, err := s.buildBooking(tx, req)
		if err != nil {
			return err
		}

		ok, err := s.isAdmissible(tx, booking.StartTime, booking.EndTime, booking.RoomID, 0)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBookingConflict
		}

		if booking.BookingGroupID == "" {
			booking.BookingGroupID = uuid.NewString()
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		out = booking
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	return s.reload(out.ID)
}

// CreateRecurringBooking expands the request's recurrence rule into a series
// of bookings sharing one fresh group UUID. The whole expansion is one
// transaction: the first inadmissible occurrence aborts the call and rolls
// back every occurrence staged before it. The last generated occurrence is
// returned as the representative; callers should treat the group id as the
// handle for the series.
func (s *BookingService) CreateRecurringBooking(req BookingRequest) (models.Booking, error) {
	var out models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		last, err := s.expandRecurrence(tx, req)
		if err != nil {
			return err
		}
		out = last
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	return s.reload(out.ID)
}

// expandRecurrence runs inside an open transaction so update-recurring can
// share it with the group delete.
func (s *BookingService) expandRecurrence(tx *gorm.DB, req BookingRequest) (models.Booking, error) {
	rule := req.Recurrence
	if rule == nil {
		return models.Booking{}, ErrInvalidRecurrence
	}
	if rule.Interval < 1 {
		return models.Booking{}, ErrInvalidRecurrence
	}
	increment, ok := recurringRules[rule.Frequency]
	if !ok {
		return models.Booking{}, ErrInvalidRecurrence
	}
	if !rule.Until.After(req.StartTime) {
		return models.Booking{}, ErrInvalidRecurrence
	}

	template, err := s.buildBooking(tx, req)
	if err != nil {
		return models.Booking{}, err
	}

	groupID := uuid.NewString()
	start, end := req.StartTime, req.EndTime

	var last models.Booking
	staged := 0
	for end.Before(rule.Until) {
		admissible, err := s.isAdmissible(tx, start, end, template.RoomID, 0)
		if err != nil {
			return models.Booking{}, err
		}
		if !admissible {
			return models.Booking{}, ErrBookingConflict
		}

		occ := template
		occ.ID = 0
		occ.BookingGroupID = groupID
		occ.StartTime = start
		occ.EndTime = end
		if err := tx.Create(&occ).Error; err != nil {
			return models.Booking{}, fmt.Errorf("failed to create occurrence: %w", err)
		}

		last = occ
		staged++
		start = increment(start, rule.Interval)
		end = increment(end, rule.Interval)
	}

	if staged == 0 {
		return models.Booking{}, ErrInvalidRecurrence
	}
	return last, nil
}

// UpdateBooking rebuilds a single booking from the request, re-validates its
// slot (ignoring its own row, so keeping or shrinking the slot is allowed)
// and upserts it by id.
func (s *BookingService) UpdateBooking(req BookingRequest) (models.Booking, error) {
	var out models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Booking
		if err := tx.First(&existing, req.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("db error loading booking %d: %w", req.ID, err)
		}

		booking, err := s.buildBooking(tx, req)
		if err != nil {
			return err
		}
		booking.ID = existing.ID
		booking.BookingGroupID = existing.BookingGroupID
		booking.CreatedAt = existing.CreatedAt

		ok, err := s.isAdmissible(tx, booking.StartTime, booking.EndTime, booking.RoomID, booking.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBookingConflict
		}

		if err := tx.Save(&booking).Error; err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		out = booking
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	return s.reload(out.ID)
}

// UpdateRecurringBooking replaces an entire series: the existing group
// (resolved from the booking id in the request) is deleted and the series is
// recreated from the new parameters. Delete and recreate share a single
// transaction, so a conflict during recreation leaves the original series
// untouched.
func (s *BookingService) UpdateRecurringBooking(req BookingRequest) (models.Booking, error) {
	var out models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var rep models.Booking
		if err := tx.First(&rep, req.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("db error loading booking %d: %w", req.ID, err)
		}

		if err := tx.Where("booking_group_id = ?", rep.BookingGroupID).
			Delete(&models.Booking{}).Error; err != nil {
			return fmt.Errorf("failed to delete booking group %s: %w", rep.BookingGroupID, err)
		}

		last, err := s.expandRecurrence(tx, req)
		if err != nil {
			return err
		}
		out = last
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	return s.reload(out.ID)
}

// DeleteBooking removes a single booking by id. Deleting an absent id is a
// documented no-op; callers that need to surface absence must check first.
func (s *BookingService) DeleteBooking(bookingID uint) error {
	if err := s.DB.Delete(&models.Booking{}, bookingID).Error; err != nil {
		return fmt.Errorf("failed to delete booking %d: %w", bookingID, err)
	}
	return nil
}

// DeleteRecurringBooking resolves the group id from a representative booking
// id and removes every booking in that group.
func (s *BookingService) DeleteRecurringBooking(bookingID uint) error {
	var rep models.Booking
	if err := s.DB.First(&rep, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("db error loading booking %d: %w", bookingID, err)
	}

	if err := s.DB.Where("booking_group_id = ?", rep.BookingGroupID).
		Delete(&models.Booking{}).Error; err != nil {
		return fmt.Errorf("failed to delete booking group %s: %w", rep.BookingGroupID, err)
	}
	return nil
}

// ---------------------------
// Queries
// ---------------------------

// GetBookingByID loads one booking with its relations.
func (s *BookingService) GetBookingByID(bookingID uint) (models.Booking, error) {
	return s.reload(bookingID)
}

// GetBookingsInRange returns every booking overlapping [start, end] across
// all rooms, grouped by room name, each group sorted ascending by start time.
// Groups are ordered by room name so output is deterministic.
func (s *BookingService) GetBookingsInRange(start, end time.Time) ([]RoomBookings, error) {
	var bookings []models.Booking
	if err := s.DB.
		Preload("Room").
		Preload("Owner").
		Where("end_time >= ? AND start_time <= ?", start, end).
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to query bookings in range: %w", err)
	}

	grouped := make(map[string][]models.Booking)
	for _, b := range bookings {
		grouped[b.Room.Name] = append(grouped[b.Room.Name], b)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]RoomBookings, 0, len(names))
	for _, name := range names {
		group := grouped[name]
		sort.Slice(group, func(i, j int) bool {
			return group[i].StartTime.Before(group[j].StartTime)
		})
		out = append(out, RoomBookings{Room: name, Bookings: group})
	}
	return out, nil
}

// GetBookingsByRoom returns bookings overlapping [start, end] for one room,
// in natural fetch order.
func (s *BookingService) GetBookingsByRoom(roomID uint, start, end time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := s.DB.
		Preload("Room").
		Preload("Owner").
		Where("end_time >= ? AND start_time <= ? AND room_id = ?", start, end, roomID).
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to query bookings for room %d: %w", roomID, err)
	}
	return bookings, nil
}

// GetBookingsByUser returns bookings overlapping [start, end] owned by one
// user. An empty result for an existing user is an empty slice; an unknown
// user id fails with ErrUserNotFound so callers can tell the two apart.
func (s *BookingService) GetBookingsByUser(userID uint, start, end time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := s.DB.
		Preload("Room").
		Preload("Owner").
		Where("end_time >= ? AND start_time <= ? AND owner_id = ?", start, end, userID).
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to query bookings for user %d: %w", userID, err)
	}

	if len(bookings) == 0 {
		var user models.User
		if err := s.DB.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("db error checking user %d: %w", userID, err)
		}
	}

	return bookings, nil
}

func (s *BookingService) reload(bookingID uint) (models.Booking, error) {
	var booking models.Booking
	if err := s.DB.Preload("Room").Preload("Owner").First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Booking{}, ErrBookingNotFound
		}
		return models.Booking{}, fmt.Errorf("failed to retrieve booking %d: %w", bookingID, err)
	}
	return booking, nil
}
