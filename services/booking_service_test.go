package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombooking-backend/models"
)

func newBookingFixture(t *testing.T) (*BookingService, models.Room, models.User) {
	t.Helper()
	db := newTestDB(t)
	svc := NewBookingService(db)
	room := seedRoom(t, db, "Seminar 101")
	user := seedUser(t, db, "alice")
	return svc, room, user
}

func simpleRequest(room models.Room, user models.User, start, end time.Time) BookingRequest {
	return BookingRequest{
		RoomID:      room.ID,
		OwnerID:     user.ID,
		StartTime:   start,
		EndTime:     end,
		Description: "Weekly sync",
		Title:       "Sync",
	}
}

// ---------------------------
// Single booking lifecycle
// ---------------------------

func TestCreateBooking(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	booking, err := svc.CreateBooking(simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0)))
	require.NoError(t, err)

	assert.NotZero(t, booking.ID)
	assert.NotEmpty(t, booking.BookingGroupID)
	assert.Equal(t, room.ID, booking.RoomID)
	assert.Equal(t, user.ID, booking.OwnerID)
	assert.Equal(t, "Seminar 101", booking.Room.Name)
	assert.Equal(t, "alice", booking.Owner.Username)
}

func TestCreateBookingRejectsInvertedOrEmptySlot(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 11, 0), at(2, 10, 0)))
	assert.ErrorIs(t, err, ErrBookingConflict)

	_, err = svc.CreateBooking(simpleRequest(room, user, at(2, 10, 0), at(2, 10, 0)))
	assert.ErrorIs(t, err, ErrBookingConflict)
}

func TestCreateBookingRejectsCrossMidnightSlot(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 23, 0), at(3, 1, 0)))
	assert.ErrorIs(t, err, ErrBookingConflict)
}

func TestCreateBookingRejectsBlankDescription(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0))
	req.Description = "   "
	_, err := svc.CreateBooking(req)
	assert.ErrorIs(t, err, ErrDescriptionRequired)
}

func TestCreateBookingUnknownReferences(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0))
	req.OwnerID = 9999
	_, err := svc.CreateBooking(req)
	assert.ErrorIs(t, err, ErrUserNotFound)

	req = simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0))
	req.RoomID = 9999
	_, err = svc.CreateBooking(req)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

// Boundary instants count as overlap: a booking ending exactly when another
// starts conflicts with it.
func TestConflictBoundariesAreInclusive(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0)))
	require.NoError(t, err)

	_, err = svc.CreateBooking(simpleRequest(room, user, at(2, 11, 0), at(2, 12, 0)))
	assert.ErrorIs(t, err, ErrBookingConflict)

	_, err = svc.CreateBooking(simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0)))
	assert.ErrorIs(t, err, ErrBookingConflict)

	_, err = svc.CreateBooking(simpleRequest(room, user, at(2, 12, 0), at(2, 13, 0)))
	assert.NoError(t, err)
}

func TestConflictIsPerRoom(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	room2 := models.Room{Name: "Meeting Room A", Capacity: 8}
	require.NoError(t, svc.DB.Create(&room2).Error)

	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0)))
	require.NoError(t, err)

	_, err = svc.CreateBooking(simpleRequest(room2, user, at(2, 10, 0), at(2, 11, 0)))
	assert.NoError(t, err)
}

// ---------------------------
// Recurring series
// ---------------------------

func TestCreateRecurringBookingDaily(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0))
	req.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Until: at(5, 10, 0)}

	last, err := svc.CreateRecurringBooking(req)
	require.NoError(t, err)

	var series []models.Booking
	require.NoError(t, svc.DB.
		Where("booking_group_id = ?", last.BookingGroupID).
		Order("start_time ASC").
		Find(&series).Error)

	require.Len(t, series, 3)
	for i, b := range series {
		assert.Equal(t, at(2+i, 9, 0), b.StartTime.UTC())
		assert.Equal(t, at(2+i, 10, 0), b.EndTime.UTC())
		assert.Equal(t, last.BookingGroupID, b.BookingGroupID)
	}
	assert.Equal(t, series[2].ID, last.ID)
}

func TestCreateRecurringBookingWeeklyInterval(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0))
	req.Recurrence = &RecurrenceRule{
		Frequency: FrequencyWeekly,
		Interval:  2,
		Until:     at(2, 9, 0).AddDate(0, 0, 29),
	}

	last, err := svc.CreateRecurringBooking(req)
	require.NoError(t, err)

	var series []models.Booking
	require.NoError(t, svc.DB.
		Where("booking_group_id = ?", last.BookingGroupID).
		Order("start_time ASC").
		Find(&series).Error)

	require.Len(t, series, 3)
	assert.Equal(t, at(2, 9, 0), series[0].StartTime.UTC())
	assert.Equal(t, at(16, 9, 0), series[1].StartTime.UTC())
	assert.Equal(t, at(30, 9, 0), series[2].StartTime.UTC())
}

func TestCreateRecurringBookingMonthlyAndYearly(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0))
	req.Recurrence = &RecurrenceRule{
		Frequency: FrequencyMonthly,
		Interval:  1,
		Until:     at(2, 10, 0).AddDate(0, 2, 1),
	}
	last, err := svc.CreateRecurringBooking(req)
	require.NoError(t, err)

	var count int64
	require.NoError(t, svc.DB.Model(&models.Booking{}).
		Where("booking_group_id = ?", last.BookingGroupID).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	req = simpleRequest(room, user, at(3, 9, 0), at(3, 10, 0))
	req.Recurrence = &RecurrenceRule{
		Frequency: FrequencyYearly,
		Interval:  1,
		Until:     at(3, 10, 0).AddDate(1, 0, 1),
	}
	last, err = svc.CreateRecurringBooking(req)
	require.NoError(t, err)

	require.NoError(t, svc.DB.Model(&models.Booking{}).
		Where("booking_group_id = ?", last.BookingGroupID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestCreateRecurringBookingInvalidRule(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0))

	req.Recurrence = nil
	_, err := svc.CreateRecurringBooking(req)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	req.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 0, Until: at(5, 10, 0)}
	_, err = svc.CreateRecurringBooking(req)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	req.Recurrence = &RecurrenceRule{Frequency: "fortnightly", Interval: 1, Until: at(5, 10, 0)}
	_, err = svc.CreateRecurringBooking(req)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	// Until not after the start never yields an occurrence.
	req.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Until: at(2, 9, 0)}
	_, err = svc.CreateRecurringBooking(req)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)
}

// A conflict anywhere in the series aborts the whole expansion: no occurrence
// staged before the collision survives.
func TestCreateRecurringBookingRollsBackOnConflict(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	blocker, err := svc.CreateBooking(simpleRequest(room, user, at(4, 9, 30), at(4, 10, 30)))
	require.NoError(t, err)

	req := simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0))
	req.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Until: at(6, 10, 0)}

	_, err = svc.CreateRecurringBooking(req)
	assert.ErrorIs(t, err, ErrBookingConflict)

	var count int64
	require.NoError(t, svc.DB.Model(&models.Booking{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "only the blocker should remain")

	remaining, err := svc.GetBookingByID(blocker.ID)
	require.NoError(t, err)
	assert.Equal(t, blocker.ID, remaining.ID)
}

// ---------------------------
// Updates
// ---------------------------

func TestUpdateBookingKeepsOwnSlot(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	booking, err := svc.CreateBooking(simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0)))
	require.NoError(t, err)

	req := simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0))
	req.ID = booking.ID
	req.Description = "Moved agenda"

	updated, err := svc.UpdateBooking(req)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, updated.ID)
	assert.Equal(t, booking.BookingGroupID, updated.BookingGroupID)
	assert.Equal(t, "Moved agenda", updated.Description)
}

func TestUpdateBookingConflictsWithOthers(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0)))
	require.NoError(t, err)
	victim, err := svc.CreateBooking(simpleRequest(room, user, at(2, 13, 0), at(2, 14, 0)))
	require.NoError(t, err)

	req := simpleRequest(room, user, at(2, 10, 30), at(2, 11, 30))
	req.ID = victim.ID
	_, err = svc.UpdateBooking(req)
	assert.ErrorIs(t, err, ErrBookingConflict)
}

func TestUpdateBookingNotFound(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0))
	req.ID = 9999
	_, err := svc.UpdateBooking(req)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestUpdateRecurringBookingReplacesSeries(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0))
	req.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Until: at(5, 10, 0)}
	last, err := svc.CreateRecurringBooking(req)
	require.NoError(t, err)
	oldGroup := last.BookingGroupID

	update := simpleRequest(room, user, at(2, 14, 0), at(2, 15, 0))
	update.ID = last.ID
	update.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Until: at(4, 15, 0)}

	replaced, err := svc.UpdateRecurringBooking(update)
	require.NoError(t, err)
	assert.NotEqual(t, oldGroup, replaced.BookingGroupID)

	var oldCount, newCount int64
	require.NoError(t, svc.DB.Model(&models.Booking{}).
		Where("booking_group_id = ?", oldGroup).Count(&oldCount).Error)
	require.NoError(t, svc.DB.Model(&models.Booking{}).
		Where("booking_group_id = ?", replaced.BookingGroupID).Count(&newCount).Error)
	assert.EqualValues(t, 0, oldCount)
	assert.EqualValues(t, 2, newCount)
}

// A failed replacement leaves the original series in place: delete and
// recreate happen in one transaction.
func TestUpdateRecurringBookingIsAtomic(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0))
	req.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Until: at(5, 10, 0)}
	last, err := svc.CreateRecurringBooking(req)
	require.NoError(t, err)
	oldGroup := last.BookingGroupID

	_, err = svc.CreateBooking(simpleRequest(room, user, at(3, 14, 30), at(3, 15, 30)))
	require.NoError(t, err)

	update := simpleRequest(room, user, at(2, 14, 0), at(2, 15, 0))
	update.ID = last.ID
	update.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Until: at(5, 15, 0)}

	_, err = svc.UpdateRecurringBooking(update)
	assert.ErrorIs(t, err, ErrBookingConflict)

	var oldCount int64
	require.NoError(t, svc.DB.Model(&models.Booking{}).
		Where("booking_group_id = ?", oldGroup).Count(&oldCount).Error)
	assert.EqualValues(t, 3, oldCount, "original series must survive the failed update")
}

// ---------------------------
// Deletes
// ---------------------------

func TestDeleteBookingIsSilentOnMissingID(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	assert.NoError(t, svc.DeleteBooking(9999))
}

func TestDeleteBookingRemovesOneRow(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	booking, err := svc.CreateBooking(simpleRequest(room, user, at(2, 10, 0), at(2, 11, 0)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBooking(booking.ID))
	_, err = svc.GetBookingByID(booking.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestDeleteRecurringBookingRemovesOnlyItsGroup(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	req := simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0))
	req.Recurrence = &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Until: at(5, 10, 0)}
	first, err := svc.CreateRecurringBooking(req)
	require.NoError(t, err)

	other, err := svc.CreateBooking(simpleRequest(room, user, at(2, 14, 0), at(2, 15, 0)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecurringBooking(first.ID))

	var count int64
	require.NoError(t, svc.DB.Model(&models.Booking{}).
		Where("booking_group_id = ?", first.BookingGroupID).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	_, err = svc.GetBookingByID(other.ID)
	assert.NoError(t, err)
}

func TestDeleteRecurringBookingNotFound(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	assert.ErrorIs(t, svc.DeleteRecurringBooking(9999), ErrBookingNotFound)
}

// ---------------------------
// Queries
// ---------------------------

func TestGetBookingsInRangeGroupsAndSorts(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	roomB := models.Room{Name: "Auditorium", Capacity: 100}
	require.NoError(t, svc.DB.Create(&roomB).Error)

	// Inserted out of order on purpose.
	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 14, 0), at(2, 15, 0)))
	require.NoError(t, err)
	_, err = svc.CreateBooking(simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0)))
	require.NoError(t, err)
	_, err = svc.CreateBooking(simpleRequest(roomB, user, at(2, 11, 0), at(2, 12, 0)))
	require.NoError(t, err)

	pairs, err := svc.GetBookingsInRange(at(2, 0, 0), at(2, 23, 0))
	require.NoError(t, err)

	require.Len(t, pairs, 2)
	assert.Equal(t, "Auditorium", pairs[0].Room)
	assert.Equal(t, "Seminar 101", pairs[1].Room)

	require.Len(t, pairs[1].Bookings, 2)
	assert.True(t, pairs[1].Bookings[0].StartTime.Before(pairs[1].Bookings[1].StartTime))
}

func TestGetBookingsInRangeExcludesDisjoint(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0)))
	require.NoError(t, err)

	pairs, err := svc.GetBookingsInRange(at(3, 0, 0), at(3, 23, 0))
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestGetBookingsByRoom(t *testing.T) {
	svc, room, user := newBookingFixture(t)

	roomB := models.Room{Name: "Auditorium", Capacity: 100}
	require.NoError(t, svc.DB.Create(&roomB).Error)

	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0)))
	require.NoError(t, err)
	_, err = svc.CreateBooking(simpleRequest(roomB, user, at(2, 9, 0), at(2, 10, 0)))
	require.NoError(t, err)

	bookings, err := svc.GetBookingsByRoom(room.ID, at(2, 0, 0), at(2, 23, 0))
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, room.ID, bookings[0].RoomID)
}

func TestGetBookingsByUserDistinguishesEmptyFromUnknown(t *testing.T) {
	svc, room, user := newBookingFixture(t)
	idle := seedUser(t, svc.DB, "bob")

	_, err := svc.CreateBooking(simpleRequest(room, user, at(2, 9, 0), at(2, 10, 0)))
	require.NoError(t, err)

	bookings, err := svc.GetBookingsByUser(idle.ID, at(2, 0, 0), at(2, 23, 0))
	require.NoError(t, err)
	assert.Empty(t, bookings)

	_, err = svc.GetBookingsByUser(9999, at(2, 0, 0), at(2, 23, 0))
	assert.ErrorIs(t, err, ErrUserNotFound)
}
