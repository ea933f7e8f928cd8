// controllers/booking_controller.go
package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/gin-gonic/gin"

	"roombooking-backend/models"
	"roombooking-backend/services"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type RecurrencePayload struct {
	Frequency string    `json:"frequency" binding:"required"`
	Interval  int       `json:"interval"`
	Until     time.Time `json:"until" binding:"required"`
}

type BookingPayload struct {
	RoomID      uint      `json:"roomId" binding:"required"`
	OwnerID     uint      `json:"ownerId" binding:"required"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required"`
	Description string    `json:"description" binding:"required"`

	Title    string `json:"title"`
	StaffIDs []uint `json:"staffIds"`
	GroupIDs []uint `json:"groupsIds"`
	Tag      string `json:"tag"`

	Recurrence *RecurrencePayload `json:"recurrence"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

func (p BookingPayload) toRequest(id uint) services.BookingRequest {
	req := services.BookingRequest{
		ID:          id,
		RoomID:      p.RoomID,
		OwnerID:     p.OwnerID,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Description: p.Description,
		Title:       p.Title,
		StaffIDs:    p.StaffIDs,
		GroupIDs:    p.GroupIDs,
		Tag:         p.Tag,
	}
	if p.Recurrence != nil {
		req.Recurrence = &services.RecurrenceRule{
			Frequency: services.Frequency(p.Recurrence.Frequency),
			Interval:  p.Recurrence.Interval,
			Until:     p.Recurrence.Until,
		}
	}
	return req
}

// ---------------------------
// Helpers
// ---------------------------

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidId", "message": "id must be a positive integer"},
		})
		return 0, false
	}
	return uint(id), true
}

func parseTimeRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, err1 := time.Parse(time.RFC3339, c.Query("start"))
	end, err2 := time.Parse(time.RFC3339, c.Query("end"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidTimeRange", "message": "start and end must be RFC3339 timestamps"},
		})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// respondBookingError maps the service sentinels onto HTTP statuses.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBookingConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{"code": "error.bookingConflict", "message": "the requested slot conflicts with an existing booking"},
		})
	case errors.Is(err, services.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "error.roomNotFound", "message": "room not found"},
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "error.userNotFound", "message": "user not found"},
		})
	case errors.Is(err, services.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "error.bookingNotFound", "message": "booking not found"},
		})
	case errors.Is(err, services.ErrDescriptionRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.descriptionRequired", "message": "description must not be blank"},
		})
	case errors.Is(err, services.ErrInvalidRecurrence):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidRecurrence", "message": "recurrence rule is invalid or produces no occurrences"},
		})
	case errors.Is(err, services.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"error": gin.H{"code": "error.accessDenied", "message": "access denied"},
		})
	case isForeignKeyError(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.foreignKey", "message": "referenced entity does not exist", "details": err.Error()},
		})
	default:
		log.Printf("booking operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "error.internal", "message": "internal error"},
		})
	}
}

// isForeignKeyError detects MySQL FK violations (errno 1452).
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1452
	}
	return false
}

// ---------------------------
// Lifecycle handlers
// ---------------------------

func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var payload BookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidPayload", "message": "invalid request body", "details": err.Error()},
		})
		return
	}

	booking, err := ctrl.BookingSvc.CreateBooking(payload.toRequest(0))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": booking})
}

func (ctrl *BookingController) CreateRecurringBooking(c *gin.Context) {
	var payload BookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidPayload", "message": "invalid request body", "details": err.Error()},
		})
		return
	}
	if payload.Recurrence == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidPayload", "message": "recurrence is required"},
		})
		return
	}

	booking, err := ctrl.BookingSvc.CreateRecurringBooking(payload.toRequest(0))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	// The returned record is the last occurrence; bookingGroupId is the
	// handle for the whole series.
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": booking})
}

func (ctrl *BookingController) UpdateBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var payload BookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidPayload", "message": "invalid request body", "details": err.Error()},
		})
		return
	}

	booking, err := ctrl.BookingSvc.UpdateBooking(payload.toRequest(id))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": booking})
}

func (ctrl *BookingController) UpdateRecurringBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var payload BookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidPayload", "message": "invalid request body", "details": err.Error()},
		})
		return
	}
	if payload.Recurrence == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidPayload", "message": "recurrence is required"},
		})
		return
	}

	booking, err := ctrl.BookingSvc.UpdateRecurringBooking(payload.toRequest(id))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": booking})
}

func (ctrl *BookingController) DeleteBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := ctrl.BookingSvc.DeleteBooking(id); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (ctrl *BookingController) DeleteRecurringBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := ctrl.BookingSvc.DeleteRecurringBooking(id); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ---------------------------
// Query handlers
// ---------------------------

func (ctrl *BookingController) GetBookingsInRange(c *gin.Context) {
	start, end, ok := parseTimeRange(c)
	if !ok {
		return
	}

	pairs, err := ctrl.BookingSvc.GetBookingsInRange(start, end)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, pairs)
}

func (ctrl *BookingController) GetBookingsByRoom(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	start, end, ok := parseTimeRange(c)
	if !ok {
		return
	}

	bookings, err := ctrl.BookingSvc.GetBookingsByRoom(id, start, end)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (ctrl *BookingController) GetBookingsByUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	start, end, ok := parseTimeRange(c)
	if !ok {
		return
	}

	bookings, err := ctrl.BookingSvc.GetBookingsByUser(id, start, end)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

func (ctrl *BookingController) GetBookingByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	booking, err := ctrl.BookingSvc.GetBookingByID(id)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
