package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"roombooking-backend/models"
	"roombooking-backend/services"
)

type RoomPayload struct {
	Name         string `json:"name" binding:"required"`
	Capacity     int    `json:"capacity"`
	HasProjector bool   `json:"hasProjector"`
	HasComputers bool   `json:"hasComputers"`
	IsCathedral  bool   `json:"isCathedral"`
	Description  string `json:"description"`
}

type RoomController struct {
	RoomSvc *services.RoomService
}

func NewRoomController(svc *services.RoomService) *RoomController {
	return &RoomController{RoomSvc: svc}
}

func respondRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "error.roomNotFound", "message": "room not found"},
		})
	default:
		log.Printf("room operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "error.internal", "message": "internal error"},
		})
	}
}

func (ctrl *RoomController) GetRooms(c *gin.Context) {
	rooms, err := ctrl.RoomSvc.GetAll()
	if err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (ctrl *RoomController) GetCathedralRooms(c *gin.Context) {
	rooms, err := ctrl.RoomSvc.GetCathedral()
	if err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (ctrl *RoomController) GetRoomByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	room, err := ctrl.RoomSvc.GetByID(id)
	if err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetAvailableRooms lists rooms free for the whole [startTime, endTime]
// window, optionally filtered by capacity and equipment.
func (ctrl *RoomController) GetAvailableRooms(c *gin.Context) {
	start, err1 := time.Parse(time.RFC3339, c.Query("startTime"))
	end, err2 := time.Parse(time.RFC3339, c.Query("endTime"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidTimeRange", "message": "startTime and endTime must be RFC3339 timestamps"},
		})
		return
	}

	var filter services.RoomFilter
	if raw := c.Query("capacity"); raw != "" {
		capacity, err := strconv.Atoi(raw)
		if err != nil || capacity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"code": "error.invalidCapacity", "message": "capacity must be a non-negative integer"},
			})
			return
		}
		filter.Capacity = capacity
	}
	filter.HasProjector = c.Query("hasProjector") == "true"
	filter.HasComputers = c.Query("hasComputers") == "true"

	rooms, err := ctrl.RoomSvc.GetAvailable(start, end, filter)
	if err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (ctrl *RoomController) CreateRoom(c *gin.Context) {
	var payload RoomPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidPayload", "message": "invalid request body", "details": err.Error()},
		})
		return
	}

	room := models.Room{
		Name:         payload.Name,
		Capacity:     payload.Capacity,
		HasProjector: payload.HasProjector,
		HasComputers: payload.HasComputers,
		IsCathedral:  payload.IsCathedral,
		Description:  payload.Description,
	}
	created, err := ctrl.RoomSvc.Create(room)
	if err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": created})
}

func (ctrl *RoomController) UpdateRoom(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var payload RoomPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidPayload", "message": "invalid request body", "details": err.Error()},
		})
		return
	}

	room := models.Room{
		Name:         payload.Name,
		Capacity:     payload.Capacity,
		HasProjector: payload.HasProjector,
		HasComputers: payload.HasComputers,
		IsCathedral:  payload.IsCathedral,
		Description:  payload.Description,
	}
	room.ID = id

	updated, err := ctrl.RoomSvc.Update(room)
	if err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": updated})
}

func (ctrl *RoomController) DeleteRoom(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := ctrl.RoomSvc.Delete(id); err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
