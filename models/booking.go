package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Booking is one reserved interval for one room. Every occurrence of a
// recurring series shares a BookingGroupID; a standalone booking carries a
// group id of its own, so deleting "the group" of any booking is always safe.
type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BookingGroupID string `gorm:"column:booking_group_id;size:36;index" json:"bookingGroupId"`

	RoomID  uint `gorm:"column:room_id;index;not null" json:"roomId"`
	OwnerID uint `gorm:"column:owner_id;index;not null" json:"ownerId"`

	StartTime time.Time `gorm:"column:start_time;not null;index" json:"startTime"`
	EndTime   time.Time `gorm:"column:end_time;not null;index" json:"endTime"`

	Description string `gorm:"type:text;not null" json:"description"`
	Title       string `gorm:"size:255" json:"title,omitempty"`

	// Attendee id lists live on the row as JSON, no join tables.
	StaffIDs datatypes.JSON `gorm:"column:staff_ids" json:"staffIds,omitempty"`
	GroupIDs datatypes.JSON `gorm:"column:group_ids" json:"groupsIds,omitempty"`

	Tag string `gorm:"size:64" json:"tag,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Room  Room `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`
	Owner User `gorm:"foreignKey:OwnerID;references:ID" json:"owner,omitempty"`
}
