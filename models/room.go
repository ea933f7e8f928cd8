package models

import (
	"gorm.io/gorm"
)

type Room struct {
	gorm.Model

	Name     string `json:"name" gorm:"uniqueIndex;size:150"`
	Capacity int    `json:"capacity"`

	HasProjector bool `json:"hasProjector" gorm:"column:has_projector"`
	HasComputers bool `json:"hasComputers" gorm:"column:has_computers"`
	// Cathedral rooms are reserved for department use and listed separately.
	IsCathedral bool `json:"isCathedral" gorm:"column:is_cathedral"`

	Description string `json:"description" gorm:"type:text"`
}
