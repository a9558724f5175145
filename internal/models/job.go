package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job is a unit of deferred AI-generation work. It is created pending,
// owned by exactly one worker from claim to terminal state, and never
// mutated after reaching completed or failed.
type Job struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)"`
	UserID          string         `gorm:"type:varchar(36);not null;index"`
	Type            string         `gorm:"type:varchar(50);not null"`
	InputData       datatypes.JSON `gorm:"type:jsonb"`
	Status          string         `gorm:"type:varchar(50);not null;default:'pending';index"`
	Progress        int            `gorm:"default:0;not null"`
	OutputData      datatypes.JSON `gorm:"type:jsonb"`
	ErrorMessage    string         `gorm:"type:text"`
	CreditsReserved int            `gorm:"default:0;not null"`
	CreditsCharged  int            `gorm:"default:0;not null"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
