package models

import (
	"time"

	"gorm.io/gorm"
)

// LogEntry is one recorded access event. Rows are written once and never updated.
type LogEntry struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	ImageID        *int64    `json:"image_id,omitempty" gorm:"index"`
	OrganizationID *int64    `json:"organization_id,omitempty" gorm:"index"`
	Username       *string   `json:"username,omitempty" gorm:"index"`
	Datetime       time.Time `json:"datetime" gorm:"not null;index"`
}

func (LogEntry) TableName() string {
	return "logs"
}

// BeforeSave stores Datetime in UTC. SQLite compares timestamps as text,
// so every row must carry the same offset for range filters to hold.
func (l *LogEntry) BeforeSave(tx *gorm.DB) error {
	l.Datetime = l.Datetime.UTC()
	return nil
}

// StatBucket is the number of log entries on one calendar day.
type StatBucket struct {
	Count int64  `json:"count"`
	Date  string `json:"date"`
}
