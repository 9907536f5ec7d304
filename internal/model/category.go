package model

import "time"

// Category labels a kind of activity (work, sleep, study, etc.) and its grid color.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	Color     string    `gorm:"not null" json:"color"`
	CreatedAt time.Time `json:"created_at"`
}
