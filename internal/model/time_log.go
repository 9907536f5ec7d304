package model

// TimeLog assigns a category to one quarter-hour slot of a day.
// Date is YYYY-MM-DD; StartTime and EndTime are HH:MM.
type TimeLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Date       string    `gorm:"not null;uniqueIndex:unique_time_slot,priority:1" json:"date"`
	StartTime  string    `gorm:"not null;uniqueIndex:unique_time_slot,priority:2" json:"start_time"`
	EndTime    string    `gorm:"not null" json:"end_time"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// CategoryStat is one (date, category) group of logged slots.
// A nil CategoryID marks logged slots without a category.
type CategoryStat struct {
	Date          string
	CategoryID    *uint
	CategoryName  *string
	CategoryColor *string
	Hours         float64
}
