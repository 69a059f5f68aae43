package models

import "time"

type Series struct {
	Ticker    string    `gorm:"primaryKey;type:text;comment:series ticker"`
	Title     *string   `gorm:"type:text;comment:series title"`
	Category  *string   `gorm:"type:text;index;comment:upstream category"`
	Frequency *string   `gorm:"type:text;comment:settlement frequency"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (Series) TableName() string {
	return "series"
}
