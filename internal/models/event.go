package models

import "time"

type Event struct {
	EventTicker  string  `gorm:"primaryKey;type:text;comment:event ticker"`
	SeriesTicker *string `gorm:"type:text;index;comment:parent series ticker"`
	Title        *string `gorm:"type:text;comment:event title"`
	Category     *string `gorm:"type:text;index;comment:upstream category"`
	Status       *string `gorm:"type:text;comment:event status"`

	// Aggregates rolled up from member markets during ingestion, never on read.
	HeatScore         float64 `gorm:"not null;default:0;comment:sum of member market heat"`
	TotalVolume       int64   `gorm:"not null;default:0;comment:sum of member market volume"`
	TotalOpenInterest int64   `gorm:"not null;default:0;comment:sum of member open interest"`

	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (Event) TableName() string {
	return "events"
}

// EffectiveCategory prefers the parent series category when one is known.
func (e Event) EffectiveCategory(seriesCategory *string) string {
	if seriesCategory != nil && *seriesCategory != "" {
		return *seriesCategory
	}
	if e.Category != nil {
		return *e.Category
	}
	return ""
}
