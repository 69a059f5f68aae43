package models

import (
	"time"

	"github.com/google/uuid"
)

// ArticleEventLink associates an article with an event. Rows are insert-only:
// a re-match never overwrites an existing link's score.
type ArticleEventLink struct {
	ArticleID      uuid.UUID `gorm:"primaryKey;type:uuid"`
	EventTicker    string    `gorm:"primaryKey;type:text"`
	RelevanceScore float64   `gorm:"not null;comment:score in [0,1]"`
	CreatedAt      time.Time `gorm:"type:timestamptz;not null"`
}

func (ArticleEventLink) TableName() string {
	return "article_event_links"
}
