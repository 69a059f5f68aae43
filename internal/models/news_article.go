package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type NewsArticle struct {
	ID          uuid.UUID        `gorm:"primaryKey;type:uuid;comment:article id"`
	URL         string           `gorm:"type:text;uniqueIndex;not null;comment:canonical article url"`
	Title       string           `gorm:"type:text;not null"`
	Summary     *string          `gorm:"type:text;comment:html-stripped summary"`
	Source      *string          `gorm:"type:text;comment:feed source name"`
	PublishedAt *time.Time       `gorm:"type:timestamptz;index"`
	FetchedAt   time.Time        `gorm:"type:timestamptz;not null;index;comment:retention cutoff key"`
	Embedding   *pgvector.Vector `gorm:"type:vector(384);comment:title embedding"`

	EventLinks []ArticleEventLink `gorm:"foreignKey:ArticleID"`
}

func (NewsArticle) TableName() string {
	return "news_articles"
}

func (a *NewsArticle) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
