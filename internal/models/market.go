package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Market struct {
	Ticker      string  `gorm:"primaryKey;type:text;comment:market ticker"`
	EventTicker string  `gorm:"type:text;index;not null;comment:parent event ticker"`
	Title       string  `gorm:"type:text;not null;comment:market question"`
	Subtitle    *string `gorm:"type:text;comment:outcome subtitle"`
	YesSubTitle *string `gorm:"type:text"`
	NoSubTitle  *string `gorm:"type:text"`
	MarketType  *string `gorm:"type:text"`
	Status      *string `gorm:"type:text;index;comment:open|closed|settled"`
	Result      *string `gorm:"type:text;comment:settlement result"`

	OpenTime       *time.Time `gorm:"type:timestamptz"`
	CloseTime      *time.Time `gorm:"type:timestamptz;index"`
	ExpirationTime *time.Time `gorm:"type:timestamptz"`

	// Prices are integer cents in [0,100].
	YesBid    *int `gorm:"comment:yes bid in cents"`
	YesAsk    *int `gorm:"comment:yes ask in cents"`
	NoBid     *int `gorm:"comment:no bid in cents"`
	NoAsk     *int `gorm:"comment:no ask in cents"`
	LastPrice *int `gorm:"comment:last trade price in cents"`

	Volume       *int64 `gorm:"comment:contracts traded"`
	OpenInterest *int64 `gorm:"comment:open contracts"`

	Embedding  *pgvector.Vector `gorm:"type:vector(384);comment:title embedding"`
	RawJSON    datatypes.JSON   `gorm:"type:jsonb;comment:raw upstream payload"`
	LastSeenAt time.Time        `gorm:"type:timestamptz;not null;comment:last sync time"`
	CreatedAt  time.Time        `gorm:"type:timestamptz;not null"`
	UpdatedAt  time.Time        `gorm:"type:timestamptz;not null"`
}

func (Market) TableName() string {
	return "markets"
}

// YesPriceOrDefault returns the yes bid, falling back to 50 (maximum
// uncertainty) when the book is empty. Heat scoring depends on this default.
func (m Market) YesPriceOrDefault() int {
	if m.YesBid != nil {
		return *m.YesBid
	}
	return 50
}

func (m Market) VolumeOrZero() int64 {
	if m.Volume != nil {
		return *m.Volume
	}
	return 0
}

func (m Market) OpenInterestOrZero() int64 {
	if m.OpenInterest != nil {
		return *m.OpenInterest
	}
	return 0
}
