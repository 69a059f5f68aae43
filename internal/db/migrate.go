package db

import (
	"kalshinews/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	// Vector columns need the extension before AutoMigrate sees the models.
	if err := db.Gorm.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}

	if err := db.Gorm.AutoMigrate(
		&models.Series{},
		&models.Event{},
		&models.Market{},
		&models.NewsArticle{},
		&models.ArticleEventLink{},
	); err != nil {
		return err
	}

	// Generated tsvector over the searchable market text plus the indexes
	// AutoMigrate cannot express.
	stmts := []string{
		`ALTER TABLE markets ADD COLUMN IF NOT EXISTS search_vector tsvector
			GENERATED ALWAYS AS (to_tsvector('english', coalesce(title, '') || ' ' || coalesce(subtitle, ''))) STORED`,
		`CREATE INDEX IF NOT EXISTS idx_markets_search_vector ON markets USING GIN (search_vector)`,
		`CREATE INDEX IF NOT EXISTS idx_markets_embedding ON markets USING ivfflat (embedding vector_l2_ops) WITH (lists = 100)`,
	}
	for _, stmt := range stmts {
		if err := db.Gorm.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
