package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"kalshinews/internal/models"
)

type ListMarketsParams struct {
	Status      *string
	EventTicker *string
	Limit       int
	Offset      int
}

// EventAggregate is a pre-computed per-event rollup written during ingestion.
type EventAggregate struct {
	EventTicker       string
	HeatScore         float64
	TotalVolume       int64
	TotalOpenInterest int64
}

// Repository owns all persisted entities. Writes are idempotent upserts keyed
// by natural identifiers (tickers, URLs); see the gorm package for the
// per-entity update-column allow-lists.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	UpsertSeriesTx(ctx context.Context, tx *gorm.DB, items []models.Series) error
	UpsertEventsTx(ctx context.Context, tx *gorm.DB, items []models.Event) error
	UpsertMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error

	// UpsertMarket is the per-item path the orchestrator degrades to when a
	// bulk upsert fails.
	UpsertMarket(ctx context.Context, item *models.Market) error

	// EnsureEvents inserts placeholder events if absent and never overwrites
	// existing rows, so a later real payload wins.
	EnsureEvents(ctx context.Context, items []models.Event) error

	// UpdateMarketEmbedding backfills a market's embedding without touching
	// the sync-owned columns.
	UpdateMarketEmbedding(ctx context.Context, ticker string, vector pgvector.Vector) error

	UpsertArticle(ctx context.Context, item *models.NewsArticle) (*models.NewsArticle, error)

	UpdateArticleEmbedding(ctx context.Context, id uuid.UUID, vector pgvector.Vector) error

	// InsertArticleEventLinks is insert-if-absent; existing links keep their
	// original score. Returns the number of rows actually inserted.
	InsertArticleEventLinks(ctx context.Context, links []models.ArticleEventLink) (int64, error)

	// NearestMarkets returns the k markets closest to vector in embedding
	// space (L2), skipping rows with no embedding.
	NearestMarkets(ctx context.Context, vector pgvector.Vector, k int) ([]models.Market, error)

	// PurgeUnlinkedArticles deletes articles fetched before the cutoff that
	// no link references. Returns the number of rows removed.
	PurgeUnlinkedArticles(ctx context.Context, fetchedBefore time.Time) (int64, error)

	UpdateEventAggregates(ctx context.Context, aggs []EventAggregate) error

	// ListMarketsMissingEmbedding feeds the embedding backfill stage.
	ListMarketsMissingEmbedding(ctx context.Context, limit int) ([]models.Market, error)

	// EventNewsScores sums link relevance per event ticker.
	EventNewsScores(ctx context.Context, eventTickers []string) (map[string]float64, error)

	GetMarket(ctx context.Context, ticker string) (*models.Market, error)
	ListMarkets(ctx context.Context, params ListMarketsParams) ([]models.Market, error)
	CountMarkets(ctx context.Context, params ListMarketsParams) (int64, error)
	ListEventsByTickers(ctx context.Context, tickers []string) ([]models.Event, error)
	ListSeriesByTickers(ctx context.Context, tickers []string) ([]models.Series, error)
	ListRecentArticles(ctx context.Context, fetchedSince time.Time, limit int) ([]models.NewsArticle, error)
	ListArticlesForEvent(ctx context.Context, eventTicker string, limit int) ([]models.NewsArticle, error)
	SearchMarkets(ctx context.Context, query string, status *string, limit, offset int) ([]models.Market, error)
}
