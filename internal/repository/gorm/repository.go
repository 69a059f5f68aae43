package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kalshinews/internal/models"
	"kalshinews/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- ingestion writes -------------------------------------------------------

func (s *Store) UpsertSeriesTx(ctx context.Context, tx *gorm.DB, items []models.Series) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"category",
			"frequency",
			"updated_at",
		}),
	}), items, 200)
}

func (s *Store) UpsertEventsTx(ctx context.Context, tx *gorm.DB, items []models.Event) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"series_ticker",
			"title",
			"category",
			"status",
			"updated_at",
		}),
	}), items, 200)
}

func (s *Store) UpsertMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(marketConflict()), items, 200)
}

func (s *Store) UpsertMarket(ctx context.Context, item *models.Market) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Ticker) == "" {
		return errors.New("market ticker is empty")
	}
	return s.db.WithContext(ctx).Clauses(marketConflict()).Create(item).Error
}

// marketConflict is shared by the bulk and per-item paths so both write the
// same column set. Embeddings are intentionally absent: they are backfilled
// separately and a sync must not wipe them.
func marketConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"event_ticker",
			"title",
			"subtitle",
			"yes_sub_title",
			"no_sub_title",
			"market_type",
			"status",
			"result",
			"open_time",
			"close_time",
			"expiration_time",
			"yes_bid",
			"yes_ask",
			"no_bid",
			"no_ask",
			"last_price",
			"volume",
			"open_interest",
			"raw_json",
			"last_seen_at",
			"updated_at",
		}),
	}
}

func (s *Store) EnsureEvents(ctx context.Context, items []models.Event) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return createInBatches(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_ticker"}},
		DoNothing: true,
	}), items, 200)
}

func (s *Store) UpdateMarketEmbedding(ctx context.Context, ticker string, vector pgvector.Vector) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("ticker = ?", ticker).
		Update("embedding", vector).Error
}

func (s *Store) UpsertArticle(ctx context.Context, item *models.NewsArticle) (*models.NewsArticle, error) {
	if s == nil || s.db == nil || item == nil {
		return nil, nil
	}
	if strings.TrimSpace(item.URL) == "" {
		return nil, errors.New("article url is empty")
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"summary",
			"source",
			"published_at",
			"fetched_at",
		}),
	}).Omit("EventLinks").Create(item).Error; err != nil {
		return nil, err
	}
	// Re-read by URL: on conflict the row keeps its original id, which the
	// caller needs for linking.
	var stored models.NewsArticle
	if err := s.db.WithContext(ctx).First(&stored, "url = ?", item.URL).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) UpdateArticleEmbedding(ctx context.Context, id uuid.UUID, vector pgvector.Vector) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.NewsArticle{}).
		Where("id = ?", id).
		Update("embedding", vector).Error
}

func (s *Store) InsertArticleEventLinks(ctx context.Context, links []models.ArticleEventLink) (int64, error) {
	if s == nil || s.db == nil || len(links) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "article_id"}, {Name: "event_ticker"}},
		DoNothing: true,
	}).CreateInBatches(links, 500)
	return res.RowsAffected, res.Error
}

func (s *Store) UpdateEventAggregates(ctx context.Context, aggs []repository.EventAggregate) error {
	if s == nil || s.db == nil || len(aggs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, agg := range aggs {
			if err := tx.Model(&models.Event{}).
				Where("event_ticker = ?", agg.EventTicker).
				Updates(map[string]any{
					"heat_score":          agg.HeatScore,
					"total_volume":        agg.TotalVolume,
					"total_open_interest": agg.TotalOpenInterest,
					"updated_at":          now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) PurgeUnlinkedArticles(ctx context.Context, fetchedBefore time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if fetchedBefore.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("fetched_at < ?", fetchedBefore).
		Where("id NOT IN (?)", s.db.Model(&models.ArticleEventLink{}).Select("article_id")).
		Delete(&models.NewsArticle{})
	return res.RowsAffected, res.Error
}

// --- similarity -------------------------------------------------------------

func (s *Store) NearestMarkets(ctx context.Context, vector pgvector.Vector, k int) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	k = normalizeLimit(k, 3)
	var items []models.Market
	err := s.db.WithContext(ctx).
		Where("embedding IS NOT NULL").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "embedding <-> ?",
			Vars: []any{vector},
		}}).
		Limit(k).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListMarketsMissingEmbedding(ctx context.Context, limit int) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 500)
	var items []models.Market
	err := s.db.WithContext(ctx).
		Where("embedding IS NULL").
		Order("last_seen_at desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- serving reads ----------------------------------------------------------

func (s *Store) GetMarket(ctx context.Context, ticker string) (*models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Market
	err := s.db.WithContext(ctx).First(&item, "ticker = ?", ticker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMarkets(ctx context.Context, params repository.ListMarketsParams) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyMarketFilters(s.db.WithContext(ctx).Model(&models.Market{}), params)
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Market
	if err := query.Order("volume desc nulls last").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountMarkets(ctx context.Context, params repository.ListMarketsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyMarketFilters(s.db.WithContext(ctx).Model(&models.Market{}), params).Count(&total).Error
	return total, err
}

func applyMarketFilters(query *gorm.DB, params repository.ListMarketsParams) *gorm.DB {
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.EventTicker != nil && strings.TrimSpace(*params.EventTicker) != "" {
		query = query.Where("event_ticker = ?", strings.TrimSpace(*params.EventTicker))
	}
	return query
}

func (s *Store) ListEventsByTickers(ctx context.Context, tickers []string) ([]models.Event, error) {
	if s == nil || s.db == nil || len(tickers) == 0 {
		return nil, nil
	}
	var items []models.Event
	if err := s.db.WithContext(ctx).
		Where("event_ticker IN ?", cleanStrings(tickers)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSeriesByTickers(ctx context.Context, tickers []string) ([]models.Series, error) {
	if s == nil || s.db == nil || len(tickers) == 0 {
		return nil, nil
	}
	var items []models.Series
	if err := s.db.WithContext(ctx).
		Where("ticker IN ?", cleanStrings(tickers)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) EventNewsScores(ctx context.Context, eventTickers []string) (map[string]float64, error) {
	if s == nil || s.db == nil || len(eventTickers) == 0 {
		return map[string]float64{}, nil
	}
	type row struct {
		EventTicker string
		Score       float64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.ArticleEventLink{}).
		Select("event_ticker, SUM(relevance_score) AS score").
		Where("event_ticker IN ?", cleanStrings(eventTickers)).
		Group("event_ticker").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.EventTicker] = r.Score
	}
	return out, nil
}

func (s *Store) ListRecentArticles(ctx context.Context, fetchedSince time.Time, limit int) ([]models.NewsArticle, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 500)
	query := s.db.WithContext(ctx).Model(&models.NewsArticle{})
	if !fetchedSince.IsZero() {
		query = query.Where("fetched_at >= ?", fetchedSince)
	}
	var items []models.NewsArticle
	if err := query.Order("published_at desc nulls last").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListArticlesForEvent(ctx context.Context, eventTicker string, limit int) ([]models.NewsArticle, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 10)
	var items []models.NewsArticle
	err := s.db.WithContext(ctx).
		Joins("JOIN article_event_links l ON l.article_id = news_articles.id").
		Where("l.event_ticker = ?", eventTicker).
		Order("l.relevance_score desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SearchMarkets(ctx context.Context, query string, status *string, limit, offset int) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	limit = normalizeLimit(limit, 50)
	offset = normalizeOffset(offset)
	q := s.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("search_vector @@ plainto_tsquery('english', ?)", query)
	if status != nil && strings.TrimSpace(*status) != "" {
		q = q.Where("status = ?", strings.TrimSpace(*status))
	}
	var items []models.Market
	err := q.Clauses(clause.OrderBy{Expression: clause.Expr{
		SQL:  "ts_rank(search_vector, plainto_tsquery('english', ?)) DESC",
		Vars: []any{query},
	}}).Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ----------------------------------------------------------------

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := db.CreateInBatches(items[i:end], batchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
