package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"kalshinews/internal/models"
	"kalshinews/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Write methods record what they were given so tests can assert on outcomes.
type stubRepo struct {
	series   []models.Series
	events   map[string]models.Event
	markets  map[string]models.Market
	articles map[string]models.NewsArticle
	links    map[string]models.ArticleEventLink
	aggs     map[string]repository.EventAggregate

	marketEmbeddings  map[string]pgvector.Vector
	articleEmbeddings map[uuid.UUID]pgvector.Vector

	nearest    []models.Market
	newsScores map[string]float64
	recent     []models.NewsArticle
	searchHits []models.Market

	failBulkMarkets bool
	failTickers     map[string]bool

	purgeCutoff time.Time
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		events:            map[string]models.Event{},
		markets:           map[string]models.Market{},
		articles:          map[string]models.NewsArticle{},
		links:             map[string]models.ArticleEventLink{},
		aggs:              map[string]repository.EventAggregate{},
		marketEmbeddings:  map[string]pgvector.Vector{},
		articleEmbeddings: map[uuid.UUID]pgvector.Vector{},
		newsScores:        map[string]float64{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) UpsertSeriesTx(ctx context.Context, tx *gorm.DB, items []models.Series) error {
	s.series = append(s.series, items...)
	return nil
}

func (s *stubRepo) UpsertEventsTx(ctx context.Context, tx *gorm.DB, items []models.Event) error {
	for _, item := range items {
		s.events[item.EventTicker] = item
	}
	return nil
}

func (s *stubRepo) UpsertMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error {
	if s.failBulkMarkets {
		return fmt.Errorf("bulk insert failed")
	}
	for _, item := range items {
		s.markets[item.Ticker] = item
	}
	return nil
}

func (s *stubRepo) UpsertMarket(ctx context.Context, item *models.Market) error {
	if s.failTickers[item.Ticker] {
		return fmt.Errorf("bad row %s", item.Ticker)
	}
	s.markets[item.Ticker] = *item
	return nil
}

func (s *stubRepo) EnsureEvents(ctx context.Context, items []models.Event) error {
	for _, item := range items {
		if _, ok := s.events[item.EventTicker]; !ok {
			s.events[item.EventTicker] = item
		}
	}
	return nil
}

func (s *stubRepo) UpdateMarketEmbedding(ctx context.Context, ticker string, vector pgvector.Vector) error {
	s.marketEmbeddings[ticker] = vector
	return nil
}

func (s *stubRepo) UpsertArticle(ctx context.Context, item *models.NewsArticle) (*models.NewsArticle, error) {
	if existing, ok := s.articles[item.URL]; ok {
		item.ID = existing.ID
	} else if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.articles[item.URL] = *item
	return item, nil
}

func (s *stubRepo) UpdateArticleEmbedding(ctx context.Context, id uuid.UUID, vector pgvector.Vector) error {
	s.articleEmbeddings[id] = vector
	return nil
}

func (s *stubRepo) InsertArticleEventLinks(ctx context.Context, links []models.ArticleEventLink) (int64, error) {
	var inserted int64
	for _, link := range links {
		key := link.ArticleID.String() + "|" + link.EventTicker
		if _, ok := s.links[key]; ok {
			continue
		}
		s.links[key] = link
		inserted++
	}
	return inserted, nil
}

func (s *stubRepo) NearestMarkets(ctx context.Context, vector pgvector.Vector, k int) ([]models.Market, error) {
	if k < len(s.nearest) {
		return s.nearest[:k], nil
	}
	return s.nearest, nil
}

func (s *stubRepo) PurgeUnlinkedArticles(ctx context.Context, fetchedBefore time.Time) (int64, error) {
	s.purgeCutoff = fetchedBefore
	return 0, nil
}

func (s *stubRepo) UpdateEventAggregates(ctx context.Context, aggs []repository.EventAggregate) error {
	for _, agg := range aggs {
		s.aggs[agg.EventTicker] = agg
	}
	return nil
}

func (s *stubRepo) ListMarketsMissingEmbedding(ctx context.Context, limit int) ([]models.Market, error) {
	var out []models.Market
	for _, m := range s.markets {
		if _, ok := s.marketEmbeddings[m.Ticker]; !ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubRepo) EventNewsScores(ctx context.Context, eventTickers []string) (map[string]float64, error) {
	return s.newsScores, nil
}

func (s *stubRepo) GetMarket(ctx context.Context, ticker string) (*models.Market, error) {
	if m, ok := s.markets[ticker]; ok {
		return &m, nil
	}
	return nil, nil
}

func (s *stubRepo) ListMarkets(ctx context.Context, params repository.ListMarketsParams) ([]models.Market, error) {
	var out []models.Market
	for _, m := range s.markets {
		if params.Status != nil && (m.Status == nil || *m.Status != *params.Status) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *stubRepo) CountMarkets(ctx context.Context, params repository.ListMarketsParams) (int64, error) {
	items, _ := s.ListMarkets(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) ListEventsByTickers(ctx context.Context, tickers []string) ([]models.Event, error) {
	var out []models.Event
	for _, ticker := range tickers {
		if evt, ok := s.events[ticker]; ok {
			out = append(out, evt)
		}
	}
	return out, nil
}

func (s *stubRepo) ListSeriesByTickers(ctx context.Context, tickers []string) ([]models.Series, error) {
	var out []models.Series
	for _, ticker := range tickers {
		for _, sr := range s.series {
			if sr.Ticker == ticker {
				out = append(out, sr)
			}
		}
	}
	return out, nil
}

func (s *stubRepo) ListRecentArticles(ctx context.Context, fetchedSince time.Time, limit int) ([]models.NewsArticle, error) {
	return s.recent, nil
}

func (s *stubRepo) ListArticlesForEvent(ctx context.Context, eventTicker string, limit int) ([]models.NewsArticle, error) {
	var out []models.NewsArticle
	for _, link := range s.links {
		if link.EventTicker != eventTicker {
			continue
		}
		for _, a := range s.articles {
			if a.ID == link.ArticleID {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (s *stubRepo) SearchMarkets(ctx context.Context, query string, status *string, limit, offset int) ([]models.Market, error) {
	return s.searchHits, nil
}

var _ repository.Repository = (*stubRepo)(nil)
