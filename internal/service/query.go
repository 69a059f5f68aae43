package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"kalshinews/internal/cache"
	"kalshinews/internal/models"
	"kalshinews/internal/repository"
	"kalshinews/internal/scoring"
)

const (
	snapshotKey         = "serving_snapshot"
	defaultCacheTTL     = 5 * time.Minute
	defaultSnapshotSize = 500
	articleWindow       = 7 * 24 * time.Hour
	listNewsMatches     = 3
	detailNewsMatches   = 10
	// newsWeight is how much one point of summed link relevance moves a
	// market's hot score relative to one point of heat.
	newsWeight = 2.0
)

// QueryService answers read requests from a cached snapshot of markets,
// categories and recent articles. Snapshots live for TTL; staleness inside
// that window is accepted.
type QueryService struct {
	Store  repository.Repository
	Cache  *cache.Cache
	Logger *zap.Logger

	TTL          time.Duration
	SnapshotSize int
}

// MarketView is a market enriched for serving.
type MarketView struct {
	Ticker       string              `json:"ticker"`
	EventTicker  string              `json:"event_ticker"`
	Title        string              `json:"title"`
	Subtitle     *string             `json:"subtitle,omitempty"`
	Category     string              `json:"category"`
	Status       *string             `json:"status,omitempty"`
	YesPrice     int                 `json:"yes_price"`
	Volume       int64               `json:"volume"`
	OpenInterest int64               `json:"open_interest"`
	HeatScore    float64             `json:"heat_score"`
	News         []scoring.NewsMatch `json:"news,omitempty"`
}

// HotMarket adds the news-weighted ranking fields.
type HotMarket struct {
	MarketView
	NewsScore float64 `json:"news_score"`
	HotScore  float64 `json:"hot_score"`
}

type TopicView struct {
	Name        string       `json:"name"`
	TotalVolume int64        `json:"total_volume"`
	TotalHeat   float64      `json:"total_heat"`
	Markets     []MarketView `json:"markets"`
}

type snapshot struct {
	builtAt    time.Time
	markets    []models.Market
	categories map[string]string
	articles   []scoring.ArticleText
	newsScores map[string]float64
}

func (s *QueryService) getSnapshot(ctx context.Context) (*snapshot, error) {
	if s == nil || s.Store == nil {
		return nil, fmt.Errorf("query service not configured")
	}
	if s.Cache == nil {
		return s.buildSnapshot(ctx)
	}
	v, err := s.Cache.GetOrRefresh(snapshotKey, s.ttl(), func() (any, error) {
		return s.buildSnapshot(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

func (s *QueryService) buildSnapshot(ctx context.Context) (*snapshot, error) {
	status := "open"
	markets, err := s.Store.ListMarkets(ctx, repository.ListMarketsParams{
		Status: &status,
		Limit:  s.snapshotSize(),
	})
	if err != nil {
		return nil, err
	}

	eventTickers := make([]string, 0, len(markets))
	seen := map[string]struct{}{}
	for _, m := range markets {
		if _, ok := seen[m.EventTicker]; ok {
			continue
		}
		seen[m.EventTicker] = struct{}{}
		eventTickers = append(eventTickers, m.EventTicker)
	}

	events, err := s.Store.ListEventsByTickers(ctx, eventTickers)
	if err != nil {
		return nil, err
	}
	seriesTickers := make([]string, 0, len(events))
	for _, evt := range events {
		if evt.SeriesTicker != nil && *evt.SeriesTicker != "" {
			seriesTickers = append(seriesTickers, *evt.SeriesTicker)
		}
	}
	series, err := s.Store.ListSeriesByTickers(ctx, seriesTickers)
	if err != nil {
		return nil, err
	}
	seriesCategory := map[string]*string{}
	for _, sr := range series {
		seriesCategory[sr.Ticker] = sr.Category
	}
	categories := make(map[string]string, len(events))
	for _, evt := range events {
		var fromSeries *string
		if evt.SeriesTicker != nil {
			fromSeries = seriesCategory[*evt.SeriesTicker]
		}
		categories[evt.EventTicker] = evt.EffectiveCategory(fromSeries)
	}

	recent, err := s.Store.ListRecentArticles(ctx, time.Now().UTC().Add(-articleWindow), s.snapshotSize())
	if err != nil {
		return nil, err
	}
	articles := make([]scoring.ArticleText, 0, len(recent))
	for _, a := range recent {
		articles = append(articles, articleText(a))
	}

	newsScores, err := s.Store.EventNewsScores(ctx, eventTickers)
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Debug("serving snapshot rebuilt",
			zap.Int("markets", len(markets)),
			zap.Int("articles", len(articles)))
	}
	return &snapshot{
		builtAt:    time.Now().UTC(),
		markets:    markets,
		categories: categories,
		articles:   articles,
		newsScores: newsScores,
	}, nil
}

// Topics groups the snapshot's markets by category, ordered by total heat.
func (s *QueryService) Topics(ctx context.Context) ([]TopicView, error) {
	snap, err := s.getSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	ranked := make([]scoring.RankedMarket, 0, len(snap.markets))
	for _, m := range snap.markets {
		ranked = append(ranked, scoring.Annotate(m, snap.categories[m.EventTicker]))
	}
	topics := scoring.BuildTopics(ranked)
	out := make([]TopicView, 0, len(topics))
	for _, topic := range topics {
		view := TopicView{
			Name:        topic.Name,
			TotalVolume: topic.TotalVolume,
			TotalHeat:   topic.TotalHeat,
		}
		for _, rm := range topic.Markets {
			view.Markets = append(view.Markets, s.marketView(rm, snap, 0))
		}
		out = append(out, view)
	}
	return out, nil
}

// Markets returns ranked markets, optionally filtered by category and minimum
// heat, each carrying a few matched headlines.
func (s *QueryService) Markets(ctx context.Context, category string, minHeat float64, limit int) ([]MarketView, error) {
	snap, err := s.getSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	var out []MarketView
	for _, m := range snap.markets {
		rm := scoring.Annotate(m, snap.categories[m.EventTicker])
		if category != "" && !strings.EqualFold(rm.Category, category) {
			continue
		}
		if rm.Heat < minHeat {
			continue
		}
		out = append(out, s.marketView(rm, snap, listNewsMatches))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HeatScore > out[j].HeatScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarketDetail serves a single market with its full news context. Returns
// nil when the ticker is unknown.
func (s *QueryService) MarketDetail(ctx context.Context, ticker string) (*MarketView, error) {
	if s == nil || s.Store == nil {
		return nil, fmt.Errorf("query service not configured")
	}
	m, err := s.Store.GetMarket(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	snap, err := s.getSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	rm := scoring.Annotate(*m, snap.categories[m.EventTicker])
	view := s.marketView(rm, snap, detailNewsMatches)

	// Persisted links take precedence over the live keyword pass when the
	// event already has matched articles.
	linked, err := s.Store.ListArticlesForEvent(ctx, m.EventTicker, detailNewsMatches)
	if err != nil {
		return nil, err
	}
	if len(linked) > 0 {
		matches := make([]scoring.ArticleText, 0, len(linked))
		for _, a := range linked {
			matches = append(matches, articleText(a))
		}
		view.News = scoring.MatchArticles(marketText(*m), matches, detailNewsMatches)
	}
	return &view, nil
}

// Hot ranks markets by heat plus news pressure, deduplicated by title so one
// event's near-identical strikes do not crowd the list.
func (s *QueryService) Hot(ctx context.Context, limit int) ([]HotMarket, error) {
	snap, err := s.getSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	byTitle := map[string]HotMarket{}
	for _, m := range snap.markets {
		rm := scoring.Annotate(m, snap.categories[m.EventTicker])
		newsScore := snap.newsScores[m.EventTicker]
		hot := HotMarket{
			MarketView: s.marketView(rm, snap, listNewsMatches),
			NewsScore:  newsScore,
			HotScore:   rm.Heat + newsWeight*newsScore,
		}
		key := strings.ToLower(strings.TrimSpace(m.Title))
		if existing, ok := byTitle[key]; ok && existing.HotScore >= hot.HotScore {
			continue
		}
		byTitle[key] = hot
	}
	out := make([]HotMarket, 0, len(byTitle))
	for _, hm := range byTitle {
		out = append(out, hm)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HotScore > out[j].HotScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Search runs full-text search over market titles and annotates the hits.
func (s *QueryService) Search(ctx context.Context, query string, status *string, limit, offset int) ([]MarketView, error) {
	if s == nil || s.Store == nil {
		return nil, fmt.Errorf("query service not configured")
	}
	markets, err := s.Store.SearchMarkets(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	snap, err := s.getSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MarketView, 0, len(markets))
	for _, m := range markets {
		rm := scoring.Annotate(m, snap.categories[m.EventTicker])
		out = append(out, s.marketView(rm, snap, 0))
	}
	return out, nil
}

// Refresh drops the cached snapshot so the next read rebuilds.
func (s *QueryService) Refresh() {
	if s != nil && s.Cache != nil {
		s.Cache.Invalidate(snapshotKey)
	}
}

func (s *QueryService) marketView(rm scoring.RankedMarket, snap *snapshot, newsMatches int) MarketView {
	view := MarketView{
		Ticker:       rm.Market.Ticker,
		EventTicker:  rm.Market.EventTicker,
		Title:        rm.Market.Title,
		Subtitle:     rm.Market.Subtitle,
		Category:     rm.Category,
		Status:       rm.Market.Status,
		YesPrice:     rm.Market.YesPriceOrDefault(),
		Volume:       rm.Market.VolumeOrZero(),
		OpenInterest: rm.Market.OpenInterestOrZero(),
		HeatScore:    rm.Heat,
	}
	if newsMatches > 0 && len(snap.articles) > 0 {
		view.News = scoring.MatchArticles(marketText(rm.Market), snap.articles, newsMatches)
	}
	return view
}

func articleText(a models.NewsArticle) scoring.ArticleText {
	text := scoring.ArticleText{
		Title: a.Title,
		URL:   a.URL,
	}
	if a.Summary != nil {
		text.Summary = *a.Summary
	}
	if a.Source != nil {
		text.Source = *a.Source
	}
	if a.PublishedAt != nil {
		text.Published = a.PublishedAt.UTC().Format(time.RFC3339)
	}
	return text
}

func (s *QueryService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultCacheTTL
}

func (s *QueryService) snapshotSize() int {
	if s.SnapshotSize > 0 {
		return s.SnapshotSize
	}
	return defaultSnapshotSize
}
