package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kalshinews/internal/client/kalshi"
	"kalshinews/internal/embed"
	"kalshinews/internal/models"
	"kalshinews/internal/news"
	"kalshinews/internal/repository"
	"kalshinews/internal/scoring"
)

// MarketSource is the slice of the exchange client ingestion depends on.
type MarketSource interface {
	FetchAllOpenEvents(ctx context.Context, maxEvents int) []kalshi.Event
	FetchAllOpenMarkets(ctx context.Context, maxMarkets int) []kalshi.Market
	GetSeries(ctx context.Context, seriesTicker string) (*kalshi.Series, error)
}

// NewsSource yields normalized articles from the configured feeds.
type NewsSource interface {
	FetchAll(ctx context.Context) []news.Article
}

type IngestService struct {
	Store    repository.Repository
	Source   MarketSource
	News     NewsSource
	Embedder embed.Embedder
	Logger   *zap.Logger

	MaxMarkets int
	MaxEvents  int
	// Retention is how long an article with no event links survives.
	Retention time.Duration
	// NeighborK is how many nearest markets an article links through.
	NeighborK int
}

type IngestResult struct {
	Events            int           `json:"events"`
	Series            int           `json:"series"`
	Markets           int           `json:"markets"`
	MarketFailures    int           `json:"market_failures"`
	PlaceholderEvents int           `json:"placeholder_events"`
	Embedded          int           `json:"embedded"`
	Articles          int           `json:"articles"`
	ArticleFailures   int           `json:"article_failures"`
	Links             int           `json:"links"`
	PurgedArticles    int64         `json:"purged_articles"`
	Elapsed           time.Duration `json:"elapsed"`
}

const (
	defaultMaxMarkets = 300
	defaultMaxEvents  = 200
	defaultRetention  = 30 * 24 * time.Hour
	defaultNeighborK  = 3
	embedBatchSize    = 64
)

// Run executes one full ingestion cycle. Every stage is contained: a stage
// failure is logged and counted, and the cycle moves on so one bad upstream
// never starves the rest of the pipeline.
func (s *IngestService) Run(ctx context.Context) (IngestResult, error) {
	if s == nil || s.Store == nil || s.Source == nil {
		return IngestResult{}, fmt.Errorf("ingest service not configured")
	}
	start := time.Now()
	now := start.UTC()
	result := IngestResult{}

	events := s.Source.FetchAllOpenEvents(ctx, s.maxEvents())
	seriesModels := s.fetchSeries(ctx, events, now)
	apiMarkets := s.Source.FetchAllOpenMarkets(ctx, s.maxMarkets())

	eventModels := mapEvents(events, now)
	marketModels, skipped := mapMarkets(apiMarkets, now)
	result.MarketFailures += skipped

	if err := s.persistCatalog(ctx, seriesModels, eventModels, marketModels, now, &result); err != nil {
		s.logWarn("catalog persistence failed", err)
		return result, err
	}

	s.backfillEmbeddings(ctx, &result)
	s.updateAggregates(ctx, marketModels)
	s.ingestNews(ctx, marketModels, now, &result)

	if purged, err := s.Store.PurgeUnlinkedArticles(ctx, now.Add(-s.retention())); err != nil {
		s.logWarn("article retention sweep failed", err)
	} else {
		result.PurgedArticles = purged
	}

	result.Elapsed = time.Since(start)
	if s.Logger != nil {
		s.Logger.Info("ingestion cycle finished",
			zap.Int("events", result.Events),
			zap.Int("markets", result.Markets),
			zap.Int("market_failures", result.MarketFailures),
			zap.Int("articles", result.Articles),
			zap.Int("links", result.Links),
			zap.Int64("purged_articles", result.PurgedArticles),
			zap.Duration("elapsed", result.Elapsed))
	}
	return result, nil
}

// fetchSeries resolves the distinct series behind the fetched events. Each
// lookup failure is contained; the series just stays unknown this cycle.
func (s *IngestService) fetchSeries(ctx context.Context, events []kalshi.Event, now time.Time) []models.Series {
	seen := map[string]struct{}{}
	var out []models.Series
	for _, evt := range events {
		ticker := strings.TrimSpace(evt.SeriesTicker)
		if ticker == "" {
			continue
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		series, err := s.Source.GetSeries(ctx, ticker)
		if err != nil {
			s.logWarn("series lookup failed", err, zap.String("series_ticker", ticker))
			continue
		}
		if series == nil || series.Ticker == "" {
			continue
		}
		out = append(out, models.Series{
			Ticker:    series.Ticker,
			Title:     strPtr(series.Title),
			Category:  strPtr(series.Category),
			Frequency: strPtr(series.Frequency),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}

// persistCatalog writes series and events transactionally, inserts placeholder
// events for any market whose parent was not in the event payload, then bulk
// upserts markets with a per-item fallback when the batch fails.
func (s *IngestService) persistCatalog(ctx context.Context, series []models.Series, events []models.Event, markets []models.Market, now time.Time, result *IngestResult) error {
	err := s.Store.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Store.UpsertSeriesTx(ctx, tx, series); err != nil {
			return err
		}
		return s.Store.UpsertEventsTx(ctx, tx, events)
	})
	if err != nil {
		return err
	}
	result.Series = len(series)
	result.Events = len(events)

	known := map[string]struct{}{}
	for _, evt := range events {
		known[evt.EventTicker] = struct{}{}
	}
	var placeholders []models.Event
	seen := map[string]struct{}{}
	for _, m := range markets {
		if _, ok := known[m.EventTicker]; ok {
			continue
		}
		if _, ok := seen[m.EventTicker]; ok {
			continue
		}
		seen[m.EventTicker] = struct{}{}
		placeholders = append(placeholders, models.Event{
			EventTicker: m.EventTicker,
			Title:       strPtr("Event " + m.EventTicker),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := s.Store.EnsureEvents(ctx, placeholders); err != nil {
		return err
	}
	result.PlaceholderEvents = len(placeholders)

	err = s.Store.InTx(ctx, func(tx *gorm.DB) error {
		return s.Store.UpsertMarketsTx(ctx, tx, markets)
	})
	if err == nil {
		result.Markets = len(markets)
		return nil
	}

	// Bulk path failed: degrade to per-item writes so one malformed row
	// costs one row, not the page.
	s.logWarn("bulk market upsert failed, retrying per item", err)
	for i := range markets {
		if err := s.Store.UpsertMarket(ctx, &markets[i]); err != nil {
			result.MarketFailures++
			s.logWarn("market upsert failed", err, zap.String("ticker", markets[i].Ticker))
			continue
		}
		result.Markets++
	}
	return nil
}

func (s *IngestService) backfillEmbeddings(ctx context.Context, result *IngestResult) {
	if s.Embedder == nil {
		return
	}
	pending, err := s.Store.ListMarketsMissingEmbedding(ctx, s.maxMarkets())
	if err != nil {
		s.logWarn("listing markets for embedding failed", err)
		return
	}
	for start := 0; start < len(pending); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		texts := make([]string, len(batch))
		for i, m := range batch {
			texts[i] = marketText(m)
		}
		vectors, err := s.Embedder.EmbedTexts(ctx, texts)
		if err != nil {
			s.logWarn("market embedding batch failed", err, zap.Int("batch", len(batch)))
			return
		}
		for i, m := range batch {
			vec := pgvector.NewVector(vectors[i])
			if err := s.Store.UpdateMarketEmbedding(ctx, m.Ticker, vec); err != nil {
				s.logWarn("embedding write failed", err, zap.String("ticker", m.Ticker))
				continue
			}
			result.Embedded++
		}
	}
}

func (s *IngestService) updateAggregates(ctx context.Context, markets []models.Market) {
	byEvent := map[string]*repository.EventAggregate{}
	for _, m := range markets {
		agg, ok := byEvent[m.EventTicker]
		if !ok {
			agg = &repository.EventAggregate{EventTicker: m.EventTicker}
			byEvent[m.EventTicker] = agg
		}
		agg.HeatScore += scoring.HeatScore(m.VolumeOrZero(), m.OpenInterestOrZero(), m.YesPriceOrDefault())
		agg.TotalVolume += m.VolumeOrZero()
		agg.TotalOpenInterest += m.OpenInterestOrZero()
	}
	aggs := make([]repository.EventAggregate, 0, len(byEvent))
	for _, agg := range byEvent {
		aggs = append(aggs, *agg)
	}
	if err := s.Store.UpdateEventAggregates(ctx, aggs); err != nil {
		s.logWarn("event aggregate update failed", err)
	}
}

// ingestNews persists fetched articles and links each one to events two ways:
// keyword overlap against market text, and nearest-neighbor search in
// embedding space. Links are insert-only, so reruns are idempotent.
func (s *IngestService) ingestNews(ctx context.Context, markets []models.Market, now time.Time, result *IngestResult) {
	if s.News == nil {
		return
	}
	articles := s.News.FetchAll(ctx)
	if len(articles) == 0 {
		return
	}

	type marketIndex struct {
		eventTicker string
		keywords    map[string]struct{}
	}
	index := make([]marketIndex, 0, len(markets))
	for _, m := range markets {
		index = append(index, marketIndex{
			eventTicker: m.EventTicker,
			keywords:    scoring.ExtractKeywords(marketText(m)),
		})
	}

	vectors := s.embedArticles(ctx, articles)

	var links []models.ArticleEventLink
	for i, article := range articles {
		stored, err := s.Store.UpsertArticle(ctx, articleModel(article, now))
		if err != nil || stored == nil {
			result.ArticleFailures++
			s.logWarn("article upsert failed", err, zap.String("url", article.URL))
			continue
		}
		result.Articles++

		// Keyword pass: per event keep the best-scoring member market.
		scores := map[string]float64{}
		articleKeywords := scoring.ExtractKeywords(article.Title + " " + article.Summary)
		for _, m := range index {
			score := scoring.Relevance(m.keywords, articleKeywords)
			if score <= scoring.MatchThreshold {
				continue
			}
			if score > scores[m.eventTicker] {
				scores[m.eventTicker] = score
			}
		}

		// Embedding pass: events behind the k nearest markets count as
		// fully relevant.
		if vectors != nil && vectors[i] != nil {
			if err := s.Store.UpdateArticleEmbedding(ctx, stored.ID, pgvector.NewVector(vectors[i])); err != nil {
				s.logWarn("article embedding write failed", err, zap.String("url", article.URL))
			}
			neighbors, err := s.Store.NearestMarkets(ctx, pgvector.NewVector(vectors[i]), s.neighborK())
			if err != nil {
				s.logWarn("nearest market lookup failed", err, zap.String("url", article.URL))
			}
			for _, m := range neighbors {
				scores[m.EventTicker] = 1.0
			}
		}

		for ticker, score := range scores {
			links = append(links, models.ArticleEventLink{
				ArticleID:      stored.ID,
				EventTicker:    ticker,
				RelevanceScore: score,
				CreatedAt:      now,
			})
		}
	}

	if len(links) > 0 {
		inserted, err := s.Store.InsertArticleEventLinks(ctx, links)
		if err != nil {
			s.logWarn("article link insert failed", err)
			return
		}
		result.Links = int(inserted)
	}
}

// embedArticles returns one vector per article, nil on total failure. A nil
// result downgrades the cycle to keyword-only matching.
func (s *IngestService) embedArticles(ctx context.Context, articles []news.Article) [][]float32 {
	if s.Embedder == nil {
		return nil
	}
	out := make([][]float32, len(articles))
	for start := 0; start < len(articles); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(articles) {
			end = len(articles)
		}
		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = articles[i].Title
		}
		vectors, err := s.Embedder.EmbedTexts(ctx, texts)
		if err != nil {
			s.logWarn("article embedding batch failed", err, zap.Int("batch", end-start))
			continue
		}
		for i := start; i < end; i++ {
			out[i] = vectors[i-start]
		}
	}
	return out
}

func mapEvents(events []kalshi.Event, now time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	seen := map[string]struct{}{}
	for _, evt := range events {
		if evt.EventTicker == "" {
			continue
		}
		if _, ok := seen[evt.EventTicker]; ok {
			continue
		}
		seen[evt.EventTicker] = struct{}{}
		out = append(out, models.Event{
			EventTicker:  evt.EventTicker,
			SeriesTicker: strPtr(evt.SeriesTicker),
			Title:        strPtr(evt.Title),
			Category:     strPtr(evt.Category),
			Status:       strPtr(evt.Status),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return out
}

func mapMarkets(items []kalshi.Market, now time.Time) ([]models.Market, int) {
	out := make([]models.Market, 0, len(items))
	skipped := 0
	seen := map[string]struct{}{}
	for _, item := range items {
		if item.Ticker == "" || item.EventTicker == "" {
			skipped++
			continue
		}
		if _, ok := seen[item.Ticker]; ok {
			continue
		}
		seen[item.Ticker] = struct{}{}
		out = append(out, models.Market{
			Ticker:         item.Ticker,
			EventTicker:    item.EventTicker,
			Title:          item.Title,
			Subtitle:       strPtr(item.Subtitle),
			YesSubTitle:    strPtr(item.YesSubTitle),
			NoSubTitle:     strPtr(item.NoSubTitle),
			MarketType:     strPtr(item.MarketType),
			Status:         strPtr(item.Status),
			Result:         strPtr(item.Result),
			OpenTime:       parseTime(item.OpenTime),
			CloseTime:      parseTime(item.CloseTime),
			ExpirationTime: parseTime(item.ExpirationTime),
			YesBid:         item.YesBid,
			YesAsk:         item.YesAsk,
			NoBid:          item.NoBid,
			NoAsk:          item.NoAsk,
			LastPrice:      item.LastPrice,
			Volume:         item.Volume,
			OpenInterest:   item.OpenInterest,
			RawJSON:        mustJSON(item),
			LastSeenAt:     now,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return out, skipped
}

func articleModel(article news.Article, now time.Time) *models.NewsArticle {
	return &models.NewsArticle{
		URL:         article.URL,
		Title:       article.Title,
		Summary:     strPtr(article.Summary),
		Source:      strPtr(article.Source),
		PublishedAt: article.Published,
		FetchedAt:   now,
	}
}

// marketText is the text a market is matched and embedded on.
func marketText(m models.Market) string {
	parts := []string{m.Title}
	if m.Subtitle != nil && *m.Subtitle != "" {
		parts = append(parts, *m.Subtitle)
	}
	if m.YesSubTitle != nil && *m.YesSubTitle != "" {
		parts = append(parts, *m.YesSubTitle)
	}
	return strings.Join(parts, " ")
}

func (s *IngestService) maxMarkets() int {
	if s.MaxMarkets > 0 {
		return s.MaxMarkets
	}
	return defaultMaxMarkets
}

func (s *IngestService) maxEvents() int {
	if s.MaxEvents > 0 {
		return s.MaxEvents
	}
	return defaultMaxEvents
}

func (s *IngestService) retention() time.Duration {
	if s.Retention > 0 {
		return s.Retention
	}
	return defaultRetention
}

func (s *IngestService) neighborK() int {
	if s.NeighborK > 0 {
		return s.NeighborK
	}
	return defaultNeighborK
}

func (s *IngestService) logWarn(msg string, err error, fields ...zap.Field) {
	if s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func mustJSON(v any) datatypes.JSON {
	payload, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(payload)
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
