package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kalshinews/internal/client/kalshi"
	"kalshinews/internal/embed"
	"kalshinews/internal/models"
	"kalshinews/internal/news"
)

type stubSource struct {
	events  []kalshi.Event
	markets []kalshi.Market
	series  map[string]kalshi.Series
}

func (s *stubSource) FetchAllOpenEvents(ctx context.Context, maxEvents int) []kalshi.Event {
	if len(s.events) > maxEvents {
		return s.events[:maxEvents]
	}
	return s.events
}

func (s *stubSource) FetchAllOpenMarkets(ctx context.Context, maxMarkets int) []kalshi.Market {
	if len(s.markets) > maxMarkets {
		return s.markets[:maxMarkets]
	}
	return s.markets
}

func (s *stubSource) GetSeries(ctx context.Context, ticker string) (*kalshi.Series, error) {
	if sr, ok := s.series[ticker]; ok {
		return &sr, nil
	}
	return nil, fmt.Errorf("series %s not found", ticker)
}

type stubNews struct {
	articles []news.Article
}

func (s *stubNews) FetchAll(ctx context.Context) []news.Article { return s.articles }

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func apiMarket(ticker, eventTicker, title string) kalshi.Market {
	return kalshi.Market{
		Ticker:       ticker,
		EventTicker:  eventTicker,
		Title:        title,
		Status:       "open",
		YesBid:       intPtr(50),
		Volume:       int64Ptr(10000),
		OpenInterest: int64Ptr(5000),
	}
}

func TestRunPersistsCatalogWithPlaceholders(t *testing.T) {
	repo := newStubRepo()
	svc := &IngestService{
		Store: repo,
		Source: &stubSource{
			events: []kalshi.Event{
				{EventTicker: "EV-A", SeriesTicker: "SER-A", Title: "Election night", Category: "Politics"},
			},
			markets: []kalshi.Market{
				apiMarket("M-1", "EV-A", "Will the incumbent win"),
				apiMarket("M-2", "EV-ORPHAN", "Will rates rise"),
			},
			series: map[string]kalshi.Series{
				"SER-A": {Ticker: "SER-A", Title: "Elections", Category: "Politics"},
			},
		},
	}

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Events != 1 || result.Series != 1 || result.Markets != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.PlaceholderEvents != 1 {
		t.Fatalf("expected 1 placeholder event, got %d", result.PlaceholderEvents)
	}
	placeholder, ok := repo.events["EV-ORPHAN"]
	if !ok {
		t.Fatalf("placeholder event not persisted")
	}
	if placeholder.Title == nil || *placeholder.Title != "Event EV-ORPHAN" {
		t.Fatalf("placeholder title = %v", placeholder.Title)
	}
}

func TestRunPlaceholderDoesNotOverwriteKnownEvent(t *testing.T) {
	repo := newStubRepo()
	svc := &IngestService{
		Store: repo,
		Source: &stubSource{
			events: []kalshi.Event{
				{EventTicker: "EV-A", Title: "Real title"},
			},
			markets: []kalshi.Market{apiMarket("M-1", "EV-A", "Q")},
		},
	}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	evt := repo.events["EV-A"]
	if evt.Title == nil || *evt.Title != "Real title" {
		t.Fatalf("event title overwritten: %v", evt.Title)
	}
}

func TestRunFallsBackToPerItemUpserts(t *testing.T) {
	markets := make([]kalshi.Market, 0, 100)
	for i := 1; i <= 100; i++ {
		markets = append(markets, apiMarket(fmt.Sprintf("M-%d", i), "EV-A", fmt.Sprintf("Question %d", i)))
	}
	repo := newStubRepo()
	repo.failBulkMarkets = true
	repo.failTickers = map[string]bool{"M-57": true}

	svc := &IngestService{
		Store:      repo,
		Source:     &stubSource{markets: markets},
		MaxMarkets: 300,
	}
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markets != 99 {
		t.Fatalf("expected 99 persisted markets, got %d", result.Markets)
	}
	if result.MarketFailures != 1 {
		t.Fatalf("expected 1 failure, got %d", result.MarketFailures)
	}
	if _, ok := repo.markets["M-57"]; ok {
		t.Fatalf("failed row should not be persisted")
	}
	if _, ok := repo.markets["M-58"]; !ok {
		t.Fatalf("rows after the failed one should still persist")
	}
}

func TestRunSkipsMarketsWithoutParent(t *testing.T) {
	repo := newStubRepo()
	svc := &IngestService{
		Store: repo,
		Source: &stubSource{
			markets: []kalshi.Market{
				apiMarket("M-1", "EV-A", "Good"),
				{Ticker: "M-2", Title: "No parent"},
			},
		},
	}
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markets != 1 || result.MarketFailures != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
}

func TestRunComputesEventAggregates(t *testing.T) {
	repo := newStubRepo()
	svc := &IngestService{
		Store: repo,
		Source: &stubSource{
			markets: []kalshi.Market{
				apiMarket("M-1", "EV-A", "Q1"),
				apiMarket("M-2", "EV-A", "Q2"),
			},
		},
	}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	agg, ok := repo.aggs["EV-A"]
	if !ok {
		t.Fatalf("no aggregate for EV-A")
	}
	// Each market scores 1 (volume) + 1 (open interest) + 3 (price at 50).
	if agg.HeatScore != 10 {
		t.Fatalf("heat = %v, want 10", agg.HeatScore)
	}
	if agg.TotalVolume != 20000 || agg.TotalOpenInterest != 10000 {
		t.Fatalf("volume/oi = %d/%d", agg.TotalVolume, agg.TotalOpenInterest)
	}
}

func TestRunLinksArticlesByKeywords(t *testing.T) {
	repo := newStubRepo()
	svc := &IngestService{
		Store: repo,
		Source: &stubSource{
			markets: []kalshi.Market{
				apiMarket("M-1", "EV-FED", "Federal Reserve interest rate decision March"),
			},
		},
		News: &stubNews{articles: []news.Article{
			{
				Title:   "Federal Reserve signals March interest rate decision",
				URL:     "https://example.com/fed",
				Source:  "Test",
				Summary: "The Federal Reserve holds rates",
			},
			{
				Title:   "Local bakery wins pie contest",
				URL:     "https://example.com/pie",
				Source:  "Test",
				Summary: "A pie contest",
			},
		}},
	}
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Articles != 2 {
		t.Fatalf("expected 2 articles persisted, got %d", result.Articles)
	}
	if result.Links != 1 {
		t.Fatalf("expected 1 link, got %d", result.Links)
	}
	var found bool
	for _, link := range repo.links {
		if link.EventTicker == "EV-FED" {
			found = true
			if link.RelevanceScore <= 0.15 || link.RelevanceScore > 1 {
				t.Fatalf("relevance out of range: %v", link.RelevanceScore)
			}
		}
	}
	if !found {
		t.Fatalf("no link to EV-FED")
	}
}

func TestRunLinksArticlesByEmbedding(t *testing.T) {
	repo := newStubRepo()
	// The nearest-neighbor lookup returns a market whose title shares no
	// keywords with the article, so any link must come from the vector pass.
	repo.nearest = []models.Market{{Ticker: "M-NN", EventTicker: "EV-NN", Title: "Quarterly widget output"}}

	svc := &IngestService{
		Store:  repo,
		Source: &stubSource{},
		News: &stubNews{articles: []news.Article{
			{Title: "Completely unrelated headline", URL: "https://example.com/x"},
		}},
		Embedder: embed.Func(func(ctx context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = make([]float32, embed.Dimensions)
			}
			return out, nil
		}),
	}
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Links != 1 {
		t.Fatalf("expected 1 embedding link, got %d", result.Links)
	}
	for _, link := range repo.links {
		if link.EventTicker != "EV-NN" {
			t.Fatalf("link to %s, want EV-NN", link.EventTicker)
		}
		if link.RelevanceScore != 1.0 {
			t.Fatalf("embedding links carry flat score 1.0, got %v", link.RelevanceScore)
		}
	}
}

func TestRunRerunsAreIdempotentForLinks(t *testing.T) {
	repo := newStubRepo()
	svc := &IngestService{
		Store: repo,
		Source: &stubSource{
			markets: []kalshi.Market{
				apiMarket("M-1", "EV-FED", "Federal Reserve interest rate decision"),
			},
		},
		News: &stubNews{articles: []news.Article{
			{Title: "Federal Reserve interest rate decision looms", URL: "https://example.com/fed"},
		}},
	}
	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.Links != 1 || second.Links != 0 {
		t.Fatalf("links: first=%d second=%d, want 1 and 0", first.Links, second.Links)
	}
	if len(repo.links) != 1 {
		t.Fatalf("expected 1 stored link, got %d", len(repo.links))
	}
}

func TestRunSweepsOldArticles(t *testing.T) {
	repo := newStubRepo()
	svc := &IngestService{
		Store:     repo,
		Source:    &stubSource{},
		Retention: 30 * 24 * time.Hour,
	}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if diff := repo.purgeCutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("purge cutoff %v not near %v", repo.purgeCutoff, want)
	}
}
