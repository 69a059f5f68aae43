package service

import (
	"context"
	"testing"
	"time"

	"kalshinews/internal/cache"
	"kalshinews/internal/models"
)

func openMarket(ticker, eventTicker, title string, volume, oi int64, yesBid int) models.Market {
	status := "open"
	return models.Market{
		Ticker:       ticker,
		EventTicker:  eventTicker,
		Title:        title,
		Status:       &status,
		YesBid:       &yesBid,
		Volume:       &volume,
		OpenInterest: &oi,
	}
}

func seedQueryRepo() *stubRepo {
	repo := newStubRepo()
	politics := "Politics"
	repo.markets["M-ELEC"] = openMarket("M-ELEC", "EV-ELEC", "Will the incumbent win the election", 100000, 25000, 50)
	repo.markets["M-FED"] = openMarket("M-FED", "EV-FED", "Will the Fed cut rates in March", 10000, 5000, 50)
	repo.markets["M-COLD"] = openMarket("M-COLD", "EV-COLD", "Will it snow on Christmas", 100, 50, 95)
	repo.events["EV-ELEC"] = models.Event{EventTicker: "EV-ELEC", Category: &politics}
	repo.events["EV-FED"] = models.Event{EventTicker: "EV-FED"}
	repo.events["EV-COLD"] = models.Event{EventTicker: "EV-COLD"}
	return repo
}

func TestTopicsGroupsByCategory(t *testing.T) {
	svc := &QueryService{Store: seedQueryRepo()}
	topics, err := svc.Topics(context.Background())
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	byName := map[string]TopicView{}
	for _, topic := range topics {
		byName[topic.Name] = topic
	}
	if len(byName["Politics"].Markets) != 1 {
		t.Fatalf("Politics group = %+v", byName["Politics"])
	}
	// The Fed market has no upstream category; the title keyword table
	// routes it to Economy.
	if len(byName["Economy"].Markets) != 1 {
		t.Fatalf("Economy group = %+v", byName["Economy"])
	}
	if len(byName["Weather"].Markets) != 1 {
		t.Fatalf("Weather group = %+v", byName["Weather"])
	}
	if topics[0].TotalHeat < topics[len(topics)-1].TotalHeat {
		t.Fatalf("topics not sorted by heat")
	}
}

func TestMarketsFiltersByCategoryAndHeat(t *testing.T) {
	svc := &QueryService{Store: seedQueryRepo()}
	out, err := svc.Markets(context.Background(), "politics", 0, 10)
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if len(out) != 1 || out[0].Ticker != "M-ELEC" {
		t.Fatalf("category filter: %+v", out)
	}

	hot, err := svc.Markets(context.Background(), "", 10, 10)
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	// Only the election market reaches the maximum heat of 18.
	if len(hot) != 1 || hot[0].Ticker != "M-ELEC" {
		t.Fatalf("heat filter: %+v", hot)
	}
	if hot[0].HeatScore != 18 {
		t.Fatalf("heat = %v, want 18", hot[0].HeatScore)
	}
}

func TestHotWeighsNewsPressure(t *testing.T) {
	repo := seedQueryRepo()
	// The Fed market sits at heat 5; four points of summed link relevance
	// push its hot score past the election market's 18.
	repo.newsScores["EV-FED"] = 7.0
	svc := &QueryService{Store: repo}

	out, err := svc.Hot(context.Background(), 10)
	if err != nil {
		t.Fatalf("Hot: %v", err)
	}
	if out[0].Ticker != "M-FED" {
		t.Fatalf("hottest = %s, want M-FED", out[0].Ticker)
	}
	if out[0].HotScore != 5+2*7.0 {
		t.Fatalf("hot score = %v", out[0].HotScore)
	}
	if out[0].NewsScore != 7.0 {
		t.Fatalf("news score = %v", out[0].NewsScore)
	}
}

func TestHotDeduplicatesByTitle(t *testing.T) {
	repo := seedQueryRepo()
	dupe := openMarket("M-ELEC-2", "EV-ELEC2", "Will the incumbent win the election", 500, 100, 50)
	repo.markets["M-ELEC-2"] = dupe
	repo.events["EV-ELEC2"] = models.Event{EventTicker: "EV-ELEC2"}
	svc := &QueryService{Store: repo}

	out, err := svc.Hot(context.Background(), 10)
	if err != nil {
		t.Fatalf("Hot: %v", err)
	}
	seen := 0
	for _, hm := range out {
		if hm.Title == "Will the incumbent win the election" {
			seen++
			if hm.Ticker != "M-ELEC" {
				t.Fatalf("kept %s, want the hotter M-ELEC", hm.Ticker)
			}
		}
	}
	if seen != 1 {
		t.Fatalf("title appears %d times, want 1", seen)
	}
}

func TestMarketDetailUnknownTicker(t *testing.T) {
	svc := &QueryService{Store: seedQueryRepo()}
	view, err := svc.MarketDetail(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("MarketDetail: %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil for unknown ticker, got %+v", view)
	}
}

func TestMarketDetailMatchesRecentNews(t *testing.T) {
	repo := seedQueryRepo()
	repo.recent = []models.NewsArticle{
		{Title: "Fed expected to cut rates in March", URL: "https://example.com/fed"},
	}
	svc := &QueryService{Store: repo}

	view, err := svc.MarketDetail(context.Background(), "M-FED")
	if err != nil {
		t.Fatalf("MarketDetail: %v", err)
	}
	if view == nil {
		t.Fatalf("expected a view")
	}
	if len(view.News) != 1 || view.News[0].URL != "https://example.com/fed" {
		t.Fatalf("news = %+v", view.News)
	}
}

func TestSnapshotIsCachedUntilRefresh(t *testing.T) {
	repo := seedQueryRepo()
	svc := &QueryService{Store: repo, Cache: cache.New(time.Minute), TTL: time.Minute}

	if _, err := svc.Topics(context.Background()); err != nil {
		t.Fatalf("Topics: %v", err)
	}
	// A market added after the snapshot is invisible until refresh.
	repo.markets["M-NEW"] = openMarket("M-NEW", "EV-NEW", "Brand new question", 1, 1, 50)
	out, err := svc.Markets(context.Background(), "", 0, 100)
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected cached snapshot of 3 markets, got %d", len(out))
	}

	svc.Refresh()
	out, err = svc.Markets(context.Background(), "", 0, 100)
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected refreshed snapshot of 4 markets, got %d", len(out))
	}
}

func TestSearchAnnotatesHits(t *testing.T) {
	repo := seedQueryRepo()
	repo.searchHits = []models.Market{repo.markets["M-ELEC"]}
	svc := &QueryService{Store: repo}

	out, err := svc.Search(context.Background(), "election", nil, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out) != 1 || out[0].Category != "Politics" {
		t.Fatalf("search results = %+v", out)
	}
}
