package news

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Article is the single normalized article value every downstream consumer
// (matcher, persistence, serving) operates on. It is constructed here, at the
// ingestion boundary, and nowhere else.
type Article struct {
	Title     string
	URL       string
	Source    string
	Published *time.Time
	Summary   string
}

const (
	maxEntriesPerFeed = 50
	maxSummaryRunes   = 300
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

type Fetcher struct {
	Feeds  []Feed
	Client *http.Client
	Logger *zap.Logger

	parser *gofeed.Parser
}

func NewFetcher(feeds []Feed, client *http.Client, logger *zap.Logger) *Fetcher {
	if len(feeds) == 0 {
		feeds = DefaultFeeds()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	return &Fetcher{Feeds: feeds, Client: client, Logger: logger, parser: parser}
}

// FetchAll pulls every configured feed and returns the combined articles
// sorted newest-first. A feed that fails to fetch or parse is logged and
// skipped; one dead feed never empties the whole batch.
func (f *Fetcher) FetchAll(ctx context.Context) []Article {
	var all []Article
	for _, feed := range f.Feeds {
		articles, err := f.fetchFeed(ctx, feed)
		if err != nil {
			if f.Logger != nil {
				f.Logger.Warn("feed fetch failed", zap.String("source", feed.Source), zap.String("url", feed.URL), zap.Error(err))
			}
			continue
		}
		all = append(all, articles...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		ti, tj := all[i].Published, all[j].Published
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
	return all
}

func (f *Fetcher) fetchFeed(ctx context.Context, feed Feed) ([]Article, error) {
	parsed, err := f.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, err
	}

	items := parsed.Items
	if len(items) > maxEntriesPerFeed {
		items = items[:maxEntriesPerFeed]
	}

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		if item == nil || item.Link == "" {
			continue
		}
		articles = append(articles, Article{
			Title:     item.Title,
			URL:       item.Link,
			Source:    feed.Source,
			Published: item.PublishedParsed,
			Summary:   cleanSummary(item.Description),
		})
	}
	return articles, nil
}

// cleanSummary strips markup and caps the length; feed descriptions routinely
// embed whole HTML fragments.
func cleanSummary(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	runes := []rune(s)
	if len(runes) > maxSummaryRunes {
		return string(runes[:maxSummaryRunes])
	}
	return s
}
