package news

// Feed is one RSS source.
type Feed struct {
	Source string
	URL    string
}

// DefaultFeeds is the built-in feed catalog, grouped by coverage area. The
// grouping only documents intent; every feed is fetched on every cycle.
func DefaultFeeds() []Feed {
	return []Feed{
		// general
		{"Reuters", "https://feeds.reuters.com/reuters/topNews"},
		{"AP News", "https://rsshub.app/apnews/topics/apf-topnews"},
		{"NPR", "https://feeds.npr.org/1001/rss.xml"},
		{"BBC World", "http://feeds.bbci.co.uk/news/world/rss.xml"},
		{"CNN", "http://rss.cnn.com/rss/cnn_topstories.rss"},
		{"NYT", "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml"},
		// politics
		{"Politico", "https://www.politico.com/rss/politicopicks.xml"},
		{"The Hill", "https://thehill.com/feed/"},
		{"RealClearPolitics", "https://www.realclearpolitics.com/index.xml"},
		{"CNN Politics", "http://rss.cnn.com/rss/cnn_allpolitics.rss"},
		{"Fox News Politics", "https://moxie.foxnews.com/google-publisher/politics.xml"},
		// economy
		{"WSJ Markets", "https://feeds.content.dowjones.io/public/rss/RSSMarketsMain"},
		{"CNBC", "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
		{"Bloomberg", "https://feeds.bloomberg.com/markets/news.rss"},
		{"Yahoo Finance", "https://finance.yahoo.com/news/rssindex"},
		{"MarketWatch", "http://feeds.marketwatch.com/marketwatch/topstories/"},
		// technology
		{"TechCrunch", "https://techcrunch.com/feed/"},
		{"Ars Technica", "https://feeds.arstechnica.com/arstechnica/technology-lab"},
		{"The Verge", "https://www.theverge.com/rss/index.xml"},
		{"Wired", "https://www.wired.com/feed/rss"},
		{"Engadget", "https://www.engadget.com/rss.xml"},
		// science
		{"ScienceDaily", "https://www.sciencedaily.com/rss/top_news.xml"},
		{"NASA", "https://www.nasa.gov/rss/dyn/breaking_news.rss"},
		// crypto
		{"CoinDesk", "https://www.coindesk.com/arc/outboundfeeds/rss/"},
		{"CoinTelegraph", "https://cointelegraph.com/rss"},
		// sports
		{"ESPN", "https://www.espn.com/espn/rss/news"},
		{"CBS Sports", "https://www.cbssports.com/rss/headlines/"},
		// entertainment
		{"Variety", "https://variety.com/feed/"},
		{"Hollywood Reporter", "https://www.hollywoodreporter.com/feed/"},
	}
}
