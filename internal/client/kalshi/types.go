package kalshi

// Market is one market record as served by GET /markets.
type Market struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	YesSubTitle string `json:"yes_sub_title"`
	NoSubTitle  string `json:"no_sub_title"`
	MarketType  string `json:"market_type"`
	Status      string `json:"status"`
	Result      string `json:"result"`

	// Prices in cents.
	YesBid    *int `json:"yes_bid"`
	YesAsk    *int `json:"yes_ask"`
	NoBid     *int `json:"no_bid"`
	NoAsk     *int `json:"no_ask"`
	LastPrice *int `json:"last_price"`

	Volume       *int64 `json:"volume"`
	OpenInterest *int64 `json:"open_interest"`

	// ISO 8601 timestamps.
	OpenTime       string `json:"open_time"`
	CloseTime      string `json:"close_time"`
	ExpirationTime string `json:"expiration_time"`

	Rules string `json:"rules_primary"`
}

// Event is one event record as served by GET /events.
type Event struct {
	EventTicker  string `json:"event_ticker"`
	SeriesTicker string `json:"series_ticker"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Status       string `json:"status"`
}

// Series is one series record as served by GET /series/{ticker}.
type Series struct {
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
}

type MarketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

type EventsResponse struct {
	Events []Event `json:"events"`
	Cursor string   `json:"cursor"`
}

type marketResponse struct {
	Market Market `json:"market"`
}

type eventResponse struct {
	Event Event `json:"event"`
}

type seriesResponse struct {
	Series Series `json:"series"`
}
