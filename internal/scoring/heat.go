package scoring

import (
	"math"
	"strings"
)

// HeatScore rates how newsworthy a market is from its activity metrics.
// Three additive components, each independently capped: raw volume (cap 10),
// open interest (cap 5), and an uncertainty bonus that peaks when the yes
// price sits at exactly 50 cents (cap 3). Range [0, 18].
func HeatScore(volume, openInterest int64, yesPrice int) float64 {
	volumeScore := math.Min(float64(volume)/10000, 10)
	oiScore := math.Min(float64(openInterest)/5000, 5)
	uncertainty := 1 - math.Abs(float64(yesPrice)-50)/50
	return volumeScore + oiScore + uncertainty*3
}

type categoryRule struct {
	needle   string
	category string
}

type titleRule struct {
	category string
	keywords []string
}

// Both tables are ordered slices: the first hit wins and iteration order is
// part of the categorization contract.
var categoryRules = []categoryRule{
	{"politics", "Politics"},
	{"economics", "Economy"},
	{"financial", "Economy"},
	{"fed", "Economy"},
	{"climate", "Climate"},
	{"weather", "Weather"},
	{"sports", "Sports"},
	{"entertainment", "Entertainment"},
	{"tech", "Technology"},
	{"science", "Science"},
	{"crypto", "Crypto"},
	{"world", "World"},
}

var titleRules = []titleRule{
	{"Politics", []string{"trump", "biden", "election", "congress", "senate", "president", "governor", "vote"}},
	{"Economy", []string{"fed", "inflation", "gdp", "unemployment", "rate", "recession", "jobs", "cpi"}},
	{"Weather", []string{"temperature", "hurricane", "rain", "snow", "weather", "storm"}},
	{"Sports", []string{"nfl", "nba", "mlb", "super bowl", "championship", "game", "match"}},
	{"Technology", []string{"ai", "openai", "google", "apple", "microsoft", "tech"}},
	{"Crypto", []string{"bitcoin", "ethereum", "crypto", "btc", "eth"}},
	{"Entertainment", []string{"oscar", "emmy", "movie", "film", "grammy", "album"}},
}

// DefaultCategory is assigned when neither table matches.
const DefaultCategory = "Other"

// Categorize maps a market to a display category. The upstream category field
// is checked first (case-insensitive substring); title keywords are only a
// fallback, so a category-field hit always takes precedence.
func Categorize(category, title string) string {
	category = strings.ToLower(category)
	title = strings.ToLower(title)

	for _, rule := range categoryRules {
		if strings.Contains(category, rule.needle) {
			return rule.category
		}
	}
	for _, rule := range titleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(title, kw) {
				return rule.category
			}
		}
	}
	return DefaultCategory
}
