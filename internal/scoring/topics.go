package scoring

import (
	"sort"

	"kalshinews/internal/models"
)

// RankedMarket is a market annotated with its derived category and heat.
// Category is never persisted on the market row; it is derived here.
type RankedMarket struct {
	Market   models.Market
	Category string
	Heat     float64
}

// Topic is one category group with aggregate activity.
type Topic struct {
	Name        string
	TotalVolume int64
	TotalHeat   float64
	Markets     []RankedMarket
}

// Annotate derives heat and categorizes using the caller-supplied upstream
// category field. The upstream category travels on events, not markets, so
// the caller resolves it through the event/series join first.
func Annotate(m models.Market, upstreamCategory string) RankedMarket {
	return RankedMarket{
		Market:   m,
		Category: Categorize(upstreamCategory, m.Title),
		Heat:     HeatScore(m.VolumeOrZero(), m.OpenInterestOrZero(), m.YesPriceOrDefault()),
	}
}

// BuildTopics groups annotated markets by category, accumulating volume and
// heat per group. Members are sorted hottest-first inside each group and the
// groups themselves are sorted by total heat descending.
func BuildTopics(markets []RankedMarket) []Topic {
	byName := make(map[string]*Topic)
	var order []string
	for _, m := range markets {
		topic, ok := byName[m.Category]
		if !ok {
			topic = &Topic{Name: m.Category}
			byName[m.Category] = topic
			order = append(order, m.Category)
		}
		topic.Markets = append(topic.Markets, m)
		topic.TotalHeat += m.Heat
		topic.TotalVolume += m.Market.VolumeOrZero()
	}

	topics := make([]Topic, 0, len(order))
	for _, name := range order {
		topic := byName[name]
		sort.SliceStable(topic.Markets, func(i, j int) bool {
			return topic.Markets[i].Heat > topic.Markets[j].Heat
		})
		topics = append(topics, *topic)
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].TotalHeat > topics[j].TotalHeat
	})
	return topics
}

// TopN returns at most n hottest members of a topic.
func (t Topic) TopN(n int) []RankedMarket {
	if n <= 0 || n >= len(t.Markets) {
		return t.Markets
	}
	return t.Markets[:n]
}
