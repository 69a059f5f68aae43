package scoring

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords is a closed set: generic English stop words plus terms that are
// domain-neutral on a prediction market ("market", "price", "yes", "no" appear
// in nearly every title and carry no matching signal).
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "from", "is", "are", "was", "were", "be", "been",
		"being", "have", "has", "had", "do", "does", "did", "will", "would",
		"could", "should", "may", "might", "must", "shall", "can", "need",
		"this", "that", "these", "those", "it", "its", "as", "if", "when",
		"than", "so", "no", "not", "only", "very", "just", "also", "into",
		"over", "such", "through", "after", "before", "between", "under",
		"again", "there", "about", "out", "up", "down", "more", "most", "other",
		"some", "any", "all", "both", "each", "few", "many", "much", "own",
		"same", "new", "first", "last", "long", "great", "little",
		"market", "markets", "price", "prices", "higher", "lower", "yes",
		"year", "years", "today", "yesterday", "tomorrow", "week", "month",
	} {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords lowercases, strips punctuation, splits on whitespace and
// drops short tokens and stop words. Deterministic, no side effects.
func ExtractKeywords(text string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	keywords := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords[w] = struct{}{}
	}
	return keywords
}

// Relevance scores how related two keyword sets are, in [0,1]. The formula
// rewards both the overlap proportion and the absolute number of shared
// terms, capped at 1. Symmetric in its arguments.
func Relevance(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	proportion := float64(shared) / float64(len(small))
	score := proportion * (1 + 0.1*float64(shared))
	if score > 1 {
		return 1
	}
	return score
}

// MatchThreshold is the minimum relevance for an article to count as related.
const MatchThreshold = 0.15

// ArticleText is the minimal article shape the matcher needs.
type ArticleText struct {
	Title     string
	Summary   string
	URL       string
	Source    string
	Published string
}

// NewsMatch is one article matched to a market, with its relevance score.
type NewsMatch struct {
	Title     string  `json:"title"`
	URL       string  `json:"link"`
	Source    string  `json:"source"`
	Published string  `json:"published,omitempty"`
	Relevance float64 `json:"relevance_score"`
}

// MatchArticles scores every article against the market text and returns the
// matches above MatchThreshold, sorted descending by score and truncated to
// maxMatches.
func MatchArticles(marketText string, articles []ArticleText, maxMatches int) []NewsMatch {
	marketKeywords := ExtractKeywords(marketText)

	var matches []NewsMatch
	for _, article := range articles {
		articleKeywords := ExtractKeywords(article.Title + " " + article.Summary)
		score := Relevance(marketKeywords, articleKeywords)
		if score <= MatchThreshold {
			continue
		}
		matches = append(matches, NewsMatch{
			Title:     article.Title,
			URL:       article.URL,
			Source:    article.Source,
			Published: article.Published,
			Relevance: score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})
	if maxMatches > 0 && len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}
