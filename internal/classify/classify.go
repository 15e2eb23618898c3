// Package classify assigns a topical category to a market from its free text.
// Classification is an ordered linear scan over keyword rules: the rule with
// the strictly highest number of keyword hits wins, and on a tie the rule
// that appears first in the list keeps the win. That first-seen tie-break is
// part of the output contract for ambiguous titles and must not be replaced
// with a best-match heuristic.
package classify

import (
	"strings"
	"unicode"

	"github.com/oddslens/engine/internal/domain"
)

// rule pairs a category with the keywords that vote for it. Keywords match
// whole tokens only; multi-word keywords match as consecutive token phrases,
// so "eth" never hits inside "something" and "ai" never hits inside "captain".
type rule struct {
	category domain.Category
	keywords []string
}

// rules are evaluated in this exact order. Each list also carries the
// category labels venues attach as tags/groups ("politics", "sports", ...)
// so a tagged market classifies correctly even when its title is neutral.
var rules = []rule{
	{domain.CategoryPolitics, []string{
		"politics", "political", "election", "president", "presidential",
		"senate", "congress", "governor", "parliament", "vote", "ballot",
		"impeach", "nominee", "primary", "democrat", "democrats", "republican",
		"republicans", "coalition", "cabinet", "legislation", "referendum",
		"prime minister", "supreme court",
	}},
	{domain.CategorySports, []string{
		"sports", "nba", "nfl", "mlb", "nhl", "super bowl", "world cup",
		"champions league", "olympics", "playoff", "finals", "game", "match",
		"team", "win the", "championship", "tournament", "ufc", "grand slam",
		"f1", "premier league",
	}},
	{domain.CategoryCrypto, []string{
		"crypto", "cryptocurrency", "bitcoin", "btc", "ethereum", "eth",
		"solana", "token", "blockchain", "defi", "stablecoin", "airdrop",
		"halving", "etf approval", "altcoin", "memecoin", "binance", "coinbase",
	}},
	{domain.CategoryTech, []string{
		"tech", "technology", "ai", "artificial intelligence", "openai", "gpt",
		"model", "chip", "semiconductor", "apple", "google", "microsoft",
		"meta", "nvidia", "tesla", "spacex", "launch", "ipo", "startup",
		"software", "iphone", "self-driving", "robotaxi",
	}},
	{domain.CategoryWorld, []string{
		"war", "ceasefire", "treaty", "sanction", "invasion", "un", "nato",
		"earthquake", "hurricane", "pandemic", "outbreak", "climate",
		"border", "refugee", "summit", "hostage", "missile",
	}},
}

// compiledRule carries a rule's keywords pre-split into token phrases.
type compiledRule struct {
	category domain.Category
	phrases  [][]string
}

var compiled = compileRules(rules)

func compileRules(rs []rule) []compiledRule {
	out := make([]compiledRule, 0, len(rs))
	for _, r := range rs {
		cr := compiledRule{category: r.category}
		for _, kw := range r.keywords {
			cr.phrases = append(cr.phrases, tokenize(kw))
		}
		out = append(out, cr)
	}
	return out
}

// Categorize assigns a category to the concatenated text signals of a market
// (tags, title, description). When no rule matches, it defaults to
// "World Events".
func Categorize(text string) domain.Category {
	tokens := tokenize(text)

	best := domain.CategoryWorld
	bestHits := 0
	for _, r := range compiled {
		hits := 0
		for _, phrase := range r.phrases {
			hits += countPhrase(tokens, phrase)
		}
		// Strict > keeps the earlier rule on ties.
		if hits > bestHits {
			bestHits = hits
			best = r.category
		}
	}
	return best
}

// tokenize lowercases s and splits it on every non-alphanumeric run, so
// "GPT-6" yields ["gpt", "6"].
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// countPhrase counts how often phrase occurs as a run of consecutive tokens.
func countPhrase(tokens, phrase []string) int {
	if len(phrase) == 0 {
		return 0
	}
	hits := 0
scan:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, p := range phrase {
			if tokens[i+j] != p {
				continue scan
			}
		}
		hits++
	}
	return hits
}
