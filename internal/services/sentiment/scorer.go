package sentiment

import (
	"sort"
	"strings"
	"unicode"

	"MarketLens/internal/domain/models"
)

var positiveWords = wordSet(
	"bullish", "rally", "rallies", "surge", "surges", "soar", "soars", "jump", "jumps", "gain", "gains",
	"rise", "rises", "beat", "beats", "upgrade", "upgraded", "breakout", "growth", "record", "strong",
	"outperform", "buy", "profit", "optimistic", "rebound", "boost", "higher", "uptrend", "accumulation",
)

var negativeWords = wordSet(
	"bearish", "drop", "drops", "fall", "falls", "plunge", "plunges", "slump", "loss", "losses", "miss",
	"misses", "downgrade", "downgraded", "weak", "crash", "decline", "declines", "sell", "selloff",
	"lawsuit", "fear", "fears", "cut", "cuts", "lower", "downtrend", "warning", "probe", "bankruptcy",
)

var technicalTerms = []string{
	"support", "resistance", "breakout", "breakdown", "rsi", "macd", "moving average", "chart",
	"technical", "pattern", "bollinger", "overbought", "oversold",
}

// aliases maps tickers to names that headlines use instead.
var aliases = map[string][]string{
	"BTC":   {"bitcoin"},
	"ETH":   {"ethereum", "ether"},
	"SOL":   {"solana"},
	"XRP":   {"ripple"},
	"DOGE":  {"dogecoin"},
	"AAPL":  {"apple"},
	"MSFT":  {"microsoft"},
	"TSLA":  {"tesla"},
	"NVDA":  {"nvidia"},
	"AMZN":  {"amazon"},
	"GOOGL": {"alphabet", "google"},
	"GOOG":  {"alphabet", "google"},
	"META":  {"meta platforms", "facebook"},
}

// patternPhrases lists every alias of every pattern kind, longest first, so "inverse head and
// shoulders" is consumed before "head and shoulders" can match inside it.
var patternPhrases = func() []phrase {
	var out []phrase
	for _, t := range models.PatternTypes() {
		for _, a := range t.Aliases() {
			out = append(out, phrase{a, t})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].text) > len(out[j].text) })
	return out
}()

type phrase struct {
	text string
	t    models.PatternType
}

func wordSet(ws ...string) map[string]bool {
	m := make(map[string]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '$'
	})
}

// Score is (positive - negative) / (positive + negative) over keyword hits, 0 without hits.
func Score(text string) float64 {
	var pos, neg int
	for _, w := range tokens(text) {
		w = strings.TrimPrefix(w, "$")
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// Mentions returns the pattern kinds named in text, in enum order.
func Mentions(text string) []models.PatternType {
	lower := " " + strings.Join(tokens(strings.ReplaceAll(text, "-", " ")), " ") + " "
	found := map[models.PatternType]bool{}
	for _, p := range patternPhrases {
		needle := " " + strings.ReplaceAll(p.text, "-", " ") + " "
		if strings.Contains(lower, needle) {
			found[p.t] = true
			lower = strings.ReplaceAll(lower, needle, " _ ")
		}
	}
	var out []models.PatternType
	for _, t := range models.PatternTypes() {
		if found[t] {
			out = append(out, t)
		}
	}
	return out
}

func mentionsSymbol(text, symbol string) bool {
	sym := strings.ToLower(symbol)
	for _, w := range tokens(text) {
		if strings.TrimPrefix(w, "$") == sym {
			return true
		}
	}
	padded := " " + strings.Join(tokens(text), " ") + " "
	for _, name := range aliases[strings.ToUpper(symbol)] {
		if strings.Contains(padded, " "+name+" ") {
			return true
		}
	}
	return false
}

// Relevance rates how much an item is about symbol, in [0, 1]: a title mention counts 0.6, a
// summary-only mention 0.4, any pattern mention 0.2 and each technical term 0.1 up to 0.2.
func Relevance(item models.NewsItem, symbol string, mentions []models.PatternType) float64 {
	rel := 0.0
	switch {
	case mentionsSymbol(item.Title, symbol):
		rel += 0.6
	case mentionsSymbol(item.Summary, symbol):
		rel += 0.4
	}
	if len(mentions) > 0 {
		rel += 0.2
	}
	text := " " + strings.Join(tokens(item.Title+" "+item.Summary), " ") + " "
	tech := 0.0
	for _, term := range technicalTerms {
		if strings.Contains(text, " "+term+" ") {
			tech += 0.1
		}
	}
	if tech > 0.2 {
		tech = 0.2
	}
	rel += tech
	if rel > 1 {
		rel = 1
	}
	return rel
}

// ScoreItem fills Sentiment, Mentions and Relevance for symbol.
func ScoreItem(item models.NewsItem, symbol string) models.NewsItem {
	text := item.Title + " " + item.Summary
	item.Sentiment = Score(text)
	item.Mentions = Mentions(text)
	item.Relevance = Relevance(item, symbol, item.Mentions)
	return item
}
