package sentiment

import (
	"time"

	"MarketLens/internal/domain/models"
)

const (
	MentionNote = " (Mentioned in recent news)"

	DefaultWindow       = 7 * 24 * time.Hour
	DefaultMinRelevance = 0.6
	DefaultMoodLevel    = 0.3

	mentionBoost = 1.2
	moodBoost    = 1.15
)

// Fuser implements service.SentimentFuser.
type Fuser struct {
	Window       time.Duration
	MinRelevance float64
	MoodLevel    float64
}

func NewFuser(window time.Duration) *Fuser {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Fuser{Window: window, MinRelevance: DefaultMinRelevance, MoodLevel: DefaultMoodLevel}
}

// Fuse returns adjusted copies of patterns; the input slice is not modified. Only items newer
// than the window with relevance above the minimum count. Neutral patterns are never adjusted.
func (f *Fuser) Fuse(patterns []models.PatternMatch, news []models.NewsItem, now time.Time) []models.PatternMatch {
	mentioned := map[models.PatternType]bool{}
	var sum float64
	var n int
	for _, it := range news {
		if it.Relevance <= f.MinRelevance || now.Sub(it.Published) > f.Window {
			continue
		}
		for _, t := range it.Mentions {
			mentioned[t] = true
		}
		sum += it.Sentiment
		n++
	}
	mood := 0.0
	if n > 0 {
		mood = sum / float64(n)
	}

	out := make([]models.PatternMatch, len(patterns))
	copy(out, patterns)
	for i := range out {
		p := &out[i]
		if p.Signal != models.Bullish && p.Signal != models.Bearish {
			continue
		}
		if mentioned[p.Type] {
			p.Strength *= mentionBoost
			p.Description += MentionNote
		}
		if (p.Signal == models.Bullish && mood > f.MoodLevel) || (p.Signal == models.Bearish && mood < -f.MoodLevel) {
			p.Strength *= moodBoost
		}
		if p.Strength > 1 {
			p.Strength = 1
		}
	}
	return out
}
