package models

import "time"

// NewsItem is one scored headline.
type NewsItem struct {
	Title     string        `json:"title"`
	Summary   string        `json:"summary,omitempty"`
	Link      string        `json:"link"`
	Source    string        `json:"source"`
	Published time.Time     `json:"published"`
	Sentiment float64       `json:"sentiment"`
	Relevance float64       `json:"relevance"`
	Mentions  []PatternType `json:"mentions,omitempty"`
}
