package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PatternType is a closed enumeration; add new kinds here and in patternNames.
type PatternType int

const (
	PatternSupport PatternType = iota + 1
	PatternResistance
	PatternHeadAndShoulders
	PatternInverseHeadAndShoulders
	PatternDoubleTop
	PatternDoubleBottom
	PatternAscendingTriangle
	PatternDescendingTriangle
	PatternSymmetricalTriangle
	PatternBullFlag
	PatternBearFlag
	PatternRisingWedge
	PatternFallingWedge
	PatternCupAndHandle
	PatternGoldenCross
	PatternDeathCross
)

var patternNames = map[PatternType]string{
	PatternSupport:                 "support",
	PatternResistance:              "resistance",
	PatternHeadAndShoulders:        "head and shoulders",
	PatternInverseHeadAndShoulders: "inverse head and shoulders",
	PatternDoubleTop:               "double top",
	PatternDoubleBottom:            "double bottom",
	PatternAscendingTriangle:       "ascending triangle",
	PatternDescendingTriangle:      "descending triangle",
	PatternSymmetricalTriangle:     "symmetrical triangle",
	PatternBullFlag:                "bull flag",
	PatternBearFlag:                "bear flag",
	PatternRisingWedge:             "rising wedge",
	PatternFallingWedge:            "falling wedge",
	PatternCupAndHandle:            "cup and handle",
	PatternGoldenCross:             "golden cross",
	PatternDeathCross:              "death cross",
}

// PatternTypes lists every pattern kind in declaration order.
func PatternTypes() []PatternType {
	out := make([]PatternType, 0, len(patternNames))
	for t := PatternSupport; t <= PatternDeathCross; t++ {
		out = append(out, t)
	}
	return out
}

// String returns the lowercase display name, e.g. "double top".
func (t PatternType) String() string {
	if n, ok := patternNames[t]; ok {
		return n
	}
	return fmt.Sprintf("pattern(%d)", int(t))
}

// Aliases returns the phrasings matched in news text: the name itself and its hyphenated form.
func (t PatternType) Aliases() []string {
	n := t.String()
	h := strings.ReplaceAll(n, " ", "-")
	if h == n {
		return []string{n}
	}
	return []string{n, h}
}

// ParsePatternType resolves a name or hyphenated alias.
func ParsePatternType(s string) (PatternType, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", " ")))
	for t, n := range patternNames {
		if n == s {
			return t, true
		}
	}
	return 0, false
}

func (t PatternType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *PatternType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, ok := ParsePatternType(s)
	if !ok {
		return fmt.Errorf("unknown pattern type %q", s)
	}
	*t = p
	return nil
}

// PatternMatch is one detected pattern. Level is zero when the pattern has no single price level.
type PatternMatch struct {
	Type        PatternType `json:"type"`
	Signal      Signal      `json:"signal"`
	Strength    float64     `json:"strength"`
	Level       float64     `json:"level,omitempty"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Description string      `json:"description"`
}
