package models

import "time"

// Provenance tells consumers whether a series came from live providers or the synthetic generator.
type Provenance string

const (
	ProvenanceLive      Provenance = "live"
	ProvenanceSynthetic Provenance = "synthetic"
)

// ProviderResult is the outcome of one adapter call. Exactly one of Series and Err is meaningful:
// a result with a non-nil Err is a failure and its Series is ignored.
type ProviderResult struct {
	Source  string
	Rank    int
	Series  Series
	Err     error
	Elapsed time.Duration
}

// OK reports whether the adapter returned data.
func (r ProviderResult) OK() bool { return r.Err == nil }

// SourceReport is the transport view of a ProviderResult.
type SourceReport struct {
	Source     string `json:"source"`
	Rank       int    `json:"rank"`
	Rows       int    `json:"rows"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Broadened  bool   `json:"broadened,omitempty"`
}

// Report converts the result for output.
func (r ProviderResult) Report(broadened bool) SourceReport {
	rep := SourceReport{
		Source:     r.Source,
		Rank:       r.Rank,
		Rows:       len(r.Series),
		DurationMs: r.Elapsed.Milliseconds(),
		Broadened:  broadened,
	}
	if r.Err != nil {
		rep.Rows = 0
		rep.Error = r.Err.Error()
	}
	return rep
}
