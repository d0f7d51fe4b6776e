package models

import "time"

// Asset is a point-in-time quote snapshot, the shape the watchlist keeps.
type Asset struct {
	Symbol    string     `json:"symbol"`
	Class     AssetClass `json:"asset_class"`
	Price     float64    `json:"price"`
	Change    float64    `json:"change"`
	ChangePct float64    `json:"change_pct"`
	Volume    float64    `json:"volume"`
	Source    string     `json:"source"`
	AsOf      time.Time  `json:"as_of"`
	// Derived is set when no quote provider answered and the snapshot was built from the series.
	Derived bool `json:"derived,omitempty"`
}

// OnChainMetrics holds daily network activity for a crypto asset.
type OnChainMetrics struct {
	Asset           string    `json:"asset"`
	Date            time.Time `json:"date"`
	ActiveAddresses float64   `json:"active_addresses"`
	TxCount         float64   `json:"tx_count"`
	// PrevActiveAddresses is the value one week earlier, 0 when unknown.
	PrevActiveAddresses float64 `json:"prev_active_addresses"`
	Source              string  `json:"source"`
}

// WatchlistEntry is the last refreshed snapshot of a watched symbol.
type WatchlistEntry struct {
	Asset
	Provenance Provenance `json:"provenance"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
