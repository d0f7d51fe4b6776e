package repository

// Timeframe is the lookback window requested by the caller.
type Timeframe string

const (
	TF30d Timeframe = "30d"
	TF90d Timeframe = "90d"
	TF1y  Timeframe = "1y"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF30d, TF90d, TF1y:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF90d }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Days returns the calendar-day length of the window.
func (tf Timeframe) Days() int {
	switch tf {
	case TF30d:
		return 30
	case TF1y:
		return 365
	default:
		return 90
	}
}
