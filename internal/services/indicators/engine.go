package indicators

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/services/features"
)

// Engine implements service.IndicatorEngine. It holds no state.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Compute(s models.Series, class models.AssetClass, onChain *models.OnChainMetrics) []models.Indicator {
	closes := s.Closes()
	out := []models.Indicator{rsiIndicator(closes), macdIndicator(closes), bollingerIndicator(closes)}
	if ind, ok := trendIndicator(closes); ok {
		out = append(out, ind)
	}
	if ind, ok := momentumIndicator(closes); ok {
		out = append(out, ind)
	}
	if ind, ok := volatilityIndicator(closes, class); ok {
		out = append(out, ind)
	}
	if class == models.AssetCrypto && onChain != nil {
		out = append(out, onChainIndicator(*onChain))
	}
	return out
}

// SMASeries aligns SMA20 and SMA50 with every candle; 0 marks an undefined point.
func (e *Engine) SMASeries(s models.Series) []models.SMAPoint {
	closes := s.Closes()
	mid := smaSeries(closes, SMAMid)
	long := smaSeries(closes, SMALong)
	out := make([]models.SMAPoint, len(s))
	for i, c := range s {
		out[i] = models.SMAPoint{Date: c.Date, SMA20: mid[i], SMA50: long[i]}
	}
	return out
}

func smaSeries(closes []float64, period int) []float64 {
	if len(closes) < period {
		return make([]float64, len(closes))
	}
	return talib.Sma(closes, period)
}

func rsiIndicator(closes []float64) models.Indicator {
	v := RSI(closes, RSIPeriod)
	ind := models.Indicator{Name: "RSI", Value: v, Signal: models.Neutral}
	switch {
	case len(closes) < RSIPeriod+1:
		ind.Description = "Not enough history; neutral default"
	case v >= 70:
		ind.Signal = models.Bearish
		ind.Description = "Overbought"
	case v <= 30:
		ind.Signal = models.Bullish
		ind.Description = "Oversold"
	default:
		ind.Description = "Neutral momentum"
	}
	return ind
}

func macdIndicator(closes []float64) models.Indicator {
	line := MACDLine(closes)
	if len(line) == 0 {
		return models.Indicator{Name: "MACD", Signal: models.Neutral, Description: "Not enough history"}
	}
	sig := MACDSignal(line)
	desc := "MACD flat"
	switch sig {
	case models.Bullish:
		desc = "Bullish momentum (MACD crossing up or rising)"
	case models.Bearish:
		desc = "Bearish momentum (MACD crossing down or falling)"
	}
	return models.Indicator{Name: "MACD", Value: line[len(line)-1], Signal: sig, Description: desc}
}

func bollingerIndicator(closes []float64) models.Indicator {
	pb, ok := PercentB(closes, BollingerPeriod)
	if !ok {
		return models.Indicator{Name: "Bollinger %B", Value: 0.5, Signal: models.Neutral, Description: "Not enough history"}
	}
	ind := models.Indicator{Name: "Bollinger %B", Value: pb, Signal: models.Neutral, Description: "Inside the bands"}
	switch {
	case pb > 1:
		ind.Signal, ind.Description = models.Bearish, "Price above the upper band"
	case pb > 0.8:
		ind.Signal, ind.Description = models.Bearish, "Price near the upper band"
	case pb < 0:
		ind.Signal, ind.Description = models.Bullish, "Price below the lower band"
	case pb < 0.2:
		ind.Signal, ind.Description = models.Bullish, "Price near the lower band"
	}
	return ind
}

func trendIndicator(closes []float64) (models.Indicator, bool) {
	n := len(closes)
	mid := SMA(closes, SMAMid, n-1)
	if mid == 0 {
		return models.Indicator{}, false
	}
	last := closes[n-1]
	long := SMA(closes, SMALong, n-1)
	above := last > mid && (long == 0 || last > long)
	below := last < mid && (long == 0 || last < long)
	ind := models.Indicator{Name: "Trend", Value: last - mid, Signal: models.Neutral, Description: "Price between moving averages"}
	switch {
	case above:
		ind.Signal, ind.Description = models.Bullish, "Price above SMA20 and SMA50"
	case below:
		ind.Signal, ind.Description = models.Bearish, "Price below SMA20 and SMA50"
	}
	if long == 0 {
		ind.Description += " (SMA50 unavailable)"
	}
	return ind, true
}

func momentumIndicator(closes []float64) (models.Indicator, bool) {
	roc, ok := RateOfChange(closes, MomentumPeriod)
	if !ok {
		return models.Indicator{}, false
	}
	ind := models.Indicator{Name: "Momentum", Value: roc, Signal: models.Neutral}
	switch {
	case roc > 2:
		ind.Signal = models.Bullish
	case roc < -2:
		ind.Signal = models.Bearish
	}
	ind.Description = fmt.Sprintf("%.2f%% over %d sessions", roc, MomentumPeriod)
	return ind, true
}

func volatilityIndicator(closes []float64, class models.AssetClass) (models.Indicator, bool) {
	rets := features.ComputeLogReturns(closes)
	vol := features.RealizedVolatility(rets, BollingerPeriod, features.BarsPerYear(class))
	if vol == 0 {
		return models.Indicator{}, false
	}
	desc := "Normal volatility"
	switch {
	case vol > 0.6:
		desc = "High volatility"
	case vol < 0.15:
		desc = "Low volatility"
	}
	return models.Indicator{Name: "Volatility", Value: vol, Signal: models.Neutral, Description: desc}, true
}

func onChainIndicator(m models.OnChainMetrics) models.Indicator {
	ind := models.Indicator{Name: "On-chain activity", Value: m.ActiveAddresses, Signal: models.Neutral}
	if m.PrevActiveAddresses <= 0 {
		ind.Description = fmt.Sprintf("%.0f active addresses", m.ActiveAddresses)
		return ind
	}
	growth := (m.ActiveAddresses/m.PrevActiveAddresses - 1) * 100
	switch {
	case growth > 5:
		ind.Signal = models.Bullish
	case growth < -5:
		ind.Signal = models.Bearish
	}
	ind.Description = fmt.Sprintf("Active addresses %+.1f%% week over week", growth)
	return ind
}
