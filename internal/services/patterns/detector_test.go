package patterns

import (
	"math"
	"testing"
	"time"

	"MarketLens/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fromCloses builds candles with a one point band around each close.
func fromCloses(closes []float64) models.Series {
	s := make(models.Series, len(closes))
	for i, c := range closes {
		s[i] = models.Candle{Date: day0.AddDate(0, 0, i), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 100}
	}
	return s
}

// piecewise joins straight segments through the given (index, value) knots.
func piecewise(n int, knots [][2]float64) []float64 {
	out := make([]float64, n)
	for k := 1; k < len(knots); k++ {
		i0, v0 := int(knots[k-1][0]), knots[k-1][1]
		i1, v1 := int(knots[k][0]), knots[k][1]
		for i := i0; i <= i1 && i < n; i++ {
			out[i] = v0 + (v1-v0)*float64(i-i0)/float64(i1-i0)
		}
	}
	return out
}

func find(ms []models.PatternMatch, t models.PatternType) []models.PatternMatch {
	var out []models.PatternMatch
	for _, m := range ms {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func TestShortSeriesYieldsEmptyList(t *testing.T) {
	got := New().Detect(fromCloses(piecewise(29, [][2]float64{{0, 100}, {28, 130}})))
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", got)
	}
}

func TestLevelsNearestFirst(t *testing.T) {
	s := make(models.Series, 40)
	for i := range s {
		s[i] = models.Candle{Date: day0.AddDate(0, 0, i), Open: 100, High: 100.5, Low: 99.5, Close: 100}
	}
	for i, low := range map[int]float64{5: 90, 12: 95, 19: 97, 26: 85} {
		s[i].Low = low
	}
	for i, high := range map[int]float64{8: 105, 15: 110, 22: 103, 30: 120} {
		s[i].High = high
	}

	ms := New().Detect(s)
	sup := find(ms, models.PatternSupport)
	res := find(ms, models.PatternResistance)
	wantSup := []float64{97, 95, 90}
	wantRes := []float64{103, 105, 110}
	if len(sup) != 3 || len(res) != 3 {
		t.Fatalf("supports=%d resistances=%d", len(sup), len(res))
	}
	for i := range wantSup {
		if sup[i].Level != wantSup[i] {
			t.Errorf("support[%d] = %v, want %v", i, sup[i].Level, wantSup[i])
		}
		if res[i].Level != wantRes[i] {
			t.Errorf("resistance[%d] = %v, want %v", i, res[i].Level, wantRes[i])
		}
	}
	if sup[0].Signal != models.Bullish || res[0].Signal != models.Bearish {
		t.Fatalf("unexpected signals")
	}
}

func TestPivotsNeedStrictExtremes(t *testing.T) {
	s := fromCloses(make([]float64, 10))
	for i := range s {
		s[i].Low, s[i].High = 1, 2
	}
	s[4].Low = 0.5
	s[5].Low = 0.5
	lows, _ := pivots(s)
	if len(lows) != 0 {
		t.Fatalf("equal neighbouring lows must not form pivots, got %v", lows)
	}
}

func TestDoubleTop(t *testing.T) {
	closes := piecewise(40, [][2]float64{{0, 100}, {10, 120}, {20, 100}, {30, 120}, {39, 110}})
	ms := New().Detect(fromCloses(closes))
	dt := find(ms, models.PatternDoubleTop)
	if len(dt) != 1 {
		t.Fatalf("expected one double top, got %d", len(dt))
	}
	if dt[0].Signal != models.Bearish || dt[0].Level != 99.5 {
		t.Fatalf("unexpected match %+v", dt[0])
	}
	if !dt[0].Start.Equal(day0.AddDate(0, 0, 10)) || !dt[0].End.Equal(day0.AddDate(0, 0, 30)) {
		t.Fatalf("unexpected span %v..%v", dt[0].Start, dt[0].End)
	}
}

func TestHeadAndShoulders(t *testing.T) {
	closes := piecewise(45, [][2]float64{{0, 100}, {8, 115}, {14, 105}, {22, 125}, {30, 105}, {36, 115}, {44, 100}})
	hs := find(New().Detect(fromCloses(closes)), models.PatternHeadAndShoulders)
	if len(hs) != 1 || hs[0].Signal != models.Bearish {
		t.Fatalf("expected head and shoulders, got %+v", hs)
	}
}

func TestAscendingTriangle(t *testing.T) {
	s := make(models.Series, 40)
	for i := range s {
		h, l := 100.5, 99.5
		if i >= 20 {
			h = 110
			l = 95 + 13*float64(i-20)/19
		}
		c := (h + l) / 2
		s[i] = models.Candle{Date: day0.AddDate(0, 0, i), Open: c, High: h, Low: l, Close: c}
	}
	tri := find(New().Detect(s), models.PatternAscendingTriangle)
	if len(tri) != 1 || tri[0].Signal != models.Bullish {
		t.Fatalf("expected ascending triangle, got %+v", tri)
	}
}

func TestBullFlag(t *testing.T) {
	closes := piecewise(35, [][2]float64{{0, 100}, {24, 100}, {34, 120}})
	closes = append(closes, 119, 118.5, 118, 118.5, 118)
	flag := find(New().Detect(fromCloses(closes)), models.PatternBullFlag)
	if len(flag) != 1 || flag[0].Level != 120 {
		t.Fatalf("expected bull flag, got %+v", flag)
	}
}

func TestCupAndHandle(t *testing.T) {
	closes := make([]float64, 0, 60)
	for i := 0; i < 55; i++ {
		closes = append(closes, 100-20*math.Sin(math.Pi*float64(i)/54))
	}
	closes = append(closes, 98, 97.5, 97, 97.5, 98)
	cup := find(New().Detect(fromCloses(closes)), models.PatternCupAndHandle)
	if len(cup) != 1 || cup[0].Signal != models.Bullish {
		t.Fatalf("expected cup and handle, got %+v", cup)
	}
}

func TestGoldenCross(t *testing.T) {
	closes := piecewise(55, [][2]float64{{0, 110}, {54, 100}})
	closes = append(closes, 130, 140, 150, 160, 170)
	ms := New().Detect(fromCloses(closes))
	if len(find(ms, models.PatternGoldenCross)) != 1 {
		t.Fatalf("expected golden cross")
	}
	if len(find(ms, models.PatternDeathCross)) != 0 {
		t.Fatalf("unexpected death cross")
	}
}

// converging builds 40 candles: 20 flat bars, then highs and lows moving linearly from
// (h0, l0) to (h1, l1).
func converging(h0, h1, l0, l1 float64) models.Series {
	s := make(models.Series, 40)
	for i := range s {
		h, l := 100.5, 99.5
		if i >= 20 {
			f := float64(i-20) / 19
			h = h0 + (h1-h0)*f
			l = l0 + (l1-l0)*f
		}
		c := (h + l) / 2
		s[i] = models.Candle{Date: day0.AddDate(0, 0, i), Open: c, High: h, Low: l, Close: c}
	}
	return s
}

func TestTrendlineShapes(t *testing.T) {
	cases := []struct {
		name           string
		h0, h1, l0, l1 float64
		want           models.PatternType
		signal         models.Signal
	}{
		{"descending triangle", 110, 100, 95, 95, models.PatternDescendingTriangle, models.Bearish},
		{"symmetrical triangle", 110, 102, 90, 98, models.PatternSymmetricalTriangle, models.Neutral},
		{"rising wedge", 100, 104, 90, 100, models.PatternRisingWedge, models.Bearish},
		{"falling wedge", 110, 100, 100, 96, models.PatternFallingWedge, models.Bullish},
	}
	for _, tc := range cases {
		got := trendlines(converging(tc.h0, tc.h1, tc.l0, tc.l1))
		if len(got) != 1 {
			t.Errorf("%s: got %d matches", tc.name, len(got))
			continue
		}
		if got[0].Type != tc.want || got[0].Signal != tc.signal {
			t.Errorf("%s: got %s/%s, want %s/%s", tc.name, got[0].Type, got[0].Signal, tc.want, tc.signal)
		}
		if !got[0].Start.Equal(day0.AddDate(0, 0, 20)) || !got[0].End.Equal(day0.AddDate(0, 0, 39)) {
			t.Errorf("%s: span %v..%v", tc.name, got[0].Start, got[0].End)
		}
	}
}

func TestBearFlag(t *testing.T) {
	closes := piecewise(35, [][2]float64{{0, 120}, {24, 120}, {34, 100}})
	closes = append(closes, 101, 101.5, 102, 101.5, 102)
	ms := New().Detect(fromCloses(closes))
	flag := find(ms, models.PatternBearFlag)
	if len(flag) != 1 || flag[0].Level != 100 || flag[0].Signal != models.Bearish {
		t.Fatalf("expected bear flag, got %+v", flag)
	}
	if len(find(ms, models.PatternBullFlag)) != 0 {
		t.Fatalf("unexpected bull flag")
	}
}

func TestInverseHeadAndShoulders(t *testing.T) {
	closes := piecewise(45, [][2]float64{{0, 125}, {8, 110}, {14, 120}, {22, 100}, {30, 120}, {36, 110}, {44, 125}})
	ms := New().Detect(fromCloses(closes))
	ihs := find(ms, models.PatternInverseHeadAndShoulders)
	if len(ihs) != 1 || ihs[0].Signal != models.Bullish || ihs[0].Level != 120.5 {
		t.Fatalf("expected inverse head and shoulders, got %+v", ihs)
	}
	if !ihs[0].Start.Equal(day0.AddDate(0, 0, 8)) || !ihs[0].End.Equal(day0.AddDate(0, 0, 36)) {
		t.Fatalf("unexpected span %v..%v", ihs[0].Start, ihs[0].End)
	}
	if len(find(ms, models.PatternHeadAndShoulders)) != 0 {
		t.Fatalf("unexpected head and shoulders")
	}
}

func TestDoubleBottom(t *testing.T) {
	closes := piecewise(40, [][2]float64{{0, 120}, {10, 100}, {20, 120}, {30, 100}, {39, 110}})
	db := find(New().Detect(fromCloses(closes)), models.PatternDoubleBottom)
	if len(db) != 1 {
		t.Fatalf("expected one double bottom, got %d", len(db))
	}
	if db[0].Signal != models.Bullish || db[0].Level != 120.5 {
		t.Fatalf("unexpected match %+v", db[0])
	}
	if !db[0].Start.Equal(day0.AddDate(0, 0, 10)) || !db[0].End.Equal(day0.AddDate(0, 0, 30)) {
		t.Fatalf("unexpected span %v..%v", db[0].Start, db[0].End)
	}
}

func TestDeathCross(t *testing.T) {
	closes := piecewise(55, [][2]float64{{0, 100}, {54, 110}})
	closes = append(closes, 80, 70, 60, 50, 40)
	ms := New().Detect(fromCloses(closes))
	dc := find(ms, models.PatternDeathCross)
	if len(dc) != 1 || dc[0].Signal != models.Bearish {
		t.Fatalf("expected death cross, got %+v", dc)
	}
	if !dc[0].End.Equal(day0.AddDate(0, 0, 57)) {
		t.Fatalf("cross at %v, want day 57", dc[0].End)
	}
	if len(find(ms, models.PatternGoldenCross)) != 0 {
		t.Fatalf("unexpected golden cross")
	}
}
