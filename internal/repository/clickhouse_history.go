package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	pkgch "MarketLens/pkg/clickhouse"
	applogger "MarketLens/pkg/logger"
	"MarketLens/pkg/util"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHHistory serves daily candles from the ClickHouse warehouse. It is slow and may lag the live
// providers, so it normally only takes part in the broadened pass.
type CHHistory struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHHistory(ch *pkgch.Client, table string) (*CHHistory, error) {
	return newCHHistory(ch.DB(), table)
}

func newCHHistory(db *sql.DB, table string) (*CHHistory, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &CHHistory{db: db, table: table}, nil
}

// SetLogger injects a structured logger.
func (s *CHHistory) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHHistory) Name() string { return "warehouse" }

func (s *CHHistory) Supports(models.AssetClass) bool { return true }

func (s *CHHistory) FetchHistory(ctx context.Context, q domrepo.HistoryQuery) (models.Series, error) {
	start := time.Now()
	const qtpl = `
        SELECT day, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND asset_class = ? AND day >= ? AND day <= ?
        ORDER BY day ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), q.Symbol, string(q.Class), util.Day(q.From), util.Day(q.To))
	if err != nil {
		s.logErr("query", q, err)
		return nil, fmt.Errorf("warehouse query: %w", err)
	}
	defer rows.Close()

	out := make(models.Series, 0, q.Days+1)
	for rows.Next() {
		var (
			day             time.Time
			o, h, l, c, vol sql.NullFloat64
		)
		if err := rows.Scan(&day, &o, &h, &l, &c, &vol); err != nil {
			s.logErr("scan", q, err)
			return nil, fmt.Errorf("warehouse scan: %w", err)
		}
		if !o.Valid || !h.Valid || !l.Valid || !c.Valid {
			continue
		}
		out = append(out, models.Candle{
			Date:   util.Day(day),
			Open:   o.Float64,
			High:   h.Float64,
			Low:    l.Float64,
			Close:  c.Float64,
			Volume: vol.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		s.logErr("rows", q, err)
		return nil, fmt.Errorf("warehouse rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("warehouse history ok",
			applogger.String("table", s.table),
			applogger.String("symbol", q.Symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHHistory) logErr(step string, q domrepo.HistoryQuery, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("warehouse history "+step+" error",
		applogger.String("table", s.table),
		applogger.String("symbol", q.Symbol),
		applogger.Error(err),
	)
}
