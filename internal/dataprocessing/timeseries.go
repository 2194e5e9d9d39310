package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fdicbanks/pkg/contracts/domain"
)

// Strategy selects how as-of counts are computed. Both produce identical
// series.
type Strategy string

const (
	// StrategySweep sorts the dates once and binary-searches each month.
	StrategySweep Strategy = "sweep"
	// StrategyScan rescans every record for every month, O(months x records).
	StrategyScan Strategy = "scan"
)

// ParseStrategy maps a config value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySweep, "":
		return StrategySweep, nil
	case StrategyScan:
		return StrategyScan, nil
	default:
		return "", fmt.Errorf("unknown series strategy %q", s)
	}
}

// SeriesBuilder derives the monthly activity series from cleaned records.
type SeriesBuilder struct {
	strategy Strategy
	now      func() time.Time
	logger   *slog.Logger
}

// NewSeriesBuilder creates a builder. A nil clock uses time.Now and a nil
// logger falls back to slog.Default.
func NewSeriesBuilder(strategy Strategy, now func() time.Time, logger *slog.Logger) *SeriesBuilder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if strategy == "" {
		strategy = StrategySweep
	}
	return &SeriesBuilder{strategy: strategy, now: now, logger: logger}
}

// MonthStart truncates t to the first instant of its month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthGrid returns first-of-month timestamps from the month containing
// start through the month containing end, inclusive. It is empty when start
// falls after end.
func MonthGrid(start, end time.Time) []time.Time {
	first, last := MonthStart(start), MonthStart(end)
	if first.After(last) {
		return nil
	}
	n := (last.Year()-first.Year())*12 + int(last.Month()-first.Month()) + 1
	grid := make([]time.Time, 0, n)
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		grid = append(grid, m)
	}
	return grid
}

// Build computes the series over every month from the earliest
// establishment date to the month containing now. No dated records, or an
// earliest date in the future, yield an empty series.
func (b *SeriesBuilder) Build(records []domain.InstitutionRecord) (domain.MonthlyActivitySeries, error) {
	now := b.now()

	earliest, ok := earliestEstablishment(records)
	var grid []time.Time
	if ok {
		grid = MonthGrid(earliest, now)
	}

	var established, closed []int
	switch b.strategy {
	case StrategyScan:
		established, closed = scanCounts(grid, records)
	case StrategySweep:
		established, closed = sweepCounts(grid, records)
	default:
		return domain.MonthlyActivitySeries{}, fmt.Errorf("unknown series strategy %q", b.strategy)
	}

	series, err := domain.NewMonthlyActivitySeries(grid, established, closed)
	if err != nil {
		return domain.MonthlyActivitySeries{}, err
	}

	attrs := []any{
		slog.String("strategy", string(b.strategy)),
		slog.Int("records", len(records)),
		slog.Int("months", series.Len()),
	}
	if series.Len() > 0 {
		attrs = append(attrs,
			slog.String("first_month", grid[0].Format("2006-01")),
			slog.String("last_month", grid[len(grid)-1].Format("2006-01")))
	}
	b.logger.Info("Built monthly activity series", attrs...)

	return series, nil
}

func earliestEstablishment(records []domain.InstitutionRecord) (time.Time, bool) {
	var (
		first time.Time
		found bool
	)
	for _, r := range records {
		if !r.Established.Valid {
			continue
		}
		if !found || r.Established.Time.Before(first) {
			first = r.Established.Time
			found = true
		}
	}
	return first, found
}

// scanCounts evaluates every month against every record.
func scanCounts(grid []time.Time, records []domain.InstitutionRecord) ([]int, []int) {
	established := make([]int, len(grid))
	closed := make([]int, len(grid))
	for i, t := range grid {
		for _, r := range records {
			if r.IsEstablishedBefore(t) {
				established[i]++
			}
			if r.IsClosedBefore(t) {
				closed[i]++
			}
		}
	}
	return established, closed
}

// sweepCounts sorts the qualifying dates once; the as-of count for month t
// is the number of dates strictly before t.
func sweepCounts(grid []time.Time, records []domain.InstitutionRecord) ([]int, []int) {
	var estDates, closeDates []time.Time
	for _, r := range records {
		if r.Established.Valid {
			estDates = append(estDates, r.Established.Time)
		}
		if r.Inactive.Valid && r.Inactive.Bool && r.Closed.Valid {
			closeDates = append(closeDates, r.Closed.Time)
		}
	}
	sortTimes(estDates)
	sortTimes(closeDates)

	established := make([]int, len(grid))
	closed := make([]int, len(grid))
	for i, t := range grid {
		established[i] = countBefore(estDates, t)
		closed[i] = countBefore(closeDates, t)
	}
	return established, closed
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}

func countBefore(sorted []time.Time, t time.Time) int {
	return sort.Search(len(sorted), func(i int) bool { return !sorted[i].Before(t) })
}
