package chart

import (
	"fmt"
	"time"

	"crypto_track/internal/domain"

	"github.com/shopspring/decimal"
)

// Target point counts per range. Shorter inputs are plotted as-is,
// never padded.
const (
	WeekPoints  = 7
	MonthPoints = 4
	YearPoints  = 12
)

var (
	lowerMargin = decimal.RequireFromString("0.995")
	upperMargin = decimal.RequireFromString("1.005")
)

// Point is one plotted label/price pair
type Point struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// Series is a plottable view of a sparkline: the points actually drawn
// plus Y-axis bounds with a small padding margin.
type Series struct {
	Points []Point         `json:"points"`
	Min    decimal.Decimal `json:"min"` // min(plotted) * 0.995, zero when empty
	Max    decimal.Decimal `json:"max"` // max(plotted) * 1.005, zero when empty
}

// BuildSeries converts a chronological price sequence (index 0 = oldest)
// into the label/point pairs for the requested range. Pure: the input is
// never mutated and now only influences label text, never point selection.
func BuildSeries(prices []decimal.Decimal, r domain.TimeRange, now time.Time) Series {
	if len(prices) == 0 {
		return Series{Points: []Point{}, Min: decimal.Zero, Max: decimal.Zero}
	}

	var points []Point
	switch r {
	case domain.RangeMonth:
		points = monthSeries(prices)
	case domain.RangeYear:
		points = yearSeries(prices, now)
	default:
		points = weekSeries(prices, now)
	}

	min, max := bounds(points)
	return Series{Points: points, Min: min, Max: max}
}

// weekSeries plots the last 7 samples labeled by weekday, counted
// backward from now so the newest point carries today's abbreviation.
func weekSeries(prices []decimal.Decimal, now time.Time) []Point {
	tail := lastN(prices, WeekPoints)
	points := make([]Point, 0, len(tail))
	for i, p := range tail {
		day := now.AddDate(0, 0, -(len(tail) - 1 - i))
		points = append(points, Point{Label: day.Weekday().String()[:3], Price: p})
	}
	return points
}

// monthSeries plots the last 4 samples as a week-per-point view
func monthSeries(prices []decimal.Decimal) []Point {
	tail := lastN(prices, MonthPoints)
	points := make([]Point, 0, len(tail))
	for i, p := range tail {
		points = append(points, Point{Label: fmt.Sprintf("Week %d", i+1), Price: p})
	}
	return points
}

// yearSeries plots up to 12 evenly spaced samples at floor(i*len/12),
// labeled with month abbreviations counted backward from now.
func yearSeries(prices []decimal.Decimal, now time.Time) []Point {
	var sampled []decimal.Decimal
	if len(prices) <= YearPoints {
		sampled = prices
	} else {
		sampled = make([]decimal.Decimal, 0, YearPoints)
		for i := 0; i < YearPoints; i++ {
			sampled = append(sampled, prices[i*len(prices)/YearPoints])
		}
	}

	points := make([]Point, 0, len(sampled))
	for i, p := range sampled {
		// Modular month arithmetic; AddDate would overflow on day-31 dates
		back := len(sampled) - 1 - i
		idx := (int(now.Month()) - 1 - back) % 12
		if idx < 0 {
			idx += 12
		}
		points = append(points, Point{Label: time.Month(idx + 1).String()[:3], Price: p})
	}
	return points
}

func lastN(prices []decimal.Decimal, n int) []decimal.Decimal {
	if len(prices) <= n {
		return prices
	}
	return prices[len(prices)-n:]
}

func bounds(points []Point) (decimal.Decimal, decimal.Decimal) {
	if len(points) == 0 {
		return decimal.Zero, decimal.Zero
	}
	min, max := points[0].Price, points[0].Price
	for _, pt := range points[1:] {
		if pt.Price.LessThan(min) {
			min = pt.Price
		}
		if pt.Price.GreaterThan(max) {
			max = pt.Price
		}
	}
	return min.Mul(lowerMargin), max.Mul(upperMargin)
}
