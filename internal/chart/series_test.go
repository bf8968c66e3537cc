package chart

import (
	"testing"
	"time"

	"crypto_track/internal/domain"

	"github.com/shopspring/decimal"
)

// fixed reference date: Wednesday, 2024-06-12
var testNow = time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)

func prices(vals ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, v := range vals {
		out = append(out, decimal.NewFromFloat(v))
	}
	return out
}

func ascending(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, decimal.NewFromInt(int64(i+1)))
	}
	return out
}

func TestBuildSeries_EmptyInput(t *testing.T) {
	for _, r := range []domain.TimeRange{domain.RangeWeek, domain.RangeMonth, domain.RangeYear} {
		s := BuildSeries(nil, r, testNow)
		if len(s.Points) != 0 {
			t.Errorf("range %s: expected empty series, got %d points", r, len(s.Points))
		}
		if !s.Min.IsZero() || !s.Max.IsZero() {
			t.Errorf("range %s: expected zero bounds, got %s/%s", r, s.Min, s.Max)
		}
	}
}

func TestBuildSeries_TargetPointCounts(t *testing.T) {
	input := ascending(168) // 7 days of hourly samples

	cases := []struct {
		r    domain.TimeRange
		want int
	}{
		{domain.RangeWeek, WeekPoints},
		{domain.RangeMonth, MonthPoints},
		{domain.RangeYear, YearPoints},
	}

	for _, tc := range cases {
		s := BuildSeries(input, tc.r, testNow)
		if len(s.Points) != tc.want {
			t.Errorf("range %s: got %d points, want %d", tc.r, len(s.Points), tc.want)
		}
	}
}

func TestBuildSeries_ShortInputNeverPadded(t *testing.T) {
	input := ascending(3)

	for _, r := range []domain.TimeRange{domain.RangeWeek, domain.RangeMonth, domain.RangeYear} {
		s := BuildSeries(input, r, testNow)
		if len(s.Points) != 3 {
			t.Errorf("range %s: got %d points, want all 3 available", r, len(s.Points))
		}
	}
}

func TestBuildSeries_NeverExceedsInputOrTarget(t *testing.T) {
	for _, n := range []int{1, 4, 7, 11, 12, 13, 24, 168} {
		input := ascending(n)
		for _, tc := range []struct {
			r      domain.TimeRange
			target int
		}{
			{domain.RangeWeek, WeekPoints},
			{domain.RangeMonth, MonthPoints},
			{domain.RangeYear, YearPoints},
		} {
			s := BuildSeries(input, tc.r, testNow)
			if len(s.Points) > n {
				t.Errorf("len=%d range=%s: %d points exceeds input length", n, tc.r, len(s.Points))
			}
			if len(s.Points) > tc.target {
				t.Errorf("len=%d range=%s: %d points exceeds target %d", n, tc.r, len(s.Points), tc.target)
			}
		}
	}
}

func TestBuildSeries_WeekTakesTailOldestFirst(t *testing.T) {
	input := ascending(10)
	s := BuildSeries(input, domain.RangeWeek, testNow)

	if len(s.Points) != 7 {
		t.Fatalf("got %d points, want 7", len(s.Points))
	}
	// last 7 of 1..10 are 4..10, chronological
	for i, pt := range s.Points {
		want := decimal.NewFromInt(int64(i + 4))
		if !pt.Price.Equal(want) {
			t.Errorf("point %d: price %s, want %s", i, pt.Price, want)
		}
	}
}

func TestBuildSeries_WeekdayLabels(t *testing.T) {
	s := BuildSeries(ascending(7), domain.RangeWeek, testNow)

	// testNow is a Wednesday; 7 labels counted backward end on Wed
	want := []string{"Thu", "Fri", "Sat", "Sun", "Mon", "Tue", "Wed"}
	for i, pt := range s.Points {
		if pt.Label != want[i] {
			t.Errorf("label %d = %q, want %q", i, pt.Label, want[i])
		}
	}
}

func TestBuildSeries_MonthLabels(t *testing.T) {
	s := BuildSeries(ascending(30), domain.RangeMonth, testNow)

	want := []string{"Week 1", "Week 2", "Week 3", "Week 4"}
	if len(s.Points) != 4 {
		t.Fatalf("got %d points, want 4", len(s.Points))
	}
	for i, pt := range s.Points {
		if pt.Label != want[i] {
			t.Errorf("label %d = %q, want %q", i, pt.Label, want[i])
		}
	}
}

func TestBuildSeries_YearSampling(t *testing.T) {
	input := ascending(168)
	s := BuildSeries(input, domain.RangeYear, testNow)

	if len(s.Points) != 12 {
		t.Fatalf("got %d points, want 12", len(s.Points))
	}
	// samples taken at floor(i*168/12) = i*14
	for i, pt := range s.Points {
		want := input[i*168/12]
		if !pt.Price.Equal(want) {
			t.Errorf("point %d: price %s, want %s", i, pt.Price, want)
		}
	}
	// newest label is the current month (June at testNow)
	if got := s.Points[11].Label; got != "Jun" {
		t.Errorf("newest year label = %q, want Jun", got)
	}
	if got := s.Points[0].Label; got != "Jul" {
		t.Errorf("oldest year label = %q, want Jul", got)
	}
}

func TestBuildSeries_Bounds(t *testing.T) {
	input := prices(100, 250, 50, 300)
	s := BuildSeries(input, domain.RangeMonth, testNow)

	wantMin := decimal.NewFromInt(50).Mul(decimal.RequireFromString("0.995"))
	wantMax := decimal.NewFromInt(300).Mul(decimal.RequireFromString("1.005"))

	if !s.Min.Equal(wantMin) {
		t.Errorf("Min = %s, want %s", s.Min, wantMin)
	}
	if !s.Max.Equal(wantMax) {
		t.Errorf("Max = %s, want %s", s.Max, wantMax)
	}

	for i, pt := range s.Points {
		if pt.Price.LessThan(s.Min) || pt.Price.GreaterThan(s.Max) {
			t.Errorf("point %d (%s) falls outside bounds [%s, %s]", i, pt.Price, s.Min, s.Max)
		}
	}
}

func TestBuildSeries_BoundsUseFilteredSeriesOnly(t *testing.T) {
	// A large spike outside the plotted tail must not widen the bounds
	input := append(prices(9999), ascending(7)...)
	s := BuildSeries(input, domain.RangeWeek, testNow)

	wantMax := decimal.NewFromInt(7).Mul(decimal.RequireFromString("1.005"))
	if !s.Max.Equal(wantMax) {
		t.Errorf("Max = %s, want %s (spike outside plotted window leaked in)", s.Max, wantMax)
	}
}

func TestBuildSeries_InputNotMutated(t *testing.T) {
	input := ascending(20)
	before := make([]decimal.Decimal, len(input))
	copy(before, input)

	BuildSeries(input, domain.RangeWeek, testNow)
	BuildSeries(input, domain.RangeYear, testNow)

	for i := range input {
		if !input[i].Equal(before[i]) {
			t.Fatalf("input[%d] mutated: %s -> %s", i, before[i], input[i])
		}
	}
}
