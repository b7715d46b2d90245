package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestKindForDelta_FollowsSign(t *testing.T) {
	cases := []struct {
		in       string
		expected PointKind
	}{
		{"10", PointKindBonus},
		{"0.0001", PointKindBonus},
		{"-3", PointKindDeduction},
		{"0", PointKindDeduction},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("NewFromString(%q) error: %v", tc.in, err)
		}
		if got := KindForDelta(d); got != tc.expected {
			t.Fatalf("KindForDelta(%s) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}

func TestPointFilter_OrderClause(t *testing.T) {
	cases := []struct {
		filter   PointFilter
		expected string
	}{
		{PointFilter{}, "seq ASC"},
		{PointFilter{SortDesc: true}, "seq DESC"},
		{PointFilter{SortBy: PointSortByDate}, "seq ASC"},
		{PointFilter{SortBy: PointSortByMagnitude}, "ABS(delta) ASC, seq ASC"},
		{PointFilter{SortBy: PointSortByMagnitude, SortDesc: true}, "ABS(delta) DESC, seq ASC"},
		{PointFilter{SortBy: PointSortByBalance, SortDesc: true}, "balance_after DESC, seq ASC"},
	}
	for _, tc := range cases {
		if got := tc.filter.OrderClause(); got != tc.expected {
			t.Fatalf("OrderClause(%+v) expected %q, got %q", tc.filter, tc.expected, got)
		}
	}
}
