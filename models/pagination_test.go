package models

import "testing"

func TestNewPagination_DefaultsAndPages(t *testing.T) {
	cases := []struct {
		page, limit   int
		total         int64
		expectedPage  int
		expectedLimit int
		expectedPages int
	}{
		{0, 0, 0, 1, 10, 0},
		{1, 10, 25, 1, 10, 3},
		{2, 10, 20, 2, 10, 2},
		{-1, 50, 49, 1, 50, 1},
	}
	for _, tc := range cases {
		p := NewPagination(tc.page, tc.limit, tc.total)
		if p.Page != tc.expectedPage || p.Limit != tc.expectedLimit || p.TotalPages != tc.expectedPages {
			t.Fatalf("NewPagination(%d, %d, %d) = %+v, expected page=%d limit=%d pages=%d",
				tc.page, tc.limit, tc.total, p, tc.expectedPage, tc.expectedLimit, tc.expectedPages)
		}
	}
}

func TestPagination_Offset(t *testing.T) {
	p := NewPagination(3, 20, 100)
	if p.Offset() != 40 {
		t.Fatalf("expected offset 40, got %d", p.Offset())
	}
}
