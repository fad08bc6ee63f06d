package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 5, 1, 5},
		{2, 1000, 2, MaxPageSize},
		{4, 10, 4, 10},
	}
	for _, tc := range cases {
		p, s := ClampPage(tc.page, tc.size)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("ClampPage(%d,%d) = (%d,%d); want (%d,%d)", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
}

func TestOffsetAndTotalPages(t *testing.T) {
	if got := Offset(3, 20); got != 40 {
		t.Fatalf("Offset = %d", got)
	}
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Fatalf("TotalPages(%d,%d) = %d; want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
