package core

import (
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12.344", 1234, false}, // rounds down
		{"12.345", 1235, false}, // half rounds up
		{"12.346", 1235, false}, // rounds up
		{"0.01", 1, false},
		{"7", 700, false},
		{".5", 50, false},
		{"", 0, true},
		{"0", 0, true},
		{"-3.00", 0, true},
		{"+3.00", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDecimalToCents(%q) expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimalToCents(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCentsFromFloat(t *testing.T) {
	cases := []struct {
		in      float64
		want    int64
		wantErr bool
	}{
		{25.50, 2550, false},
		{0.01, 1, false},
		{100, 10000, false},
		{0, 0, false},
		{12.345, 0, true},
		{-1.00, 0, true},
		{math.NaN(), 0, true},
		{math.Inf(1), 0, true},
	}
	for _, tc := range cases {
		got, err := CentsFromFloat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("CentsFromFloat(%v) expected error, got %d", tc.in, got)
			} else if !IsArithmetic(err) {
				t.Errorf("CentsFromFloat(%v) error is not arithmetic: %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("CentsFromFloat(%v) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("CentsFromFloat(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{5, "0.05"},
		{100, "1.00"},
		{-250, "-2.50"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.cents); got != tc.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestDistributeRemainder(t *testing.T) {
	cases := []struct {
		name   string
		shares []int64
		total  int64
		want   []int64
	}{
		{"already exact", []int64{500, 500}, 1000, []int64{500, 500}},
		{"one cent short, largest first", []int64{333, 333, 333}, 1000, []int64{334, 333, 333}},
		{"two cents short", []int64{333, 333, 333}, 1001, []int64{334, 334, 333}},
		{"one cent over", []int64{334, 334, 333}, 1000, []int64{333, 334, 333}},
		{"largest gets the cent", []int64{600, 300, 99}, 1000, []int64{601, 300, 99}},
		{"zero total zero shares", []int64{0, 0}, 0, []int64{0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DistributeRemainder(tc.shares, tc.total)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var sum int64
			for i := range got {
				sum += got[i]
				if got[i] != tc.want[i] {
					t.Fatalf("shares = %v, want %v", got, tc.want)
				}
			}
			if sum != tc.total {
				t.Fatalf("sum = %d, want %d", sum, tc.total)
			}
		})
	}

	t.Run("never produces a negative share", func(t *testing.T) {
		got, err := DistributeRemainder([]int64{2, 0, 0}, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, s := range got {
			if s < 0 {
				t.Fatalf("negative share in %v", got)
			}
		}
	})

	t.Run("negative total rejected", func(t *testing.T) {
		if _, err := DistributeRemainder([]int64{100}, -1); err == nil || !IsArithmetic(err) {
			t.Fatalf("expected arithmetic error, got %v", err)
		}
	})

	t.Run("impossible subtraction rejected", func(t *testing.T) {
		if _, err := DistributeRemainder([]int64{0, 0}, -0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := DistributeRemainder([]int64{}, 5); err == nil {
			t.Fatal("expected error distributing over zero shares")
		}
	})
}
