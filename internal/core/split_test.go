package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func pct(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func sumShares(shares []Share) int64 {
	var sum int64
	for _, s := range shares {
		sum += s.Amount.Cents
	}
	return sum
}

func TestCalculateSplitEqual(t *testing.T) {
	shares, err := CalculateSplit(Money{Cents: 1000}, SplitSpec{
		Method: SplitEqual,
		Participants: []SplitParticipant{
			{UserID: 1}, {UserID: 2}, {UserID: 3},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{334, 333, 333}
	for i, s := range shares {
		if s.Amount.Cents != want[i] {
			t.Fatalf("shares = %v, want %v", shares, want)
		}
	}
	if sumShares(shares) != 1000 {
		t.Fatalf("shares sum to %d, want 1000", sumShares(shares))
	}
}

func TestCalculateSplitEqualSingleParticipant(t *testing.T) {
	shares, err := CalculateSplit(Money{Cents: 777}, SplitSpec{
		Method:       SplitEqual,
		Participants: []SplitParticipant{{UserID: 9}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 1 || shares[0].Amount.Cents != 777 {
		t.Fatalf("single participant should take the full amount, got %v", shares)
	}
}

func TestCalculateSplitPercentage(t *testing.T) {
	shares, err := CalculateSplit(Money{Cents: 10000}, SplitSpec{
		Method: SplitPercentage,
		Participants: []SplitParticipant{
			{UserID: 1, Percent: pct(33.33)},
			{UserID: 2, Percent: pct(33.33)},
			{UserID: 3, Percent: pct(33.34)},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{3333, 3333, 3334}
	for i, s := range shares {
		if s.Amount.Cents != want[i] {
			t.Fatalf("shares = %v, want %v", shares, want)
		}
	}
	if sumShares(shares) != 10000 {
		t.Fatalf("shares sum to %d, want 10000", sumShares(shares))
	}
}

func TestCalculateSplitPercentageMustSumTo100(t *testing.T) {
	_, err := CalculateSplit(Money{Cents: 10000}, SplitSpec{
		Method: SplitPercentage,
		Participants: []SplitParticipant{
			{UserID: 1, Percent: pct(50)},
			{UserID: 2, Percent: pct(40)},
		},
	})
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// 0.01 tolerance is allowed
	_, err = CalculateSplit(Money{Cents: 10000}, SplitSpec{
		Method: SplitPercentage,
		Participants: []SplitParticipant{
			{UserID: 1, Percent: pct(50)},
			{UserID: 2, Percent: pct(50.01)},
		},
	})
	if err != nil {
		t.Fatalf("sum within tolerance should pass, got %v", err)
	}
}

func TestCalculateSplitExact(t *testing.T) {
	shares, err := CalculateSplit(Money{Cents: 2550}, SplitSpec{
		Method: SplitExact,
		Participants: []SplitParticipant{
			{UserID: 1, Amount: Money{Cents: 1000}},
			{UserID: 2, Amount: Money{Cents: 1550}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shares[0].Amount.Cents != 1000 || shares[1].Amount.Cents != 1550 {
		t.Fatalf("exact shares altered: %v", shares)
	}
}

func TestCalculateSplitExactMismatch(t *testing.T) {
	_, err := CalculateSplit(Money{Cents: 2550}, SplitSpec{
		Method: SplitExact,
		Participants: []SplitParticipant{
			{UserID: 1, Amount: Money{Cents: 1000}},
			{UserID: 2, Amount: Money{Cents: 1000}},
		},
	})
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculateSplitExactOneCentSlopIsReconciled(t *testing.T) {
	shares, err := CalculateSplit(Money{Cents: 1000}, SplitSpec{
		Method: SplitExact,
		Participants: []SplitParticipant{
			{UserID: 1, Amount: Money{Cents: 666}},
			{UserID: 2, Amount: Money{Cents: 333}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sumShares(shares) != 1000 {
		t.Fatalf("shares sum to %d, want exactly 1000", sumShares(shares))
	}
}

func TestCalculateSplitShares(t *testing.T) {
	shares, err := CalculateSplit(Money{Cents: 10000}, SplitSpec{
		Method: SplitShares,
		Participants: []SplitParticipant{
			{UserID: 1, Weight: 2},
			{UserID: 2, Weight: 1},
			{UserID: 3, Weight: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{5000, 2500, 2500}
	for i, s := range shares {
		if s.Amount.Cents != want[i] {
			t.Fatalf("shares = %v, want %v", shares, want)
		}
	}
}

func TestCalculateSplitSharesRejectsNonPositiveWeight(t *testing.T) {
	_, err := CalculateSplit(Money{Cents: 1000}, SplitSpec{
		Method: SplitShares,
		Participants: []SplitParticipant{
			{UserID: 1, Weight: 1},
			{UserID: 2, Weight: 0},
		},
	})
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculateSplitCustom(t *testing.T) {
	// $100: one fixed $20, one 50% of the remaining $80, one takes the rest.
	shares, err := CalculateSplit(Money{Cents: 10000}, SplitSpec{
		Method: SplitCustom,
		Participants: []SplitParticipant{
			{UserID: 1, Tag: TagAmount, Amount: Money{Cents: 2000}},
			{UserID: 2, Tag: TagPercent, Percent: pct(50)},
			{UserID: 3, Tag: TagNone},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{2000, 4000, 4000}
	for i, s := range shares {
		if s.Amount.Cents != want[i] {
			t.Fatalf("shares = %v, want %v", shares, want)
		}
	}
}

func TestCalculateSplitCustomFixedExceedsTotal(t *testing.T) {
	_, err := CalculateSplit(Money{Cents: 1000}, SplitSpec{
		Method: SplitCustom,
		Participants: []SplitParticipant{
			{UserID: 1, Tag: TagAmount, Amount: Money{Cents: 1500}},
			{UserID: 2, Tag: TagNone},
		},
	})
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculateSplitCustomPercentOver100(t *testing.T) {
	_, err := CalculateSplit(Money{Cents: 1000}, SplitSpec{
		Method: SplitCustom,
		Participants: []SplitParticipant{
			{UserID: 1, Tag: TagPercent, Percent: pct(80)},
			{UserID: 2, Tag: TagPercent, Percent: pct(30)},
		},
	})
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculateSplitCustomUnassignedRemainder(t *testing.T) {
	// Nobody takes the remainder and $50 is left over.
	_, err := CalculateSplit(Money{Cents: 10000}, SplitSpec{
		Method: SplitCustom,
		Participants: []SplitParticipant{
			{UserID: 1, Tag: TagAmount, Amount: Money{Cents: 2000}},
			{UserID: 2, Tag: TagPercent, Percent: pct(37.5)},
		},
	})
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculateSplitCustomMultipleNoneShareEvenly(t *testing.T) {
	shares, err := CalculateSplit(Money{Cents: 10000}, SplitSpec{
		Method: SplitCustom,
		Participants: []SplitParticipant{
			{UserID: 1, Tag: TagAmount, Amount: Money{Cents: 1000}},
			{UserID: 2, Tag: TagNone},
			{UserID: 3, Tag: TagNone},
			{UserID: 4, Tag: TagNone},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{1000, 3000, 3000, 3000}
	for i, s := range shares {
		if s.Amount.Cents != want[i] {
			t.Fatalf("shares = %v, want %v", shares, want)
		}
	}
}

func TestCalculateSplitRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		total Money
		spec  SplitSpec
	}{
		{"zero amount", Money{Cents: 0}, SplitSpec{Method: SplitEqual, Participants: []SplitParticipant{{UserID: 1}}}},
		{"negative amount", Money{Cents: -100}, SplitSpec{Method: SplitEqual, Participants: []SplitParticipant{{UserID: 1}}}},
		{"no participants", Money{Cents: 100}, SplitSpec{Method: SplitEqual}},
		{"duplicate participant", Money{Cents: 100}, SplitSpec{Method: SplitEqual, Participants: []SplitParticipant{{UserID: 1}, {UserID: 1}}}},
		{"unknown method", Money{Cents: 100}, SplitSpec{Method: "banana", Participants: []SplitParticipant{{UserID: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := CalculateSplit(tc.total, tc.spec); err == nil || !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCalculateSplitAlwaysSumsExactly(t *testing.T) {
	specs := []SplitSpec{
		{Method: SplitEqual, Participants: []SplitParticipant{{UserID: 1}, {UserID: 2}, {UserID: 3}, {UserID: 4}, {UserID: 5}, {UserID: 6}, {UserID: 7}}},
		{Method: SplitPercentage, Participants: []SplitParticipant{
			{UserID: 1, Percent: pct(12.5)}, {UserID: 2, Percent: pct(12.5)}, {UserID: 3, Percent: pct(75)},
		}},
		{Method: SplitShares, Participants: []SplitParticipant{
			{UserID: 1, Weight: 3}, {UserID: 2, Weight: 7}, {UserID: 3, Weight: 11},
		}},
	}
	totals := []int64{1, 99, 100, 101, 12345, 99999}
	for _, spec := range specs {
		for _, total := range totals {
			shares, err := CalculateSplit(Money{Cents: total}, spec)
			if err != nil {
				t.Fatalf("method %s total %d: %v", spec.Method, total, err)
			}
			if got := sumShares(shares); got != total {
				t.Fatalf("method %s total %d: shares sum to %d", spec.Method, total, got)
			}
			for _, s := range shares {
				if s.Amount.Cents < 0 {
					t.Fatalf("method %s total %d: negative share %v", spec.Method, total, s)
				}
			}
		}
	}
}
