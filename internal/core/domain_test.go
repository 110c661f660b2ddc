package core

import (
	"strings"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		GroupID:     1,
		PayerID:     2,
		Description: "Dinner",
		Amount:      Money{Cents: 6000},
		Method:      SplitEqual,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
	}{
		{"missing group", func(e *Expense) { e.GroupID = 0 }},
		{"missing payer", func(e *Expense) { e.PayerID = 0 }},
		{"empty description", func(e *Expense) { e.Description = "  " }},
		{"description too long", func(e *Expense) { e.Description = strings.Repeat("x", 201) }},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -1} }},
		{"bad method", func(e *Expense) { e.Method = "halfsies" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPaymentValidate(t *testing.T) {
	valid := Payment{GroupID: 1, PayerID: 2, PayeeID: 3, Amount: Money{Cents: 500}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid payment rejected: %v", err)
	}

	self := valid
	self.PayeeID = self.PayerID
	if err := self.Validate(); err == nil {
		t.Fatal("self payment should be rejected")
	}

	zero := valid
	zero.Amount = Money{}
	if err := zero.Validate(); err == nil {
		t.Fatal("zero amount should be rejected")
	}
}

func TestGroupValidate(t *testing.T) {
	valid := Group{Name: "Trip to NYC", CreatedBy: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid group rejected: %v", err)
	}
	if err := (Group{Name: " ", CreatedBy: 1}).Validate(); err == nil {
		t.Fatal("blank name should be rejected")
	}
	if err := (Group{Name: "x", CreatedBy: 0}).Validate(); err == nil {
		t.Fatal("missing creator should be rejected")
	}
}
