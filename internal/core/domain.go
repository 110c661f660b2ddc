package core

import (
	"strings"
	"time"
)

type (
	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Group struct {
		ID          int64
		Name        string
		Description string
		JoinCode    string
		CreatedBy   int64
		CreatedAt   time.Time
	}

	// Expense is an immutable fact; corrections are new expenses.
	Expense struct {
		ID          int64
		GroupID     int64
		PayerID     int64
		Description string
		Amount      Money
		Currency    string
		Method      SplitMethod
		CreatedAt   time.Time
	}

	// ExpenseSplit is one participant's owed share of an expense. For a
	// given expense the split amounts sum exactly to the expense amount.
	ExpenseSplit struct {
		ID        int64
		ExpenseID int64
		UserID    int64
		Amount    Money
	}

	// Payment is a settle-up transfer from payer to payee within a group.
	Payment struct {
		ID          int64
		GroupID     int64
		PayerID     int64
		PayeeID     int64
		Description string
		Amount      Money
		CreatedAt   time.Time
	}
)

// DefaultCurrency tags amounts when the client does not send one. It is
// descriptive only; there is no conversion.
const DefaultCurrency = "USD"

const maxDescriptionLen = 200

func validDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len(s) > maxDescriptionLen {
		return validationf("description too long (max %d characters)", maxDescriptionLen)
	}
	return nil
}

func (g Group) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return validationf("empty group name")
	}
	if len(g.Name) > 64 {
		return validationf("group name too long (max 64 characters)")
	}
	if g.CreatedBy <= 0 {
		return validationf("group needs a creator")
	}
	return nil
}

func (e Expense) Validate() error {
	if e.GroupID <= 0 {
		return validationf("expense needs a group")
	}
	if e.PayerID <= 0 {
		return validationf("expense needs a payer")
	}
	if err := validDescription(e.Description); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	switch e.Method {
	case SplitEqual, SplitPercentage, SplitExact, SplitShares, SplitCustom:
	default:
		return validationf("unknown split method %q", e.Method)
	}
	return nil
}

func (p Payment) Validate() error {
	if p.GroupID <= 0 {
		return validationf("payment needs a group")
	}
	if p.PayerID <= 0 || p.PayeeID <= 0 {
		return validationf("payment needs a payer and a payee")
	}
	if p.PayerID == p.PayeeID {
		return validationf("cannot settle up with yourself")
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
