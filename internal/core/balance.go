package core

import "time"

// PairBalance is the net obligation between two users within one group.
// Amount is always strictly positive: the borrower owes the lender. At most
// one balance exists per unordered pair per group; a delta that would flip
// the sign swaps the roles instead of creating an opposing row.
type PairBalance struct {
	ID         int64
	GroupID    int64
	LenderID   int64
	BorrowerID int64
	Amount     Money
	UpdatedAt  time.Time
}

// Delta is one signed ledger mutation: the debtor's obligation to the
// creditor grows by Cents.
type Delta struct {
	GroupID    int64
	DebtorID   int64
	CreditorID int64
	Cents      int64
}

// ResolveDelta nets a delta into an existing pair balance and returns the
// new state. A nil existing balance means the pair currently owes nothing.
// A nil result means the balance reached exactly zero and the stored row
// must be deleted; no zero-amount rows persist.
//
// The rule is net settlement: if the creditor is already the owed party the
// amounts add; if the debtor is the owed party the amounts offset, and a
// negative result swaps lender and borrower.
func ResolveDelta(existing *PairBalance, d Delta) (*PairBalance, error) {
	if d.Cents <= 0 {
		return nil, validationf("delta amount must be positive")
	}
	if d.DebtorID == d.CreditorID {
		return nil, validationf("debtor and creditor must differ")
	}
	if d.DebtorID <= 0 || d.CreditorID <= 0 {
		return nil, validationf("invalid user id in delta")
	}

	if existing == nil {
		return &PairBalance{
			GroupID:    d.GroupID,
			LenderID:   d.CreditorID,
			BorrowerID: d.DebtorID,
			Amount:     Money{Cents: d.Cents},
		}, nil
	}
	if existing.GroupID != d.GroupID {
		return nil, validationf("delta group %d does not match balance group %d", d.GroupID, existing.GroupID)
	}
	samePair := (existing.LenderID == d.CreditorID && existing.BorrowerID == d.DebtorID) ||
		(existing.LenderID == d.DebtorID && existing.BorrowerID == d.CreditorID)
	if !samePair {
		return nil, validationf("delta pair does not match balance pair")
	}

	updated := *existing
	if existing.LenderID == d.CreditorID {
		updated.Amount.Cents += d.Cents
		return &updated, nil
	}

	net := existing.Amount.Cents - d.Cents
	switch {
	case net > 0:
		updated.Amount.Cents = net
	case net < 0:
		updated.LenderID, updated.BorrowerID = existing.BorrowerID, existing.LenderID
		updated.Amount.Cents = -net
	default:
		return nil, nil
	}
	return &updated, nil
}

// ExpenseDeltas turns the splits of an expense into ledger deltas: every
// non-payer participant owes the payer their share. The payer's own share
// and zero shares produce no delta.
func ExpenseDeltas(groupID, payerID int64, shares []Share) []Delta {
	deltas := make([]Delta, 0, len(shares))
	for _, s := range shares {
		if s.UserID == payerID || s.Amount.Cents == 0 {
			continue
		}
		deltas = append(deltas, Delta{
			GroupID:    groupID,
			DebtorID:   s.UserID,
			CreditorID: payerID,
			Cents:      s.Amount.Cents,
		})
	}
	return deltas
}

// PaymentDelta expresses a settle-up payment as the inverse of an expense
// delta: the payer paying the payee is netted as the payee now owing the
// payer, which cancels against the payer's existing debt. Paying more than
// is owed flips the relationship and the payee owes the excess.
func PaymentDelta(groupID, payerID, payeeID, cents int64) (Delta, error) {
	if cents <= 0 {
		return Delta{}, validationf("payment amount must be positive")
	}
	if payerID == payeeID {
		return Delta{}, validationf("cannot settle up with yourself")
	}
	return Delta{
		GroupID:    groupID,
		DebtorID:   payeeID,
		CreditorID: payerID,
		Cents:      cents,
	}, nil
}
