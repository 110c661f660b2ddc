package core

import "sort"

// Read-side projections. Everything in this file is a pure function over
// ledger and record snapshots; re-running it on unchanged data yields
// identical output.

// GroupNet is one group's contribution to a user's net balance.
type GroupNet struct {
	GroupID  int64
	NetCents int64
}

// DashboardBalance is the top-level "how do I stand" view for a user.
// Positive net means the user is owed money overall.
type DashboardBalance struct {
	NetCents      int64
	OwedToMeCents int64
	OwedByMeCents int64
	Groups        []GroupNet
}

// CounterpartyAmount is a positive amount against one counterparty.
type CounterpartyAmount struct {
	UserID int64
	Cents  int64
}

// Breakdown partitions a user's balances in one group by direction, for the
// "you owe X" / "X owes you" tooltips.
type Breakdown struct {
	GroupID  int64
	NetCents int64
	OwedToMe []CounterpartyAmount
	OwedByMe []CounterpartyAmount
}

// SignedAmount returns a balance from userID's perspective: positive when
// userID is the lender, negative when the borrower, zero when uninvolved.
func SignedAmount(b PairBalance, userID int64) int64 {
	switch userID {
	case b.LenderID:
		return b.Amount.Cents
	case b.BorrowerID:
		return -b.Amount.Cents
	default:
		return 0
	}
}

// DashboardFromBalances folds a user's balance rows into the dashboard view.
// The per-group slice is ordered by group id for deterministic output.
func DashboardFromBalances(userID int64, balances []PairBalance) DashboardBalance {
	var out DashboardBalance
	perGroup := make(map[int64]int64)
	for _, b := range balances {
		signed := SignedAmount(b, userID)
		if signed == 0 {
			continue
		}
		out.NetCents += signed
		perGroup[b.GroupID] += signed
		if signed > 0 {
			out.OwedToMeCents += signed
		} else {
			out.OwedByMeCents += -signed
		}
	}
	for groupID, net := range perGroup {
		out.Groups = append(out.Groups, GroupNet{GroupID: groupID, NetCents: net})
	}
	sort.Slice(out.Groups, func(i, j int) bool {
		return out.Groups[i].GroupID < out.Groups[j].GroupID
	})
	return out
}

// BreakdownFromBalances partitions one group's balance rows by direction
// from userID's perspective. Counterparties are ordered by descending
// amount, ties by user id.
func BreakdownFromBalances(userID, groupID int64, balances []PairBalance) Breakdown {
	out := Breakdown{GroupID: groupID}
	for _, b := range balances {
		if b.GroupID != groupID {
			continue
		}
		signed := SignedAmount(b, userID)
		if signed == 0 {
			continue
		}
		out.NetCents += signed
		if signed > 0 {
			out.OwedToMe = append(out.OwedToMe, CounterpartyAmount{UserID: b.BorrowerID, Cents: signed})
		} else {
			out.OwedByMe = append(out.OwedByMe, CounterpartyAmount{UserID: b.LenderID, Cents: -signed})
		}
	}
	byAmount := func(s []CounterpartyAmount) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].Cents != s[j].Cents {
				return s[i].Cents > s[j].Cents
			}
			return s[i].UserID < s[j].UserID
		})
	}
	byAmount(out.OwedToMe)
	byAmount(out.OwedByMe)
	return out
}

// ActivityKind tags a feed entry.
type ActivityKind string

const (
	ActivityExpense ActivityKind = "expense"
	ActivityPayment ActivityKind = "payment"
)

// ActivityEntry is one line of the chronological feed.
type ActivityEntry struct {
	Kind        ActivityKind
	ID          int64
	GroupID     int64
	ActorID     int64
	Description string
	AmountCents int64
	CreatedAt   int64 // unix seconds
	Mine        bool  // the querying user created it
	Involved    bool  // the querying user pays or is paid by it
}

// ExpenseWithParticipants pairs an expense with the user ids that hold a
// split of it, which is what involvement is judged against.
type ExpenseWithParticipants struct {
	Expense        Expense
	ParticipantIDs []int64
}

// MergeActivity merges expenses and payments into one feed, newest first,
// annotated with ownership and involvement for userID. Ties on timestamp
// are broken by kind then id so the feed is stable.
func MergeActivity(userID int64, expenses []ExpenseWithParticipants, payments []Payment) []ActivityEntry {
	entries := make([]ActivityEntry, 0, len(expenses)+len(payments))
	for _, e := range expenses {
		involved := e.Expense.PayerID == userID
		for _, id := range e.ParticipantIDs {
			if id == userID {
				involved = true
				break
			}
		}
		entries = append(entries, ActivityEntry{
			Kind:        ActivityExpense,
			ID:          e.Expense.ID,
			GroupID:     e.Expense.GroupID,
			ActorID:     e.Expense.PayerID,
			Description: e.Expense.Description,
			AmountCents: e.Expense.Amount.Cents,
			CreatedAt:   e.Expense.CreatedAt.Unix(),
			Mine:        e.Expense.PayerID == userID,
			Involved:    involved,
		})
	}
	for _, p := range payments {
		entries = append(entries, ActivityEntry{
			Kind:        ActivityPayment,
			ID:          p.ID,
			GroupID:     p.GroupID,
			ActorID:     p.PayerID,
			Description: p.Description,
			AmountCents: p.Amount.Cents,
			CreatedAt:   p.CreatedAt.Unix(),
			Mine:        p.PayerID == userID,
			Involved:    p.PayerID == userID || p.PayeeID == userID,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		if a.Kind != b.Kind {
			return a.Kind == ActivityExpense
		}
		return a.ID > b.ID
	})
	return entries
}
