package core

import (
	"github.com/shopspring/decimal"
)

// SplitMethod selects the rule used to divide an expense among participants.
type SplitMethod string

const (
	SplitEqual      SplitMethod = "equal"
	SplitPercentage SplitMethod = "percentage"
	SplitExact      SplitMethod = "exact"
	SplitShares     SplitMethod = "shares"
	SplitCustom     SplitMethod = "custom"
)

// CustomTag classifies a participant inside a custom split.
type CustomTag string

const (
	// TagAmount fixes the participant's share to a literal amount.
	TagAmount CustomTag = "amount"
	// TagPercent assigns a percentage of what remains after fixed amounts.
	TagPercent CustomTag = "percent"
	// TagNone splits whatever is left evenly among all none-tagged participants.
	TagNone CustomTag = "none"
)

// SplitParticipant carries the per-method parameter for one participant.
// The fields read by the calculator depend on SplitSpec.Method:
// Percent for percentage (and custom percent-tagged), Amount for exact (and
// custom amount-tagged), Weight for shares, Tag for custom.
type SplitParticipant struct {
	UserID  int64
	Percent decimal.Decimal
	Amount  Money
	Weight  int64
	Tag     CustomTag
}

// SplitSpec is the validated, tagged-variant form of a split request.
// Participant order matters: it fixes the remainder distribution order.
type SplitSpec struct {
	Method       SplitMethod
	Participants []SplitParticipant
}

// Share is one participant's computed slice of an expense.
type Share struct {
	UserID int64
	Amount Money
}

// percentTolerance is the slack allowed when percentages are checked
// against 100.
var (
	percentTolerance = decimal.NewFromFloat(0.01)
	hundred          = decimal.NewFromInt(100)
)

// exactToleranceCents is the slack allowed when exact amounts are checked
// against the expense total.
const exactToleranceCents = int64(1)

// CalculateSplit divides total among the participants according to the
// split method.
//
// The returned shares follow participant order and always sum to exactly
// total.Cents; any rounding residue is folded back in via
// DistributeRemainder. A payer appearing among the participants gets a share
// like anyone else - excluding the payer's share from ledger deltas is the
// caller's job.
func CalculateSplit(total Money, spec SplitSpec) ([]Share, error) {
	if total.Cents <= 0 {
		return nil, validationf("amount must be positive")
	}
	if len(spec.Participants) == 0 {
		return nil, ErrNoParticipants
	}
	seen := make(map[int64]bool, len(spec.Participants))
	for _, p := range spec.Participants {
		if p.UserID <= 0 {
			return nil, validationf("invalid participant id %d", p.UserID)
		}
		if seen[p.UserID] {
			return nil, validationf("duplicate participant %d", p.UserID)
		}
		seen[p.UserID] = true
	}

	var (
		cents []int64
		err   error
	)
	switch spec.Method {
	case SplitEqual:
		cents, err = equalCents(total.Cents, len(spec.Participants))
	case SplitPercentage:
		cents, err = percentageCents(total.Cents, spec.Participants)
	case SplitExact:
		cents, err = exactCents(total.Cents, spec.Participants)
	case SplitShares:
		cents, err = weightedCents(total.Cents, spec.Participants)
	case SplitCustom:
		cents, err = customCents(total.Cents, spec.Participants)
	default:
		return nil, validationf("unknown split method %q", spec.Method)
	}
	if err != nil {
		return nil, err
	}

	shares := make([]Share, len(spec.Participants))
	for i, p := range spec.Participants {
		shares[i] = Share{UserID: p.UserID, Amount: Money{Cents: cents[i]}}
	}
	return shares, nil
}

// equalCents rounds total/n per participant, then distributes the leftover
// cents in participant order.
func equalCents(total int64, n int) ([]int64, error) {
	per := roundToCents(centsToDecimal(total).Div(decimal.NewFromInt(int64(n))))
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = per
	}
	return DistributeRemainder(shares, total)
}

func percentageCents(total int64, parts []SplitParticipant) ([]int64, error) {
	sum := decimal.Zero
	for _, p := range parts {
		if p.Percent.IsNegative() {
			return nil, validationf("negative percentage for participant %d", p.UserID)
		}
		sum = sum.Add(p.Percent)
	}
	if sum.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return nil, validationf("percentages sum to %s, expected 100", sum.String())
	}
	shares := make([]int64, len(parts))
	for i, p := range parts {
		shares[i] = roundToCents(centsToDecimal(total).Mul(p.Percent).Div(hundred))
	}
	return DistributeRemainder(shares, total)
}

func exactCents(total int64, parts []SplitParticipant) ([]int64, error) {
	shares := make([]int64, len(parts))
	var sum int64
	for i, p := range parts {
		if p.Amount.Cents < 0 {
			return nil, validationf("negative amount for participant %d", p.UserID)
		}
		shares[i] = p.Amount.Cents
		sum += p.Amount.Cents
	}
	if diff := sum - total; diff > exactToleranceCents || diff < -exactToleranceCents {
		return nil, validationf("exact amounts sum to %s, expected %s", FormatCents(sum), FormatCents(total))
	}
	// A one-cent slop is tolerated on input but the stored splits must sum
	// exactly to the expense total.
	return DistributeRemainder(shares, total)
}

func weightedCents(total int64, parts []SplitParticipant) ([]int64, error) {
	var weightSum int64
	for _, p := range parts {
		if p.Weight <= 0 {
			return nil, validationf("participant %d needs a positive share weight", p.UserID)
		}
		weightSum += p.Weight
	}
	shares := make([]int64, len(parts))
	for i, p := range parts {
		raw := centsToDecimal(total).
			Mul(decimal.NewFromInt(p.Weight)).
			Div(decimal.NewFromInt(weightSum))
		shares[i] = roundToCents(raw)
	}
	return DistributeRemainder(shares, total)
}

// customCents allocates fixed amounts first, then percentages of the
// remainder, then splits whatever is left evenly among none-tagged
// participants.
func customCents(total int64, parts []SplitParticipant) ([]int64, error) {
	shares := make([]int64, len(parts))

	var fixed int64
	for i, p := range parts {
		if p.Tag == TagAmount {
			if p.Amount.Cents < 0 {
				return nil, validationf("negative amount for participant %d", p.UserID)
			}
			shares[i] = p.Amount.Cents
			fixed += p.Amount.Cents
		}
	}
	if fixed > total {
		return nil, validationf("fixed amounts %s exceed expense total %s", FormatCents(fixed), FormatCents(total))
	}
	remaining := total - fixed

	pctSum := decimal.Zero
	var pctIdx []int
	for i, p := range parts {
		if p.Tag == TagPercent {
			if p.Percent.IsNegative() {
				return nil, validationf("negative percentage for participant %d", p.UserID)
			}
			pctSum = pctSum.Add(p.Percent)
			pctIdx = append(pctIdx, i)
		}
	}
	if pctSum.GreaterThan(hundred.Add(percentTolerance)) {
		return nil, validationf("custom percentages sum to %s, expected at most 100", pctSum.String())
	}
	var allocated int64 = fixed
	for _, i := range pctIdx {
		shares[i] = roundToCents(centsToDecimal(remaining).Mul(parts[i].Percent).Div(hundred))
		allocated += shares[i]
	}

	var noneIdx []int
	for i, p := range parts {
		switch p.Tag {
		case TagAmount, TagPercent, TagNone:
		default:
			return nil, validationf("participant %d has unknown custom tag %q", p.UserID, p.Tag)
		}
		if p.Tag == TagNone {
			noneIdx = append(noneIdx, i)
		}
	}

	leftover := total - allocated
	switch {
	case len(noneIdx) > 0 && leftover >= 0:
		split, err := equalCents(leftover, len(noneIdx))
		if err != nil {
			return nil, err
		}
		for j, i := range noneIdx {
			shares[i] = split[j]
		}
	case len(noneIdx) > 0:
		// Percentage rounding overshot the remainder; claw the cents back
		// from the percent shares, none-tagged participants get nothing.
		pctShares := make([]int64, len(pctIdx))
		var pctTotal int64
		for j, i := range pctIdx {
			pctShares[j] = shares[i]
			pctTotal += shares[i]
		}
		adjusted, err := DistributeRemainder(pctShares, pctTotal+leftover)
		if err != nil {
			return nil, err
		}
		for j, i := range pctIdx {
			shares[i] = adjusted[j]
		}
	case leftover > exactToleranceCents || leftover < -exactToleranceCents:
		return nil, validationf("custom split leaves %s unallocated and no participant takes the remainder", FormatCents(leftover))
	case leftover != 0:
		return DistributeRemainder(shares, total)
	}

	return shares, nil
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
