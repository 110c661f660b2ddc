// Package receipt extracts a suggested total from OCR'd receipt text.
//
// The suggestion is only ever a convenience for pre-filling an expense
// amount; it never feeds the ledger directly and the caller is free to
// ignore it.
package receipt

import (
	"regexp"
	"strings"

	"centsible/internal/core"
)

// amountPattern matches a currency amount with optional dollar sign and
// thousands separators, e.g. "$1,234.56" or "88.11".
var amountPattern = regexp.MustCompile(`\$?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// totalKeywords mark the line that most likely carries the receipt total,
// in priority order.
var totalKeywords = []string{
	"grand total",
	"balance due",
	"amount due",
	"total",
}

// ExtractAmountFromLine pulls the last currency amount out of a line.
// Returns the amount in cents and whether one was found.
func ExtractAmountFromLine(line string) (int64, bool) {
	matches := amountPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return 0, false
	}
	raw := matches[len(matches)-1][1]
	raw = strings.ReplaceAll(raw, ",", "")
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return 0, false
	}
	return cents, true
}

// FindTotalInText scans receipt text for the total amount.
//
// Lines mentioning a total keyword win, with "subtotal" variants excluded;
// if the keyword line itself carries no amount, the next non-empty line is
// tried (receipts often put the number on its own line). When no keyword
// matches at all, the largest amount in the text is returned as a guess.
func FindTotalInText(text string) (int64, bool) {
	lines := strings.Split(text, "\n")

	for _, keyword := range totalKeywords {
		for i, line := range lines {
			lower := strings.ToLower(line)
			if isSubtotal(lower) || !strings.Contains(lower, keyword) {
				continue
			}
			if cents, ok := ExtractAmountFromLine(line); ok {
				return cents, true
			}
			// Keyword line without a number: the amount may sit on the
			// following line.
			for j := i + 1; j < len(lines); j++ {
				if strings.TrimSpace(lines[j]) == "" {
					continue
				}
				if cents, ok := ExtractAmountFromLine(lines[j]); ok {
					return cents, true
				}
				break
			}
		}
	}

	var largest int64
	for _, line := range lines {
		if cents, ok := ExtractAmountFromLine(line); ok && cents > largest {
			largest = cents
		}
	}
	return largest, largest > 0
}

func isSubtotal(lower string) bool {
	normalized := strings.ReplaceAll(strings.ReplaceAll(lower, "-", ""), " ", "")
	return strings.Contains(normalized, "subtotal")
}
