package domain

import (
	"fmt"
	"strings"
)

// NameMatching selects how column names are compared by ordinal lookups.
// Drivers disagree on the case of reported names, so the rule is explicit.
type NameMatching int

const (
	// MatchExactThenFold tries an exact match first, then a case-insensitive one.
	MatchExactThenFold NameMatching = iota
	// MatchExact requires byte-for-byte equality.
	MatchExact
	// MatchFold compares with Unicode case folding.
	MatchFold
)

func (m NameMatching) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchFold:
		return "fold"
	default:
		return "exact-then-fold"
	}
}

// Find returns the index of name in names, or -1.
func (m NameMatching) Find(names []string, name string) int {
	if m != MatchFold {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		if m == MatchExact {
			return -1
		}
	}
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// ParseNameMatching parses "exact", "fold" or "exact-then-fold".
func ParseNameMatching(s string) (NameMatching, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "sensitive":
		return MatchExact, nil
	case "fold", "insensitive":
		return MatchFold, nil
	case "exact-then-fold", "":
		return MatchExactThenFold, nil
	default:
		return MatchExactThenFold, fmt.Errorf("invalid name matching %q: must be exact, fold, or exact-then-fold", s)
	}
}
