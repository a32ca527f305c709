package services

import (
	"math"
	"sort"
	"strings"

	"realty-backoffice/models"
)

// areaPrefTolerancePy is how far a listing's area may sit from one of the
// buyer's discrete preferred sizes and still count as that size.
const areaPrefTolerancePy = 1.0

// DefaultMatchLimit is how many candidates a match view shows by default.
const DefaultMatchLimit = 10

// closedStatusWords is the vocabulary marking a status as terminal. Status
// text arrives in both English and Korean.
var closedStatusWords = []string{
	"deleted", "completed", "closed",
	"삭제", "완료", "거래완료", "계약완료", "거래종료",
}

// StatusClosed reports whether a status string names a closed/terminal state.
func StatusClosed(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return false
	}
	for _, w := range closedStatusWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ListingClosed reports whether a listing counts as closed: either it has a
// close timestamp or its status text is terminal.
func ListingClosed(l models.Listing) bool {
	return l.ClosedAt > 0 || StatusClosed(l.Status)
}

// BasicMatch is the gating predicate: can this buyer plausibly take this
// listing. Missing listing figures are treated as "no signal" and pass the
// gate optimistically; IsStrictMatch is the conservative counterpart.
func BasicMatch(b models.Buyer, l models.Listing) bool {
	if l.DeletedAt > 0 || StatusClosed(l.Status) {
		return false
	}

	tx := l.TransactionType()

	// Type: buyers with no preference accept any type.
	if prefs := b.TypePreferences(); len(prefs) > 0 {
		found := false
		for _, p := range prefs {
			if p == tx {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Area: only checked when the listing's area is known.
	if l.AreaPy != nil {
		area := *l.AreaPy
		if b.AreaMinPy != nil && area < *b.AreaMinPy {
			return false
		}
		if b.AreaMaxPy != nil && area > *b.AreaMaxPy {
			return false
		}
		if len(b.AreaPrefsPy) > 0 && !nearAnyPref(area, b.AreaPrefsPy) {
			return false
		}
	}

	// Price: the resolved comparison figure depends on the transaction type;
	// the monthly rent itself is capped separately.
	if tx == models.TxMonthly && b.MonthlyMax != nil && l.Monthly != nil && *l.Monthly > *b.MonthlyMax {
		return false
	}
	if cp := l.ComparePrice(); cp != nil {
		if b.BudgetMin != nil && *cp < *b.BudgetMin {
			return false
		}
		if b.BudgetMax != nil && *cp > *b.BudgetMax {
			return false
		}
	}

	return true
}

func nearAnyPref(area float64, prefs []float64) bool {
	for _, p := range prefs {
		if math.Abs(area-p) <= areaPrefTolerancePy {
			return true
		}
	}
	return false
}

// CalcMatchScore ranks a passing pair by how many constraint axes actually
// carried a signal: the buyer declared the constraint and the listing had
// the figure to check it against. Floored at 1 so any passing match ranks
// above a non-match. A rank key, not a confidence percentage.
func CalcMatchScore(b models.Buyer, l models.Listing) int {
	if !BasicMatch(b, l) {
		return 0
	}

	score := 0
	if len(b.TypePreferences()) > 0 {
		score++
	}
	if b.HasAreaConstraint() && l.AreaPy != nil {
		score++
	}
	if b.HasBudget() && l.ComparePrice() != nil {
		score++
	}
	if score < 1 {
		score = 1
	}
	return score
}

// IsStrictMatch is the all-or-nothing check used to flag entries, never to
// filter them out: every axis must be declared by the buyer, present on the
// listing, and satisfied. Unknown area or price passes BasicMatch but can
// never pass here.
func IsStrictMatch(b models.Buyer, l models.Listing) bool {
	if !BasicMatch(b, l) {
		return false
	}

	if len(b.TypePreferences()) == 0 {
		return false
	}

	if !b.HasAreaConstraint() || l.AreaPy == nil {
		return false
	}

	if !b.HasBudget() || l.ComparePrice() == nil {
		return false
	}

	// Bounds themselves were already enforced by the gate once the figures
	// are known to be present.
	return true
}

// MatchListingsForBuyer is the client-side fallback matcher, used when no
// server projection for the buyer has arrived yet. Output is sorted by score
// descending, ties kept in enumeration order, truncated to limit
// (limit <= 0 returns all).
func MatchListingsForBuyer(b models.Buyer, listings []models.Listing, limit int) []models.MatchEntry {
	var entries []models.MatchEntry
	for _, l := range listings {
		score := CalcMatchScore(b, l)
		if score == 0 {
			continue
		}
		entries = append(entries, models.MatchEntry{
			ID:     l.ID,
			Score:  score,
			Strict: IsStrictMatch(b, l),
		})
	}
	return sortAndTruncate(entries, limit)
}

// MatchBuyersForListing is the listing-side fallback matcher.
func MatchBuyersForListing(l models.Listing, buyers []models.Buyer, limit int) []models.MatchEntry {
	var entries []models.MatchEntry
	for _, b := range buyers {
		score := CalcMatchScore(b, l)
		if score == 0 {
			continue
		}
		entries = append(entries, models.MatchEntry{
			ID:     b.ID,
			Score:  score,
			Strict: IsStrictMatch(b, l),
		})
	}
	return sortAndTruncate(entries, limit)
}

func sortAndTruncate(entries []models.MatchEntry, limit int) []models.MatchEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
