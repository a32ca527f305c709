package services

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"realty-backoffice/models"
)

// areaTokenTolerancePy is the half-width of the band a bare numeric search
// token matches against a listing's area: "47" hits areas in 46.5–47.5.
const areaTokenTolerancePy = 0.5

// FilterAndSort runs the roster pipeline over a snapshot of listing rows:
// mode gate, structured filters, free-text token search, range filters,
// then sorting. Pure: rows are never mutated and the same inputs always
// produce the same output.
func FilterAndSort(rows []models.Listing, f models.ListingFilters, mode models.ViewMode, opts models.FilterOptions) []models.Listing {
	out := make([]models.Listing, 0, len(rows))

	tokens := strings.Fields(strings.ToLower(f.Query))
	complexKeys := normalizedComplexKeys(f.Complexes)

	priceMin, priceMax := parseBound(f.PriceMin), parseBound(f.PriceMax)
	depositMin, depositMax := parseBound(f.DepositMin), parseBound(f.DepositMax)
	monthlyMin, monthlyMax := parseBound(f.MonthlyMin), parseBound(f.MonthlyMax)

	for _, row := range rows {
		if !passesMode(row, mode, opts) {
			continue
		}
		if !passesStructured(row, f, complexKeys) {
			continue
		}
		if !passesTokens(row, tokens) {
			continue
		}
		if !inRange(row.Price, priceMin, priceMax) ||
			!inRange(row.Deposit, depositMin, depositMax) ||
			!inRange(row.Monthly, monthlyMin, monthlyMax) {
			continue
		}
		out = append(out, row)
	}

	sortRows(out, f.Sort)
	return out
}

// passesMode is the lifecycle gate. "lead" bypasses all status filtering.
func passesMode(row models.Listing, mode models.ViewMode, opts models.FilterOptions) bool {
	if mode == models.ModeLead {
		return true
	}
	if row.DeletedAt > 0 {
		return false
	}

	closed := ListingClosed(row)
	switch mode {
	case models.ModeCompleted:
		return closed
	case models.ModeOurDeals:
		return closed && row.ClosedByUs
	default: // listings
		if closed {
			return false
		}
		if opts.AllowInactive {
			return true
		}
		if opts.ShowInactiveOnly {
			return row.Inactive
		}
		return !row.Inactive
	}
}

func passesStructured(row models.Listing, f models.ListingFilters, complexKeys map[string]struct{}) bool {
	if f.Type != models.TxUnknown && row.TransactionType() != f.Type {
		return false
	}
	if f.Ownership != "" && row.Ownership != f.Ownership {
		return false
	}
	if f.UrgentOnly && !row.Urgent {
		return false
	}
	if f.AssigneeID != "" && row.AssigneeID != f.AssigneeID {
		return false
	}
	if f.AreaPick != nil && (row.AreaPy == nil || *row.AreaPy != *f.AreaPick) {
		return false
	}
	if f.ComplexQuery != "" &&
		!strings.Contains(strings.ToLower(row.ComplexName), strings.ToLower(f.ComplexQuery)) {
		return false
	}
	if len(complexKeys) > 0 {
		if _, ok := complexKeys[complexKey(row.ComplexName)]; !ok {
			return false
		}
	}
	return true
}

// complexKey normalizes a complex/project name so formatting variants of
// the same building collapse into one bucket: lowercased, whitespace and
// punctuation stripped.
func complexKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizedComplexKeys(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	keys := make(map[string]struct{}, len(names))
	for _, n := range names {
		keys[complexKey(n)] = struct{}{}
	}
	return keys
}

// passesTokens is the free-text search: every token must match (AND), each
// against any haystack field. A bare number (optionally suffixed with the
// area unit) additionally matches the listing's area within a ±0.5 py band.
func passesTokens(row models.Listing, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}

	hay := haystack(row)
	for _, token := range tokens {
		if !matchToken(row, hay, token) {
			return false
		}
	}
	return true
}

func matchToken(row models.Listing, hay []string, token string) bool {
	for _, h := range hay {
		if strings.Contains(h, token) {
			return true
		}
	}

	if row.AreaPy != nil {
		if n, ok := parseAreaToken(token); ok {
			d := *row.AreaPy - n
			if d >= -areaTokenTolerancePy && d <= areaTokenTolerancePy {
				return true
			}
		}
	}
	return false
}

func parseAreaToken(token string) (float64, bool) {
	token = strings.TrimSuffix(strings.TrimSuffix(token, "평"), "py")
	if token == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func haystack(row models.Listing) []string {
	hay := []string{
		strings.ToLower(row.Title),
		strings.ToLower(row.ComplexName),
		strings.ToLower(row.Type),
		strings.ToLower(row.Owner),
		strings.ToLower(row.Agency),
		strings.ToLower(row.Memo),
		strings.ToLower(row.AssigneeID),
		strings.ToLower(row.ItemNo),
		strings.ToLower(row.Address),
		strings.ToLower(row.OwnerPhone),
		digitsOnly(row.OwnerPhone),
	}
	if row.Dong != "" || row.Ho != "" {
		hay = append(hay,
			row.Dong+"-"+row.Ho,
			row.Dong+"동 "+row.Ho+"호",
			row.Dong+" "+row.Ho,
		)
	}
	for _, k := range row.Keywords {
		hay = append(hay, strings.ToLower(k))
	}
	return hay
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseBound leniently parses a typed min/max string: thousands separators
// and stray spaces are stripped, anything unparsable means no bound.
func parseBound(s string) *int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// inRange applies inclusive bounds, but only when the row carries a value
// for the field.
func inRange(v *int64, min, max *int64) bool {
	if v == nil {
		return true
	}
	if min != nil && *v < *min {
		return false
	}
	if max != nil && *v > *max {
		return false
	}
	return true
}

// sortRows orders the filtered rows. With criteria set, rows are compared
// criterion by criterion, primary first, direction applied last. Without
// criteria the default order is urgent rows first, otherwise stable.
func sortRows(rows []models.Listing, criteria []models.SortCriterion) {
	criteria = validCriteria(criteria)

	if len(criteria) == 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Urgent && !rows[j].Urgent
		})
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, c := range criteria {
			cmp := compareByKey(rows[i], rows[j], c.Key)
			if cmp == 0 {
				continue
			}
			if c.Direction == models.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// validCriteria drops empty keys and enforces "at most two, no secondary
// without a primary".
func validCriteria(criteria []models.SortCriterion) []models.SortCriterion {
	if len(criteria) == 0 || criteria[0].Key == "" {
		return nil
	}
	out := criteria[:1]
	if len(criteria) > 1 && criteria[1].Key != "" {
		out = criteria[:2]
	}
	return out
}

// compareByKey compares two rows on one key in ascending sense. Numeric
// fields compare numerically with missing values first; text fields use
// digit-aware natural ordering; timestamps compare as epoch millis.
func compareByKey(a, b models.Listing, key models.SortKey) int {
	switch key {
	case models.SortPrice:
		return compareIntPtr(a.Price, b.Price)
	case models.SortDeposit:
		return compareIntPtr(a.Deposit, b.Deposit)
	case models.SortMonthly:
		return compareIntPtr(a.Monthly, b.Monthly)
	case models.SortArea:
		return compareFloatPtr(a.AreaPy, b.AreaPy)
	case models.SortComplex:
		return compareNatural(a.ComplexName, b.ComplexName)
	case models.SortTitle:
		return compareNatural(a.Title, b.Title)
	case models.SortItemNo:
		return compareNatural(a.ItemNo, b.ItemNo)
	case models.SortCreatedAt:
		return compareInt(models.EpochMillis(a.CreatedAt), models.EpochMillis(b.CreatedAt))
	case models.SortUpdatedAt:
		return compareInt(models.EpochMillis(a.UpdatedAt), models.EpochMillis(b.UpdatedAt))
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareIntPtr(a, b *int64) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	return compareInt(*a, *b)
}

func compareFloatPtr(a, b *float64) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	switch {
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// compareNatural compares text the way a human sorts item numbers: runs of
// digits compare by value, everything else case-insensitively.
func compareNatural(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for a != "" && b != "" {
		aChunk, aRest, aNum := chunk(a)
		bChunk, bRest, bNum := chunk(b)

		if aNum && bNum {
			an, _ := strconv.ParseInt(aChunk, 10, 64)
			bn, _ := strconv.ParseInt(bChunk, 10, 64)
			if c := compareInt(an, bn); c != 0 {
				return c
			}
		} else if c := strings.Compare(aChunk, bChunk); c != 0 {
			return c
		}
		a, b = aRest, bRest
	}
	return strings.Compare(a, b)
}

// chunk splits off the leading run of digits or non-digits.
func chunk(s string) (head, rest string, numeric bool) {
	if s == "" {
		return "", "", false
	}
	numeric = s[0] >= '0' && s[0] <= '9'
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		if isDigit != numeric {
			return s[:i], s[i:], numeric
		}
	}
	return s, "", numeric
}
