package services

import (
	"sync"

	"realty-backoffice/models"
	"realty-backoffice/store"
	"realty-backoffice/utils"
)

// DefaultCountThreshold is the minimum score an entry needs to count toward
// the per-listing match badge.
const DefaultCountThreshold = 5

// matchCountCap caps the badge so the UI never renders more than "10+".
const matchCountCap = 10

// MatchIndex derives the byBuyer / byListing lookup maps from the two match
// projection stores. The maps are rebuilt lazily: a read first checks the
// stores' version counters and only recomputes when either moved (or after
// an explicit MarkDirty following an optimistic local write). A burst of
// feed events therefore costs one rebuild on the next read, not N.
type MatchIndex struct {
	listingProj *store.ReactiveStore[models.MatchListing]
	buyerProj   *store.ReactiveStore[models.BuyerMatchSnapshot]
	logger      *utils.Logger

	mu                  sync.Mutex
	byListing           map[string][]models.MatchEntry
	byBuyer             map[string][]models.MatchEntry
	builtListingVersion uint64
	builtBuyerVersion   uint64
	built               bool
	dirty               bool
}

func NewMatchIndex(
	listingProj *store.ReactiveStore[models.MatchListing],
	buyerProj *store.ReactiveStore[models.BuyerMatchSnapshot],
	logger *utils.Logger,
) *MatchIndex {
	return &MatchIndex{
		listingProj: listingProj,
		buyerProj:   buyerProj,
		logger:      logger,
		byListing:   map[string][]models.MatchEntry{},
		byBuyer:     map[string][]models.MatchEntry{},
	}
}

// MarkDirty forces a rebuild on the next read. Used after optimistic local
// writes whose server-side recompute has not round-tripped yet.
func (ix *MatchIndex) MarkDirty() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dirty = true
}

// ensure rebuilds the maps if either projection store moved. Caller must
// hold ix.mu.
func (ix *MatchIndex) ensure() {
	lv := ix.listingProj.Version()
	bv := ix.buyerProj.Version()
	if ix.built && !ix.dirty && lv == ix.builtListingVersion && bv == ix.builtBuyerVersion {
		return
	}

	byListing := make(map[string][]models.MatchEntry)
	for _, row := range ix.listingProj.GetAll() {
		byListing[row.ID] = row.Source().Resolve()
	}

	byBuyer := make(map[string][]models.MatchEntry)
	for _, row := range ix.buyerProj.GetAll() {
		byBuyer[row.ID] = row.Source().Resolve()
	}

	ix.byListing = byListing
	ix.byBuyer = byBuyer
	ix.builtListingVersion = lv
	ix.builtBuyerVersion = bv
	ix.built = true
	ix.dirty = false
	ix.logger.Debug("[matchindex] rebuilt: %d listings, %d buyers (v%d/v%d)",
		len(byListing), len(byBuyer), lv, bv)
}

// GetForBuyer returns the buyer's match entries, best first. limit <= 0
// returns all. The result is the caller's copy.
func (ix *MatchIndex) GetForBuyer(buyerID string, limit int) []models.MatchEntry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ensure()
	return take(ix.byBuyer[buyerID], limit)
}

// GetForListing returns the listing's match entries, best first.
func (ix *MatchIndex) GetForListing(listingID string, limit int) []models.MatchEntry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ensure()
	return take(ix.byListing[listingID], limit)
}

// GetCountForListing counts entries scoring at least threshold, capped at 10
// for badge display.
func (ix *MatchIndex) GetCountForListing(listingID string, threshold int) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ensure()

	n := 0
	for _, e := range ix.byListing[listingID] {
		if e.Score >= threshold {
			n++
			if n == matchCountCap {
				break
			}
		}
	}
	return n
}

// take copies up to limit entries without exposing the cached slice.
func take(entries []models.MatchEntry, limit int) []models.MatchEntry {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]models.MatchEntry, len(entries))
	copy(out, entries)
	return out
}
